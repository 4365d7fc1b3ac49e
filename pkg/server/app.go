package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/internal/usecase"
	"AlphaPulse/pkg/config"
	xhttp "AlphaPulse/pkg/http"
	applogger "AlphaPulse/pkg/logger"
)

// App encapsulates the application lifecycle for every run mode.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	pipeline *usecase.Pipeline
	monitor  *usecase.Monitor
	handler  xhttp.Handler
	feed     drepo.FeedPublisher

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. monitor and feed
// may be nil when their modes or features are disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	monitor *usecase.Monitor,
	handler xhttp.Handler,
	feed drepo.FeedPublisher,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		pipeline: pipeline,
		monitor:  monitor,
		handler:  handler,
		feed:     feed,
	}
}

// Run executes the requested mode and blocks until it finishes or a
// shutdown signal arrives.
//
//	tick    run one pipeline pass and exit
//	loop    run the pipeline on an interval, with the API served alongside
//	serve   serve the read-only API only
//	monitor watch live prices and alert on threshold breaches
func (a *App) Run(mode string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.closeFeed()

	switch mode {
	case "tick":
		return a.runTick(ctx)
	case "loop":
		return a.runLoop(ctx)
	case "serve":
		return a.runServe(ctx)
	case "monitor":
		return a.runMonitor(ctx)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func (a *App) runTick(ctx context.Context) error {
	_, err := a.pipeline.RunTick(ctx, time.Now().UTC())
	return err
}

func (a *App) runLoop(ctx context.Context) error {
	a.startHTTP()
	defer a.stopHTTP()

	a.log.Info("pipeline loop started",
		applogger.Duration("interval", a.cfg.Loop.Interval))

	if _, err := a.pipeline.RunTick(ctx, time.Now().UTC()); err != nil {
		a.log.Error("tick failed", applogger.Error(err))
	}

	ticker := time.NewTicker(a.cfg.Loop.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			return nil
		case <-ticker.C:
			if _, err := a.pipeline.RunTick(ctx, time.Now().UTC()); err != nil {
				a.log.Error("tick failed", applogger.Error(err))
			}
		}
	}
}

func (a *App) runServe(ctx context.Context) error {
	a.startHTTP()
	defer a.stopHTTP()

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return nil
}

func (a *App) runMonitor(ctx context.Context) error {
	if a.monitor == nil {
		return fmt.Errorf("monitor mode requires a notifier, none configured")
	}
	a.log.Info("price monitor started")
	if err := a.monitor.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (a *App) startHTTP() {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	_ = a.httpServer.Start()
}

func (a *App) stopHTTP() {
	if a.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
}

func (a *App) closeFeed() {
	if a.feed == nil {
		return
	}
	if err := a.feed.Close(); err != nil {
		a.log.Error("feed close error", applogger.Error(err))
	}
}
