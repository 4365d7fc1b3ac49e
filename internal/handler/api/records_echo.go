package api

import (
	"time"

	models "AlphaPulse/internal/domain/models"
	domrepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/internal/usecase"
	xhttp "AlphaPulse/pkg/http"
	xlogger "AlphaPulse/pkg/logger"
	"AlphaPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// RecordsEchoHandler serves the read-only accessor endpoints over the
// record store and the prediction ledger.
type RecordsEchoHandler struct {
	logger   *xlogger.Logger
	records  domrepo.RecordStore
	ledger   *usecase.Ledger
	reporter *usecase.Reporter
	assets   []string
}

func NewRecordsEchoHandler(
	logger *xlogger.Logger,
	records domrepo.RecordStore,
	ledger *usecase.Ledger,
	reporter *usecase.Reporter,
	assets []string,
) *RecordsEchoHandler {
	return &RecordsEchoHandler{
		logger:   logger,
		records:  records,
		ledger:   ledger,
		reporter: reporter,
		assets:   assets,
	}
}

func (h *RecordsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/observations", h.Observations)
	g.GET("/summaries", h.Summaries)
	g.GET("/accuracy", h.Accuracy)
	g.GET("/predictions/latest", h.LatestPrediction)
	g.GET("/report", h.Report)
}

func (h *RecordsEchoHandler) Observations(c echo.Context) error {
	req := &models.ObservationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	obs, err := h.records.QueryObservations(c.Request().Context(), domrepo.ObservationQuery{
		Asset:  req.Asset,
		Source: models.Source(req.Source),
		Since:  util.ParseTimeDefault(req.From, time.Time{}),
		Until:  util.ParseTimeDefault(req.To, time.Time{}),
	})
	if err != nil {
		h.logger.Error("observations query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(obs) > req.Limit {
		obs = obs[len(obs)-req.Limit:]
	}
	return xhttp.ListResponse(c, obs, int64(len(obs)))
}

func (h *RecordsEchoHandler) Summaries(c echo.Context) error {
	req := &models.SummariesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.records.QuerySummaries(c.Request().Context(), domrepo.SummaryQuery{
		Asset:  req.Asset,
		Source: models.Source(req.Source),
		Since:  util.ParseTimeDefault(req.From, time.Time{}),
		Until:  util.ParseTimeDefault(req.To, time.Time{}),
	})
	if err != nil {
		h.logger.Error("summaries query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(rows) > req.Limit {
		rows = rows[len(rows)-req.Limit:]
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

type accuracyResponse struct {
	Asset    string   `json:"asset"`
	Window   string   `json:"window"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

func (h *RecordsEchoHandler) Accuracy(c echo.Context) error {
	req := &models.AccuracyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	window := util.ParseDurationDefault(req.Window, 24*time.Hour)

	acc, ok, err := h.ledger.AccuracyOverWindow(c.Request().Context(), req.Asset, window, time.Now().UTC())
	if err != nil {
		h.logger.Error("accuracy usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	resp := accuracyResponse{Asset: req.Asset, Window: window.String()}
	if ok {
		resp.Accuracy = &acc
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *RecordsEchoHandler) LatestPrediction(c echo.Context) error {
	req := &models.LatestPredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	latest, err := h.ledger.Latest(c.Request().Context(), req.Asset)
	if err != nil {
		h.logger.Error("latest prediction error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if latest == nil {
		return xhttp.NotFoundResponse(c, "no predictions for asset")
	}
	return xhttp.SuccessResponse(c, latest)
}

func (h *RecordsEchoHandler) Report(c echo.Context) error {
	report := h.reporter.Build(c.Request().Context(), h.assets, time.Now().UTC())
	return xhttp.SuccessResponse(c, report)
}
