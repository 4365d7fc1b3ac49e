package pricestream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	drepo "AlphaPulse/internal/domain/repository"
	"AlphaPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a PriceStream backed by a CoinCap-style price
// WebSocket, which pushes frames like {"bitcoin":"67342.12"}.
type Client struct {
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	// coincap asset id -> display name
	names map[string]string

	conn      *websocket.Conn
	connected bool
}

// New creates a PriceStream over the given endpoint. names maps stream
// asset ids to display names; unknown ids are dropped.
func New(websocketURL string, names map[string]string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.PriceStream {
	return &Client{
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		names:          names,
	}
}

// Connect establishes the WebSocket connection, subscribing to the
// configured assets via the query string.
func (c *Client) Connect(ctx context.Context) error {
	ids := make([]string, 0, len(c.names))
	for id := range c.names {
		ids = append(ids, id)
	}

	u := fmt.Sprintf("%s?assets=%s", c.websocketURL, strings.Join(ids, ","))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("price stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("price stream connected", logger.String("url", c.websocketURL))
	return nil
}

// Read streams price ticks and errors. The error channel closing means
// the read loop has stopped and the caller should Reconnect.
func (c *Client) Read(ctx context.Context) (<-chan drepo.PriceTick, <-chan error) {
	ticks := make(chan drepo.PriceTick, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("price stream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("price stream read: %w", err)
					return
				}

				var frame map[string]string
				if err := json.Unmarshal(b, &frame); err != nil {
					// ignore non-price frames
					continue
				}
				for id, raw := range frame {
					name, ok := c.names[id]
					if !ok {
						continue
					}
					price, err := strconv.ParseFloat(raw, 64)
					if err != nil || price == 0 {
						continue
					}
					select {
					case ticks <- drepo.PriceTick{Asset: name, Price: price}:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	return c.Connect(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
