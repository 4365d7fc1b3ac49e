package coingecko

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"AlphaPulse/pkg/cache"
	xhttp "AlphaPulse/pkg/http"
	"AlphaPulse/pkg/logger"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches USD spot prices from the CoinGecko simple price endpoint.
// Results are cached so repeated ticks inside the TTL do not hit the API.
type Client struct {
	http    *xhttp.Client
	cache   cache.Service
	log     *logger.Logger
	baseURL string
	ttl     time.Duration

	// display name -> coingecko id
	ids map[string]string
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithCache enables caching of fetched prices for ttl.
func WithCache(svc cache.Service, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = svc
		c.ttl = ttl
	}
}

// New creates a CoinGecko client. ids maps asset display names to
// CoinGecko coin ids.
func New(httpClient *xhttp.Client, log *logger.Logger, ids map[string]string, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		log:     log,
		baseURL: defaultBaseURL,
		ids:     ids,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns current USD prices for the given asset names. Assets the
// API does not return are simply absent from the result.
func (c *Client) Fetch(ctx context.Context, assets []string) (map[string]float64, error) {
	wanted := make(map[string]string, len(assets)) // id -> name
	for _, name := range assets {
		id, ok := c.ids[name]
		if !ok {
			c.log.Warn("no coingecko id for asset", logger.String("asset", name))
			continue
		}
		wanted[id] = name
	}
	if len(wanted) == 0 {
		return nil, errors.New("no resolvable assets")
	}

	prices := make(map[string]float64, len(wanted))

	missing := make([]string, 0, len(wanted))
	for id, name := range wanted {
		if v, ok := c.cached(ctx, id); ok {
			prices[name] = v
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return prices, nil
	}

	var body map[string]map[string]float64
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/simple/price",
		QueryParams: map[string][]string{
			"ids":           {strings.Join(missing, ",")},
			"vs_currencies": {"usd"},
		},
	}, &body)
	if err != nil {
		// A partial cache hit is still useful.
		if len(prices) > 0 {
			c.log.Warn("price fetch partial, serving cached", logger.Error(err))
			return prices, nil
		}
		return nil, fmt.Errorf("coingecko simple/price: %w", err)
	}

	for _, id := range missing {
		usd, ok := body[id]["usd"]
		if !ok || usd == 0 {
			continue
		}
		prices[wanted[id]] = usd
		c.store(ctx, id, usd)
	}

	return prices, nil
}

func (c *Client) cached(ctx context.Context, id string) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}
	var v float64
	if err := c.cache.Get(ctx, priceKey(id), &v); err != nil {
		return 0, false
	}
	return v, v != 0
}

func (c *Client) store(ctx context.Context, id string, v float64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, priceKey(id), v, c.ttl); err != nil {
		c.log.Debug("price cache store failed", logger.Error(err))
	}
}

func priceKey(id string) string {
	return cache.GenerateKey("price", id)
}
