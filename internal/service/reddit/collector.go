package reddit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AlphaPulse/internal/domain/models"
	xhttp "AlphaPulse/pkg/http"
	"AlphaPulse/pkg/logger"
)

const defaultBaseURL = "https://www.reddit.com"

// Collector pulls recent submissions from a subreddit's public JSON
// listing and keeps the ones mentioning an asset's keywords.
type Collector struct {
	http      *xhttp.Client
	log       *logger.Logger
	baseURL   string
	subreddit string
	listing   int
	userAgent string
}

// Option configures the Collector.
type Option func(*Collector)

// WithBaseURL overrides the endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Collector) { c.baseURL = strings.TrimRight(u, "/") }
}

// New creates a Collector reading r/<subreddit>/new. listing is how many
// submissions to request per fetch, before keyword filtering.
func New(httpClient *xhttp.Client, log *logger.Logger, subreddit string, listing int, userAgent string, opts ...Option) *Collector {
	c := &Collector{
		http:      httpClient,
		log:       log,
		baseURL:   defaultBaseURL,
		subreddit: subreddit,
		listing:   listing,
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source implements repository.Collector.
func (c *Collector) Source() models.Source { return models.SourceReddit }

type listingPayload struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Permalink  string  `json:"permalink"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Collect returns up to limit observations whose title or body mentions
// one of the keywords. Matching is case-insensitive.
func (c *Collector) Collect(ctx context.Context, asset string, keywords []string, limit int) ([]models.Observation, error) {
	var body listingPayload
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/r/%s/new.json", c.baseURL, c.subreddit),
		QueryParams: map[string][]string{
			"limit": {fmt.Sprintf("%d", c.listing)},
		},
		Headers: map[string]string{
			"User-Agent": c.userAgent,
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("reddit listing: %w", err)
	}

	var out []models.Observation
	for _, child := range body.Data.Children {
		post := child.Data
		if !mentions(post.Title+" "+post.Selftext, keywords) {
			continue
		}

		out = append(out, models.Observation{
			Timestamp: time.Unix(int64(post.CreatedUTC), 0).UTC(),
			Asset:     asset,
			Source:    models.SourceReddit,
			Text:      post.Title,
			Link:      defaultBaseURL + post.Permalink,
		})
		if len(out) >= limit {
			break
		}
	}

	c.log.Debug("reddit collected",
		logger.String("asset", asset),
		logger.Int("posts", len(out)))
	return out, nil
}

func mentions(text string, keywords []string) bool {
	l := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(l, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
