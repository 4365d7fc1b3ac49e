package rssfeed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"AlphaPulse/internal/domain/models"
	xhttp "AlphaPulse/pkg/http"
	"AlphaPulse/pkg/logger"
)

// Collector reads crypto news headlines from RSS 2.0 feeds and keeps the
// ones mentioning an asset's keywords. Feeds that fail to fetch or parse
// are skipped; one bad feed never empties the whole collection.
type Collector struct {
	http  *xhttp.Client
	log   *logger.Logger
	feeds []string
}

// New creates a Collector over the given feed URLs.
func New(httpClient *xhttp.Client, log *logger.Logger, feeds []string) *Collector {
	return &Collector{http: httpClient, log: log, feeds: feeds}
}

// Source implements repository.Collector.
func (c *Collector) Source() models.Source { return models.SourceNews }

type rss struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// Collect returns up to limit observations per feed whose headline
// mentions one of the keywords.
func (c *Collector) Collect(ctx context.Context, asset string, keywords []string, limit int) ([]models.Observation, error) {
	var out []models.Observation
	fetched := 0

	for _, feed := range c.feeds {
		items, err := c.fetch(ctx, feed)
		if err != nil {
			c.log.Warn("feed skipped",
				logger.String("feed", feed),
				logger.Error(err))
			continue
		}
		fetched++

		kept := 0
		for _, item := range items {
			if kept >= limit {
				break
			}
			if !mentions(item.Title, keywords) {
				continue
			}

			out = append(out, models.Observation{
				Timestamp: parsePubDate(item.PubDate),
				Asset:     asset,
				Source:    models.SourceNews,
				Text:      item.Title,
				Link:      item.Link,
			})
			kept++
		}
	}

	if fetched == 0 && len(c.feeds) > 0 {
		return nil, fmt.Errorf("all %d feeds unreachable", len(c.feeds))
	}
	return out, nil
}

func (c *Collector) fetch(ctx context.Context, feed string) ([]rssItem, error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    feed,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	var doc rss
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return doc.Channel.Items, nil
}

// parsePubDate tries the date formats seen in the wild; an unparseable
// date falls back to now so the item is still usable.
func parsePubDate(s string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
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
