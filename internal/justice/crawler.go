package justice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"ares/internal/datasource/httpds"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Crawler loads an HTML page.
type Crawler interface {
	Get(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPCrawler fetches pages through httpds and spaces requests out with a
// token bucket so the registry is not hammered by batch lookups.
type HTTPCrawler struct {
	client  *httpds.Client
	limiter *rate.Limiter
}

// NewHTTPCrawler allows at most rps requests per second; rps <= 0 disables
// the limit.
func NewHTTPCrawler(client *httpds.Client, rps float64) *HTTPCrawler {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Every(time.Duration(float64(time.Second) / rps))
	}
	return &HTTPCrawler{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *HTTPCrawler) Get(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("justice: rate limit wait: %w", err)
	}
	body, err := c.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("justice: parse %s: %w", url, err)
	}
	return doc, nil
}
