package justice

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"ares/internal/logger"

	"go.uber.org/zap"
)

// DefaultBaseURL is the root of the public registry UI.
const DefaultBaseURL = "https://or.justice.cz/ias/ui/"

// ScraperOptions configures a Scraper.
type ScraperOptions struct {
	BaseURL string // DefaultBaseURL when empty
	Logger  *zap.Logger
}

// Scraper finds the officers of a company by its identification number.
type Scraper struct {
	crawler Crawler
	base    *url.URL
	log     *zap.Logger
}

// NewScraper validates the base URL and returns a Scraper.
func NewScraper(crawler Crawler, opts ScraperOptions) (*Scraper, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("justice: base url: %w", err)
	}
	return &Scraper{
		crawler: crawler,
		base:    base,
		log:     logger.OrNop(opts.Logger).Named("justice"),
	}, nil
}

// SearchURL is the registry search page for companyID.
func (s *Scraper) SearchURL(companyID int) string {
	ref := &url.URL{Path: "rejstrik-$firma", RawQuery: "ico=" + strconv.Itoa(companyID)}
	return s.base.ResolveReference(ref).String()
}

// FindByID loads the search page, follows the full-extract link and parses
// the officer blocks. found is false, with a nil error, when the search page
// has no such link.
func (s *Scraper) FindByID(ctx context.Context, companyID int) (set *OfficerSet, found bool, err error) {
	searchURL := s.SearchURL(companyID)
	doc, err := s.crawler.Get(ctx, searchURL)
	if err != nil {
		return nil, false, fmt.Errorf("justice: search %d: %w", companyID, err)
	}

	href, ok := detailHref(doc)
	if !ok {
		s.log.Debug("no extract link", zap.Int("company_id", companyID), zap.String("url", searchURL))
		return nil, false, nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false, fmt.Errorf("justice: extract link %q: %w", href, err)
	}
	detailURL := s.base.ResolveReference(ref).String()

	s.log.Debug("loading extract", zap.Int("company_id", companyID), zap.String("url", detailURL))
	doc, err = s.crawler.Get(ctx, detailURL)
	if err != nil {
		return nil, false, fmt.Errorf("justice: extract %d: %w", companyID, err)
	}

	set, err = parseDetail(doc)
	if err != nil {
		return nil, false, fmt.Errorf("justice: extract %d: %w", companyID, err)
	}
	return set, true, nil
}
