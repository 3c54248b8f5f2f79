// Package ares looks up Czech companies in the ARES registry of economic
// subjects and normalizes the answers into flat records.
//
// Lookups are served from a date-bucketed cache when possible; a miss costs
// one or two HTTP round-trips. Officers of a company are read from the court
// registry on demand.
package ares

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"ares/internal/cache"
	"ares/internal/datasource/httpds"
	"ares/internal/justice"
	"ares/internal/logger"
	"ares/internal/metrics"

	"go.uber.org/zap"
)

// Fetcher downloads the body of a URL. Non-2xx answers are errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// OfficerFinder finds the officers of a company in the court registry.
type OfficerFinder interface {
	FindByID(ctx context.Context, companyID int) (*justice.OfficerSet, bool, error)
}

var errNoOfficerSource = errors.New("no officer source configured")

// Options configures a Client. Everything is optional.
type Options struct {
	// Fetcher defaults to an httpds client that skips TLS verification.
	Fetcher Fetcher
	// Cache may be nil, in which case nothing is cached.
	Cache *cache.ResponseCache
	// Balancer, when set, receives every request as ?url=<original>.
	Balancer string
	// Debug keeps raw payloads in the cache next to parsed results.
	Debug    bool
	Logger   *zap.Logger
	Officers OfficerFinder
	BaseURL  string
	Now      func() time.Time
}

// Client performs registry lookups. It is safe for concurrent use.
type Client struct {
	fetcher  Fetcher
	cache    *cache.ResponseCache
	officers OfficerFinder
	baseURL  string
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	balancer string
	debug    bool
	lastURL  string
}

// NewClient returns a Client configured by opts.
func NewClient(opts Options) *Client {
	if opts.Fetcher == nil {
		opts.Fetcher = httpds.NewClient(httpds.Config{InsecureSkipVerify: true})
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		fetcher:  opts.Fetcher,
		cache:    opts.Cache,
		officers: opts.Officers,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		log:      logger.OrNop(opts.Logger).Named("ares"),
		now:      opts.Now,
		balancer: opts.Balancer,
		debug:    opts.Debug,
	}
}

// SetBalancer routes subsequent requests through balancer. An empty string
// turns routing off.
func (c *Client) SetBalancer(balancer string) {
	c.mu.Lock()
	c.balancer = balancer
	c.mu.Unlock()
}

// SetDebug toggles raw payload capture.
func (c *Client) SetDebug(debug bool) {
	c.mu.Lock()
	c.debug = debug
	c.mu.Unlock()
}

// SetCacheStrategy switches the cache bucket layout, a PHP date() format
// such as "YW" or "Y-m-d". Entries written under the previous layout are no
// longer found.
func (c *Client) SetCacheStrategy(layout string) {
	c.cache.SetStrategy(layout)
}

// LastURL returns the URL of the most recent request, after balancer
// rewriting. Cache hits do not change it.
func (c *Client) LastURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastURL
}

// FindByID returns the basic record of a company: name, seat address and the
// tax id when the registry embeds it.
func (c *Client) FindByID(ctx context.Context, id string) (rec Record, err error) {
	start := c.now()
	defer func() { c.observe(opBasic, id, start, err) }()

	n, err := ParseID(id)
	if err != nil {
		return Record{}, newError(InvalidInput, opBasic, id, err)
	}

	bucket := c.cache.Bucket()
	key := cache.EntityKey(opBasic, n, bucket)
	if c.cache.Get(ctx, key, kindRecord, &rec) {
		return rec, nil
	}

	doc, err := c.fetch(ctx, opBasic, id, cache.RawEntityKey(opBasic, n, bucket), c.basicURL(n))
	if err != nil {
		return Record{}, err
	}
	rec, ok := basicRecord(doc, n)
	if !ok {
		return Record{}, newError(NotFound, opBasic, id, nil)
	}

	c.remember(ctx, key, kindRecord, rec)
	return rec, nil
}

// FindLegalFormByID returns the record from the statistical register (RES).
// That source carries no tax id, so it is looked up separately; a failure of
// that lookup fails the whole call.
func (c *Client) FindLegalFormByID(ctx context.Context, id string) (rec Record, err error) {
	start := c.now()
	defer func() { c.observe(opRes, id, start, err) }()

	n, err := ParseID(id)
	if err != nil {
		return Record{}, newError(InvalidInput, opRes, id, err)
	}

	bucket := c.cache.Bucket()
	key := cache.EntityKey(opRes, n, bucket)
	if c.cache.Get(ctx, key, kindRecord, &rec) {
		return rec, nil
	}

	doc, err := c.fetch(ctx, opRes, id, cache.RawEntityKey(opRes, n, bucket), c.resURL(n))
	if err != nil {
		return Record{}, err
	}
	rec, ok := resRecord(doc, n)
	if !ok {
		return Record{}, newError(NotFound, opRes, id, nil)
	}

	taxID, err := c.FindTaxIDByID(ctx, strconv.Itoa(n))
	if err != nil {
		return Record{}, err
	}
	rec.TaxID = taxID

	c.remember(ctx, key, kindRecord, rec)
	return rec, nil
}

// FindTaxIDByID returns the normalized VAT id ("CZ<digits>") of a company.
// The result is empty for a company the tax register knows without one.
func (c *Client) FindTaxIDByID(ctx context.Context, id string) (taxID string, err error) {
	start := c.now()
	defer func() { c.observe(opTax, id, start, err) }()

	n, err := ParseID(id)
	if err != nil {
		return "", newError(InvalidInput, opTax, id, err)
	}

	bucket := c.cache.Bucket()
	key := cache.EntityKey(opTax, n, bucket)
	var tr TaxRecord
	if c.cache.Get(ctx, key, kindTax, &tr) {
		return tr.TaxID, nil
	}

	doc, err := c.fetch(ctx, opTax, id, cache.RawEntityKey(opTax, n, bucket), c.taxURL(n))
	if err != nil {
		return "", err
	}
	tr, ok := taxRecord(doc, n)
	if !ok {
		return "", newError(NotFound, opTax, id, nil)
	}

	c.remember(ctx, key, kindTax, tr)
	return tr.TaxID, nil
}

// FindByName searches companies by name, optionally narrowed to a city.
// Records come back in registry order without addresses. No match is
// reported as NotFound.
func (c *Client) FindByName(ctx context.Context, name, city string) (recs Records, err error) {
	subject := strings.TrimSpace(name + " " + city)
	start := c.now()
	defer func() { c.observe(opFind, subject, start, err) }()

	if err := checkSearchName(name); err != nil {
		return nil, newError(InvalidInput, opFind, subject, err)
	}

	bucket := c.cache.Bucket()
	key := cache.SearchKey(bucket, name, city)
	if c.cache.Get(ctx, key, kindRecords, &recs) {
		return recs, nil
	}

	doc, err := c.fetch(ctx, opFind, subject, cache.RawSearchKey(bucket, name, city), c.searchURL(name, city))
	if err != nil {
		return nil, err
	}
	rows := searchRows(doc)
	if len(rows) == 0 {
		return nil, newError(NotFound, opFind, subject, nil)
	}
	recs = MapSearchResults(rows)

	c.remember(ctx, key, kindRecords, recs)
	return recs, nil
}

// Officers reads the managing officers and partners of a company from the
// court registry. found is false when the registry has no extract for it.
// Results are not cached.
func (c *Client) Officers(ctx context.Context, companyID string) (set *justice.OfficerSet, found bool, err error) {
	start := c.now()
	defer func() { c.observe(opOfficers, companyID, start, err) }()

	n, err := ParseID(companyID)
	if err != nil {
		return nil, false, newError(InvalidInput, opOfficers, companyID, err)
	}
	if c.officers == nil {
		return nil, false, newError(SourceUnavailable, opOfficers, companyID, errNoOfficerSource)
	}

	set, found, err = c.officers.FindByID(ctx, n)
	if err != nil {
		return nil, false, newError(SourceUnavailable, opOfficers, companyID, err)
	}
	return set, found, nil
}

func (c *Client) observe(op, subject string, start time.Time, err error) {
	d := c.now().Sub(start)
	status := lookupStatus(err)
	metrics.RecordLookup(op, status, d)

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("subject", subject),
		zap.String("status", status),
		zap.Duration("took", d),
	}
	if KindOf(err) == SourceUnavailable {
		c.log.Warn("lookup failed", append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug("lookup", fields...)
}

func lookupStatus(err error) string {
	if err == nil {
		return "ok"
	}
	switch KindOf(err) {
	case InvalidInput:
		return "invalid_input"
	case NotFound:
		return "not_found"
	case SourceUnavailable:
		return "unavailable"
	}
	return "error"
}
