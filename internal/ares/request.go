package ares

import (
	"context"
	"fmt"
	"net/url"

	xmlparser "ares/internal/parser/xml"

	"go.uber.org/zap"
)

// DefaultBaseURL is the root of the ARES XML services.
const DefaultBaseURL = "http://wwwinfo.mfcr.cz/cgi-bin/ares"

// Operation names. They prefix cache keys and label metrics.
const (
	opBasic    = "bas"
	opRes      = "res"
	opTax      = "tax"
	opFind     = "find"
	opOfficers = "people"
)

// Cache payload kinds.
const (
	kindRecord  = "record"
	kindRecords = "records"
	kindTax     = "tax"
)

func (c *Client) basicURL(id int) string {
	return fmt.Sprintf("%s/darv_bas.cgi?ico=%d", c.baseURL, id)
}

func (c *Client) resURL(id int) string {
	return fmt.Sprintf("%s/darv_res.cgi?ICO=%d", c.baseURL, id)
}

func (c *Client) taxURL(id int) string {
	return fmt.Sprintf("%s/ares_es.cgi?ico=%d&filtr=0", c.baseURL, id)
}

// searchURL folds diacritics before escaping: the service only matches
// ASCII names.
func (c *Client) searchURL(name, city string) string {
	return fmt.Sprintf("%s/ares_es.cgi?obch_jm=%s&obec=%s&filtr=0",
		c.baseURL,
		url.QueryEscape(StripDiacritics(name)),
		url.QueryEscape(StripDiacritics(city)),
	)
}

// balance routes target through a balancer endpoint when one is set.
func balance(balancer, target string) string {
	if balancer == "" {
		return target
	}
	return balancer + "?url=" + url.QueryEscape(target)
}

// fetch resolves and downloads one ARES document. In debug mode the payload
// is stored under rawKey before parsing, so a payload that fails to parse is
// still kept for inspection.
func (c *Client) fetch(ctx context.Context, op, subject, rawKey, target string) (*xmlparser.Document, error) {
	c.mu.Lock()
	resolved := balance(c.balancer, target)
	c.lastURL = resolved
	debug := c.debug
	c.mu.Unlock()

	c.log.Debug("fetching", zap.String("op", op), zap.String("url", resolved))

	body, err := c.fetcher.Fetch(ctx, resolved)
	if err != nil {
		return nil, newError(SourceUnavailable, op, subject, err)
	}

	if debug {
		if err := c.cache.PutRaw(ctx, rawKey, body); err != nil {
			c.log.Warn("raw payload not stored", zap.String("key", rawKey), zap.Error(err))
		}
	}

	doc, err := xmlparser.Parse(body)
	if err != nil {
		return nil, newError(SourceUnavailable, op, subject, err)
	}
	return doc, nil
}

// remember writes a result to the cache. A failed write only costs a later
// cache miss.
func (c *Client) remember(ctx context.Context, key, kind string, v any) {
	if err := c.cache.Put(ctx, key, kind, v); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
