// Package metrics records operational metrics for registry lookups behind a
// small, backend-agnostic interface.
//
// A global backend defaults to a no-op implementation, so instrumentation is
// always safe to call. Concrete systems (Prometheus Pushgateway, Datadog) live
// in subpackages and are installed once at startup with SetBackend.
package metrics

import (
	"strconv"
	"time"
)

// Metric names shared by all backends.
const (
	LookupTotal           = "ares_lookup_total"
	LookupDurationSeconds = "ares_lookup_duration_seconds"
	CacheTotal            = "ares_cache_total"
	APIRequestsTotal      = "ares_api_requests_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordLookup counts one registry operation and its latency. status is a
// short outcome label such as "ok", "not_found" or "unavailable".
func RecordLookup(op, status string, d time.Duration) {
	lbls := Labels{
		"op":     op,
		"status": status,
	}
	backend.IncCounter(LookupTotal, 1, lbls)
	backend.ObserveHistogram(LookupDurationSeconds, d.Seconds(), lbls)
}

// RecordCache counts a cache access. result is "hit", "miss", "corrupt" or
// "write_error".
func RecordCache(op, result string) {
	backend.IncCounter(CacheTotal, 1, Labels{
		"op":     op,
		"result": result,
	})
}

// RecordRequest counts one HTTP API request by route pattern and status code.
func RecordRequest(route string, code int) {
	backend.IncCounter(APIRequestsTotal, 1, Labels{
		"route": route,
		"code":  strconv.Itoa(code),
	})
}
