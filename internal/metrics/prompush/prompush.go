// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It maps the generic metric names onto client_golang collectors and pushes
// the registry to a Pushgateway on Flush instead of exposing a scrape
// endpoint. This suits the CLI, which exits after a batch of lookups.
package prompush

import (
	"fmt"

	"ares/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	lookupCounter  *prometheus.CounterVec // ares_lookup_total
	lookupDuration *prometheus.SummaryVec // ares_lookup_duration_seconds
	cacheCounter   *prometheus.CounterVec // ares_cache_total
	requestCounter *prometheus.CounterVec // ares_api_requests_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name.
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "ares"
	}

	reg := prometheus.NewRegistry()

	lookupCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.LookupTotal,
			Help: "Registry lookups, partitioned by operation and outcome.",
		},
		[]string{"op", "status"},
	)
	lookupDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.LookupDurationSeconds,
			Help:       "Duration of registry lookups in seconds, partitioned by operation and outcome.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"op", "status"},
	)
	cacheCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.CacheTotal,
			Help: "Response cache accesses, partitioned by operation and result.",
		},
		[]string{"op", "result"},
	)
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.APIRequestsTotal,
			Help: "HTTP API requests, partitioned by route and status code.",
		},
		[]string{"route", "code"},
	)

	for name, c := range map[string]prometheus.Collector{
		"lookup counter":  lookupCounter,
		"lookup summary":  lookupDuration,
		"cache counter":   cacheCounter,
		"request counter": requestCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		lookupCounter:  lookupCounter,
		lookupDuration: lookupDuration,
		cacheCounter:   cacheCounter,
		requestCounter: requestCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.LookupTotal:
		if b.lookupCounter == nil {
			return
		}
		b.lookupCounter.WithLabelValues(labels["op"], labels["status"]).Add(delta)

	case metrics.CacheTotal:
		if b.cacheCounter == nil {
			return
		}
		b.cacheCounter.WithLabelValues(labels["op"], labels["result"]).Add(delta)

	case metrics.APIRequestsTotal:
		if b.requestCounter == nil {
			return
		}
		b.requestCounter.WithLabelValues(labels["route"], labels["code"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.LookupDurationSeconds || b.lookupDuration == nil {
		return
	}
	b.lookupDuration.WithLabelValues(labels["op"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
