// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
	OutcomeSuccess = "success"
)

var (
	// Lookup metrics
	LookupAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citeref_lookup_attempts_total",
			Help: "Academic source calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// Resolution metrics
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citeref_resolutions_total",
			Help: "Completed citation resolutions by final source",
		},
		[]string{"source"},
	)

	// AI provider metrics
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citeref_ai_provider_attempts_total",
			Help: "AI provider invocations by chain, provider, and outcome",
		},
		[]string{"chain", "provider", "outcome"},
	)

	ChainExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citeref_ai_chain_exhausted_total",
			Help: "Fallback chains where every provider failed or was skipped",
		},
		[]string{"chain"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citeref_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citeref_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"route"},
	)

	CreditsDeducted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citeref_credits_deducted_total",
			Help: "Free-tier credits deducted",
		},
	)
)

// RecordLookup counts one academic source call.
func RecordLookup(source, outcome string) {
	LookupAttempts.WithLabelValues(source, outcome).Inc()
}

// RecordProvider counts one AI provider invocation.
func RecordProvider(chain, provider, outcome string) {
	ProviderAttempts.WithLabelValues(chain, provider, outcome).Inc()
}

// RecordHTTP counts one handled request and observes its duration.
func RecordHTTP(route, status string, durationSeconds float64) {
	HTTPRequests.WithLabelValues(route, status).Inc()
	HTTPDuration.WithLabelValues(route).Observe(durationSeconds)
}
