// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CertificatesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenup",
		Name:      "certificates_created_total",
		Help:      "Certificates submitted, by certificate type.",
	}, []string{"type"})

	CertificatesVerified = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenup",
		Name:      "certificates_verified_total",
		Help:      "Certificates moved from pending to verified.",
	})

	TokensAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenup",
		Name:      "tokens_awarded_total",
		Help:      "Tokens credited to users through verification.",
	})

	AwardFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenup",
		Name:      "token_award_failures_total",
		Help:      "Verified certificates whose award write failed and awaits reconciliation.",
	})

	LikeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenup",
		Name:      "like_changes_total",
		Help:      "Likes created or removed.",
	}, []string{"action"})

	CommentsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tokenup",
		Name:      "comments_posted_total",
		Help:      "Comments posted on certificates.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tokenup",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
