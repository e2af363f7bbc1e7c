package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	cyclesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_cycles_started_total",
		Help: "Total number of crawl cycles started",
	})

	cyclesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_cycles_failed_total",
		Help: "Total number of crawl cycles that ended with an error",
	})

	usersFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_users_fetched_total",
		Help: "Total number of users fetched from the osu!api",
	})

	usersRestricted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_users_restricted_total",
		Help: "Total number of fetched users found to be restricted",
	})

	fetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawler_fetch_failures_total",
		Help: "Total number of users skipped because a mode fetch failed",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawler_cycle_duration_seconds",
		Help:    "Duration of complete crawl cycles",
		Buckets: prometheus.ExponentialBuckets(60, 2, 10),
	})
)
