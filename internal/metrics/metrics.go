package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inventory",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	authEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "auth_events_total",
		Help:      "Authentication events by kind and outcome",
	}, []string{"event", "outcome"}) // event=register|login|refresh|logout

	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "ratelimit_rejected_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"route"})

	backupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Name:      "backup_runs_total",
		Help:      "Database backup runs by outcome",
	}, []string{"outcome"})

	backupLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "inventory",
		Name:      "backup_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful backup",
	})
)

func ObserveHTTPRequest(route, method string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func RecordAuthEvent(event string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	authEventsTotal.WithLabelValues(event, outcome).Inc()
}

func RecordRateLimited(route string) {
	rateLimitedTotal.WithLabelValues(route).Inc()
}

func RecordBackup(err error, at time.Time) {
	if err != nil {
		backupRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	backupRunsTotal.WithLabelValues("success").Inc()
	backupLastSuccess.Set(float64(at.Unix()))
}
