package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordspira_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wordspira_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	TrackerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordspira_tracker_calls_total",
			Help: "Total number of Spira REST calls by operation and status",
		},
		[]string{"op", "status"},
	)

	TrackerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wordspira_tracker_call_duration_seconds",
			Help: "Spira REST call latency in seconds",
		},
		[]string{"op"},
	)

	ArtifactsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordspira_artifacts_pushed_total",
			Help: "Artifacts pushed to Spira by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	JobsQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordspira_jobs_queued",
			Help: "Number of push jobs waiting for a worker",
		},
	)
)

// Tracker records Spira client calls.
type Tracker struct{}

func (Tracker) ObserveCall(op string, status int, d time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	TrackerCalls.WithLabelValues(op, code).Inc()
	TrackerLatency.WithLabelValues(op).Observe(d.Seconds())
}

// Artifact records the outcome of one pushed artifact.
func Artifact(kind string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	ArtifactsPushed.WithLabelValues(kind, outcome).Inc()
}
