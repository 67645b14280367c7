package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_upstream_requests_total",
			Help: "Total number of requests sent to the scoring service",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_upstream_request_duration_seconds",
			Help:    "Duration of requests sent to the scoring service in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PageViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_page_views_total",
			Help: "Total number of rendered pages by page and status code",
		},
		[]string{"page", "code"},
	)

	PageInputs = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "scoring_page_inputs_pending",
			Help: "Number of results page inputs waiting to be read",
		},
		func() float64 { return float64(pendingInputs()) },
	)

	pendingInputs = func() int { return 0 }
)

// TrackPendingInputs sets the source of the pending page input gauge.
func TrackPendingInputs(fn func() int) {
	if fn != nil {
		pendingInputs = fn
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
