package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the sync metrics. A nil *Registry discards everything.
type Registry struct {
	reg *prometheus.Registry

	PagesFetched      prometheus.Counter
	FetchRetries      *prometheus.CounterVec
	ThrottleAvailable prometheus.Gauge
	ThrottleMaximum   prometheus.Gauge
	ThrottleWaitSec   prometheus.Histogram

	ProviderRequests *prometheus.CounterVec

	Runs         *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	LastRunUnix  prometheus.Gauge
	OrdersByStep *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{Name: "fulfillsync_shopify_pages_total"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fulfillsync_shopify_retries_total"}, []string{"reason"})
	available := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fulfillsync_shopify_throttle_available"})
	maximum := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fulfillsync_shopify_throttle_maximum"})
	wait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fulfillsync_shopify_throttle_wait_seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	provider := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fulfillsync_provider_requests_total"}, []string{"status"})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "fulfillsync_runs_total"}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fulfillsync_run_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fulfillsync_last_run_timestamp_seconds"})
	orders := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "fulfillsync_last_run_orders"}, []string{"step"})

	r.MustRegister(pages, retries, available, maximum, wait, provider, runs, duration, lastRun, orders)

	return &Registry{
		reg:               r,
		PagesFetched:      pages,
		FetchRetries:      retries,
		ThrottleAvailable: available,
		ThrottleMaximum:   maximum,
		ThrottleWaitSec:   wait,
		ProviderRequests:  provider,
		Runs:              runs,
		RunDuration:       duration,
		LastRunUnix:       lastRun,
		OrdersByStep:      orders,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) IncPagesFetched() {
	if r == nil {
		return
	}
	r.PagesFetched.Inc()
}

func (r *Registry) IncFetchRetry(reason string) {
	if r == nil {
		return
	}
	r.FetchRetries.WithLabelValues(reason).Inc()
}

func (r *Registry) ObserveThrottle(available, maximum float64) {
	if r == nil {
		return
	}
	r.ThrottleAvailable.Set(available)
	r.ThrottleMaximum.Set(maximum)
}

func (r *Registry) ObserveThrottleWait(d time.Duration) {
	if r == nil {
		return
	}
	r.ThrottleWaitSec.Observe(d.Seconds())
}

func (r *Registry) IncProviderRequest(status string) {
	if r == nil {
		return
	}
	r.ProviderRequests.WithLabelValues(status).Inc()
}

// RunStats is the per-run order funnel.
type RunStats struct {
	Fetched  int
	Included int
	Excluded int
	Valid    int
	Invalid  int
	Sent     int
	Failed   int
}

// ObserveRun records a finished run, outcome is "success" or "error".
func (r *Registry) ObserveRun(outcome string, started time.Time, duration time.Duration, s RunStats) {
	if r == nil {
		return
	}

	r.Runs.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.LastRunUnix.Set(float64(started.Unix()))

	for step, v := range map[string]int{
		"fetched":  s.Fetched,
		"included": s.Included,
		"excluded": s.Excluded,
		"valid":    s.Valid,
		"invalid":  s.Invalid,
		"sent":     s.Sent,
		"failed":   s.Failed,
	} {
		r.OrdersByStep.WithLabelValues(step).Set(float64(v))
	}
}
