package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitChecksTotal    *prometheus.CounterVec
	RateLimitThrottledTotal *prometheus.CounterVec
	RateLimitSkippedTotal   *prometheus.CounterVec
	RateLimitLiveCounters   prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		RateLimitChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_ratelimit_checks_total",
			Help: "Total number of rate limit checks performed",
		}, []string{"policy"}),
		RateLimitThrottledTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_ratelimit_throttled_total",
			Help: "Total number of requests rejected by rate limiting",
		}, []string{"policy"}),
		RateLimitSkippedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_ratelimit_skipped_total",
			Help: "Total number of checks bypassed by a skip predicate",
		}, []string{"policy", "predicate"}),
		RateLimitLiveCounters: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "edgeguard_ratelimit_live_counters",
			Help: "Current number of live rate counters in the store",
		}),
	}
}

func (m *Metrics) IncrementChecks(policy string) {
	m.RateLimitChecksTotal.WithLabelValues(policy).Inc()
}

func (m *Metrics) IncrementThrottled(policy string) {
	m.RateLimitThrottledTotal.WithLabelValues(policy).Inc()
}

func (m *Metrics) IncrementSkipped(policy, predicate string) {
	m.RateLimitSkippedTotal.WithLabelValues(policy, predicate).Inc()
}

func (m *Metrics) SetLiveCounters(count int) {
	m.RateLimitLiveCounters.Set(float64(count))
}
