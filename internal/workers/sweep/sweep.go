// Package sweep runs the background eviction pass: stale rate counters,
// expired two-factor challenges, and idle sessions. All three stores use
// per-key locking, so the sweep is safe to run while requests are in flight.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeguard_sweep_runs_total",
		Help: "Total number of background sweep runs by outcome",
	}, []string{"status"})
	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgeguard_sweep_duration_seconds",
		Help:    "Duration of background sweep runs",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	sweepEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgeguard_sweep_evicted_total",
		Help: "Total entries evicted by the background sweep",
	}, []string{"kind"})
)

// CounterStore prunes rate counters untouched for a grace multiple of the
// given window. Len feeds the live-counter gauge after each pass.
type CounterStore interface {
	EvictStale(ctx context.Context, window time.Duration) int
	Len() int
}

// ChallengeStore prunes challenges past their expiry. Len feeds the
// pending-challenge gauge after each pass.
type ChallengeStore interface {
	EvictExpired(ctx context.Context) int
	Len() int
}

// SessionStore prunes sessions idle beyond the configured timeout.
type SessionStore interface {
	EvictIdle(ctx context.Context) int
}

// Result reports what a single sweep run removed.
type Result struct {
	CountersEvicted   int
	ChallengesEvicted int
	SessionsEvicted   int
	Duration          time.Duration
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithLiveCounterGauge registers a sink for the post-sweep rate counter
// population, typically the ratelimit live-counters gauge.
func WithLiveCounterGauge(set func(int)) Option {
	return func(w *Worker) {
		w.liveCounters = set
	}
}

// WithPendingChallengeGauge registers a sink for the post-sweep pending
// challenge population.
func WithPendingChallengeGauge(set func(int)) Option {
	return func(w *Worker) {
		w.pendingChallenges = set
	}
}

type Worker struct {
	counters   CounterStore
	challenges ChallengeStore
	sessions   SessionStore

	// maxWindow is the longest policy window; counters older than the
	// grace multiple of it are unreachable by any policy.
	maxWindow time.Duration
	interval  time.Duration
	logger    *slog.Logger

	liveCounters      func(int)
	pendingChallenges func(int)
}

func New(counters CounterStore, challenges ChallengeStore, sessions SessionStore, maxWindow time.Duration, opts ...Option) *Worker {
	w := &Worker{
		counters:   counters,
		challenges: challenges,
		sessions:   sessions,
		maxWindow:  maxWindow,
		interval:   5 * time.Minute,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the sweep loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			res := w.RunOnce(ctx)
			res.Duration = time.Since(start)

			w.logger.Info("sweep_completed",
				"counters_evicted", res.CountersEvicted,
				"challenges_evicted", res.ChallengesEvicted,
				"sessions_evicted", res.SessionsEvicted,
				"duration_ms", res.Duration.Milliseconds(),
			)
			sweepRunsTotal.WithLabelValues("success").Inc()
			sweepDurationSeconds.Observe(res.Duration.Seconds())
			sweepEvictedTotal.WithLabelValues("counter").Add(float64(res.CountersEvicted))
			sweepEvictedTotal.WithLabelValues("challenge").Add(float64(res.ChallengesEvicted))
			sweepEvictedTotal.WithLabelValues("session").Add(float64(res.SessionsEvicted))

		case <-ctx.Done():
			w.logger.Info("sweep worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single eviction pass and refreshes the population
// gauges from what survived it. Logging is handled by the caller.
func (w *Worker) RunOnce(ctx context.Context) *Result {
	res := &Result{
		CountersEvicted:   w.counters.EvictStale(ctx, w.maxWindow),
		ChallengesEvicted: w.challenges.EvictExpired(ctx),
		SessionsEvicted:   w.sessions.EvictIdle(ctx),
	}

	if w.liveCounters != nil {
		w.liveCounters(w.counters.Len())
	}
	if w.pendingChallenges != nil {
		w.pendingChallenges(w.challenges.Len())
	}
	return res
}
