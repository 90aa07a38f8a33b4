// Package engine evaluates rate-limit policies against caller fingerprints.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	platformMW "edgeguard/internal/platform/middleware"
	"edgeguard/internal/platform/privacy"
	"edgeguard/internal/ratelimit/metrics"
	"edgeguard/internal/ratelimit/models"
	"edgeguard/internal/ratelimit/policy"
	dErrors "edgeguard/pkg/domainerrors"
)

// CounterStore defines the persistence interface for rate counters.
// The in-memory store is the single-instance default; a shared backing store
// can be substituted here without touching policy or engine logic.
type CounterStore interface {
	// Allow checks if a request is allowed and increments the counter.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// Engine owns the policy table and counter store. It has no hidden
// module-level state; inject it wherever the middleware chain is built.
type Engine struct {
	policies policy.Table
	counters CounterStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock injects a clock. Tests pair it with the counter store's clock so
// skip results and counter results report consistent reset times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine. The policy table is validated once here and treated
// as immutable afterwards.
func New(policies policy.Table, counters CounterStore, opts ...Option) (*Engine, error) {
	if counters == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("policy table is required")
	}
	if err := policies.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		policies: policies,
		counters: counters,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Check evaluates the named policy for the request's fingerprint.
//
// Skip predicates run first; a match returns an unconditional allow without
// touching the counter. Otherwise the fixed-window counter for
// (policy, fingerprint) is checked and incremented atomically.
func (e *Engine) Check(ctx context.Context, policyName, fp string, r *http.Request) (*models.Result, error) {
	p := e.policies.Get(policyName)

	for _, pred := range p.Skip {
		if pred.Matches(r) {
			if e.metrics != nil {
				e.metrics.IncrementSkipped(p.Name, pred.Name)
			}
			return &models.Result{
				Allowed:   true,
				Limit:     p.MaxRequests,
				Remaining: p.MaxRequests,
				ResetAt:   e.now().Add(p.Window),
				Skipped:   true,
				SkippedBy: pred.Name,
			}, nil
		}
	}

	if e.metrics != nil {
		e.metrics.IncrementChecks(p.Name)
	}

	key := fmt.Sprintf("%s:%s", p.Name, fp)
	result, err := e.counters.Allow(ctx, key, p.MaxRequests, p.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if !result.Allowed {
		if e.metrics != nil {
			e.metrics.IncrementThrottled(p.Name)
		}
		e.logger.InfoContext(ctx, "rate limit exceeded",
			"policy", p.Name,
			"ip_prefix", privacy.AnonymizeIP(platformMW.GetClientIP(ctx)),
			"limit", p.MaxRequests,
			"window_seconds", int(p.Window.Seconds()),
			"request_id", platformMW.GetRequestID(ctx),
		)
	}

	return result, nil
}
