package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"edgeguard/internal/ratelimit/policy"
	"edgeguard/internal/ratelimit/store"
)

// =============================================================================
// Rate Limiter Engine Test Suite
// =============================================================================
// Justification: The engine is the single enforcement point for every inbound
// request. Tests verify constructor invariants, skip-predicate short-circuit
// behavior, fixed-window throttling, and policy fallback.

type EngineSuite struct {
	suite.Suite
	engine *Engine
	store  *store.InMemoryCounterStore
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.store = store.NewInMemoryCounterStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	table := policy.Table{
		policy.NameAPI:  {Name: policy.NameAPI, Window: 15 * time.Minute, MaxRequests: 100},
		policy.NameAuth: {Name: policy.NameAuth, Window: 15 * time.Minute, MaxRequests: 5},
		"skipped": {
			Name:        "skipped",
			Window:      time.Minute,
			MaxRequests: 1,
			Skip:        []policy.SkipPredicate{policy.DevEnvironment(false)},
		},
	}

	var err error
	s.engine, err = New(table, s.store, WithLogger(logger))
	s.Require().NoError(err)
}

func (s *EngineSuite) TestNew() {
	s.Run("rejects nil counter store", func() {
		_, err := New(policy.DefaultTable(), nil)
		s.Error(err)
	})

	s.Run("rejects empty policy table", func() {
		_, err := New(policy.Table{}, s.store)
		s.Error(err)
	})

	s.Run("rejects invalid policy", func() {
		bad := policy.Table{"x": {Name: "x", Window: 0, MaxRequests: 1}}
		_, err := New(bad, s.store)
		s.Error(err)
	})
}

func (s *EngineSuite) TestCheck_FixedWindow() {
	ctx := context.Background()
	req := httptest.NewRequest("POST", "/api/auth/login", nil)

	s.Run("ceiling requests allowed then throttled", func() {
		for i := 1; i <= 5; i++ {
			res, err := s.engine.Check(ctx, policy.NameAuth, "fp-a", req)
			s.Require().NoError(err)
			s.True(res.Allowed, "request %d", i)
			s.Equal(5-i, res.Remaining)
		}

		res, err := s.engine.Check(ctx, policy.NameAuth, "fp-a", req)
		s.Require().NoError(err)
		s.False(res.Allowed)
		s.Greater(res.RetryAfter, time.Duration(0))
	})

	s.Run("other fingerprints unaffected", func() {
		res, err := s.engine.Check(ctx, policy.NameAuth, "fp-b", req)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})

	s.Run("other policies unaffected", func() {
		res, err := s.engine.Check(ctx, policy.NameAPI, "fp-a", req)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})
}

func (s *EngineSuite) TestCheck_SkipPredicates() {
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/anything", nil)

	s.Run("matching predicate always allows regardless of volume", func() {
		for range 20 {
			res, err := s.engine.Check(ctx, "skipped", "fp-spam", req)
			s.Require().NoError(err)
			s.True(res.Allowed)
			s.True(res.Skipped)
			s.Equal("dev_environment", res.SkippedBy)
		}
	})

	s.Run("skipped checks never touch the counter", func() {
		s.Equal(0, s.store.Len(), "no counter should exist for the skipped policy")
	})
}

func (s *EngineSuite) TestCheck_SkipResultUsesInjectedClock() {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	table := policy.Table{
		"skipped": {
			Name:        "skipped",
			Window:      time.Minute,
			MaxRequests: 1,
			Skip:        []policy.SkipPredicate{policy.DevEnvironment(false)},
		},
	}
	eng, err := New(table, s.store,
		WithClock(func() time.Time { return fixed }),
	)
	s.Require().NoError(err)

	res, err := eng.Check(context.Background(), "skipped", "fp-a", httptest.NewRequest("GET", "/x", nil))
	s.Require().NoError(err)
	s.True(res.Skipped)
	s.Equal(fixed.Add(time.Minute), res.ResetAt, "skip results must read the same clock as counter results")
}

func (s *EngineSuite) TestCheck_UnknownPolicyFallsBackToAPI() {
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/whatever", nil)

	res, err := s.engine.Check(ctx, "no-such-policy", "fp-a", req)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(100, res.Limit, "unknown policies fall back to the api ceiling")
}
