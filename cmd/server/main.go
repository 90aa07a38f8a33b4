package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"edgeguard/internal/fingerprint"
	"edgeguard/internal/platform/config"
	"edgeguard/internal/platform/httpserver"
	"edgeguard/internal/platform/logger"
	"edgeguard/internal/platform/middleware"
	"edgeguard/internal/ratelimit/engine"
	rlmetrics "edgeguard/internal/ratelimit/metrics"
	rlmiddleware "edgeguard/internal/ratelimit/middleware"
	"edgeguard/internal/ratelimit/policy"
	rlstore "edgeguard/internal/ratelimit/store"
	"edgeguard/internal/secheaders"
	"edgeguard/internal/session"
	"edgeguard/internal/twofactor/dispatch"
	twofactorHandler "edgeguard/internal/twofactor/handler"
	twofactorMetrics "edgeguard/internal/twofactor/metrics"
	twofactorService "edgeguard/internal/twofactor/service"
	twofactorStore "edgeguard/internal/twofactor/store"
	httptransport "edgeguard/internal/transport/http"
	"edgeguard/internal/workers/sweep"
)

// main wires high-level dependencies and keeps the lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing edgeguard",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	// Session and token layer.
	sessions := session.NewStore(session.WithIdleTimeout(cfg.SessionIdleTimeout))
	tokens, err := session.NewJWTValidator(cfg.JWTSigningKey, 24*time.Hour)
	if err != nil {
		log.Error("invalid session token configuration", "error", err)
		os.Exit(1)
	}
	guard := session.NewGuard(sessions, tokens, log)

	// Rate limiting.
	table := policy.DefaultTable(
		policy.DevEnvironment(cfg.IsProduction()),
		policy.HealthCheckPath(),
		policy.StaticAssetPath(),
		policy.AdminCaller(func(r *http.Request) bool { return session.IsAdmin(r.Context()) }),
	)
	if err := table.ApplyOverrides(cfg.PolicyOverrides); err != nil {
		log.Error("invalid rate limit policy overrides", "error", err)
		os.Exit(1)
	}
	counters := rlstore.NewInMemoryCounterStore()
	rlm := rlmetrics.New()
	eng, err := engine.New(table, counters,
		engine.WithLogger(log),
		engine.WithMetrics(rlm),
	)
	if err != nil {
		log.Error("invalid rate limit policy table", "error", err)
		os.Exit(1)
	}
	rl := rlmiddleware.New(eng, fingerprint.NewService(), log)

	// Two-factor lifecycle.
	challenges := twofactorStore.NewInMemoryChallengeStore()
	backups := twofactorStore.NewInMemoryBackupCodeStore()
	tfm := twofactorMetrics.New()
	twofactor := twofactorService.NewService(challenges, backups, sessions,
		dispatch.NewLogDispatcher(log),
		twofactorService.WithLogger(log),
		twofactorService.WithMetrics(tfm),
		twofactorService.WithTokenExpiry(cfg.TokenExpiry),
		twofactorService.WithBackupCodeCount(cfg.BackupCodeCount),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Config: cfg,
		Logger: log,
		Metadata: middleware.NewMetadata(&middleware.MetadataConfig{
			TrustedProxies: cfg.TrustedProxies,
		}),
		Composer: secheaders.NewComposer(secheaders.Config{
			Production:         cfg.IsProduction(),
			ExtraScriptOrigins: cfg.ExtraScriptOrigins,
			ExtraStyleOrigins:  cfg.ExtraStyleOrigins,
		}, secheaders.WithLogger(log)),
		RateLimit: rl,
		Guard:     guard,
		Sessions:  sessions,
		Tokens:    tokens,
		TwoFactor: twofactorHandler.New(twofactor, log),
	})

	srv := httpserver.New(cfg.Addr, router)
	sweeper := sweep.New(counters, challenges, sessions, maxWindow(table),
		sweep.WithLogger(log),
		sweep.WithInterval(cfg.SweepInterval),
		sweep.WithLiveCounterGauge(rlm.SetLiveCounters),
		sweep.WithPendingChallengeGauge(tfm.SetPendingChallenges),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := sweeper.Start(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// maxWindow returns the longest policy window, the horizon past which any
// counter is unreachable.
func maxWindow(table policy.Table) time.Duration {
	var max time.Duration
	for _, p := range table {
		if p.Window > max {
			max = p.Window
		}
	}
	return max
}
