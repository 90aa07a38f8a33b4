// Package httptransport assembles the guard chain: request plumbing,
// security headers, identity resolution, per-policy rate limiting, and the
// protected-route session guard, in that order. Handlers stay thin and
// delegate to domain services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edgeguard/internal/platform/config"
	"edgeguard/internal/platform/middleware"
	rlmiddleware "edgeguard/internal/ratelimit/middleware"
	"edgeguard/internal/secheaders"
	"edgeguard/internal/session"
	twofactorHandler "edgeguard/internal/twofactor/handler"
)

// Deps carries everything the router needs. All fields are required.
type Deps struct {
	Config    config.Server
	Logger    *slog.Logger
	Metadata  *middleware.Metadata
	Composer  *secheaders.Composer
	RateLimit *rlmiddleware.Middleware
	Guard     *session.Guard
	Sessions  *session.Store
	Tokens    *session.JWTValidator
	TwoFactor *twofactorHandler.Handler
}

// NewRouter wires the full middleware chain and all public endpoints.
//
// Ordering matters: metadata extraction must precede fingerprinting, and the
// non-enforcing identity resolver must precede the rate limiter so the admin
// skip predicate can see the caller.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(d.Metadata.Handler)
	r.Use(d.Composer.Middleware)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := &handlers{
		logger:    d.Logger,
		sessions:  d.Sessions,
		tokens:    d.Tokens,
		issuerKey: d.Config.SessionIssuerKey,
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(secheaders.CORS(secheaders.CORSConfig{
			AllowedOrigins: d.Config.CORSAllowedOrigins,
		}))
		api.Use(d.Guard.Identity)

		api.Group(func(auth chi.Router) {
			auth.Use(d.RateLimit.Limit("auth"))
			auth.Post("/auth/session", h.handleSessionIssue)
			d.TwoFactor.Register(auth)
		})

		api.Group(func(general chi.Router) {
			general.Use(d.RateLimit.Limit("api"))
			general.Get("/session", h.handleSessionStatus)
			general.With(d.Guard.RequireTwoFactor).Get("/account", h.handleAccount)
		})

		api.Group(func(contact chi.Router) {
			contact.Use(d.RateLimit.Limit("contact"))
			contact.Post("/contact", h.handleContact)
		})

		api.Group(func(telemetry chi.Router) {
			telemetry.Use(d.RateLimit.Limit("telemetry"))
			telemetry.Post("/telemetry", h.handleTelemetry)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
