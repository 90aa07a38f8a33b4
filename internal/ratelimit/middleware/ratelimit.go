package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	platformMW "edgeguard/internal/platform/middleware"
	"edgeguard/internal/platform/privacy"
	"edgeguard/internal/ratelimit/models"
	"edgeguard/pkg/httputil"
)

// RateLimiter is the engine surface the middleware needs.
type RateLimiter interface {
	Check(ctx context.Context, policyName, fingerprint string, r *http.Request) (*models.Result, error)
}

// Fingerprinter derives the per-caller key from transport metadata.
type Fingerprinter interface {
	Derive(addr, userAgent, acceptLanguage string) string
}

type Middleware struct {
	limiter      RateLimiter
	fingerprints Fingerprinter
	logger       *slog.Logger
}

func New(limiter RateLimiter, fingerprints Fingerprinter, logger *slog.Logger) *Middleware {
	return &Middleware{
		limiter:      limiter,
		fingerprints: fingerprints,
		logger:       logger,
	}
}

// Limit returns middleware enforcing the named policy for each request.
//
// Rate limit headers are attached regardless of outcome. A limiter error
// fails open and is logged.
func (m *Middleware) Limit(policyName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			fp := m.fingerprints.Derive(
				platformMW.GetClientIP(ctx),
				platformMW.GetUserAgent(ctx),
				platformMW.GetAcceptLanguage(ctx),
			)

			result, err := m.limiter.Check(ctx, policyName, fp, r)
			if err != nil {
				m.logger.Error("failed to check rate limit",
					"error", err,
					"policy", policyName,
					"ip_prefix", privacy.AnonymizeIP(platformMW.GetClientIP(ctx)),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeThrottled(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// addRateLimitHeaders adds X-RateLimit-* headers to the response.
func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeThrottled(w http.ResponseWriter, result *models.Result) {
	retryAfter := int(result.RetryAfter / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ThrottledResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: retryAfter,
	})
}
