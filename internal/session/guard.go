package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	platformMW "edgeguard/internal/platform/middleware"
	dErrors "edgeguard/pkg/domainerrors"
	"edgeguard/pkg/httputil"
)

// TokenValidator validates session bearer tokens.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

type identityKey struct{}

type identity struct {
	userID string
	admin  bool
}

// WithIdentity stores the authenticated caller in the context.
func WithIdentity(ctx context.Context, userID string, admin bool) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{userID: userID, admin: admin})
}

// GetUserID returns the authenticated caller's user ID, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey{}).(identity); ok {
		return id.userID
	}
	return ""
}

// IsAdmin reports whether the caller was authenticated as an admin. Only the
// Identity middleware sets this, and only from a validated token backed by a
// live authenticated session. This is the sole source the rate-limit admin
// bypass is allowed to trust.
func IsAdmin(ctx context.Context) bool {
	if id, ok := ctx.Value(identityKey{}).(identity); ok {
		return id.admin
	}
	return false
}

// Guard enforces session and two-factor requirements on protected routes.
type Guard struct {
	sessions *Store
	tokens   TokenValidator
	logger   *slog.Logger
}

func NewGuard(sessions *Store, tokens TokenValidator, logger *slog.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// Identity is a non-enforcing middleware that resolves the bearer token to a
// context identity when one is present and backed by a live session. It runs
// early in the chain so the rate limiter's admin predicate can see the
// caller; enforcement belongs to RequireTwoFactor.
func (g *Guard) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.tokens.Validate(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, found := g.sessions.Get(r.Context(), claims.UserID)
		if !found || !sess.Authenticated || g.sessions.Idle(sess) {
			next.ServeHTTP(w, r)
			return
		}

		// Admin status comes from the session record, never from the
		// token alone: a revoked admin keeps an admin-flagged token
		// until expiry, but loses the session flag immediately.
		ctx := WithIdentity(r.Context(), sess.UserID, sess.Admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTwoFactor guards routes that need an elevated session.
//
// Missing/invalid token or session: 401. Idle session: evicted, then 401
// with a distinct code. Authenticated but unelevated: 428 with
// step_up_required so the client can redirect into the verification flow
// instead of to login. Elevated: last activity is touched and the request
// proceeds with identity in context.
func (g *Guard) RequireTwoFactor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := bearerToken(r)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeSessionUnauthenticated, "missing bearer token"))
			return
		}

		claims, err := g.tokens.Validate(token)
		if err != nil {
			g.logger.WarnContext(ctx, "unauthorized access - invalid token",
				"error", err,
				"request_id", platformMW.GetRequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeSessionUnauthenticated, "invalid or expired token"))
			return
		}

		sess, found := g.sessions.Get(ctx, claims.UserID)
		if !found || !sess.Authenticated {
			httputil.WriteError(w, dErrors.New(dErrors.CodeSessionUnauthenticated, "no authenticated session"))
			return
		}

		if g.sessions.Idle(sess) {
			g.sessions.Delete(ctx, claims.UserID)
			g.logger.InfoContext(ctx, "session evicted after idle timeout",
				"request_id", platformMW.GetRequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeSessionIdle, "session idle, re-authenticate"))
			return
		}

		if !sess.TwoFactorVerified {
			httputil.WriteError(w, dErrors.New(dErrors.CodeStepUpRequired, "two-factor verification required"))
			return
		}

		g.sessions.Touch(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, sess.UserID, sess.Admin)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
}
