package secheaders

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompose_NonceAndCSP(t *testing.T) {
	c := NewComposer(Config{Production: true}, WithLogger(discardLogger()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	set := c.Compose(req)

	require.NotEmpty(t, set.Nonce)
	assert.Contains(t, set.CSP, "'nonce-"+set.Nonce+"'", "CSP must carry the same nonce handed to templates")
	assert.Contains(t, set.CSP, "default-src 'self'")
	assert.Contains(t, set.CSP, "frame-ancestors 'none'")
	assert.Contains(t, set.CSP, "base-uri 'self'")
	assert.Contains(t, set.CSP, "form-action 'self'")
}

func TestCompose_NoncesNeverRepeat(t *testing.T) {
	c := NewComposer(Config{}, WithLogger(discardLogger()))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	seen := make(map[string]bool)
	for range 100 {
		set := c.Compose(req)
		require.False(t, seen[set.Nonce], "nonce %q repeated", set.Nonce)
		seen[set.Nonce] = true
	}
}

func TestCompose_ExtraOrigins(t *testing.T) {
	c := NewComposer(Config{
		ExtraScriptOrigins: []string{"https://js.example.com"},
		ExtraStyleOrigins:  []string{"https://fonts.googleapis.com"},
	}, WithLogger(discardLogger()))

	set := c.Compose(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, set.CSP, "https://js.example.com")
	assert.Contains(t, set.CSP, "style-src 'self' https://fonts.googleapis.com")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestCompose_DegradesWithoutRandomSource(t *testing.T) {
	c := NewComposer(Config{Production: true},
		WithLogger(discardLogger()),
		WithRandSource(failingReader{}),
	)

	set := c.Compose(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, set.Nonce)
	assert.NotContains(t, set.CSP, "nonce-", "degraded CSP must not carry an empty nonce token")
	assert.Contains(t, set.CSP, "script-src 'self'")
	assert.NotEmpty(t, set.Static, "static hardening headers survive nonce failure")
}

func TestStaticHeaders_HSTSOnlyOverSecureTransport(t *testing.T) {
	c := NewComposer(Config{}, WithLogger(discardLogger()))

	t.Run("plain http", func(t *testing.T) {
		set := c.Compose(httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
		_, ok := set.Static["Strict-Transport-Security"]
		assert.False(t, ok)
	})

	t.Run("tls", func(t *testing.T) {
		set := c.Compose(httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
		assert.Equal(t, "max-age=31536000; includeSubDomains", set.Static["Strict-Transport-Security"])
	})

	t.Run("forwarded https", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		set := c.Compose(req)
		assert.Contains(t, set.Static, "Strict-Transport-Security")
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("production sends enforcing header and exposes nonce", func(t *testing.T) {
		c := NewComposer(Config{Production: true}, WithLogger(discardLogger()))

		var nonceInCtx string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonceInCtx = GetNonce(r.Context())
		})

		rec := httptest.NewRecorder()
		c.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		csp := rec.Header().Get("Content-Security-Policy")
		require.NotEmpty(t, csp)
		assert.Empty(t, rec.Header().Get("Content-Security-Policy-Report-Only"))
		require.NotEmpty(t, nonceInCtx)
		assert.Contains(t, csp, nonceInCtx)

		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.Equal(t, "require-corp", rec.Header().Get("Cross-Origin-Embedder-Policy"))
		assert.Equal(t, "same-origin", rec.Header().Get("Cross-Origin-Opener-Policy"))
		assert.Equal(t, "same-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
		for _, feature := range []string{"camera", "microphone", "geolocation", "payment", "usb"} {
			assert.Contains(t, rec.Header().Get("Permissions-Policy"), feature)
		}
	})

	t.Run("development sends report-only header", func(t *testing.T) {
		c := NewComposer(Config{Production: false}, WithLogger(discardLogger()))

		rec := httptest.NewRecorder()
		c.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
		assert.True(t, strings.Contains(rec.Header().Get("Content-Security-Policy-Report-Only"), "default-src 'self'"))
	})
}
