// Package secheaders composes the per-response security header set: a
// nonce-carrying Content-Security-Policy, the static hardening headers, and
// CORS for the API namespace.
package secheaders

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// HeaderSet is the transient, request-scoped result of composition. It is
// written onto the response and discarded; nothing here is persisted.
type HeaderSet struct {
	Nonce  string
	CSP    string
	Static map[string]string
}

// Config controls composition.
type Config struct {
	// Production selects the enforcing CSP header; otherwise the same
	// directive string is sent report-only so misconfigurations surface
	// without breakage.
	Production bool

	// ExtraScriptOrigins and ExtraStyleOrigins extend the whitelist for
	// explicitly trusted third parties.
	ExtraScriptOrigins []string
	ExtraStyleOrigins  []string
}

// Composer builds security header sets. Compose never fails the request: a
// broken random source degrades to a nonce-less header set, which is strictly
// better than no headers and far better than an outage.
type Composer struct {
	cfg    Config
	logger *slog.Logger
	rand   io.Reader
}

type ComposerOption func(*Composer)

func WithLogger(logger *slog.Logger) ComposerOption {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRandSource injects the nonce entropy source, used by tests to force
// degraded composition.
func WithRandSource(r io.Reader) ComposerOption {
	return func(c *Composer) {
		if r != nil {
			c.rand = r
		}
	}
}

func NewComposer(cfg Config, opts ...ComposerOption) *Composer {
	c := &Composer{
		cfg:    cfg,
		logger: slog.Default(),
		rand:   defaultRandSource,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds the header set for one request. Always succeeds.
func (c *Composer) Compose(r *http.Request) *HeaderSet {
	nonce, err := GenerateNonce(c.rand)
	if err != nil {
		// Degrade rather than abort: a response without a script nonce
		// still carries every other hardening header.
		c.logger.Error("nonce generation failed, composing without nonce", "error", err)
		nonce = ""
	}

	set := &HeaderSet{
		Nonce:  nonce,
		CSP:    c.buildCSP(nonce),
		Static: c.staticHeaders(r),
	}
	return set
}

// Apply writes the composed set onto a response.
func (set *HeaderSet) Apply(w http.ResponseWriter, production bool) {
	h := w.Header()
	if production {
		h.Set("Content-Security-Policy", set.CSP)
	} else {
		h.Set("Content-Security-Policy-Report-Only", set.CSP)
	}
	for name, value := range set.Static {
		h.Set(name, value)
	}
}

// buildCSP assembles the whitelist directive string.
func (c *Composer) buildCSP(nonce string) string {
	scriptSrc := []string{"'self'"}
	if nonce != "" {
		scriptSrc = append(scriptSrc, fmt.Sprintf("'nonce-%s'", nonce))
	}
	scriptSrc = append(scriptSrc, c.cfg.ExtraScriptOrigins...)

	styleSrc := append([]string{"'self'"}, c.cfg.ExtraStyleOrigins...)

	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(scriptSrc, " "),
		"style-src " + strings.Join(styleSrc, " "),
		"img-src 'self' data:",
		"font-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// staticHeaders returns the hardening headers that do not depend on the nonce.
func (c *Composer) staticHeaders(r *http.Request) map[string]string {
	headers := map[string]string{
		"X-Frame-Options":              "DENY",
		"X-Content-Type-Options":       "nosniff",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Permissions-Policy":           "camera=(), microphone=(), geolocation=(), payment=(), usb=()",
		"Cross-Origin-Embedder-Policy": "require-corp",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}

	// HSTS is meaningful only when the request already arrived over a
	// secure transport.
	if isSecureTransport(r) {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return headers
}

func isSecureTransport(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// Middleware composes and attaches the header set to every response and makes
// the nonce available to downstream handlers via context. It always runs, even
// for error responses.
func (c *Composer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		set := c.Compose(r)
		set.Apply(w, c.cfg.Production)

		ctx := WithNonce(r.Context(), set.Nonce)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
