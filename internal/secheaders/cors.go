package secheaders

import (
	"net/http"
	"slices"
	"strings"
)

// CORSConfig holds the exact-match origin allow-list for API routes.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORS returns middleware implementing the allow-list CORS policy for the API
// namespace.
//
// The Access-Control-Allow-Origin header is echoed only on an exact allow-list
// match; on any other origin the header is omitted entirely. Wildcards are
// never combined with credentials. Preflight OPTIONS requests are answered
// with 200 and no body.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Vary must cover every response on these routes, or a shared
			// cache could serve the header-less variant to an allowed origin.
			w.Header().Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin != "" && slices.Contains(allowed, origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
