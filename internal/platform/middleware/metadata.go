package middleware

import (
	"context"
	"net/http"
	"net/netip"
	"strings"
)

// MaxForwardedHeaderLength caps X-Forwarded-For and X-Real-IP values to
// prevent header injection through oversized values.
const MaxForwardedHeaderLength = 500

// MetadataConfig holds configuration for the client metadata middleware.
type MetadataConfig struct {
	// TrustedProxies is a list of IP prefixes (CIDR notation) that are trusted
	// to set X-Forwarded-For headers. If empty, XFF is never trusted.
	TrustedProxies []netip.Prefix
}

// Metadata extracts client transport metadata (IP, User-Agent, Accept-Language)
// and adds it to the request context. Fingerprint derivation and rate limiting
// read these values instead of touching the request again.
type Metadata struct {
	config *MetadataConfig
}

// NewMetadata creates a new metadata middleware with the given config.
// A nil config means no proxies are trusted (secure by default).
func NewMetadata(cfg *MetadataConfig) *Metadata {
	if cfg == nil {
		cfg = &MetadataConfig{}
	}
	return &Metadata{config: cfg}
}

type clientMetadataKey struct{}

type clientMetadata struct {
	ip             string
	userAgent      string
	acceptLanguage string
}

// Handler extracts client metadata from the request and stores it in context.
func (m *Metadata) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := clientMetadata{
			ip:             m.extractClientIP(r),
			userAgent:      r.Header.Get("User-Agent"),
			acceptLanguage: r.Header.Get("Accept-Language"),
		}

		ctx := context.WithValue(r.Context(), clientMetadataKey{}, meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP returns the client IP extracted by the Metadata middleware,
// or "unknown" when the middleware did not run.
func GetClientIP(ctx context.Context) string {
	if meta, ok := ctx.Value(clientMetadataKey{}).(clientMetadata); ok && meta.ip != "" {
		return meta.ip
	}
	return "unknown"
}

// GetUserAgent returns the User-Agent header captured by the Metadata middleware.
func GetUserAgent(ctx context.Context) string {
	if meta, ok := ctx.Value(clientMetadataKey{}).(clientMetadata); ok {
		return meta.userAgent
	}
	return ""
}

// GetAcceptLanguage returns the Accept-Language header captured by the Metadata middleware.
func GetAcceptLanguage(ctx context.Context) string {
	if meta, ok := ctx.Value(clientMetadataKey{}).(clientMetadata); ok {
		return meta.acceptLanguage
	}
	return ""
}

// extractClientIP extracts the client IP with trusted proxy validation.
func (m *Metadata) extractClientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := r.Header.Get("X-Real-IP"); xri != "" && m.isTrustedProxy(remoteIP) {
			if len(xri) <= MaxForwardedHeaderLength {
				if ip := strings.TrimSpace(xri); validIP(ip) {
					return ip
				}
			}
		}
		return remoteIP
	}

	// XFF header present - only trust if request came from a trusted proxy
	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}
	if len(xff) > MaxForwardedHeaderLength {
		return remoteIP
	}

	// First IP in the XFF chain is the original client
	clientIP := xff
	if before, _, ok := strings.Cut(xff, ","); ok {
		clientIP = before
	}
	clientIP = strings.TrimSpace(clientIP)

	if !validIP(clientIP) {
		return remoteIP
	}
	return clientIP
}

// isTrustedProxy checks if the given IP is in the trusted proxy list.
func (m *Metadata) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr strips the port from an addr:port RemoteAddr value.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if addrPort, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return addrPort.Addr().String()
	}
	// Some test servers set RemoteAddr without a port.
	if validIP(remoteAddr) {
		return remoteAddr
	}
	return ""
}

func validIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}
