package config

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names used to toggle development-only behavior such as
// report-only CSP and the dev skip predicate.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures process-level configuration for the edge security layer.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// JWTSigningKey signs and validates session bearer tokens (HMAC-SHA256).
	JWTSigningKey string

	// SessionIssuerKey authenticates the upstream authenticator on the
	// session-issuance endpoint. Callers without it can never mint a session,
	// admin or otherwise.
	SessionIssuerKey string

	// TokenExpiry bounds the lifetime of a two-factor challenge.
	TokenExpiry time.Duration

	// BackupCodeCount is the number of backup codes issued at enrollment.
	BackupCodeCount int

	// SessionIdleTimeout resets two-factor elevation after inactivity.
	SessionIdleTimeout time.Duration

	// SweepInterval controls the background eviction sweep.
	SweepInterval time.Duration

	// CORSAllowedOrigins is the exact-match allow-list for the API namespace.
	CORSAllowedOrigins []string

	// ExtraScriptOrigins and ExtraStyleOrigins widen the CSP whitelist for
	// explicitly trusted third-party origins.
	ExtraScriptOrigins []string
	ExtraStyleOrigins  []string

	// TrustedProxies lists CIDR prefixes allowed to set X-Forwarded-For.
	TrustedProxies []netip.Prefix

	// PolicyOverrides tune individual rate limit policies, each entry in
	// "name:count/window" form, e.g. "auth:10/5m".
	PolicyOverrides []string
}

// FromEnv builds a Server config from EDGEGUARD_* environment variables so
// main stays lean. Missing variables fall back to the documented defaults.
func FromEnv() Server {
	cfg := Server{
		Addr:               envString("EDGEGUARD_ADDR", ":8080"),
		Environment:        envString("EDGEGUARD_ENV", EnvDevelopment),
		LogLevel:           envString("EDGEGUARD_LOG_LEVEL", "info"),
		JWTSigningKey:      envString("EDGEGUARD_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionIssuerKey:   envString("EDGEGUARD_SESSION_ISSUER_KEY", "dev-issuer-key-change-in-production"),
		TokenExpiry:        envDuration("EDGEGUARD_TOKEN_EXPIRY", 5*time.Minute),
		BackupCodeCount:    envInt("EDGEGUARD_BACKUP_CODE_COUNT", 10),
		SessionIdleTimeout: envDuration("EDGEGUARD_SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SweepInterval:      envDuration("EDGEGUARD_SWEEP_INTERVAL", 5*time.Minute),
		CORSAllowedOrigins: envList("EDGEGUARD_CORS_ALLOWED_ORIGINS"),
		ExtraScriptOrigins: envList("EDGEGUARD_CSP_SCRIPT_ORIGINS"),
		ExtraStyleOrigins:  envList("EDGEGUARD_CSP_STYLE_ORIGINS"),
		PolicyOverrides:    envList("EDGEGUARD_POLICY_OVERRIDES"),
	}

	for _, raw := range envList("EDGEGUARD_TRUSTED_PROXIES") {
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			cfg.TrustedProxies = append(cfg.TrustedProxies, prefix)
		}
	}

	return cfg
}

// IsProduction reports whether the enforcing CSP header (rather than
// report-only) should be sent and dev skip predicates disabled.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
