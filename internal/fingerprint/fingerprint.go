// Package fingerprint derives a stable, non-reversible per-caller key from
// transport metadata. The key exists only to index rate-limit counters; it is
// never written to logs or persisted beyond the counter lifetime.
package fingerprint

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mssola/useragent"

	"edgeguard/internal/platform/privacy"
)

const unknown = "unknown"

// Service computes caller fingerprints.
type Service struct{}

// NewService creates a fingerprint service.
func NewService() *Service {
	return &Service{}
}

// Derive computes a short stable identifier from the client address,
// User-Agent, and Accept-Language. All inputs are optional and default to
// "unknown". The function is pure and side-effect free.
//
// The User-Agent is normalized down to browser|major|os|platform before
// hashing so cosmetic UA churn (minor version bumps, build suffixes) does not
// rotate the key and reset counters. The address is anonymized to its /24
// (IPv4) or /48 (IPv6) before hashing, so the fingerprint never encodes a
// full host address.
func (s *Service) Derive(addr, userAgent, acceptLanguage string) string {
	if addr == "" {
		addr = unknown
	} else {
		addr = privacy.AnonymizeIP(addr)
	}

	ua := normalizeUserAgent(userAgent)

	lang := primaryLanguage(acceptLanguage)

	data := fmt.Sprintf("%s|%s|%s", addr, ua, lang)
	sum := sha256.Sum256([]byte(data))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}

// normalizeUserAgent reduces a raw User-Agent string to a stable
// browser|major|os|platform tuple.
func normalizeUserAgent(raw string) string {
	if raw == "" {
		return unknown
	}

	ua := useragent.New(raw)
	browser, version := ua.Browser()

	major := unknown
	if version != "" {
		if before, _, ok := strings.Cut(version, "."); ok && before != "" {
			major = before
		} else if version != "" {
			major = version
		}
	}

	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = unknown
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = unknown
	}

	return fmt.Sprintf("%s|%s|%s|%s", browser, major, os, platform)
}

// primaryLanguage extracts the first language tag from an Accept-Language
// header, dropping quality parameters.
func primaryLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return unknown
	}
	first := acceptLanguage
	if before, _, ok := strings.Cut(acceptLanguage, ","); ok {
		first = before
	}
	if before, _, ok := strings.Cut(first, ";"); ok {
		first = before
	}
	first = strings.ToLower(strings.TrimSpace(first))
	if first == "" {
		return unknown
	}
	return first
}
