// Package policy defines the named rate-limit policy table and the skip
// predicates that exempt a request from counting.
package policy

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
)

// Well-known policy names. The table is defined at process start and is
// immutable thereafter.
const (
	NameAPI       = "api"
	NameAuth      = "auth"
	NameContact   = "contact"
	NameTelemetry = "telemetry"
)

// SkipPredicate exempts a request from rate limiting when Matches returns
// true. Predicates run before any counter is touched.
type SkipPredicate struct {
	Name    string
	Matches func(r *http.Request) bool
}

// Policy is a named fixed-window rate limit.
type Policy struct {
	Name        string
	Window      time.Duration
	MaxRequests int
	Skip        []SkipPredicate
}

// Validate enforces the policy invariants.
func (p Policy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name is required")
	}
	if p.Window <= 0 {
		return fmt.Errorf("policy %s: window must be positive", p.Name)
	}
	if p.MaxRequests < 1 {
		return fmt.Errorf("policy %s: max requests must be at least 1", p.Name)
	}
	return nil
}

// Table maps policy names to policies.
type Table map[string]Policy

// Get returns the named policy, falling back to the api policy for unknown
// names so an unregistered route class never runs unlimited.
func (t Table) Get(name string) Policy {
	if p, ok := t[name]; ok {
		return p
	}
	return t[NameAPI]
}

// Validate checks every policy in the table.
func (t Table) Validate() error {
	for _, p := range t {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultTable returns the built-in policy set.
//
// The shared predicates are applied to every policy; the auth and contact
// policies keep tight ceilings because they guard credential entry and
// outbound mail respectively, while telemetry tolerates bursts.
func DefaultTable(shared ...SkipPredicate) Table {
	return Table{
		NameAPI:       {Name: NameAPI, Window: 15 * time.Minute, MaxRequests: 100, Skip: shared},
		NameAuth:      {Name: NameAuth, Window: 15 * time.Minute, MaxRequests: 5, Skip: shared},
		NameContact:   {Name: NameContact, Window: 60 * time.Minute, MaxRequests: 3, Skip: shared},
		NameTelemetry: {Name: NameTelemetry, Window: 15 * time.Minute, MaxRequests: 500, Skip: shared},
	}
}

// ApplyOverrides mutates the table from "name:count/window" entries, e.g.
// "auth:10/5m". Unknown names and malformed entries are reported, not
// silently dropped, since a typo here weakens an edge control.
func (t Table) ApplyOverrides(overrides []string) error {
	for _, raw := range overrides {
		name, spec, ok := strings.Cut(raw, ":")
		if !ok {
			return fmt.Errorf("malformed policy override %q", raw)
		}
		p, exists := t[name]
		if !exists {
			return fmt.Errorf("policy override for unknown policy %q", name)
		}

		countStr, windowStr, ok := strings.Cut(spec, "/")
		if !ok {
			return fmt.Errorf("malformed policy override %q", raw)
		}
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return fmt.Errorf("malformed policy override %q: %w", raw, err)
		}
		window, err := time.ParseDuration(windowStr)
		if err != nil {
			return fmt.Errorf("malformed policy override %q: %w", raw, err)
		}

		p.MaxRequests = count
		p.Window = window
		if err := p.Validate(); err != nil {
			return err
		}
		t[name] = p
	}
	return nil
}

// DevEnvironment exempts all traffic when the process runs outside
// production.
func DevEnvironment(isProduction bool) SkipPredicate {
	return SkipPredicate{
		Name: "dev_environment",
		Matches: func(*http.Request) bool {
			return !isProduction
		},
	}
}

// HealthCheckPath exempts liveness and readiness probes.
func HealthCheckPath() SkipPredicate {
	return SkipPredicate{
		Name: "health_check_path",
		Matches: func(r *http.Request) bool {
			return r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/health/")
		},
	}
}

// StaticAssetPath exempts static asset requests, which are served from cache
// and cheap enough that counting them only burns counter memory.
func StaticAssetPath() SkipPredicate {
	staticExts := map[string]bool{
		".css": true, ".js": true, ".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".svg": true, ".ico": true, ".woff": true, ".woff2": true,
	}
	return SkipPredicate{
		Name: "static_asset_path",
		Matches: func(r *http.Request) bool {
			if strings.HasPrefix(r.URL.Path, "/static/") || strings.HasPrefix(r.URL.Path, "/assets/") {
				return true
			}
			return staticExts[strings.ToLower(path.Ext(r.URL.Path))]
		},
	}
}

// AdminCaller exempts callers whose session guard has already authenticated
// them as admins. The predicate trusts only the isAdmin function, which must
// read state set by the verified session middleware; a bare header or query
// parameter is never an acceptable source for this bypass.
func AdminCaller(isAdmin func(r *http.Request) bool) SkipPredicate {
	return SkipPredicate{
		Name: "admin_caller",
		Matches: func(r *http.Request) bool {
			return isAdmin != nil && isAdmin(r)
		},
	}
}
