package policy

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid", Policy{Name: "api", Window: time.Minute, MaxRequests: 10}, false},
		{"missing name", Policy{Window: time.Minute, MaxRequests: 10}, true},
		{"zero window", Policy{Name: "api", Window: 0, MaxRequests: 10}, true},
		{"zero ceiling", Policy{Name: "api", Window: time.Minute, MaxRequests: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	require.NoError(t, table.Validate())

	assert.Equal(t, 100, table[NameAPI].MaxRequests)
	assert.Equal(t, 15*time.Minute, table[NameAPI].Window)
	assert.Equal(t, 5, table[NameAuth].MaxRequests)
	assert.Equal(t, 3, table[NameContact].MaxRequests)
	assert.Equal(t, 60*time.Minute, table[NameContact].Window)
	assert.Greater(t, table[NameTelemetry].MaxRequests, table[NameAPI].MaxRequests,
		"telemetry carries a higher ceiling than the general api policy")
}

func TestTableGet_UnknownFallsBackToAPI(t *testing.T) {
	table := DefaultTable()
	p := table.Get("never-registered")
	assert.Equal(t, NameAPI, p.Name)
}

func TestApplyOverrides(t *testing.T) {
	t.Run("valid override applied", func(t *testing.T) {
		table := DefaultTable()
		require.NoError(t, table.ApplyOverrides([]string{"auth:10/5m"}))
		assert.Equal(t, 10, table[NameAuth].MaxRequests)
		assert.Equal(t, 5*time.Minute, table[NameAuth].Window)
	})

	t.Run("unknown policy rejected", func(t *testing.T) {
		table := DefaultTable()
		assert.Error(t, table.ApplyOverrides([]string{"nope:10/5m"}))
	})

	t.Run("malformed entries rejected", func(t *testing.T) {
		table := DefaultTable()
		for _, raw := range []string{"auth", "auth:10", "auth:x/5m", "auth:10/xyz", "auth:0/5m"} {
			assert.Error(t, table.ApplyOverrides([]string{raw}), "entry %q", raw)
		}
	})
}

func TestSkipPredicates(t *testing.T) {
	t.Run("dev environment", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/data", nil)
		assert.True(t, DevEnvironment(false).Matches(req))
		assert.False(t, DevEnvironment(true).Matches(req))
	})

	t.Run("health check path", func(t *testing.T) {
		pred := HealthCheckPath()
		assert.True(t, pred.Matches(httptest.NewRequest("GET", "/health", nil)))
		assert.True(t, pred.Matches(httptest.NewRequest("GET", "/health/ready", nil)))
		assert.False(t, pred.Matches(httptest.NewRequest("GET", "/healthcheck-lookalike", nil)))
	})

	t.Run("static asset path", func(t *testing.T) {
		pred := StaticAssetPath()
		assert.True(t, pred.Matches(httptest.NewRequest("GET", "/static/app.css", nil)))
		assert.True(t, pred.Matches(httptest.NewRequest("GET", "/assets/logo.png", nil)))
		assert.True(t, pred.Matches(httptest.NewRequest("GET", "/favicon.ico", nil)))
		assert.False(t, pred.Matches(httptest.NewRequest("GET", "/api/data", nil)))
	})

	t.Run("admin caller trusts only the injected check", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/data", nil)
		req.Header.Set("X-Admin", "true") // headers alone must never grant the bypass

		assert.False(t, AdminCaller(nil).Matches(req))
		assert.False(t, AdminCaller(func(*http.Request) bool { return false }).Matches(req))
		assert.True(t, AdminCaller(func(*http.Request) bool { return true }).Matches(req))
	})
}
