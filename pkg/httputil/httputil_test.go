package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "edgeguard/pkg/domainerrors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusAccepted, map[string]string{"status": "dispatched"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dispatched", body["status"])
}

func TestWriteError(t *testing.T) {
	t.Run("domain error carries code and description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, dErrors.New(dErrors.CodeChallengeExpired, "challenge expired, request a new code"))

		assert.Equal(t, http.StatusGone, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "challenge_expired", body["error"])
		assert.Equal(t, "challenge expired, request a new code", body["error_description"])
	})

	t.Run("plain error falls back to 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "internal_error", body["error"])
	})
}

func TestDomainCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeThrottled, http.StatusTooManyRequests},
		{dErrors.CodeStepUpRequired, http.StatusPreconditionRequired},
		{dErrors.CodeSessionIdle, http.StatusUnauthorized},
		{dErrors.CodeSessionUnauthenticated, http.StatusUnauthorized},
		{dErrors.CodeChallengeNotFound, http.StatusNotFound},
		{dErrors.CodeChallengeExpired, http.StatusGone},
		{dErrors.CodeChallengeLocked, http.StatusLocked},
		{dErrors.CodeMismatch, http.StatusBadRequest},
		{dErrors.CodeInvalidBackupCode, http.StatusBadRequest},
		{dErrors.CodeDispatchFailure, http.StatusBadGateway},
		{dErrors.Code("something_new"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, DomainCodeToHTTPStatus(tt.code))
		})
	}
}
