package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "edgeguard/pkg/domainerrors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	// The response body may be incomplete, but headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and error responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		response := map[string]string{
			"error": string(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		WriteJSON(w, status, response)
		return
	}

	// Fallback for unexpected errors
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": string(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
//
// Step-up maps to 428 Precondition Required rather than a generic 401/403 so
// the front end can redirect into the verification flow instead of to login.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeThrottled:
		return http.StatusTooManyRequests
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized, dErrors.CodeSessionIdle, dErrors.CodeSessionUnauthenticated:
		return http.StatusUnauthorized
	case dErrors.CodeStepUpRequired:
		return http.StatusPreconditionRequired
	case dErrors.CodeChallengeNotFound:
		return http.StatusNotFound
	case dErrors.CodeChallengeExpired:
		return http.StatusGone
	case dErrors.CodeChallengeLocked:
		return http.StatusLocked
	case dErrors.CodeMismatch, dErrors.CodeInvalidBackupCode:
		return http.StatusBadRequest
	case dErrors.CodeDispatchFailure:
		return http.StatusBadGateway
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
