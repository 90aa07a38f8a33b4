package httptransport

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"edgeguard/internal/platform/middleware"
	"edgeguard/internal/session"
	dErrors "edgeguard/pkg/domainerrors"
	"edgeguard/pkg/httputil"
)

// issuerKeyHeader carries the shared credential that authenticates the
// upstream authenticator on the session-issuance endpoint.
const issuerKeyHeader = "X-Issuer-Key"

type handlers struct {
	logger    *slog.Logger
	sessions  *session.Store
	tokens    *session.JWTValidator
	issuerKey string
}

type sessionIssueRequest struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// handleSessionIssue establishes a session after primary authentication.
// Credential verification itself is external; the upstream authenticator
// calls this endpoint with the verified user and must present the shared
// issuer key. An unauthenticated caller can therefore never mint a session,
// and in particular never one carrying the admin flag. The session always
// starts unelevated; only the two-factor flow can promote it.
func (h *handlers) handleSessionIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.issuerAuthenticated(r) {
		h.logger.WarnContext(ctx, "session issuance rejected",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "issuer authentication required"))
		return
	}

	var req sessionIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.UserID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user_id is required"))
		return
	}

	h.sessions.Put(ctx, req.UserID, req.Admin)
	token, err := h.tokens.Generate(req.UserID, req.Admin)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint session token",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "session established",
		"request_id", middleware.GetRequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"token": token,
	})
}

// issuerAuthenticated compares the presented issuer key in constant time.
// An empty configured key disables issuance entirely rather than opening it.
func (h *handlers) issuerAuthenticated(r *http.Request) bool {
	if h.issuerKey == "" {
		return false
	}
	presented := r.Header.Get(issuerKeyHeader)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.issuerKey)) == 1
}

// handleSessionStatus reports the caller's session state so the front end
// can decide whether to start the step-up flow.
func (h *handlers) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := session.GetUserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeSessionUnauthenticated, "authentication required"))
		return
	}

	sess, ok := h.sessions.Get(ctx, userID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeSessionUnauthenticated, "no active session"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":             sess.UserID,
		"two_factor_verified": sess.TwoFactorVerified,
	})
}

// handleAccount is a protected resource: reaching it requires an elevated
// session, enforced by the guard middleware on the route.
func (h *handlers) handleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id": session.GetUserID(ctx),
		"admin":   session.IsAdmin(ctx),
	})
}

type contactRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// handleContact accepts a contact-form submission. Delivery is out of band;
// the edge layer's job is the strict 3-per-hour ceiling on the route.
func (h *handlers) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.Email == "" || req.Message == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "email and message are required"))
		return
	}

	h.logger.InfoContext(ctx, "contact submission accepted",
		"request_id", middleware.GetRequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}

// handleTelemetry ingests client performance beacons. Payloads are logged
// and dropped; the high-ceiling rate policy is the point of the route.
func (h *handlers) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	h.logger.DebugContext(ctx, "telemetry beacon",
		"keys", len(payload),
		"request_id", middleware.GetRequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
