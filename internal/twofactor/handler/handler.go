// Package handler exposes the two-factor lifecycle over HTTP. All routes
// require an authenticated caller; the identity middleware supplies the user
// ID, so request bodies never carry one.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"edgeguard/internal/platform/middleware"
	"edgeguard/internal/session"
	"edgeguard/internal/twofactor/models"
	dErrors "edgeguard/pkg/domainerrors"
	"edgeguard/pkg/httputil"
)

// Service defines the two-factor operations the handler needs.
type Service interface {
	Initiate(ctx context.Context, userID string, channel models.Channel) error
	Verify(ctx context.Context, userID string, channel models.Channel, submitted string) error
	VerifyBackupCode(ctx context.Context, userID, code string) error
	GenerateBackupCodes(ctx context.Context, userID string, n int) ([]string, error)
}

type Handler struct {
	logger    *slog.Logger
	twofactor Service
}

func New(twofactor Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		twofactor: twofactor,
	}
}

// Register mounts the two-factor routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/2fa/initiate", h.handleInitiate)
	r.Post("/auth/2fa/verify", h.handleVerify)
	r.Post("/auth/2fa/backup", h.handleBackup)
	r.Post("/auth/2fa/enroll", h.handleEnroll)
}

type initiateRequest struct {
	Channel string `json:"channel"`
}

type verifyRequest struct {
	Channel string `json:"channel"`
	Code    string `json:"code"`
}

type backupRequest struct {
	Code string `json:"code"`
}

type enrollRequest struct {
	Count int `json:"count,omitempty"`
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req initiateRequest
	if !h.decode(w, r, &req) {
		return
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "channel must be sms or email"))
		return
	}

	if err := h.twofactor.Initiate(ctx, userID, channel); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "sent",
		"channel": string(channel),
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req verifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "channel must be sms or email"))
		return
	}
	if req.Code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "code is required"))
		return
	}

	if err := h.twofactor.Verify(ctx, userID, channel, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req backupRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "code is required"))
		return
	}

	if err := h.twofactor.VerifyBackupCode(ctx, userID, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// handleEnroll mints a fresh backup-code pool. The plaintext codes appear in
// this response and nowhere else.
func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req enrollRequest
	if !h.decode(w, r, &req) {
		return
	}

	codes, err := h.twofactor.GenerateBackupCodes(ctx, userID, req.Count)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"backup_codes": codes,
	})
}

// caller resolves the authenticated user from context. The identity
// middleware runs ahead of these routes, so an empty user means the caller
// never authenticated.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := session.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeSessionUnauthenticated, "authentication required"))
		return "", false
	}
	return userID, true
}

// decode parses a JSON body, tolerating an empty body for requests whose
// fields are all optional.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode request body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return false
	}
	return true
}
