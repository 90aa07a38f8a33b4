package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"edgeguard/internal/session"
	"edgeguard/internal/twofactor/models"
	dErrors "edgeguard/pkg/domainerrors"
)

// stubService records calls and returns canned errors per operation.
type stubService struct {
	initiateErr error
	verifyErr   error
	backupErr   error
	enrollCodes []string
	enrollErr   error

	gotChannel models.Channel
	gotCode    string
	gotCount   int
}

func (s *stubService) Initiate(ctx context.Context, userID string, channel models.Channel) error {
	s.gotChannel = channel
	return s.initiateErr
}

func (s *stubService) Verify(ctx context.Context, userID string, channel models.Channel, submitted string) error {
	s.gotChannel = channel
	s.gotCode = submitted
	return s.verifyErr
}

func (s *stubService) VerifyBackupCode(ctx context.Context, userID, code string) error {
	s.gotCode = code
	return s.backupErr
}

func (s *stubService) GenerateBackupCodes(ctx context.Context, userID string, n int) ([]string, error) {
	s.gotCount = n
	return s.enrollCodes, s.enrollErr
}

type HandlerSuite struct {
	suite.Suite
	svc    *stubService
	router chi.Router
}

func (s *HandlerSuite) SetupTest() {
	s.svc = &stubService{}
	h := New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) post(path, body string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req = req.WithContext(session.WithIdentity(req.Context(), "u1", false))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body map[string]string
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func (s *HandlerSuite) TestInitiate() {
	s.Run("accepted", func() {
		rec := s.post("/auth/2fa/initiate", `{"channel":"sms"}`, true)
		s.Equal(http.StatusAccepted, rec.Code)
		s.Equal(models.ChannelSMS, s.svc.gotChannel)
	})

	s.Run("unknown channel", func() {
		rec := s.post("/auth/2fa/initiate", `{"channel":"carrier-pigeon"}`, true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unauthenticated", func() {
		rec := s.post("/auth/2fa/initiate", `{"channel":"sms"}`, false)
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal(string(dErrors.CodeSessionUnauthenticated), s.errorCode(rec))
	})

	s.Run("dispatch failure surfaces 502", func() {
		s.svc.initiateErr = dErrors.New(dErrors.CodeDispatchFailure, "provider down")
		rec := s.post("/auth/2fa/initiate", `{"channel":"email"}`, true)
		s.Equal(http.StatusBadGateway, rec.Code)
		s.Equal(string(dErrors.CodeDispatchFailure), s.errorCode(rec))
	})
}

func (s *HandlerSuite) TestVerify() {
	s.Run("verified", func() {
		rec := s.post("/auth/2fa/verify", `{"channel":"sms","code":"123456"}`, true)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("123456", s.svc.gotCode)
	})

	s.Run("missing code", func() {
		rec := s.post("/auth/2fa/verify", `{"channel":"sms"}`, true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("expired maps to 410", func() {
		s.svc.verifyErr = dErrors.New(dErrors.CodeChallengeExpired, "expired")
		rec := s.post("/auth/2fa/verify", `{"channel":"sms","code":"123456"}`, true)
		s.Equal(http.StatusGone, rec.Code)
	})

	s.Run("locked maps to 423", func() {
		s.svc.verifyErr = dErrors.New(dErrors.CodeChallengeLocked, "locked")
		rec := s.post("/auth/2fa/verify", `{"channel":"sms","code":"123456"}`, true)
		s.Equal(http.StatusLocked, rec.Code)
	})
}

func (s *HandlerSuite) TestBackup() {
	s.Run("verified", func() {
		rec := s.post("/auth/2fa/backup", `{"code":"AAAA-BBBB"}`, true)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("AAAA-BBBB", s.svc.gotCode)
	})

	s.Run("invalid code maps to 400", func() {
		s.svc.backupErr = dErrors.New(dErrors.CodeInvalidBackupCode, "invalid")
		rec := s.post("/auth/2fa/backup", `{"code":"AAAA-BBBB"}`, true)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal(string(dErrors.CodeInvalidBackupCode), s.errorCode(rec))
	})
}

func (s *HandlerSuite) TestEnroll() {
	s.svc.enrollCodes = []string{"AAAA-BBBB", "CCCC-DDDD"}

	s.Run("empty body uses default count", func() {
		rec := s.post("/auth/2fa/enroll", "", true)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(0, s.svc.gotCount)

		var body map[string][]string
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal(s.svc.enrollCodes, body["backup_codes"])
	})

	s.Run("explicit count", func() {
		rec := s.post("/auth/2fa/enroll", `{"count":5}`, true)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(5, s.svc.gotCount)
	})
}
