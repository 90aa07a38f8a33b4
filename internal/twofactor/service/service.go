// Package service implements the two-factor challenge lifecycle: issue a
// time-boxed one-time code, dispatch it out of band, verify submissions,
// and elevate the caller's session on success. Backup codes cover the case
// where the primary channel is unavailable.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"edgeguard/internal/platform/middleware"
	"edgeguard/internal/twofactor/metrics"
	"edgeguard/internal/twofactor/models"
	dErrors "edgeguard/pkg/domainerrors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ChallengeStore,BackupCodeStore,SessionElevator,ChannelDispatcher

// ChallengeStore persists pending challenges. Attempt resolves the full
// challenge state machine atomically per (user, channel) key.
type ChallengeStore interface {
	Put(ctx context.Context, ch models.Challenge)
	Attempt(ctx context.Context, userID string, channel models.Channel, submitted string) (models.AttemptOutcome, int)
}

// BackupCodeStore persists per-user pools of hashed single-use codes.
type BackupCodeStore interface {
	Replace(ctx context.Context, userID string, hashes [][]byte)
	Consume(ctx context.Context, userID, code string) bool
}

// SessionElevator marks a session two-factor verified. Elevate reports false
// when no authenticated session exists for the user.
type SessionElevator interface {
	Elevate(ctx context.Context, userID string) bool
}

// ChannelDispatcher delivers a verification code out of band. The recipient
// address lives with the adapter, not here; this service only knows the user
// and the channel. Dispatch timeouts and retries are the adapter's concern.
type ChannelDispatcher interface {
	SendSMS(ctx context.Context, userID, code string) error
	SendEmail(ctx context.Context, userID, code string) error
}

const defaultTokenExpiry = 5 * time.Minute

type Service struct {
	challenges  ChallengeStore
	backups     BackupCodeStore
	sessions    SessionElevator
	dispatcher  ChannelDispatcher
	tokenExpiry time.Duration
	backupCodes int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithTokenExpiry configures how long an issued code stays valid.
// Zero or negative values fall back to the 5 minute default.
func WithTokenExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tokenExpiry = d
		}
	}
}

// WithBackupCodeCount sets how many backup codes enrollment issues. The
// value is both the default and the ceiling for client-requested counts;
// each code costs a bcrypt hash, so the request body must not scale the
// work unboundedly.
func WithBackupCodeCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.backupCodes = n
		}
	}
}

// WithClock injects a clock, used by tests to step past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(challenges ChallengeStore, backups BackupCodeStore, sessions SessionElevator, dispatcher ChannelDispatcher, opts ...Option) *Service {
	svc := &Service{
		challenges:  challenges,
		backups:     backups,
		sessions:    sessions,
		dispatcher:  dispatcher,
		tokenExpiry: defaultTokenExpiry,
		backupCodes: models.DefaultBackupCodeCount,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("edgeguard/twofactor")
	}
	return svc
}

// Initiate issues a fresh code for the (user, channel) pair and dispatches
// it. Any prior challenge for the pair is replaced. Dispatch runs after the
// store write with no locks held; on dispatch failure the stored challenge
// is kept so the user can retry delivery without invalidating the code, and
// the caller sees a dispatch error distinct from any verification failure.
func (s *Service) Initiate(ctx context.Context, userID string, channel models.Channel) error {
	ctx, span := s.tracer.Start(ctx, "twofactor.initiate",
		trace.WithAttributes(attribute.String("channel", string(channel))))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	code, err := generateCode()
	if err != nil {
		spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
		return spanErr
	}

	now := s.now()
	s.challenges.Put(ctx, models.Challenge{
		UserID:    userID,
		Channel:   channel,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenExpiry),
	})
	if s.metrics != nil {
		s.metrics.IncrementIssued(string(channel))
	}

	if err := s.dispatch(ctx, userID, channel, code); err != nil {
		s.logger.ErrorContext(ctx, "verification code dispatch failed",
			"channel", channel,
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		if s.metrics != nil {
			s.metrics.IncrementDispatchFailure(string(channel))
		}
		spanErr = dErrors.Wrap(err, dErrors.CodeDispatchFailure, "could not deliver verification code")
		return spanErr
	}

	s.logger.InfoContext(ctx, "verification code issued",
		"channel", channel,
		"expires_in", s.tokenExpiry.String(),
		"request_id", middleware.GetRequestID(ctx),
	)
	return nil
}

func (s *Service) dispatch(ctx context.Context, userID string, channel models.Channel, code string) error {
	switch channel {
	case models.ChannelSMS:
		return s.dispatcher.SendSMS(ctx, userID, code)
	case models.ChannelEmail:
		return s.dispatcher.SendEmail(ctx, userID, code)
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown dispatch channel")
	}
}

// Verify submits a code against the pending challenge. On success the
// challenge is consumed and the user's session is elevated. Expired
// challenges are cleared so a later submission reads as not-found; a locked
// challenge rejects even the correct code.
func (s *Service) Verify(ctx context.Context, userID string, channel models.Channel, submitted string) error {
	ctx, span := s.tracer.Start(ctx, "twofactor.verify",
		trace.WithAttributes(attribute.String("channel", string(channel))))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	outcome, remaining := s.challenges.Attempt(ctx, userID, channel, submitted)
	s.recordVerify(outcome)

	switch outcome {
	case models.AttemptNotFound:
		spanErr = dErrors.New(dErrors.CodeChallengeNotFound, "no pending verification for this channel")
	case models.AttemptExpired:
		spanErr = dErrors.New(dErrors.CodeChallengeExpired, "verification code expired, request a new one")
	case models.AttemptLocked:
		s.logger.WarnContext(ctx, "verification challenge locked",
			"channel", channel,
			"request_id", middleware.GetRequestID(ctx),
		)
		spanErr = dErrors.New(dErrors.CodeChallengeLocked, "too many attempts, use a backup code")
	case models.AttemptMismatch:
		span.SetAttributes(attribute.Int("attempts_remaining", remaining))
		spanErr = dErrors.New(dErrors.CodeMismatch, attemptsRemainingMessage(remaining))
	case models.AttemptVerified:
		spanErr = s.elevate(ctx, userID)
	}
	return spanErr
}

// VerifyBackupCode consumes a single-use backup code and elevates the
// session exactly as a successful Verify would. Codes are matched
// case-insensitively; a used code never matches again.
func (s *Service) VerifyBackupCode(ctx context.Context, userID, code string) error {
	ctx, span := s.tracer.Start(ctx, "twofactor.verify_backup_code")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		spanErr = dErrors.New(dErrors.CodeInvalidInput, "backup code is required")
		return spanErr
	}

	if !s.backups.Consume(ctx, userID, normalized) {
		spanErr = dErrors.New(dErrors.CodeInvalidBackupCode, "backup code invalid or already used")
		return spanErr
	}

	if s.metrics != nil {
		s.metrics.IncrementBackupUsed()
	}
	s.logger.InfoContext(ctx, "backup code consumed",
		"request_id", middleware.GetRequestID(ctx),
	)
	spanErr = s.elevate(ctx, userID)
	return spanErr
}

// GenerateBackupCodes mints a fresh pool of single-use codes for the user,
// replacing any prior pool. The plaintext codes are returned exactly once;
// only bcrypt hashes are stored. Requested counts outside (0, configured]
// are clamped to the configured pool size.
func (s *Service) GenerateBackupCodes(ctx context.Context, userID string, n int) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "twofactor.generate_backup_codes")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	if n <= 0 || n > s.backupCodes {
		n = s.backupCodes
	}

	plaintext := make([]string, 0, n)
	hashes := make([][]byte, 0, n)
	for range n {
		code, err := generateBackupCode()
		if err != nil {
			spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate backup code")
			return nil, spanErr
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash backup code")
			return nil, spanErr
		}
		plaintext = append(plaintext, code)
		hashes = append(hashes, hash)
	}

	s.backups.Replace(ctx, userID, hashes)
	if s.metrics != nil {
		s.metrics.AddBackupMinted(n)
	}
	s.logger.InfoContext(ctx, "backup codes generated",
		"count", n,
		"request_id", middleware.GetRequestID(ctx),
	)
	return plaintext, nil
}

// elevate promotes the session after a successful code or backup-code
// verification. These are the only two paths that ever set the verified
// flag.
func (s *Service) elevate(ctx context.Context, userID string) error {
	if !s.sessions.Elevate(ctx, userID) {
		return dErrors.New(dErrors.CodeSessionUnauthenticated, "no authenticated session to elevate")
	}
	s.logger.InfoContext(ctx, "session elevated to two-factor verified",
		"request_id", middleware.GetRequestID(ctx),
	)
	return nil
}

func (s *Service) recordVerify(outcome models.AttemptOutcome) {
	if s.metrics == nil {
		return
	}
	switch outcome {
	case models.AttemptNotFound:
		s.metrics.IncrementVerifyAttempt("not_found")
	case models.AttemptExpired:
		s.metrics.IncrementVerifyAttempt("expired")
	case models.AttemptLocked:
		s.metrics.IncrementVerifyAttempt("locked")
	case models.AttemptMismatch:
		s.metrics.IncrementVerifyAttempt("mismatch")
	case models.AttemptVerified:
		s.metrics.IncrementVerifyAttempt("verified")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func attemptsRemainingMessage(remaining int) string {
	if remaining == 1 {
		return "code mismatch, 1 attempt remaining"
	}
	return "code mismatch, " + strconv.Itoa(remaining) + " attempts remaining"
}
