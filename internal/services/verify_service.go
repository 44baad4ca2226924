package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/grafolab/grafo-gate/internal/models"
	pkglogger "github.com/grafolab/grafo-gate/pkg/logger"
)

// TokenRepository defines the interface for token store operations. All
// writes to a token row go through BindDevice and Consume; no other code
// path touches used or device_id.
type TokenRepository interface {
	Create(ctx context.Context, phone, code string) (*models.Token, error)
	GetByPhoneAndCode(ctx context.Context, phone, code string) (*models.Token, error)
	BindDevice(ctx context.Context, id, deviceID string) error
	Consume(ctx context.Context, id string) error
}

// GrantIssuer mints the opaque success credential returned to the client
type GrantIssuer interface {
	Issue(tokenID string) (string, error)
}

// VerifyRequest carries one verification attempt through the protocol
type VerifyRequest struct {
	Phone       string
	Code        string
	ChallengeID string
	Answer      int
	DeviceID    string
	OriginIP    string
}

// VerifyService orchestrates the token verification protocol: challenge
// redemption, rate limiting, token lookup, device binding and the atomic
// burn. Exactly one verification of a given token ever succeeds.
type VerifyService struct {
	tokens      TokenRepository
	challenges  ChallengeService
	rateLimit   *RateLimitService
	grants      GrantIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewVerifyService creates a new VerifyService
func NewVerifyService(
	tokens TokenRepository,
	challenges ChallengeService,
	rateLimit *RateLimitService,
	grants GrantIssuer,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *VerifyService {
	return &VerifyService{
		tokens:      tokens,
		challenges:  challenges,
		rateLimit:   rateLimit,
		grants:      grants,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Verify runs the full protocol and returns a signed grant on success.
// Failures are returned as *models.RejectionError; anything else is an
// infrastructure error already logged with full detail.
func (s *VerifyService) Verify(ctx context.Context, req VerifyRequest) (string, error) {
	if req.Phone == "" || req.Code == "" || req.ChallengeID == "" || req.DeviceID == "" {
		return "", models.Reject(models.RejectIncompleteInput)
	}

	var success bool
	var failureReason *string

	// The attempt row is written whatever the outcome, detached from the
	// request context so a client disconnect cannot suppress it.
	defer func() {
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := s.rateLimit.RecordAttempt(recCtx, req.Code, req.OriginIP, req.DeviceID, success, failureReason); err != nil {
			s.logger.Error("failed to record verification attempt", slog.Any("error", err))
		}
	}()

	fail := func(reason models.RejectionReason) error {
		r := string(reason)
		failureReason = &r

		s.auditLogger.LogVerifyAttempt(pkglogger.AuditEvent{
			EventType:     "token_verify",
			Phone:         req.Phone,
			OriginIP:      req.OriginIP,
			DeviceID:      req.DeviceID,
			Success:       false,
			FailureReason: r,
		})
		return models.Reject(reason)
	}

	// 1. Challenge: redeemed (and invalidated) before anything else. A wrong
	// answer still consumes the challenge, so replaying the id is useless.
	if err := s.challenges.Redeem(ctx, req.ChallengeID, req.Answer); err != nil {
		var rejection *models.RejectionError
		if errors.As(err, &rejection) {
			return "", fail(rejection.Reason)
		}
		return "", models.ErrInternalServer
	}

	// 2. Rate limit before the token lookup, so a blocked caller learns
	// nothing about whether the code exists.
	allowed, err := s.rateLimit.Allow(ctx, req.Code, req.OriginIP)
	if err != nil {
		return "", models.ErrInternalServer
	}
	if !allowed {
		return "", fail(models.RejectRateLimited)
	}

	// 3. Token must match phone + code exactly and still be unconsumed.
	token, err := s.tokens.GetByPhoneAndCode(ctx, req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", fail(models.RejectInvalidOrUsedToken)
		}
		s.logger.Error("failed to look up token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if token.Used {
		return "", fail(models.RejectInvalidOrUsedToken)
	}

	// 4. First use binds the device; later uses must present the same one.
	if err := s.tokens.BindDevice(ctx, token.ID, req.DeviceID); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			return "", fail(models.RejectDeviceMismatch)
		}
		s.logger.Error("failed to bind device", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	// 5. Atomic burn: the unconsumed check and the flip to used happen in one
	// conditional update. A concurrent request that passed every earlier step
	// loses here and is rejected as already used.
	if err := s.tokens.Consume(ctx, token.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", fail(models.RejectInvalidOrUsedToken)
		}
		s.logger.Error("failed to consume token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	grant, err := s.grants.Issue(token.ID)
	if err != nil {
		// The token is already burned; the customer needs operator help now.
		s.logger.Error("token burned but grant issuance failed",
			slog.String("token_id", token.ID),
			slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	success = true
	s.auditLogger.LogVerifyAttempt(pkglogger.AuditEvent{
		EventType: "token_verify",
		Phone:     req.Phone,
		OriginIP:  req.OriginIP,
		DeviceID:  req.DeviceID,
		Success:   true,
	})

	return grant, nil
}
