package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/grafolab/grafo-gate/internal/models"
)

// AttemptRepository defines the interface for attempt-log database operations
type AttemptRepository interface {
	RecordAttempt(ctx context.Context, attempt *models.TokenAttempt) error
	CountRecentFailures(ctx context.Context, tokenCode, originIP string, since time.Time) (int, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// RateLimitConfig holds configuration for rate limiting behavior
type RateLimitConfig struct {
	MaxFailedPerPair int           // failed attempts allowed per token+origin pair
	Window           time.Duration // trailing lookback window
}

// RateLimitService bounds code guessing by counting failed verification
// attempts per token code + origin pair. The counter is advisory, not a
// lock: concurrent requests may race slightly past the threshold.
type RateLimitService struct {
	repo   AttemptRepository
	config RateLimitConfig
	logger *slog.Logger
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(repo AttemptRepository, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// Allow reports whether another verification attempt for the token+origin
// pair should be admitted
func (s *RateLimitService) Allow(ctx context.Context, tokenCode, originIP string) (bool, error) {
	since := time.Now().Add(-s.config.Window)

	failedCount, err := s.repo.CountRecentFailures(ctx, tokenCode, originIP, since)
	if err != nil {
		s.logger.Error("failed to count recent failures", slog.Any("error", err))
		// Fail open for availability - DB errors shouldn't block legitimate users
		return true, nil
	}

	if failedCount >= s.config.MaxFailedPerPair {
		s.logger.Warn("token verification rate limited",
			slog.String("origin_ip", originIP),
			slog.Int("failed_attempts", failedCount))
		return false, nil
	}

	return true, nil
}

// RecordAttempt appends the outcome of a verification attempt. Rows are kept
// for twice the lookback window and reaped by the background cleanup.
func (s *RateLimitService) RecordAttempt(ctx context.Context, tokenCode, originIP, deviceID string, success bool, failureReason *string) error {
	attempt := &models.TokenAttempt{
		TokenCode:     tokenCode,
		OriginIP:      originIP,
		DeviceID:      deviceID,
		Success:       success,
		FailureReason: failureReason,
		ExpiresAt:     time.Now().Add(s.config.Window * 2),
	}

	return s.repo.RecordAttempt(ctx, attempt)
}
