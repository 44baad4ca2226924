package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiringStore is any store that can reap rows past their expiry
type ExpiringStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically removes expired challenges and stale attempt
// rows. Tokens are deliberately excluded: they are retained for audit.
type CleanupManager struct {
	challenges ExpiringStore
	attempts   ExpiringStore
	logger     *slog.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(challenges, attempts ExpiringStore, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		challenges: challenges,
		attempts:   attempts,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	challengesDeleted, err := cm.challenges.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired challenges", slog.Any("error", err))
	}

	attemptsDeleted, err := cm.attempts.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup stale attempts", slog.Any("error", err))
	}

	if challengesDeleted > 0 || attemptsDeleted > 0 {
		cm.logger.Info("cleanup completed",
			slog.Int64("challenges_deleted", challengesDeleted),
			slog.Int64("attempts_deleted", attemptsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
