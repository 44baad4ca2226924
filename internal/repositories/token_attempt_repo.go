package repositories

import (
	"context"
	"time"

	"github.com/grafolab/grafo-gate/internal/database"
	"github.com/grafolab/grafo-gate/internal/models"
)

// TokenAttemptRepository handles database operations for verification attempts
type TokenAttemptRepository struct {
	db *database.DB
}

// NewTokenAttemptRepository creates a new TokenAttemptRepository
func NewTokenAttemptRepository(db *database.DB) *TokenAttemptRepository {
	return &TokenAttemptRepository{db: db}
}

// RecordAttempt appends a verification attempt. Rows are never updated.
func (r *TokenAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.TokenAttempt) error {
	query := `
		INSERT INTO token_attempts (token_code, origin_ip, device_id, success, failure_reason, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.TokenCode,
		attempt.OriginIP,
		attempt.DeviceID,
		attempt.Success,
		attempt.FailureReason,
		attempt.ExpiresAt,
	)

	return err
}

// CountRecentFailures returns the number of failed attempts for a
// token code + origin pair within a time window
func (r *TokenAttemptRepository) CountRecentFailures(ctx context.Context, tokenCode, originIP string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM token_attempts
		WHERE token_code = $1 AND origin_ip = $2 AND success = false AND attempt_time >= $3
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, tokenCode, originIP, since).Scan(&count)
	return count, err
}

// DeleteExpired removes attempt rows past their retention horizon
func (r *TokenAttemptRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM token_attempts WHERE expires_at <= CURRENT_TIMESTAMP`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
