package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grafolab/grafo-gate/internal/database"
	"github.com/grafolab/grafo-gate/internal/models"
)

// ChallengeRepository handles human-challenge data access
type ChallengeRepository struct {
	db *database.DB
}

// NewChallengeRepository creates a new ChallengeRepository
func NewChallengeRepository(db *database.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// Create persists a new challenge with its expected answer and expiry
func (r *ChallengeRepository) Create(ctx context.Context, answer int, expiresAt time.Time) (*models.HumanChallenge, error) {
	query := `
		INSERT INTO human_challenges (answer, expires_at)
		VALUES ($1, $2)
		RETURNING id, answer, expires_at, created_at
	`

	var challenge models.HumanChallenge
	err := r.db.Pool.QueryRow(ctx, query, answer, expiresAt).Scan(
		&challenge.ID, &challenge.Answer, &challenge.ExpiresAt, &challenge.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return &challenge, nil
}

// Take removes the challenge and returns it in a single statement. Two racing
// verification attempts can never both observe the same challenge: the delete
// is the read. Returns ErrNotFound when the id is unknown, malformed, or the
// challenge was already taken.
func (r *ChallengeRepository) Take(ctx context.Context, id string) (*models.HumanChallenge, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `
		DELETE FROM human_challenges
		WHERE id = $1
		RETURNING id, answer, expires_at, created_at
	`

	var challenge models.HumanChallenge
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&challenge.ID, &challenge.Answer, &challenge.ExpiresAt, &challenge.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &challenge, nil
}

// DeleteExpired removes challenges past their expiry
func (r *ChallengeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM human_challenges WHERE expires_at <= NOW()`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired challenges: %w", err)
	}

	return result.RowsAffected(), nil
}
