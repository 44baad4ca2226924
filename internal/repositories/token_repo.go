package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/grafolab/grafo-gate/internal/database"
	"github.com/grafolab/grafo-gate/internal/models"
)

// rowScanner abstracts pgx.Row / pgx.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...any) error
}

// TokenRepository handles access-token data access
type TokenRepository struct {
	db *database.DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// scanTokenRow handles nullable fields and populates a Token model from a database row
func scanTokenRow(row rowScanner) (*models.Token, error) {
	var token models.Token
	var usedAt *time.Time
	var deviceID *string

	err := row.Scan(
		&token.ID, &token.Phone, &token.Code,
		&token.Used, &usedAt, &deviceID, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	token.UsedAt = usedAt
	token.DeviceID = deviceID
	return &token, nil
}

// Create inserts a new unconsumed, unbound token for a phone number.
// The (phone, code) pair is unique; a collision surfaces as ErrConflict.
func (r *TokenRepository) Create(ctx context.Context, phone, code string) (*models.Token, error) {
	query := `
		INSERT INTO tokens (phone, code)
		VALUES ($1, $2)
		RETURNING id, phone, code, used, used_at, device_id, created_at
	`

	token, err := scanTokenRow(r.db.Pool.QueryRow(ctx, query, phone, code))
	if err != nil {
		if err == models.ErrConflict {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// GetByPhoneAndCode retrieves a token by its exact phone + code pair,
// regardless of consumption state.
func (r *TokenRepository) GetByPhoneAndCode(ctx context.Context, phone, code string) (*models.Token, error) {
	query := `
		SELECT id, phone, code, used, used_at, device_id, created_at
		FROM tokens
		WHERE phone = $1 AND code = $2
	`

	return scanTokenRow(r.db.Pool.QueryRow(ctx, query, phone, code))
}

// BindDevice binds a token to a device identifier on first use. The update is
// conditional: it succeeds only when the token is unbound or already bound to
// the same device, so two racing first uses cannot bind different devices.
// Returns ErrForbidden when the token is bound elsewhere.
func (r *TokenRepository) BindDevice(ctx context.Context, id, deviceID string) error {
	query := `
		UPDATE tokens
		SET device_id = $2
		WHERE id = $1 AND (device_id IS NULL OR device_id = $2)
	`

	result, err := r.db.Pool.Exec(ctx, query, id, deviceID)
	if err != nil {
		return fmt.Errorf("failed to bind device: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrForbidden
	}

	return nil
}

// Consume atomically burns the token. The used flag is checked and set in a
// single conditional update so that exactly one of any number of concurrent
// verifications can ever succeed for a given token. Returns ErrNotFound when
// the token does not exist or was already consumed.
func (r *TokenRepository) Consume(ctx context.Context, id string) error {
	query := `
		UPDATE tokens
		SET used = TRUE, used_at = NOW()
		WHERE id = $1 AND used = FALSE
	`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
