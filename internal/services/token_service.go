package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/grafolab/grafo-gate/internal/models"
	pkglogger "github.com/grafolab/grafo-gate/pkg/logger"
)

// codeIssueRetries bounds retries when a generated code collides with an
// existing (phone, code) pair
const codeIssueRetries = 3

// TokenService issues access tokens after the operator confirms payment
// out of band. Tokens start unconsumed and unbound.
type TokenService struct {
	repo   TokenRepository
	logger *slog.Logger
}

// NewTokenService creates a new TokenService
func NewTokenService(repo TokenRepository, logger *slog.Logger) *TokenService {
	return &TokenService{
		repo:   repo,
		logger: logger,
	}
}

// Issue creates a fresh token for the phone number and returns it with the
// plain 6-digit code, which the operator relays to the customer.
func (s *TokenService) Issue(ctx context.Context, phone string) (*models.Token, error) {
	for attempt := 0; attempt < codeIssueRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, models.ErrInternalServer
		}

		token, err := s.repo.Create(ctx, phone, code)
		if err != nil {
			if errors.Is(err, models.ErrConflict) {
				continue
			}
			s.logger.Error("failed to create token", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.logger.Info("token issued",
			slog.String("token_id", token.ID),
			slog.String("phone", pkglogger.MaskPhone(phone)))

		return token, nil
	}

	s.logger.Error("token issuance exhausted retries", slog.String("phone", pkglogger.MaskPhone(phone)))
	return nil, models.ErrInternalServer
}

// generateCode returns a uniformly random 6-digit code with leading zeros
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
