package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/grafolab/grafo-gate/internal/models"
)

// ChallengeRepository defines the interface for human-challenge storage
type ChallengeRepository interface {
	Create(ctx context.Context, answer int, expiresAt time.Time) (*models.HumanChallenge, error)
	Take(ctx context.Context, id string) (*models.HumanChallenge, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// IssuedChallenge is what the client receives: the question, never the answer
type IssuedChallenge struct {
	ID       string `json:"challengeId"`
	Question string `json:"question"`
}

// ChallengeService issues human challenges and redeems them during
// verification. The arithmetic implementation is deliberately weak as a
// CAPTCHA; keep callers on this interface so a stronger mechanism can be
// swapped in without touching the verification protocol.
type ChallengeService interface {
	Issue(ctx context.Context) (*IssuedChallenge, error)
	Redeem(ctx context.Context, id string, answer int) error
}

// ArithmeticChallengeService issues single-digit addition/subtraction questions
type ArithmeticChallengeService struct {
	repo   ChallengeRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewArithmeticChallengeService creates a new ArithmeticChallengeService
func NewArithmeticChallengeService(repo ChallengeRepository, ttl time.Duration, logger *slog.Logger) *ArithmeticChallengeService {
	return &ArithmeticChallengeService{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
	}
}

// Issue generates a question, persists the expected answer server-side and
// returns the id + question text. Safe to simply re-invoke on failure.
func (s *ArithmeticChallengeService) Issue(ctx context.Context) (*IssuedChallenge, error) {
	question, answer := generateQuestion()
	expiresAt := time.Now().Add(s.ttl)

	challenge, err := s.repo.Create(ctx, answer, expiresAt)
	if err != nil {
		s.logger.Error("failed to create challenge", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &IssuedChallenge{
		ID:       challenge.ID,
		Question: question,
	}, nil
}

// Redeem consumes the challenge and checks the answer. The challenge is
// deleted on the first attempt whatever the outcome, so a guessed-wrong
// answer cannot be retried against the same challenge id.
func (s *ArithmeticChallengeService) Redeem(ctx context.Context, id string, answer int) error {
	challenge, err := s.repo.Take(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Reject(models.RejectInvalidChallenge)
		}
		s.logger.Error("failed to take challenge", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if challenge.IsExpired() {
		return models.Reject(models.RejectChallengeExpired)
	}

	if answer != challenge.Answer {
		return models.Reject(models.RejectWrongAnswer)
	}

	return nil
}

// generateQuestion builds a single-digit arithmetic question. Subtraction
// operands are ordered so the answer is never negative.
func generateQuestion() (string, int) {
	a := rand.IntN(9) + 1 // 1-9
	b := rand.IntN(9) + 1

	if rand.IntN(2) == 0 {
		return fmt.Sprintf("%d + %d = ?", a, b), a + b
	}

	if b > a {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d = ?", a, b), a - b
}
