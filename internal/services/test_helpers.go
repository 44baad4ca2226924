package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grafolab/grafo-gate/internal/models"
)

// MockTokenRepository implements TokenRepository for testing
type MockTokenRepository struct {
	CreateFunc            func(ctx context.Context, phone, code string) (*models.Token, error)
	GetByPhoneAndCodeFunc func(ctx context.Context, phone, code string) (*models.Token, error)
	BindDeviceFunc        func(ctx context.Context, id, deviceID string) error
	ConsumeFunc           func(ctx context.Context, id string) error
}

func (m *MockTokenRepository) Create(ctx context.Context, phone, code string) (*models.Token, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, phone, code)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTokenRepository) GetByPhoneAndCode(ctx context.Context, phone, code string) (*models.Token, error) {
	if m.GetByPhoneAndCodeFunc != nil {
		return m.GetByPhoneAndCodeFunc(ctx, phone, code)
	}
	return nil, models.ErrNotFound
}

func (m *MockTokenRepository) BindDevice(ctx context.Context, id, deviceID string) error {
	if m.BindDeviceFunc != nil {
		return m.BindDeviceFunc(ctx, id, deviceID)
	}
	return nil
}

func (m *MockTokenRepository) Consume(ctx context.Context, id string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, id)
	}
	return nil
}

// MockChallengeService implements ChallengeService for testing
type MockChallengeService struct {
	IssueFunc  func(ctx context.Context) (*IssuedChallenge, error)
	RedeemFunc func(ctx context.Context, id string, answer int) error
}

func (m *MockChallengeService) Issue(ctx context.Context) (*IssuedChallenge, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx)
	}
	return &IssuedChallenge{ID: "challenge_123", Question: "4 + 3 = ?"}, nil
}

func (m *MockChallengeService) Redeem(ctx context.Context, id string, answer int) error {
	if m.RedeemFunc != nil {
		return m.RedeemFunc(ctx, id, answer)
	}
	return nil
}

// MockGrantIssuer implements GrantIssuer for testing
type MockGrantIssuer struct {
	IssueFunc func(tokenID string) (string, error)
}

func (m *MockGrantIssuer) Issue(tokenID string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(tokenID)
	}
	return "grant_" + tokenID, nil
}

// InMemoryAttemptRepo implements AttemptRepository with an in-memory log
type InMemoryAttemptRepo struct {
	mu       sync.Mutex
	Attempts []*models.TokenAttempt
	CountErr error
}

func (m *InMemoryAttemptRepo) RecordAttempt(ctx context.Context, attempt *models.TokenAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recorded := *attempt
	recorded.AttemptTime = time.Now()
	m.Attempts = append(m.Attempts, &recorded)
	return nil
}

func (m *InMemoryAttemptRepo) CountRecentFailures(ctx context.Context, tokenCode, originIP string, since time.Time) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.Attempts {
		if a.TokenCode == tokenCode && a.OriginIP == originIP && !a.Success && !a.AttemptTime.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *InMemoryAttemptRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// InMemoryChallengeRepo implements ChallengeRepository with a map
type InMemoryChallengeRepo struct {
	mu         sync.Mutex
	challenges map[string]*models.HumanChallenge
	nextID     int
	CreateErr  error
}

func NewInMemoryChallengeRepo() *InMemoryChallengeRepo {
	return &InMemoryChallengeRepo{challenges: make(map[string]*models.HumanChallenge)}
}

func (m *InMemoryChallengeRepo) Create(ctx context.Context, answer int, expiresAt time.Time) (*models.HumanChallenge, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	challenge := &models.HumanChallenge{
		ID:        fmt.Sprintf("challenge-%d", m.nextID),
		Answer:    answer,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	m.challenges[challenge.ID] = challenge
	return challenge, nil
}

func (m *InMemoryChallengeRepo) Take(ctx context.Context, id string) (*models.HumanChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	challenge, ok := m.challenges[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	delete(m.challenges, id)
	return challenge, nil
}

func (m *InMemoryChallengeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, c := range m.challenges {
		if c.IsExpired() {
			delete(m.challenges, id)
			deleted++
		}
	}
	return deleted, nil
}

// Set stores a challenge under a fixed id, bypassing Create
func (m *InMemoryChallengeRepo) Set(challenge *models.HumanChallenge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[challenge.ID] = challenge
}
