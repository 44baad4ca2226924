package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grafolab/grafo-gate/internal/models"
	"github.com/grafolab/grafo-gate/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitAllow_InitialAttempt(t *testing.T) {
	repo := &services.InMemoryAttemptRepo{}
	service := newRateLimiter(repo)

	allowed, err := service.Allow(context.Background(), "123456", "203.0.113.7")

	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitAllow_BlocksAfterMaxFailed(t *testing.T) {
	repo := &services.InMemoryAttemptRepo{}
	service := newRateLimiter(repo)

	reason := "wrong_answer"
	for i := 0; i < 5; i++ {
		err := service.RecordAttempt(context.Background(), "123456", "203.0.113.7", "dev-1", false, &reason)
		require.NoError(t, err)
	}

	allowed, err := service.Allow(context.Background(), "123456", "203.0.113.7")

	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestRateLimitAllow_PairIsolation(t *testing.T) {
	repo := &services.InMemoryAttemptRepo{}
	service := newRateLimiter(repo)

	reason := "wrong_answer"
	for i := 0; i < 5; i++ {
		require.NoError(t, service.RecordAttempt(context.Background(), "123456", "203.0.113.7", "dev-1", false, &reason))
	}

	// A different origin for the same code is not blocked
	allowed, err := service.Allow(context.Background(), "123456", "198.51.100.9")
	assert.NoError(t, err)
	assert.True(t, allowed)

	// A different code from the same origin is not blocked
	allowed, err = service.Allow(context.Background(), "654321", "203.0.113.7")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitAllow_SuccessesDoNotCount(t *testing.T) {
	repo := &services.InMemoryAttemptRepo{}
	service := newRateLimiter(repo)

	for i := 0; i < 10; i++ {
		require.NoError(t, service.RecordAttempt(context.Background(), "123456", "203.0.113.7", "dev-1", true, nil))
	}

	allowed, err := service.Allow(context.Background(), "123456", "203.0.113.7")

	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitAllow_FailsOpenOnStoreError(t *testing.T) {
	repo := &services.InMemoryAttemptRepo{CountErr: errors.New("connection refused")}
	service := newRateLimiter(repo)

	allowed, err := service.Allow(context.Background(), "123456", "203.0.113.7")

	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitRecordAttempt_SetsRetention(t *testing.T) {
	repo := &services.InMemoryAttemptRepo{}
	service := services.NewRateLimitService(repo, services.RateLimitConfig{
		MaxFailedPerPair: 5,
		Window:           15 * time.Minute,
	}, newTestLogger())

	reason := string(models.RejectDeviceMismatch)
	require.NoError(t, service.RecordAttempt(context.Background(), "123456", "203.0.113.7", "dev-2", false, &reason))

	require.Len(t, repo.Attempts, 1)
	attempt := repo.Attempts[0]
	assert.Equal(t, "dev-2", attempt.DeviceID)
	// Rows are kept for twice the lookback window
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), attempt.ExpiresAt, 5*time.Second)
}
