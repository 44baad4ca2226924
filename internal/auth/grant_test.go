package auth_test

import (
	"testing"
	"time"

	"github.com/grafolab/grafo-gate/internal/auth"
	"github.com/grafolab/grafo-gate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-grant-secret-at-least-16"

func TestGrantIssueAndValidate(t *testing.T) {
	gm := auth.NewGrantManager(testSecret, 10*time.Minute)

	grant, err := gm.Issue("tok-1")
	require.NoError(t, err)
	require.NotEmpty(t, grant)

	claims, err := gm.Validate(grant)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", claims.TokenID)
	assert.NotEmpty(t, claims.ID)
}

func TestGrantValidate_WrongSecret(t *testing.T) {
	gm := auth.NewGrantManager(testSecret, 10*time.Minute)
	other := auth.NewGrantManager("another-secret-of-16-chars", 10*time.Minute)

	grant, err := gm.Issue("tok-1")
	require.NoError(t, err)

	_, err = other.Validate(grant)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestGrantValidate_Garbage(t *testing.T) {
	gm := auth.NewGrantManager(testSecret, 10*time.Minute)

	_, err := gm.Validate("not-a-grant")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestGrantValidate_Expired(t *testing.T) {
	gm := auth.NewGrantManager(testSecret, -1*time.Minute)

	grant, err := gm.Issue("tok-1")
	require.NoError(t, err)

	_, err = gm.Validate(grant)
	assert.ErrorIs(t, err, models.ErrGrantExpired)
}

func TestGrantConsume_SingleUse(t *testing.T) {
	gm := auth.NewGrantManager(testSecret, 10*time.Minute)

	grant, err := gm.Issue("tok-1")
	require.NoError(t, err)

	claims, err := gm.Consume(grant)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", claims.TokenID)

	_, err = gm.Consume(grant)
	assert.ErrorIs(t, err, models.ErrGrantConsumed)

	// Non-consuming validation still succeeds within the TTL
	_, err = gm.Validate(grant)
	assert.NoError(t, err)
}

func TestGrantConsume_IndependentGrants(t *testing.T) {
	gm := auth.NewGrantManager(testSecret, 10*time.Minute)

	first, err := gm.Issue("tok-1")
	require.NoError(t, err)
	second, err := gm.Issue("tok-2")
	require.NoError(t, err)

	_, err = gm.Consume(first)
	require.NoError(t, err)

	// Consuming one grant does not touch another
	_, err = gm.Consume(second)
	assert.NoError(t, err)
}
