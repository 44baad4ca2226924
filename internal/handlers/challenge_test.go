package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grafolab/grafo-gate/internal/handlers"
	"github.com/grafolab/grafo-gate/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChallengeIssuer struct {
	IssueFunc func(ctx context.Context) (*services.IssuedChallenge, error)
}

func (m *mockChallengeIssuer) Issue(ctx context.Context) (*services.IssuedChallenge, error) {
	return m.IssueFunc(ctx)
}

func TestChallengeHandler_Issue(t *testing.T) {
	handler := handlers.NewChallengeHandler(&mockChallengeIssuer{
		IssueFunc: func(ctx context.Context) (*services.IssuedChallenge, error) {
			return &services.IssuedChallenge{ID: "c1", Question: "3 + 4 = ?"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/challenge", nil)
	rec := httptest.NewRecorder()
	handler.Issue(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp services.IssuedChallenge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, "3 + 4 = ?", resp.Question)

	// The expected answer never leaves the server
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "answer")
}

func TestChallengeHandler_IssueFailure(t *testing.T) {
	handler := handlers.NewChallengeHandler(&mockChallengeIssuer{
		IssueFunc: func(ctx context.Context) (*services.IssuedChallenge, error) {
			return nil, errors.New("connection refused")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/challenge", nil)
	rec := httptest.NewRecorder()
	handler.Issue(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
