package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grafolab/grafo-gate/internal/handlers"
	"github.com/grafolab/grafo-gate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTokenIssuer struct {
	IssueFunc func(ctx context.Context, phone string) (*models.Token, error)
}

func (m *mockTokenIssuer) Issue(ctx context.Context, phone string) (*models.Token, error) {
	return m.IssueFunc(ctx, phone)
}

func TestAdminHandler_IssueToken(t *testing.T) {
	handler := handlers.NewAdminHandler(&mockTokenIssuer{
		IssueFunc: func(ctx context.Context, phone string) (*models.Token, error) {
			assert.Equal(t, "+628123456789", phone)
			return &models.Token{ID: "t1", Phone: phone, Code: "123456"}, nil
		},
	})

	body, _ := json.Marshal(handlers.IssueTokenRequest{Phone: " +628123456789 "})
	req := httptest.NewRequest(http.MethodPost, "/admin/tokens", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.IssueToken(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp handlers.IssueTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "t1", resp.ID)
	assert.Equal(t, "123456", resp.Code)
}

func TestAdminHandler_IssueToken_MissingPhone(t *testing.T) {
	called := false
	handler := handlers.NewAdminHandler(&mockTokenIssuer{
		IssueFunc: func(ctx context.Context, phone string) (*models.Token, error) {
			called = true
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/tokens", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	handler.IssueToken(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestAdminHandler_IssueToken_ServiceFailure(t *testing.T) {
	handler := handlers.NewAdminHandler(&mockTokenIssuer{
		IssueFunc: func(ctx context.Context, phone string) (*models.Token, error) {
			return nil, models.ErrInternalServer
		},
	})

	body, _ := json.Marshal(handlers.IssueTokenRequest{Phone: "+628123456789"})
	req := httptest.NewRequest(http.MethodPost, "/admin/tokens", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.IssueToken(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
