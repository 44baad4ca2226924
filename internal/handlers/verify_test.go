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
	"github.com/grafolab/grafo-gate/internal/services"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVerifyService implements handlers.VerifyServiceInterface
type mockVerifyService struct {
	VerifyFunc func(ctx context.Context, req services.VerifyRequest) (string, error)
	lastReq    *services.VerifyRequest
}

func (m *mockVerifyService) Verify(ctx context.Context, req services.VerifyRequest) (string, error) {
	m.lastReq = &req
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, req)
	}
	return "", models.ErrInternalServer
}

func postVerify(t *testing.T, handler *handlers.VerifyHandler, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewReader(payload))
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()

	handler.Verify(rec, req)
	return rec
}

func validBody() map[string]any {
	return map[string]any{
		"phone":       "+628123456789",
		"token":       "123456",
		"challengeId": "c1",
		"answer":      7,
		"deviceId":    "dev-1",
	}
}

func TestVerifyHandler_Success(t *testing.T) {
	service := &mockVerifyService{
		VerifyFunc: func(ctx context.Context, req services.VerifyRequest) (string, error) {
			return "signed-grant", nil
		},
	}
	handler := handlers.NewVerifyHandler(service, &pkghttp.IPConfig{})

	rec := postVerify(t, handler, validBody())

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.VerifyTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "signed-grant", resp.Grant)

	// The handler passes the connection origin down for rate limiting
	require.NotNil(t, service.lastReq)
	assert.Equal(t, "203.0.113.7", service.lastReq.OriginIP)
	assert.Equal(t, "123456", service.lastReq.Code)
}

func TestVerifyHandler_InvalidJSON(t *testing.T) {
	handler := handlers.NewVerifyHandler(&mockVerifyService{}, &pkghttp.IPConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyHandler_MissingFields(t *testing.T) {
	service := &mockVerifyService{}
	handler := handlers.NewVerifyHandler(service, &pkghttp.IPConfig{})

	for _, field := range []string{"phone", "token", "challengeId", "answer", "deviceId"} {
		body := validBody()
		delete(body, field)

		rec := postVerify(t, handler, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "missing %s", field)
	}

	// No call reached the service
	assert.Nil(t, service.lastReq)
}

func TestVerifyHandler_NonNumericToken(t *testing.T) {
	handler := handlers.NewVerifyHandler(&mockVerifyService{}, &pkghttp.IPConfig{})

	body := validBody()
	body["token"] = "12345x"

	rec := postVerify(t, handler, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyHandler_RejectionStatusMapping(t *testing.T) {
	cases := []struct {
		reason models.RejectionReason
		status int
	}{
		{models.RejectIncompleteInput, http.StatusBadRequest},
		{models.RejectWrongAnswer, http.StatusBadRequest},
		{models.RejectInvalidChallenge, http.StatusUnauthorized},
		{models.RejectChallengeExpired, http.StatusUnauthorized},
		{models.RejectInvalidOrUsedToken, http.StatusUnauthorized},
		{models.RejectDeviceMismatch, http.StatusForbidden},
		{models.RejectRateLimited, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		service := &mockVerifyService{
			VerifyFunc: func(ctx context.Context, req services.VerifyRequest) (string, error) {
				return "", models.Reject(tc.reason)
			},
		}
		handler := handlers.NewVerifyHandler(service, &pkghttp.IPConfig{})

		rec := postVerify(t, handler, validBody())

		assert.Equal(t, tc.status, rec.Code, "reason %s", tc.reason)

		var resp pkghttp.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Error)
		// Internal reason strings never leak to the client
		assert.NotContains(t, rec.Body.String(), string(tc.reason))
	}
}

func TestVerifyHandler_ReplayAndExpiryShareMessage(t *testing.T) {
	// The three enumeration-sensitive rejections must be indistinguishable
	bodies := make(map[models.RejectionReason]string)
	for _, reason := range []models.RejectionReason{
		models.RejectInvalidChallenge,
		models.RejectChallengeExpired,
		models.RejectInvalidOrUsedToken,
	} {
		service := &mockVerifyService{
			VerifyFunc: func(ctx context.Context, req services.VerifyRequest) (string, error) {
				return "", models.Reject(reason)
			},
		}
		handler := handlers.NewVerifyHandler(service, &pkghttp.IPConfig{})
		rec := postVerify(t, handler, validBody())
		bodies[reason] = rec.Body.String()
	}

	assert.Equal(t, bodies[models.RejectInvalidChallenge], bodies[models.RejectChallengeExpired])
	assert.Equal(t, bodies[models.RejectInvalidChallenge], bodies[models.RejectInvalidOrUsedToken])
}

func TestVerifyHandler_InfrastructureFailure(t *testing.T) {
	service := &mockVerifyService{
		VerifyFunc: func(ctx context.Context, req services.VerifyRequest) (string, error) {
			return "", models.ErrInternalServer
		},
	}
	handler := handlers.NewVerifyHandler(service, &pkghttp.IPConfig{})

	rec := postVerify(t, handler, validBody())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "internal server error")
}
