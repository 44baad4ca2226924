package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/grafolab/grafo-gate/internal/models"
	"github.com/grafolab/grafo-gate/internal/services"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
)

// VerifyServiceInterface defines the interface for the verification protocol
type VerifyServiceInterface interface {
	Verify(ctx context.Context, req services.VerifyRequest) (string, error)
}

// VerifyHandler handles token verification HTTP requests
type VerifyHandler struct {
	service  VerifyServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewVerifyHandler creates a new VerifyHandler
func NewVerifyHandler(service VerifyServiceInterface, ipConfig *pkghttp.IPConfig) *VerifyHandler {
	return &VerifyHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// VerifyTokenRequest represents the request body for verification
type VerifyTokenRequest struct {
	Phone       string `json:"phone" validate:"required,min=6,max=32"`
	Token       string `json:"token" validate:"required,len=6,numeric"`
	ChallengeID string `json:"challengeId" validate:"required"`
	Answer      *int   `json:"answer" validate:"required"`
	DeviceID    string `json:"deviceId" validate:"required,max=128"`
}

// VerifyTokenResponse is returned on a successful grant
type VerifyTokenResponse struct {
	Success bool   `json:"success"`
	Grant   string `json:"grant"`
}

// Verify handles POST /api/verify
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, "Incomplete verification data")
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.DeviceID = strings.TrimSpace(req.DeviceID)

	originIP := pkghttp.ExtractClientIP(r, h.ipConfig)

	grant, err := h.service.Verify(r.Context(), services.VerifyRequest{
		Phone:       req.Phone,
		Code:        req.Token,
		ChallengeID: req.ChallengeID,
		Answer:      *req.Answer,
		DeviceID:    req.DeviceID,
		OriginIP:    originIP,
	})
	if err != nil {
		writeRejection(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, VerifyTokenResponse{
		Success: true,
		Grant:   grant,
	})
}

// writeRejection maps protocol errors onto the HTTP surface. Expiry and
// replay cases collapse into one generic message so callers cannot probe
// which tokens or challenges exist.
func writeRejection(w http.ResponseWriter, err error) {
	var rejection *models.RejectionError
	if !errors.As(err, &rejection) {
		pkghttp.WriteServiceUnavailable(w, "Service temporarily unavailable")
		return
	}

	switch rejection.Reason {
	case models.RejectIncompleteInput:
		pkghttp.WriteBadRequest(w, "Incomplete verification data")
	case models.RejectWrongAnswer:
		pkghttp.WriteBadRequest(w, "Wrong answer to the verification question")
	case models.RejectInvalidChallenge, models.RejectChallengeExpired, models.RejectInvalidOrUsedToken:
		pkghttp.WriteUnauthorized(w, "Invalid or expired verification, please try again")
	case models.RejectDeviceMismatch:
		pkghttp.WriteForbidden(w, "Token already in use on another device")
	case models.RejectRateLimited:
		pkghttp.WriteTooManyRequests(w, "Too many failed attempts. Please try again later.")
	default:
		pkghttp.WriteServiceUnavailable(w, "Service temporarily unavailable")
	}
}
