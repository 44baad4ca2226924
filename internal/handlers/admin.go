package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/grafolab/grafo-gate/internal/models"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
)

// TokenIssuer defines the interface for operator token issuance
type TokenIssuer interface {
	Issue(ctx context.Context, phone string) (*models.Token, error)
}

// AdminHandler handles operator-facing HTTP requests
type AdminHandler struct {
	tokens TokenIssuer
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(tokens TokenIssuer) *AdminHandler {
	return &AdminHandler{tokens: tokens}
}

// IssueTokenRequest represents the request body for token issuance
type IssueTokenRequest struct {
	Phone string `json:"phone" validate:"required,min=6,max=32"`
}

// IssueTokenResponse returns the issued token. The plain code appears here
// once, for the operator to relay to the paying customer.
type IssueTokenResponse struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// IssueToken handles POST /admin/tokens
func (h *AdminHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)

	token, err := h.tokens.Issue(r.Context(), req.Phone)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to issue token")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, IssueTokenResponse{
		ID:    token.ID,
		Phone: token.Phone,
		Code:  token.Code,
	})
}
