package handlers

import (
	"context"
	"net/http"

	"github.com/grafolab/grafo-gate/internal/services"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
)

// ChallengeIssuer defines the interface for issuing human challenges
type ChallengeIssuer interface {
	Issue(ctx context.Context) (*services.IssuedChallenge, error)
}

// ChallengeHandler handles challenge-issuance HTTP requests
type ChallengeHandler struct {
	service ChallengeIssuer
}

// NewChallengeHandler creates a new ChallengeHandler
func NewChallengeHandler(service ChallengeIssuer) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

// Issue handles GET /api/challenge. The response carries the question text
// and the challenge id; the expected answer stays server-side.
func (h *ChallengeHandler) Issue(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.service.Issue(r.Context())
	if err != nil {
		pkghttp.WriteServiceUnavailable(w, "Could not create challenge")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, challenge)
}
