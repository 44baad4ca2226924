package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/grafolab/grafo-gate/internal/models"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
)

// AnalysisServiceInterface defines the interface for the gated analysis feature
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, imageBase64, language, phone, name string) (*models.AnalysisReport, error)
	AnalyzeContext(ctx context.Context, base *models.AnalysisReport, userContext, language string) (*models.ContextualReport, error)
}

// AnalyzeHandler handles the grant-gated analysis HTTP requests
type AnalyzeHandler struct {
	service AnalysisServiceInterface
}

// NewAnalyzeHandler creates a new AnalyzeHandler
func NewAnalyzeHandler(service AnalysisServiceInterface) *AnalyzeHandler {
	return &AnalyzeHandler{service: service}
}

// AnalyzeRequest represents the request body for analysis
type AnalyzeRequest struct {
	ImageBase64 string `json:"imageBase64" validate:"required"`
	Language    string `json:"language" validate:"omitempty,oneof=id en"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
}

// AnalyzeContextRequest represents the request body for contextual analysis
type AnalyzeContextRequest struct {
	BaseAnalysis *models.AnalysisReport `json:"baseAnalysis" validate:"required"`
	Context      string                 `json:"context" validate:"required"`
	Language     string                 `json:"language" validate:"omitempty,oneof=id en"`
}

// Analyze handles POST /api/analyze. The grant middleware has already
// consumed the session grant, so this runs at most once per verification.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, "Image missing")
		return
	}

	report, err := h.service.Analyze(r.Context(), req.ImageBase64, req.Language, req.Phone, req.Name)
	if err != nil {
		pkghttp.WriteBadGateway(w, "Analysis failed")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, report)
}

// AnalyzeContext handles POST /api/analyze/context
func (h *AnalyzeHandler) AnalyzeContext(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeContextRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, "Base analysis & context required")
		return
	}

	report, err := h.service.AnalyzeContext(r.Context(), req.BaseAnalysis, req.Context, req.Language)
	if err != nil {
		pkghttp.WriteBadGateway(w, "Context analysis failed")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, report)
}
