package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/grafolab/grafo-gate/internal/config"
	"github.com/grafolab/grafo-gate/internal/models"
)

// AnalysisEngine is the external generative-AI collaborator. The gate only
// controls access to it and never inspects report content.
type AnalysisEngine interface {
	Analyze(ctx context.Context, imageBase64, language string) (*models.AnalysisReport, error)
	AnalyzeContext(ctx context.Context, base *models.AnalysisReport, userContext, language string) (*models.ContextualReport, error)
}

// GeminiEngine calls the Gemini generateContent REST API
type GeminiEngine struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  *slog.Logger
}

// NewGeminiEngine creates a new GeminiEngine
func NewGeminiEngine(cfg *config.EngineConfig, logger *slog.Logger) *GeminiEngine {
	return &GeminiEngine{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  logger,
	}
}

// Request/response shapes for the generateContent endpoint

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Analyze submits a handwriting image and returns the structured report
func (e *GeminiEngine) Analyze(ctx context.Context, imageBase64, language string) (*models.AnalysisReport, error) {
	prompt := fmt.Sprintf(`
Analyze this handwriting sample using graphology principles.

IMPORTANT:
- Output language: %s
- Return valid JSON only with fields: personalitySummary (string), strengths (string array), weaknesses (string array)
`, languageName(language))

	req := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: "image/jpeg", Data: imageBase64}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	}

	var report models.AnalysisReport
	if err := e.generate(ctx, &req, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// AnalyzeContext relates a base report to a user-supplied context
func (e *GeminiEngine) AnalyzeContext(ctx context.Context, base *models.AnalysisReport, userContext, language string) (*models.ContextualReport, error) {
	baseJSON, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal base analysis: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a graphology analyst.

IMPORTANT:
- Output strictly in %s
- Output must be valid JSON

BASE ANALYSIS:
%s

USER CONTEXT / QUESTION:
%s

Provide JSON with fields: relevanceExplanation (string), suitabilityScore (number 0-100), actionableAdvice (string array), specificRisks (string array)
`, languageName(language), baseJSON, userContext)

	req := geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenerationConfig{ResponseMimeType: "application/json"},
	}

	var report models.ContextualReport
	if err := e.generate(ctx, &req, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// generate performs a generateContent call and decodes the first candidate's
// text into out
func (e *GeminiEngine) generate(ctx context.Context, req *geminiRequest, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal engine request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", e.baseURL, e.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the server-side log only
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		e.logger.Error("analysis engine returned non-200",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(detail)))
		return fmt.Errorf("engine returned status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("engine returned empty response")
	}

	text := geminiResp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("engine returned malformed report: %w", err)
	}

	return nil
}

func languageName(language string) string {
	if language == "en" {
		return "English"
	}
	return "Bahasa Indonesia"
}
