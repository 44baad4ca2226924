package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/grafolab/grafo-gate/internal/auth"
	"github.com/grafolab/grafo-gate/internal/handlers"
	"github.com/grafolab/grafo-gate/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	challengeHandler *handlers.ChallengeHandler,
	verifyHandler *handlers.VerifyHandler,
	analyzeHandler *handlers.AnalyzeHandler,
	adminHandler *handlers.AdminHandler,
	grantManager *auth.GrantManager,
	adminKeyHash string,
) {
	// Per-IP limit on the public gate endpoints, on top of the per-token
	// failed-attempt limit enforced inside the verification protocol
	rateLimitConfig := middleware.DefaultGateRateLimit()

	router.With(middleware.RateLimitByIP(rateLimitConfig)).Get("/api/challenge", challengeHandler.Issue)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/api/verify", verifyHandler.Verify)

	// Gated feature: one analysis per grant, contextual follow-ups allowed
	// while the grant is still within its TTL
	router.With(auth.RequireGrant(grantManager, true)).Post("/api/analyze", analyzeHandler.Analyze)
	router.With(auth.RequireGrant(grantManager, false)).Post("/api/analyze/context", analyzeHandler.AnalyzeContext)

	// Operator endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminKey(adminKeyHash))
		r.Post("/admin/tokens", adminHandler.IssueToken)
	})
}
