package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grafolab/grafo-gate/internal/auth"
	"github.com/grafolab/grafo-gate/internal/background"
	"github.com/grafolab/grafo-gate/internal/config"
	"github.com/grafolab/grafo-gate/internal/database"
	"github.com/grafolab/grafo-gate/internal/handlers"
	middlewareCustom "github.com/grafolab/grafo-gate/internal/middleware"
	"github.com/grafolab/grafo-gate/internal/repositories"
	"github.com/grafolab/grafo-gate/internal/routes"
	"github.com/grafolab/grafo-gate/internal/services"
	pkghttp "github.com/grafolab/grafo-gate/pkg/http"
	pkglogger "github.com/grafolab/grafo-gate/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Apply migrations
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db.Pool); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize repositories
	tokenRepo := repositories.NewTokenRepository(db)
	challengeRepo := repositories.NewChallengeRepository(db)
	attemptRepo := repositories.NewTokenAttemptRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(challengeRepo, attemptRepo, logger, cfg.Gate.CleanupInterval)

	// Grant manager for gated-feature sessions
	grantManager := auth.NewGrantManager(cfg.Gate.GrantSecret, cfg.Gate.GrantExpiry)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Rate limiting for the verification protocol
	rateLimitService := services.NewRateLimitService(attemptRepo, services.RateLimitConfig{
		MaxFailedPerPair: cfg.Gate.MaxFailedPerPair,
		Window:           cfg.Gate.RateLimitWindow,
	}, logger)

	// Core services
	challengeService := services.NewArithmeticChallengeService(challengeRepo, cfg.Gate.ChallengeTTL, logger)
	verifyService := services.NewVerifyService(tokenRepo, challengeService, rateLimitService, grantManager, logger, auditLogger)
	tokenService := services.NewTokenService(tokenRepo, logger)

	// External collaborators
	engine := services.NewGeminiEngine(&cfg.Engine, logger)

	var notifier services.ReportNotifier
	if cfg.Notifier.FromAddress != "" && cfg.Notifier.ToAddress != "" {
		notifier, err = services.NewSESReportNotifier(&cfg.Notifier, logger)
		if err != nil {
			logger.Error("failed to initialize report notifier", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("no notifier mailbox configured, report notifications disabled")
		notifier = services.NewNoopNotifier()
	}

	analysisService := services.NewAnalysisService(engine, notifier, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	verifyHandler := handlers.NewVerifyHandler(verifyService, ipConfig)
	analyzeHandler := handlers.NewAnalyzeHandler(analysisService)
	adminHandler := handlers.NewAdminHandler(tokenService)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(90 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, challengeHandler, verifyHandler, analyzeHandler, adminHandler, grantManager, cfg.Gate.AdminKeyHash)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
