package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/grafolab/grafo-gate/internal/models"
)

// AnalysisService runs the gated analysis feature: it forwards the image to
// the external engine and notifies the operator of delivered reports.
type AnalysisService struct {
	engine   AnalysisEngine
	notifier ReportNotifier
	logger   *slog.Logger
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(engine AnalysisEngine, notifier ReportNotifier, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		engine:   engine,
		notifier: notifier,
		logger:   logger,
	}
}

// Analyze produces a report for the uploaded handwriting image. The
// notification runs in the background; its failure never blocks the caller.
func (s *AnalysisService) Analyze(ctx context.Context, imageBase64, language, phone, name string) (*models.AnalysisReport, error) {
	report, err := s.engine.Analyze(ctx, imageBase64, language)
	if err != nil {
		s.logger.Error("analysis failed", slog.Any("error", err))
		return nil, err
	}

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.notifier.NotifyReport(notifyCtx, phone, name, report.PersonalitySummary); err != nil {
			s.logger.Error("report notification failed", slog.Any("error", err))
		}
	}()

	return report, nil
}

// AnalyzeContext produces the contextual follow-up report
func (s *AnalysisService) AnalyzeContext(ctx context.Context, base *models.AnalysisReport, userContext, language string) (*models.ContextualReport, error) {
	report, err := s.engine.AnalyzeContext(ctx, base, userContext, language)
	if err != nil {
		s.logger.Error("contextual analysis failed", slog.Any("error", err))
		return nil, err
	}

	return report, nil
}
