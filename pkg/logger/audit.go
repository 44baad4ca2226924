package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	Phone         string
	OriginIP      string
	DeviceID      string
	Success       bool
	FailureReason string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogVerifyAttempt logs token verification attempts. Phone numbers are
// masked; the secret code is never logged at all.
func (al *AuditLogger) LogVerifyAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "token_gate"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Phone != "" {
		attrs = append(attrs, slog.String("phone", MaskPhone(event.Phone)))
	}
	if event.OriginIP != "" {
		attrs = append(attrs, slog.String("origin_ip", event.OriginIP))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}
