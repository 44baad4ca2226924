package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/grafolab/grafo-gate/internal/config"
	pkglogger "github.com/grafolab/grafo-gate/pkg/logger"
)

// ReportNotifier delivers a copy of the report summary to the operator
// mailbox. Fire-and-forget: failures are logged and never surface to the
// user-facing flow.
type ReportNotifier interface {
	NotifyReport(ctx context.Context, phone, name, summary string) error
}

// SESReportNotifier sends report notifications using AWS SES
type SESReportNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	toAddress   string
	logger      *slog.Logger
}

// NewSESReportNotifier creates a new AWS SES report notifier
func NewSESReportNotifier(cfg *config.NotifierConfig, logger *slog.Logger) (*SESReportNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESReportNotifier{
		sesClient:   ses.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		toAddress:   cfg.ToAddress,
		logger:      logger,
	}, nil
}

// NotifyReport emails the report summary for the operator's records
func (n *SESReportNotifier) NotifyReport(ctx context.Context, phone, name, summary string) error {
	subject := fmt.Sprintf("Graphology report delivered - %s", pkglogger.MaskPhone(phone))

	textBody := fmt.Sprintf(`A graphology report was delivered.

Customer: %s
Phone: %s

Summary:
%s
`, name, phone, summary)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{n.toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	if _, err := n.sesClient.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send report notification: %w", err)
	}

	n.logger.Info("report notification sent",
		slog.String("phone", pkglogger.MaskPhone(phone)))

	return nil
}

// noopNotifier is used when no notifier mailbox is configured
type noopNotifier struct{}

func (noopNotifier) NotifyReport(context.Context, string, string, string) error { return nil }

// NewNoopNotifier returns a notifier that drops every notification
func NewNoopNotifier() ReportNotifier {
	return noopNotifier{}
}
