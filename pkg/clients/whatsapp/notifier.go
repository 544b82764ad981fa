package whatsapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
)

// ReportNotifier sends daily report digests to a fixed recipient.
type ReportNotifier struct {
	client    Client
	recipient string
	logger    *zap.Logger
}

// NewReportNotifier wires a notifier over client.
func NewReportNotifier(client Client, recipient string, logger *zap.Logger) *ReportNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportNotifier{client: client, recipient: recipient, logger: logger}
}

// NotifyDailyReport sends the digest of report.
func (n *ReportNotifier) NotifyDailyReport(ctx context.Context, report *models.DailyReport) error {
	id, err := n.client.SendText(ctx, n.recipient, reporting.FormatDailyReport(report))
	if err != nil {
		return fmt.Errorf("notify daily report %s: %w", report.Date, err)
	}
	n.logger.Info("daily report sent", zap.String("day", report.Date), zap.String("message_id", id))
	return nil
}
