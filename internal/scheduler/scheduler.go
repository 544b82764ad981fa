package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// ReportBuilder builds and stores daily reports.
type ReportBuilder interface {
	DailyReportFor(ctx context.Context, t time.Time) (*models.DailyReport, error)
	SaveSnapshot(ctx context.Context, report *models.DailyReport) (models.DailyReportSnapshot, error)
}

// SheetExporter appends a daily report to a spreadsheet.
type SheetExporter interface {
	AppendDailyReport(ctx context.Context, report *models.DailyReport) error
}

// Notifier delivers a daily report digest.
type Notifier interface {
	NotifyDailyReport(ctx context.Context, report *models.DailyReport) error
}

// Result describes one daily report run. Failed lists the sinks that
// returned an error.
type Result struct {
	Report *models.DailyReport `json:"report"`
	Saved  bool                `json:"saved"`
	Failed []string            `json:"failed,omitempty"`
}

// Scheduler runs the daily report job.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	loc      *time.Location
	reports  ReportBuilder
	sheet    SheetExporter
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. sheet and notifier may be
// nil when the matching sink is not configured.
func NewScheduler(spec string, loc *time.Location, reports ReportBuilder, sheet SheetExporter, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		loc:      loc,
		reports:  reports,
		sheet:    sheet,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runPreviousDay); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.spec, err)
	}
	s.logger.Info("starting scheduler", zap.String("schedule", s.spec), zap.String("timezone", s.loc.String()))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runPreviousDay() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	yesterday := s.now().In(s.loc).AddDate(0, 0, -1)
	if _, err := s.RunDailyReport(ctx, yesterday); err != nil {
		s.logger.Error("daily report job failed", zap.Error(err))
	}
}

// RunDailyReport builds the report of the day containing day, stores its
// snapshot and pushes it to the configured sinks. A failing sink does not
// stop the others. The returned error covers building and storing only.
func (s *Scheduler) RunDailyReport(ctx context.Context, day time.Time) (*Result, error) {
	report, err := s.reports.DailyReportFor(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("build daily report: %w", err)
	}
	s.logger.Info("generating daily report", zap.String("day", report.Date))

	result := &Result{Report: report}
	var saveErr error
	if _, err := s.reports.SaveSnapshot(ctx, report); err != nil {
		saveErr = fmt.Errorf("save daily report: %w", err)
		result.Failed = append(result.Failed, "snapshot")
		s.logger.Error("failed to save daily report", zap.String("day", report.Date), zap.Error(err))
	} else {
		result.Saved = true
	}

	if s.sheet != nil {
		if err := s.sheet.AppendDailyReport(ctx, report); err != nil {
			result.Failed = append(result.Failed, "sheets")
			s.logger.Error("failed to export daily report", zap.String("day", report.Date), zap.Error(err))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyDailyReport(ctx, report); err != nil {
			result.Failed = append(result.Failed, "whatsapp")
			s.logger.Error("failed to send daily report", zap.String("day", report.Date), zap.Error(err))
		}
	}

	return result, saveErr
}
