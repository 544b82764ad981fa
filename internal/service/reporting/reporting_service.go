package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/mongodb"
	"github.com/mamadbah2/prodtrack/internal/service/productions"
)

const (
	// DateLayout is the calendar date format accepted and produced by reports.
	DateLayout = "2006-01-02"

	defaultMachineWindow = 30 * 24 * time.Hour
)

// Repositories groups the stores the report service reads from.
type Repositories struct {
	Reports     mongodb.ReportRepository
	Productions mongodb.ProductionRepository
	Machines    mongodb.MachineRepository
	Users       mongodb.UserRepository
}

// Service computes production analytics.
type Service struct {
	repos  Repositories
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. Calendar days are
// interpreted in loc.
func NewService(repos Repositories, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repos: repos, loc: loc, logger: logger, now: time.Now}
}

// Location returns the timezone calendar days are computed in.
func (s *Service) Location() *time.Location { return s.loc }

// Summary returns totals across every production plus active operator and
// machine counts.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	totals, err := s.repos.Reports.Totals(ctx, models.ProductionQuery{})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("summary totals: %w", err))
	}

	operator, active := models.RoleOperator, true
	operators, err := s.repos.Users.Count(ctx, models.UserFilter{Role: &operator, IsActive: &active})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count operators: %w", err))
	}
	machines, err := s.repos.Machines.Count(ctx, true)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count machines: %w", err))
	}

	return &models.Summary{Totals: totals, TotalOperators: operators, TotalMachines: machines}, nil
}

// DailyReport lists the productions of one calendar day sorted by shift,
// with per-shift and overall totals.
func (s *Service) DailyReport(ctx context.Context, date string) (*models.DailyReport, error) {
	if strings.TrimSpace(date) == "" {
		return nil, apperr.Validation("Date parameter required")
	}
	day, err := s.ParseDay(date)
	if err != nil {
		return nil, err
	}
	return s.dailyReport(ctx, day)
}

// DailyReportFor builds the report of the calendar day containing t.
func (s *Service) DailyReportFor(ctx context.Context, t time.Time) (*models.DailyReport, error) {
	return s.dailyReport(ctx, t.In(s.loc))
}

func (s *Service) dailyReport(ctx context.Context, day time.Time) (*models.DailyReport, error) {
	start, end := DayBounds(day)
	query := models.ProductionQuery{
		Filter: models.ProductionFilter{From: &start, To: &end},
		Sort:   models.SortByShift,
	}

	rows, _, err := s.repos.Productions.List(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("daily productions: %w", err))
	}
	shifts, err := s.repos.Reports.TotalsByShift(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("daily shift totals: %w", err))
	}
	views, err := productions.Populate(ctx, s.repos.Machines, s.repos.Users, rows)
	if err != nil {
		return nil, err
	}

	return &models.DailyReport{
		Date:        start.Format(DateLayout),
		Productions: views,
		Shifts:      shifts,
		Totals:      sumShifts(shifts),
	}, nil
}

// MachineReport covers one machine between two calendar days, inclusive.
// Missing bounds default to the last 30 days.
func (s *Service) MachineReport(ctx context.Context, machineID primitive.ObjectID, startDate, endDate string) (*models.MachineReport, error) {
	if _, err := s.repos.Machines.FindByID(ctx, machineID); err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, apperr.NotFound("machine not found")
		}
		return nil, apperr.Internal(fmt.Errorf("load machine: %w", err))
	}

	end := s.now().In(s.loc)
	if endDate != "" {
		day, err := s.ParseDay(endDate)
		if err != nil {
			return nil, err
		}
		end = day
	}
	start := end.Add(-defaultMachineWindow)
	if startDate != "" {
		day, err := s.ParseDay(startDate)
		if err != nil {
			return nil, err
		}
		start = day
	}
	from, _ := DayBounds(start)
	_, to := DayBounds(end)
	if from.After(to) {
		return nil, apperr.ValidationFields("invalid date range", map[string]string{"startDate": "must not be after endDate"})
	}

	id := machineID
	query := models.ProductionQuery{
		Filter: models.ProductionFilter{MachineID: &id, From: &from, To: &to},
		Sort:   models.SortNewestFirst,
	}
	rows, _, err := s.repos.Productions.List(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("machine productions: %w", err))
	}
	totals, err := s.repos.Reports.Totals(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("machine totals: %w", err))
	}
	views, err := productions.Populate(ctx, s.repos.Machines, s.repos.Users, rows)
	if err != nil {
		return nil, err
	}

	return &models.MachineReport{
		MachineID:   machineID.Hex(),
		StartDate:   from,
		EndDate:     to,
		Productions: views,
		Stats:       MachineStats(totals),
	}, nil
}

// Snapshot converts a daily report into its persisted form.
func (s *Service) Snapshot(report *models.DailyReport) (models.DailyReportSnapshot, error) {
	day, err := s.ParseDay(report.Date)
	if err != nil {
		return models.DailyReportSnapshot{}, err
	}
	return models.DailyReportSnapshot{
		Date:      day,
		Day:       report.Date,
		Shifts:    report.Shifts,
		Totals:    report.Totals,
		CreatedAt: s.now().UTC(),
	}, nil
}

// SaveSnapshot persists the snapshot of report.
func (s *Service) SaveSnapshot(ctx context.Context, report *models.DailyReport) (models.DailyReportSnapshot, error) {
	snapshot, err := s.Snapshot(report)
	if err != nil {
		return models.DailyReportSnapshot{}, err
	}
	if err := s.repos.Reports.SaveDailyReport(ctx, snapshot); err != nil {
		return models.DailyReportSnapshot{}, apperr.Internal(err)
	}
	s.logger.Info("daily report saved", zap.String("day", snapshot.Day), zap.Int64("productions", snapshot.Totals.TotalProductions))
	return snapshot, nil
}

// ParseDay parses a YYYY-MM-DD date (or an RFC 3339 timestamp) as a calendar
// day in the report timezone.
func (s *Service) ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if day, err := time.ParseInLocation(DateLayout, value, s.loc); err == nil {
		return day, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.In(s.loc), nil
	}
	return time.Time{}, apperr.ValidationFields("invalid date", map[string]string{"date": "must use the YYYY-MM-DD format"})
}

// DayBounds returns the first and last millisecond of the calendar day
// containing t, in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
	return start, end
}

// MachineStats derives the average weight per record. No records yield a
// zero average.
func MachineStats(t models.Totals) models.MachineStats {
	stats := models.MachineStats{Totals: t}
	if t.TotalProductions > 0 {
		stats.AverageWeight = t.TotalWeight / float64(t.TotalProductions)
	}
	return stats
}

func sumShifts(shifts []models.ShiftTotals) models.Totals {
	var total models.Totals
	for _, st := range shifts {
		total.TotalProductions += st.TotalProductions
		total.TotalWeight += st.TotalWeight
		total.TotalPieces += st.TotalPieces
	}
	return total
}
