package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeReports struct {
	day     time.Time
	saveErr error
	saved   int
}

func (f *fakeReports) DailyReportFor(_ context.Context, t time.Time) (*models.DailyReport, error) {
	f.day = t
	return &models.DailyReport{Date: t.Format("2006-01-02")}, nil
}

func (f *fakeReports) SaveSnapshot(_ context.Context, _ *models.DailyReport) (models.DailyReportSnapshot, error) {
	if f.saveErr != nil {
		return models.DailyReportSnapshot{}, f.saveErr
	}
	f.saved++
	return models.DailyReportSnapshot{}, nil
}

type fakeSink struct {
	err   error
	calls int
}

func (f *fakeSink) AppendDailyReport(context.Context, *models.DailyReport) error {
	f.calls++
	return f.err
}

func (f *fakeSink) NotifyDailyReport(context.Context, *models.DailyReport) error {
	f.calls++
	return f.err
}

func TestRunDailyReport_AllSinks(t *testing.T) {
	reports := &fakeReports{}
	sheet, notifier := &fakeSink{}, &fakeSink{}
	s := NewScheduler("5 0 * * *", time.UTC, reports, sheet, notifier, nil)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	result, err := s.RunDailyReport(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, result.Saved)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "2025-06-01", result.Report.Date)
	assert.Equal(t, 1, reports.saved)
	assert.Equal(t, 1, sheet.calls)
	assert.Equal(t, 1, notifier.calls)
}

func TestRunDailyReport_SinkFailureDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	reports := &fakeReports{saveErr: errors.New("mongo down")}
	sheet := &fakeSink{err: errors.New("quota exceeded")}
	notifier := &fakeSink{}
	s := NewScheduler("5 0 * * *", time.UTC, reports, sheet, notifier, zap.New(core))

	result, err := s.RunDailyReport(context.Background(), time.Now())
	require.Error(t, err)
	assert.False(t, result.Saved)
	assert.Equal(t, []string{"snapshot", "sheets"}, result.Failed)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, 2, logs.Len())
}

func TestRunDailyReport_OptionalSinks(t *testing.T) {
	s := NewScheduler("5 0 * * *", time.UTC, &fakeReports{}, nil, nil, nil)

	result, err := s.RunDailyReport(context.Background(), time.Now())
	require.NoError(t, err)
	assert.True(t, result.Saved)
}

func TestRunPreviousDay_UsesReportTimezone(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	reports := &fakeReports{}
	s := NewScheduler("5 0 * * *", loc, reports, nil, nil, nil)
	// 20:05 UTC on June 1st is already June 2nd in PKT.
	s.now = func() time.Time { return time.Date(2025, 6, 1, 20, 5, 0, 0, time.UTC) }

	s.runPreviousDay()

	assert.Equal(t, "2025-06-01", reports.day.Format("2006-01-02"))
	assert.Equal(t, loc, reports.day.Location())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler("5 0 * * *", time.UTC, &fakeReports{}, nil, nil, nil)

	require.NoError(t, s.Start())
	s.Stop()
	goleak.VerifyNone(t)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler("every day", time.UTC, &fakeReports{}, nil, nil, nil)

	assert.Error(t, s.Start())
}
