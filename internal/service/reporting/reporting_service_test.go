package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
)

type fixture struct {
	svc      *Service
	store    *memory.Store
	machine  models.Machine
	operator models.User
}

func newFixture(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{store: store}
	f.svc = NewService(Repositories{
		Reports:     store.Reports(),
		Productions: store.Productions(),
		Machines:    store.Machines(),
		Users:       store.Users(),
	}, loc, nil)

	f.machine = models.Machine{Name: "Press", Code: "P1", Tonnage: 100, IsActive: true}
	require.NoError(t, store.Machines().Create(ctx, &f.machine))
	f.operator = models.User{Name: "Op", Email: "op@example.com", Phone: "1", Role: models.RoleOperator, IsActive: true}
	require.NoError(t, store.Users().Create(ctx, &f.operator))
	return f
}

func (f *fixture) add(t *testing.T, machineID primitive.ObjectID, shift models.Shift, pieces int, weight float64, date time.Time) {
	t.Helper()
	p := models.Production{
		MachineID:        machineID,
		OperatorID:       f.operator.ID,
		ProductName:      "Bracket",
		ContractQuantity: 10,
		PieceWeight:      weight,
		TotalPieces:      pieces,
		Shift:            shift,
		Date:             date,
	}
	require.NoError(t, f.store.Productions().Create(context.Background(), &p))
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	start, end := DayBounds(time.Date(2025, 6, 1, 13, 45, 0, 0, loc))

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 999000000, loc), end)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()
	now := time.Now()
	f.add(t, f.machine.ID, models.ShiftMorning, 10, 2.5, now)
	f.add(t, f.machine.ID, models.ShiftNight, 4, 1, now)

	idle := models.Machine{Name: "Idle", Code: "I", Tonnage: 1}
	require.NoError(t, f.store.Machines().Create(ctx, &idle))
	disabled := models.User{Name: "Gone", Email: "gone@example.com", Phone: "2", Role: models.RoleOperator}
	require.NoError(t, f.store.Users().Create(ctx, &disabled))

	summary, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalProductions)
	assert.Equal(t, int64(14), summary.TotalPieces)
	assert.InDelta(t, 29.0, summary.TotalWeight, 1e-9)
	assert.Equal(t, int64(1), summary.TotalOperators)
	assert.Equal(t, int64(1), summary.TotalMachines)
}

func TestDailyReport(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	f := newFixture(t, loc)
	ctx := context.Background()

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)
	f.add(t, f.machine.ID, models.ShiftNight, 2, 1, day.Add(23*time.Hour+59*time.Minute))
	f.add(t, f.machine.ID, models.ShiftMorning, 10, 2.5, day.Add(8*time.Hour))
	f.add(t, f.machine.ID, models.ShiftMorning, 4, 2.5, day)
	f.add(t, f.machine.ID, models.ShiftEvening, 1, 1, day.Add(-time.Millisecond))
	f.add(t, f.machine.ID, models.ShiftEvening, 1, 1, day.Add(24*time.Hour))

	report, err := f.svc.DailyReport(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", report.Date)
	require.Len(t, report.Productions, 3)
	assert.Equal(t, models.ShiftMorning, report.Productions[0].Shift)
	assert.Equal(t, models.ShiftNight, report.Productions[2].Shift)
	require.NotNil(t, report.Productions[0].Machine)
	assert.Equal(t, "P1", report.Productions[0].Machine.Code)

	require.Len(t, report.Shifts, 2)
	assert.Equal(t, models.ShiftMorning, report.Shifts[0].Shift)
	assert.Equal(t, int64(2), report.Shifts[0].TotalProductions)
	assert.InDelta(t, 35.0, report.Shifts[0].TotalWeight, 1e-9)
	assert.Equal(t, int64(3), report.Totals.TotalProductions)
	assert.Equal(t, int64(16), report.Totals.TotalPieces)
}

func TestDailyReport_Validation(t *testing.T) {
	f := newFixture(t, time.UTC)

	_, err := f.svc.DailyReport(context.Background(), "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.DailyReport(context.Background(), "01/06/2025")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestMachineReport(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()

	other := models.Machine{Name: "Other", Code: "O", Tonnage: 5, IsActive: true}
	require.NoError(t, f.store.Machines().Create(ctx, &other))

	base := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	f.add(t, f.machine.ID, models.ShiftMorning, 10, 2, base)
	f.add(t, f.machine.ID, models.ShiftMorning, 10, 4, base.Add(24*time.Hour))
	f.add(t, other.ID, models.ShiftMorning, 10, 4, base)

	report, err := f.svc.MachineReport(ctx, f.machine.ID, "2025-05-01", "2025-05-31")
	require.NoError(t, err)
	assert.Len(t, report.Productions, 2)
	assert.Equal(t, int64(2), report.Stats.TotalProductions)
	assert.InDelta(t, 60.0, report.Stats.TotalWeight, 1e-9)
	assert.InDelta(t, 30.0, report.Stats.AverageWeight, 1e-9)

	empty, err := f.svc.MachineReport(ctx, f.machine.ID, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Empty(t, empty.Productions)
	assert.Zero(t, empty.Stats.AverageWeight)

	_, err = f.svc.MachineReport(ctx, f.machine.ID, "2025-06-01", "2025-05-01")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.MachineReport(ctx, primitive.NewObjectID(), "", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMachineReport_DefaultWindow(t *testing.T) {
	f := newFixture(t, time.UTC)
	now := time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.add(t, f.machine.ID, models.ShiftMorning, 1, 1, now.Add(-10*24*time.Hour))
	f.add(t, f.machine.ID, models.ShiftMorning, 1, 1, now.Add(-40*24*time.Hour))

	report, err := f.svc.MachineReport(context.Background(), f.machine.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, report.Productions, 1)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), report.StartDate)
}

func TestSaveSnapshot(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()
	f.add(t, f.machine.ID, models.ShiftMorning, 10, 2.5, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	report, err := f.svc.DailyReport(ctx, "2025-06-01")
	require.NoError(t, err)
	_, err = f.svc.SaveSnapshot(ctx, report)
	require.NoError(t, err)

	snap, ok := f.store.Snapshot("2025-06-01")
	require.True(t, ok)
	assert.Equal(t, int64(1), snap.Totals.TotalProductions)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), snap.Date)
}

func TestFormatDailyReport(t *testing.T) {
	empty := FormatDailyReport(&models.DailyReport{Date: "2025-06-01"})
	assert.Equal(t, "Production report 2025-06-01: no records.", empty)

	text := FormatDailyReport(&models.DailyReport{
		Date: "2025-06-01",
		Shifts: []models.ShiftTotals{
			{Shift: models.ShiftMorning, Totals: models.Totals{TotalProductions: 2, TotalPieces: 14, TotalWeight: 35}},
		},
		Totals: models.Totals{TotalProductions: 2, TotalPieces: 14, TotalWeight: 35},
	})
	assert.Contains(t, text, "morning: 2 entries, 14 pieces, 35.00 kg")
	assert.Contains(t, text, "Total: 2 entries, 14 pieces, 35.00 kg")
}
