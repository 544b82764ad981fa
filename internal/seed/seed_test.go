package seed

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
	"github.com/mamadbah2/prodtrack/internal/service/auth"
)

func newTestSeeder(store *memory.Store) *Seeder {
	s := NewSeeder(store.Users(), store.Machines(), store.Productions(), auth.NewBcryptHasher(4), time.UTC, nil)
	s.rand = rand.New(rand.NewPCG(7, 7))
	s.now = func() time.Time { return time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestSeeder(store)

	summary, err := s.Run(ctx, Options{Days: 6})
	require.NoError(t, err)
	assert.Equal(t, len(userSeeds), summary.Users)
	assert.Equal(t, len(machineSeeds), summary.Machines)
	assert.GreaterOrEqual(t, summary.Productions, 7*2)
	assert.LessOrEqual(t, summary.Productions, 7*4)

	admin, err := store.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, s.hasher.Compare(admin.PasswordHash, DefaultPassword))

	sup, err := store.Users().FindByEmail(ctx, "supervisor1@example.com")
	require.NoError(t, err)
	assert.Len(t, sup.MachineIDs, 2)

	rows, total, err := store.Productions().List(ctx, models.ProductionQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, summary.Productions, total)

	inactive := map[string]bool{}
	all, err := store.Machines().List(ctx, false)
	require.NoError(t, err)
	for _, m := range all {
		if !m.IsActive {
			inactive[m.ID.Hex()] = true
		}
	}
	require.Len(t, inactive, 1)

	for _, p := range rows {
		assert.False(t, inactive[p.MachineID.Hex()], "production on inactive machine")
		assert.InDelta(t, float64(p.TotalPieces)*p.PieceWeight, p.TotalWeight, 1e-9)
		assert.True(t, p.Shift.Valid())
		assert.GreaterOrEqual(t, p.ContractQuantity, p.TotalPieces)
	}
}

func TestRun_RequiresResetWhenSeeded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestSeeder(store)

	_, err := s.Run(ctx, Options{Days: 1})
	require.NoError(t, err)

	_, err = s.Run(ctx, Options{Days: 1})
	assert.ErrorIs(t, err, ErrAlreadySeeded)

	summary, err := s.Run(ctx, Options{Days: 1, Reset: true})
	require.NoError(t, err)

	n, err := store.Users().Count(ctx, models.UserFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, summary.Users, n)

	_, total, err := store.Productions().List(ctx, models.ProductionQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, summary.Productions, total)
}
