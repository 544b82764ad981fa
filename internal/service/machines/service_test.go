package machines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
)

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	svc := NewService(memory.NewStore().Machines(), nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, Input{Name: ptr("Press 1"), Code: ptr(" p-100 "), Tonnage: ptr(150.0)})
	require.NoError(t, err)
	assert.Equal(t, "P-100", m.Code)
	assert.True(t, m.IsActive)
	assert.False(t, m.ID.IsZero())

	_, err = svc.Create(ctx, Input{Name: ptr("Press 2"), Code: ptr("P-100"), Tonnage: ptr(80.0)})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "codes are unique case-insensitively")

	_, err = svc.Create(ctx, Input{Name: ptr("Press 3"), Code: ptr("P-300"), Tonnage: ptr(0.0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, Input{Code: ptr("P-400"), Tonnage: ptr(10.0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate(t *testing.T) {
	svc := NewService(memory.NewStore().Machines(), nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, Input{Name: ptr("A"), Code: ptr("A1"), Tonnage: ptr(10.0)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Name: ptr("B"), Code: ptr("B1"), Tonnage: ptr(10.0)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, Input{Code: ptr("a1"), Location: ptr("Hall 2")})
	require.NoError(t, err, "keeping its own code is not a conflict")
	assert.Equal(t, "Hall 2", updated.Location)

	_, err = svc.Update(ctx, a.ID, Input{Code: ptr("b1")})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Update(ctx, primitive.NewObjectID(), Input{Name: ptr("X")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListAndDelete(t *testing.T) {
	svc := NewService(memory.NewStore().Machines(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: ptr("Zeta"), Code: ptr("Z"), Tonnage: ptr(1.0)})
	require.NoError(t, err)
	alpha, err := svc.Create(ctx, Input{Name: ptr("Alpha"), Code: ptr("A"), Tonnage: ptr(1.0)})
	require.NoError(t, err)
	idle, err := svc.Create(ctx, Input{Name: ptr("Idle"), Code: ptr("I"), Tonnage: ptr(1.0)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, idle.ID, Input{IsActive: ptr(false)})
	require.NoError(t, err)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alpha", active[0].Name)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, svc.Delete(ctx, alpha.ID))
	_, err = svc.Get(ctx, alpha.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, alpha.ID), apperr.KindNotFound))
}
