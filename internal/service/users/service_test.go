package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/identity"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
	"github.com/mamadbah2/prodtrack/internal/service/auth"
)

func ptr[T any](v T) *T { return &v }

func newTestService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(store.Users(), store.Machines(), auth.NewBcryptHasher(4), nil), store
}

func input(name, email, phone string, role models.Role) Input {
	return Input{Name: ptr(name), Email: ptr(email), Phone: ptr(phone), Password: ptr("secret123"), Role: ptr(role)}
}

func TestCreate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	press := &models.Machine{Name: "Press", Code: "P1", Tonnage: 100, IsActive: true}
	require.NoError(t, store.Machines().Create(ctx, press))

	in := input("Sara", " Sara@Example.com", "0300", models.RoleSupervisor)
	in.MachineIDs = []primitive.ObjectID{press.ID, press.ID}
	u, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "sara@example.com", u.Email)
	assert.Equal(t, models.RoleSupervisor, u.Role)
	assert.Equal(t, []primitive.ObjectID{press.ID}, u.MachineIDs)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.True(t, auth.NewBcryptHasher(4).Compare(u.PasswordHash, "secret123"))

	_, err = svc.Create(ctx, input("Dup", "sara@example.com", "0399", models.RoleOperator))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Create(ctx, input("Dup", "new@example.com", "0300", models.RoleOperator))
	assert.True(t, apperr.Is(err, apperr.KindConflict), "phone is unique too")

	bad := input("Ghost", "ghost@example.com", "0400", models.RoleSupervisor)
	bad.MachineIDs = []primitive.ObjectID{primitive.NewObjectID()}
	_, err = svc.Create(ctx, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, input("Boss", "boss@example.com", "0500", models.Role("owner")))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Create(ctx, input("A", "a@example.com", "1", models.RoleOperator))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("B", "b@example.com", "2", models.RoleOperator))
	require.NoError(t, err)
	oldHash := a.PasswordHash

	updated, err := svc.Update(ctx, a.ID, Input{Email: ptr("A@example.com"), Password: ptr("another-pass")})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.True(t, auth.NewBcryptHasher(4).Compare(updated.PasswordHash, "another-pass"))

	_, err = svc.Update(ctx, a.ID, Input{Phone: ptr("2")})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Update(ctx, a.ID, Input{Password: ptr("123")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Update(ctx, primitive.NewObjectID(), Input{Name: ptr("X")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestList_SupervisorSeesOperatorsOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, input("Admin", "admin@example.com", "1", models.RoleAdmin))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("Sup", "sup@example.com", "2", models.RoleSupervisor))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("Op", "op@example.com", "3", models.RoleOperator))
	require.NoError(t, err)

	admin := identity.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	supervisor := identity.Identity{ID: primitive.NewObjectID(), Role: models.RoleSupervisor}

	all, err := svc.List(ctx, admin, models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	seen, err := svc.List(ctx, supervisor, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, models.RoleOperator, seen[0].Role)

	admins, err := svc.List(ctx, supervisor, models.UserFilter{Role: ptr(models.RoleAdmin)})
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, input("A", "a@example.com", "1", models.RoleOperator))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, u.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, u.ID), apperr.KindNotFound))
}
