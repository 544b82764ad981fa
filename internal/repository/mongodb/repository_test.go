package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

func ctx() context.Context { return context.Background() }

func TestNormalize(t *testing.T) {
	assert.Equal(t, "MCH-001", NormalizeCode("  mch-001 "))
	assert.Equal(t, "admin@example.com", NormalizeEmail(" Admin@Example.COM"))
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create normalizes email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoUserRepository(mt.DB)

		u := &models.User{Name: "Op", Email: " Op@Example.com ", Role: models.RoleOperator}
		require.NoError(mt, repo.Create(ctx(), u))

		assert.Equal(mt, "op@example.com", u.Email)
		assert.NotNil(mt, u.MachineIDs)
		assert.False(mt, u.CreatedAt.IsZero())
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error collection: users index: email_1",
		}))
		repo := NewMongoUserRepository(mt.DB)

		err := repo.Create(ctx(), &models.User{Email: "a@b.c"})
		assert.ErrorIs(mt, err, ErrDuplicateKey)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prodtrack.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "sup@example.com"},
			{Key: "password", Value: "hash"},
			{Key: "role", Value: "supervisor"},
			{Key: "isActive", Value: true},
		}))
		repo := NewMongoUserRepository(mt.DB)

		u, err := repo.FindByEmail(ctx(), "SUP@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, models.RoleSupervisor, u.Role)
		assert.Equal(mt, "hash", u.PasswordHash)
	})

	mt.Run("exists by email or phone", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prodtrack.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}))
		repo := NewMongoUserRepository(mt.DB)

		exclude := primitive.NewObjectID()
		exists, err := repo.ExistsByEmailOrPhone(ctx(), "a@b.c", "0300", &exclude)
		require.NoError(mt, err)
		assert.True(mt, exists)
	})

	mt.Run("exists with nothing to check", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)

		exists, err := repo.ExistsByEmailOrPhone(ctx(), "", "", nil)
		require.NoError(mt, err)
		assert.False(mt, exists)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := NewMongoUserRepository(mt.DB)

		assert.ErrorIs(mt, repo.Delete(ctx(), primitive.NewObjectID()), ErrNotFound)
	})
}

func TestMongoMachineRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create uppercases code", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoMachineRepository(mt.DB)

		m := &models.Machine{Name: "Press", Code: "mch-9", Tonnage: 10, IsActive: true}
		require.NoError(mt, repo.Create(ctx(), m))
		assert.Equal(mt, "MCH-9", m.Code)
	})

	mt.Run("list active", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prodtrack.machines", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "A"}, {Key: "code", Value: "MCH-001"}, {Key: "isActive", Value: true}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "B"}, {Key: "code", Value: "MCH-002"}, {Key: "isActive", Value: true}},
		))
		repo := NewMongoMachineRepository(mt.DB)

		machines, err := repo.List(ctx(), true)
		require.NoError(mt, err)
		assert.Len(mt, machines, 2)
		assert.Equal(mt, "MCH-002", machines[1].Code)
	})

	mt.Run("code not taken", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prodtrack.machines", mtest.FirstBatch))
		repo := NewMongoMachineRepository(mt.DB)

		exists, err := repo.ExistsByCode(ctx(), "mch-003", nil)
		require.NoError(mt, err)
		assert.False(mt, exists)
	})

	mt.Run("find by ids skips query when empty", func(mt *mtest.T) {
		repo := NewMongoMachineRepository(mt.DB)

		machines, err := repo.FindByIDs(ctx(), nil)
		require.NoError(mt, err)
		assert.Empty(mt, machines)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates every collection's indexes", func(mt *mtest.T) {
		for i := 0; i < 4; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
		}
		require.NoError(mt, EnsureIndexes(ctx(), mt.DB))
	})

	mt.Run("conflicting index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 85, Name: "IndexOptionsConflict", Message: "index already exists with different options",
		}))
		err := EnsureIndexes(ctx(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "create indexes on")
	})
}
