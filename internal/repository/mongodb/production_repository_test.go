package mongodb

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

func TestProductionFilterDocument_Empty(t *testing.T) {
	assert.Equal(t, bson.D{}, productionFilterDocument(models.ProductionQuery{}))
}

func TestProductionFilterDocument_SingleClause(t *testing.T) {
	op := primitive.NewObjectID()
	got := productionFilterDocument(models.ProductionQuery{Scope: models.ProductionScope{OperatorID: &op}})

	want := bson.D{{Key: "operatorId", Value: op}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestProductionFilterDocument_ScopeIsANDedWithFilter(t *testing.T) {
	requested := primitive.NewObjectID()
	m1 := primitive.NewObjectID()
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Millisecond)

	q := models.ProductionQuery{
		Filter: models.ProductionFilter{MachineID: &requested, Shift: models.ShiftEvening, From: &from, To: &to},
		Scope:  models.ProductionScope{MachineIDs: []primitive.ObjectID{m1}},
	}

	want := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "machineId", Value: requested}},
		bson.D{{Key: "shift", Value: models.ShiftEvening}},
		bson.D{{Key: "date", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}}},
		bson.D{{Key: "machineId", Value: bson.D{{Key: "$in", Value: []primitive.ObjectID{m1}}}}},
	}}}
	if diff := cmp.Diff(want, productionFilterDocument(q)); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestProductionSortDocument(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}, productionSortDocument(models.SortNewestFirst))
	assert.Equal(t, "shift", productionSortDocument(models.SortByShift)[0].Key)
}

func TestMongoProductionRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create recomputes total weight", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoProductionRepository(mt.DB)

		p := &models.Production{PieceWeight: 2.5, TotalPieces: 10, TotalWeight: 1}
		require.NoError(mt, repo.Create(ctx(), p))

		assert.False(mt, p.ID.IsZero())
		assert.Equal(mt, 25.0, p.TotalWeight)
		assert.False(mt, p.Date.IsZero())
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "prodtrack.productions", mtest.FirstBatch))
		repo := NewMongoProductionRepository(mt.DB)

		_, err := repo.FindByID(ctx(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list returns page and total", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "prodtrack.productions", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: id}, {Key: "productName", Value: "bracket"}, {Key: "totalWeight", Value: 12.5}}),
			mtest.CreateCursorResponse(0, "prodtrack.productions", mtest.FirstBatch,
				bson.D{{Key: "n", Value: int32(41)}}),
		)
		repo := NewMongoProductionRepository(mt.DB)

		rows, total, err := repo.List(ctx(), models.ProductionQuery{Page: 1, Limit: 20})
		require.NoError(mt, err)
		require.Len(mt, rows, 1)
		assert.Equal(mt, id, rows[0].ID)
		assert.Equal(mt, "bracket", rows[0].ProductName)
		assert.Equal(mt, int64(41), total)
	})

	mt.Run("update missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := NewMongoProductionRepository(mt.DB)

		err := repo.Update(ctx(), &models.Production{ID: primitive.NewObjectID()})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewMongoProductionRepository(mt.DB)

		assert.NoError(mt, repo.Delete(ctx(), primitive.NewObjectID()))
	})
}
