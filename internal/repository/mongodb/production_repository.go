package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// ProductionRepository persists production records.
type ProductionRepository interface {
	Create(ctx context.Context, production *models.Production) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Production, error)
	List(ctx context.Context, query models.ProductionQuery) ([]models.Production, int64, error)
	Update(ctx context.Context, production *models.Production) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) error
}

// MongoProductionRepository implements ProductionRepository on the productions collection.
type MongoProductionRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoProductionRepository builds a repository over db.
func NewMongoProductionRepository(db *mongo.Database) *MongoProductionRepository {
	return &MongoProductionRepository{coll: db.Collection(productionsCollection), now: time.Now}
}

func (r *MongoProductionRepository) Create(ctx context.Context, production *models.Production) error {
	if production.ID.IsZero() {
		production.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	production.CreatedAt, production.UpdatedAt = now, now
	if production.Date.IsZero() {
		production.Date = now
	}
	production.RecomputeTotalWeight()

	if _, err := r.coll.InsertOne(ctx, production); err != nil {
		return fmt.Errorf("insert production: %w", translateError(err))
	}
	return nil
}

func (r *MongoProductionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Production, error) {
	var production models.Production
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&production); err != nil {
		return nil, translateError(err)
	}
	return &production, nil
}

// List returns one page of matching productions and the total match count.
func (r *MongoProductionRepository) List(ctx context.Context, query models.ProductionQuery) ([]models.Production, int64, error) {
	filter := productionFilterDocument(query)

	opts := options.Find().SetSort(productionSortDocument(query.Sort))
	if query.Limit > 0 {
		opts.SetSkip(int64(query.Skip())).SetLimit(int64(query.Limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find productions: %w", err)
	}
	productions := []models.Production{}
	if err := cursor.All(ctx, &productions); err != nil {
		return nil, 0, fmt.Errorf("decode productions: %w", err)
	}

	if query.Limit <= 0 {
		return productions, int64(len(productions)), nil
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count productions: %w", err)
	}
	return productions, total, nil
}

func (r *MongoProductionRepository) Update(ctx context.Context, production *models.Production) error {
	production.UpdatedAt = r.now().UTC()
	production.RecomputeTotalWeight()

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: production.ID}}, production)
	if err != nil {
		return fmt.Errorf("update production: %w", translateError(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete production: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear productions: %w", err)
	}
	return nil
}

// productionFilterDocument ANDs the caller's filter clauses with the role
// scope clauses. Clauses on the same field are kept separate so the scope
// can never be overwritten by a caller-supplied value.
func productionFilterDocument(q models.ProductionQuery) bson.D {
	var clauses bson.A

	f := q.Filter
	if f.MachineID != nil {
		clauses = append(clauses, bson.D{{Key: "machineId", Value: *f.MachineID}})
	}
	if f.OperatorID != nil {
		clauses = append(clauses, bson.D{{Key: "operatorId", Value: *f.OperatorID}})
	}
	if f.Shift != "" {
		clauses = append(clauses, bson.D{{Key: "shift", Value: f.Shift}})
	}
	if f.From != nil || f.To != nil {
		rng := bson.D{}
		if f.From != nil {
			rng = append(rng, bson.E{Key: "$gte", Value: *f.From})
		}
		if f.To != nil {
			rng = append(rng, bson.E{Key: "$lte", Value: *f.To})
		}
		clauses = append(clauses, bson.D{{Key: "date", Value: rng}})
	}

	s := q.Scope
	if s.OperatorID != nil {
		clauses = append(clauses, bson.D{{Key: "operatorId", Value: *s.OperatorID}})
	}
	if s.MachineIDs != nil {
		clauses = append(clauses, bson.D{{Key: "machineId", Value: bson.D{{Key: "$in", Value: s.MachineIDs}}}})
	}

	switch len(clauses) {
	case 0:
		return bson.D{}
	case 1:
		return clauses[0].(bson.D)
	default:
		return bson.D{{Key: "$and", Value: clauses}}
	}
}

func productionSortDocument(sort models.ProductionSort) bson.D {
	if sort == models.SortByShift {
		return bson.D{{Key: "shift", Value: 1}, {Key: "date", Value: 1}}
	}
	return bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}
}
