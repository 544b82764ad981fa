package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// MachineRepository persists machines.
type MachineRepository interface {
	Create(ctx context.Context, machine *models.Machine) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Machine, error)
	List(ctx context.Context, activeOnly bool) ([]models.Machine, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
	ExistsByCode(ctx context.Context, code string, exclude *primitive.ObjectID) (bool, error)
	Update(ctx context.Context, machine *models.Machine) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) error
}

// MongoMachineRepository implements MachineRepository on the machines collection.
type MongoMachineRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoMachineRepository builds a repository over db.
func NewMongoMachineRepository(db *mongo.Database) *MongoMachineRepository {
	return &MongoMachineRepository{coll: db.Collection(machinesCollection), now: time.Now}
}

// NormalizeCode uppercases and trims a machine code the way it is stored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *MongoMachineRepository) Create(ctx context.Context, machine *models.Machine) error {
	if machine.ID.IsZero() {
		machine.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	machine.CreatedAt, machine.UpdatedAt = now, now
	machine.Code = NormalizeCode(machine.Code)

	if _, err := r.coll.InsertOne(ctx, machine); err != nil {
		return fmt.Errorf("insert machine: %w", translateError(err))
	}
	return nil
}

func (r *MongoMachineRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Machine, error) {
	var machine models.Machine
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&machine); err != nil {
		return nil, translateError(err)
	}
	return &machine, nil
}

func (r *MongoMachineRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Machine, error) {
	if len(ids) == 0 {
		return []models.Machine{}, nil
	}
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}

func (r *MongoMachineRepository) List(ctx context.Context, activeOnly bool) ([]models.Machine, error) {
	return r.find(ctx, activeFilter(activeOnly))
}

func (r *MongoMachineRepository) find(ctx context.Context, filter bson.D) ([]models.Machine, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find machines: %w", err)
	}
	machines := []models.Machine{}
	if err := cursor.All(ctx, &machines); err != nil {
		return nil, fmt.Errorf("decode machines: %w", err)
	}
	return machines, nil
}

func (r *MongoMachineRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, activeFilter(activeOnly))
	if err != nil {
		return 0, fmt.Errorf("count machines: %w", err)
	}
	return n, nil
}

func (r *MongoMachineRepository) ExistsByCode(ctx context.Context, code string, exclude *primitive.ObjectID) (bool, error) {
	filter := bson.D{{Key: "code", Value: NormalizeCode(code)}}
	if exclude != nil {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: *exclude}}})
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check machine code: %w", err)
	}
	return n > 0, nil
}

func (r *MongoMachineRepository) Update(ctx context.Context, machine *models.Machine) error {
	machine.UpdatedAt = r.now().UTC()
	machine.Code = NormalizeCode(machine.Code)

	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: machine.ID}}, machine)
	if err != nil {
		return fmt.Errorf("update machine: %w", translateError(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMachineRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMachineRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear machines: %w", err)
	}
	return nil
}

func activeFilter(activeOnly bool) bson.D {
	if activeOnly {
		return bson.D{{Key: "isActive", Value: true}}
	}
	return bson.D{}
}
