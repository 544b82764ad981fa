package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// ReportRepository runs the reporting aggregations and stores report snapshots.
type ReportRepository interface {
	Totals(ctx context.Context, query models.ProductionQuery) (models.Totals, error)
	TotalsByShift(ctx context.Context, query models.ProductionQuery) ([]models.ShiftTotals, error)
	SaveDailyReport(ctx context.Context, report models.DailyReportSnapshot) error
}

// MongoReportRepository implements ReportRepository.
type MongoReportRepository struct {
	productions *mongo.Collection
	snapshots   *mongo.Collection
}

// NewMongoReportRepository builds a report repository over db.
func NewMongoReportRepository(db *mongo.Database) *MongoReportRepository {
	return &MongoReportRepository{
		productions: db.Collection(productionsCollection),
		snapshots:   db.Collection(dailyReportsCollection),
	}
}

// Totals sums count, weight and pieces over the matching productions in a
// single $group stage.
func (r *MongoReportRepository) Totals(ctx context.Context, query models.ProductionQuery) (models.Totals, error) {
	pipeline := totalsPipeline(query, nil)

	cursor, err := r.productions.Aggregate(ctx, pipeline)
	if err != nil {
		return models.Totals{}, fmt.Errorf("aggregate totals: %w", err)
	}
	var rows []models.Totals
	if err := cursor.All(ctx, &rows); err != nil {
		return models.Totals{}, fmt.Errorf("decode totals: %w", err)
	}
	if len(rows) == 0 {
		return models.Totals{}, nil
	}
	return rows[0], nil
}

// TotalsByShift groups the matching productions by shift.
func (r *MongoReportRepository) TotalsByShift(ctx context.Context, query models.ProductionQuery) ([]models.ShiftTotals, error) {
	pipeline := totalsPipeline(query, "$shift")
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}})

	cursor, err := r.productions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate shift totals: %w", err)
	}
	rows := []models.ShiftTotals{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode shift totals: %w", err)
	}
	return rows, nil
}

// SaveDailyReport stores the snapshot, replacing an earlier one for the same day.
func (r *MongoReportRepository) SaveDailyReport(ctx context.Context, report models.DailyReportSnapshot) error {
	_, err := r.snapshots.ReplaceOne(ctx,
		bson.D{{Key: "day", Value: report.Day}},
		report,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save daily report: %w", err)
	}
	return nil
}

func totalsPipeline(query models.ProductionQuery, groupKey interface{}) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: productionFilterDocument(query)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: groupKey},
			{Key: "totalProductions", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalWeight", Value: bson.D{{Key: "$sum", Value: "$totalWeight"}}},
			{Key: "totalPieces", Value: bson.D{{Key: "$sum", Value: "$totalPieces"}}},
		}}},
	}
}
