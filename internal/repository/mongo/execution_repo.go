// internal/repository/mongo/execution_repo.go
package mongo

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const executionCollectionName = "executions"

// duplicateKeyCode is the server error code for unique index violations.
const duplicateKeyCode = 11000

// mongoExecutionRepository implements repository.ExecutionRepository.
// Uniqueness of the execution key is enforced by EnsureExecutionIndexes.
type mongoExecutionRepository struct {
	collection *mongo.Collection
}

// NewMongoExecutionRepository creates a new execution ledger repository.
func NewMongoExecutionRepository(db *mongo.Database) repository.ExecutionRepository {
	return &mongoExecutionRepository{
		collection: db.Collection(executionCollectionName),
	}
}

func keyFilter(rec *domain.ExecutionRecord) bson.D {
	return bson.D{
		{Key: "enrollmentId", Value: rec.EnrollmentID},
		{Key: "itemId", Value: rec.ItemID},
		{Key: "block", Value: rec.Block},
		{Key: "order", Value: rec.Order},
		{Key: "periodIndex", Value: rec.PeriodIndex},
		{Key: "weekIndex", Value: rec.WeekIndex},
		{Key: "dayNumber", Value: rec.DayNumber},
	}
}

// InsertMissing upserts every record with $setOnInsert so stored records are
// never modified. Writes are unordered; a duplicate key error raised by a
// concurrent writer means the record already exists and counts as skipped.
func (r *mongoExecutionRepository) InsertMissing(ctx context.Context, records []domain.ExecutionRecord) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	for i := range records {
		rec := &records[i]
		onInsert := bson.M{
			"_id":              primitive.NewObjectID(),
			"activityId":       rec.ActivityID,
			"clientId":         rec.ClientID,
			"scheduledDate":    rec.ScheduledDate,
			"appliedIntensity": rec.AppliedIntensity,
			"completed":        false,
			"createdAt":        now,
			"updatedAt":        now,
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(keyFilter(rec)).
			SetUpdate(bson.M{"$setOnInsert": onInsert}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	created := 0
	if result != nil {
		created = int(result.UpsertedCount)
	}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil {
			return created, 0, err
		}
		for _, we := range bulkErr.WriteErrors {
			if we.Code != duplicateKeyCode {
				return created, 0, err
			}
		}
	}
	return created, len(records) - created, nil
}

// GetByID retrieves an execution record by its ID.
func (r *mongoExecutionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExecutionRecord, error) {
	var rec domain.ExecutionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetByEnrollmentID retrieves all records of an enrollment in schedule order.
func (r *mongoExecutionRepository) GetByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) ([]domain.ExecutionRecord, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "scheduledDate", Value: 1},
		{Key: "block", Value: 1},
		{Key: "order", Value: 1},
		{Key: "itemId", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{"enrollmentId": enrollmentID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.ExecutionRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SetCompleted toggles completion. The client ID is part of the filter so a
// client can never touch another client's record.
func (r *mongoExecutionRepository) SetCompleted(ctx context.Context, id, clientID primitive.ObjectID, completed bool, at time.Time) (*domain.ExecutionRecord, error) {
	now := time.Now().UTC()
	var update bson.M
	if completed {
		update = bson.M{"$set": bson.M{"completed": true, "completedAt": at.UTC(), "updatedAt": now}}
	} else {
		update = bson.M{
			"$set":   bson.M{"completed": false, "updatedAt": now},
			"$unset": bson.M{"completedAt": ""},
		}
	}

	var rec domain.ExecutionRecord
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "clientId": clientID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// EnsureExecutionIndexes creates necessary indexes. Call during startup.
// The unique key index is what makes generation idempotent across processes.
func EnsureExecutionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "enrollmentId", Value: 1},
				{Key: "itemId", Value: 1},
				{Key: "block", Value: 1},
				{Key: "order", Value: 1},
				{Key: "periodIndex", Value: 1},
				{Key: "weekIndex", Value: 1},
				{Key: "dayNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("execution_key"),
		},
		{
			Keys:    bson.D{{Key: "enrollmentId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
