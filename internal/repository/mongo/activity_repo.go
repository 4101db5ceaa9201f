// internal/repository/mongo/activity_repo.go
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

const (
	activityCollectionName     = "activities"
	periodConfigCollectionName = "period_configs"
)

// mongoActivityRepository implements repository.ActivityRepository
type mongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new Activity repository.
func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{
		collection: db.Collection(activityCollectionName),
	}
}

// Create inserts a new activity.
func (r *mongoActivityRepository) Create(ctx context.Context, activity *domain.Activity) (primitive.ObjectID, error) {
	if activity.CoachID == primitive.NilObjectID || activity.Title == "" {
		return primitive.NilObjectID, errors.New("activity requires coachId and title")
	}
	activity.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, activity)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted activity ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single activity by its ID.
func (r *mongoActivityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&activity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &activity, nil
}

// GetByCoachID retrieves a coach's activities, newest first.
func (r *mongoActivityRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Activity, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"coachId": coachID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var activities []domain.Activity
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// EnsureActivityIndexes creates necessary indexes. Call during startup.
func EnsureActivityIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// mongoPeriodConfigRepository implements repository.PeriodConfigRepository.
// Documents are keyed by the activity ID.
type mongoPeriodConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoPeriodConfigRepository creates a new PeriodConfig repository.
func NewMongoPeriodConfigRepository(db *mongo.Database) repository.PeriodConfigRepository {
	return &mongoPeriodConfigRepository{
		collection: db.Collection(periodConfigCollectionName),
	}
}

// Get returns the activity's period config or repository.ErrNotFound.
func (r *mongoPeriodConfigRepository) Get(ctx context.Context, activityID primitive.ObjectID) (*domain.PeriodConfig, error) {
	var cfg domain.PeriodConfig
	err := r.collection.FindOne(ctx, bson.M{"_id": activityID}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// Upsert stores cfg as the activity's period config.
func (r *mongoPeriodConfigRepository) Upsert(ctx context.Context, cfg *domain.PeriodConfig) error {
	if cfg.ActivityID == primitive.NilObjectID {
		return errors.New("period config requires activityId")
	}
	cfg.UpdatedAt = time.Now().UTC()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": cfg.ActivityID},
		bson.M{"$set": bson.M{"periodCount": cfg.PeriodCount, "updatedAt": cfg.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	return err
}
