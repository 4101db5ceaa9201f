// internal/repository/mongo/enrollment_repo.go
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

const enrollmentCollectionName = "enrollments"

// mongoEnrollmentRepository implements repository.EnrollmentRepository.
// Enrollment IDs come from the external enrollment flow, so Create keeps them.
type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

// Create inserts the enrollment under its given ID.
func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	if enrollment.ID == primitive.NilObjectID || enrollment.ActivityID == primitive.NilObjectID || enrollment.ClientID == primitive.NilObjectID {
		return errors.New("enrollment requires id, activityId and clientId")
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, enrollment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves an enrollment by its ID.
func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *mongoEnrollmentRepository) find(ctx context.Context, filter bson.M) ([]domain.Enrollment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []domain.Enrollment
	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// GetByClientID retrieves all enrollments of a client.
func (r *mongoEnrollmentRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"clientId": clientID})
}

// GetByActivityID retrieves all enrollments of an activity.
func (r *mongoEnrollmentRepository) GetByActivityID(ctx context.Context, activityID primitive.ObjectID) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"activityId": activityID})
}

// GetByStatus retrieves all enrollments currently in status.
func (r *mongoEnrollmentRepository) GetByStatus(ctx context.Context, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"status": status})
}

// UpdateStatus sets the status and start date of an enrollment.
func (r *mongoEnrollmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.EnrollmentStatus, startDate time.Time) error {
	update := bson.M{"$set": bson.M{
		"status":    status,
		"startDate": startDate,
		"updatedAt": time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkGenerated records that execution generation has run for the enrollment.
func (r *mongoEnrollmentRepository) MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{"$set": bson.M{"generatedAt": at.UTC(), "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEnrollmentIndexes creates necessary indexes. Call during startup.
func EnsureEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "startDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "activityId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
