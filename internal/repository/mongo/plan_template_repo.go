// internal/repository/mongo/plan_template_repo.go
package mongo

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planWeekCollectionName = "plan_weeks"

// planWeekDocument is the stored form of a domain.PlanWeek. Day payloads are
// kept as raw BSON because historical documents use several shapes.
type planWeekDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ActivityID primitive.ObjectID `bson:"activityId"`
	WeekNumber int                `bson:"weekNumber"`
	Days       bson.Raw           `bson:"days,omitempty"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

// toDomain converts the raw day payloads through relaxed extended JSON so
// the plan normaliser sees the same generic values it gets from the API.
func (d *planWeekDocument) toDomain() (*domain.PlanWeek, error) {
	week := &domain.PlanWeek{
		ID:         d.ID,
		ActivityID: d.ActivityID,
		WeekNumber: d.WeekNumber,
		Days:       map[string]any{},
		UpdatedAt:  d.UpdatedAt,
	}
	if len(d.Days) == 0 {
		return week, nil
	}
	extJSON, err := bson.MarshalExtJSON(d.Days, false, false)
	if err != nil {
		return nil, fmt.Errorf("plan week %s: encode days: %w", d.ID.Hex(), err)
	}
	if err := json.Unmarshal(extJSON, &week.Days); err != nil {
		return nil, fmt.Errorf("plan week %s: decode days: %w", d.ID.Hex(), err)
	}
	return week, nil
}

// mongoPlanTemplateRepository implements repository.PlanTemplateRepository
type mongoPlanTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanTemplateRepository creates a new plan template repository.
func NewMongoPlanTemplateRepository(db *mongo.Database) repository.PlanTemplateRepository {
	return &mongoPlanTemplateRepository{
		collection: db.Collection(planWeekCollectionName),
	}
}

// UpsertWeek replaces the week identified by activity and week number.
func (r *mongoPlanTemplateRepository) UpsertWeek(ctx context.Context, week *domain.PlanWeek) error {
	if week.ActivityID == primitive.NilObjectID || week.WeekNumber < 1 {
		return errors.New("plan week requires activityId and a week number of at least 1")
	}
	days := week.Days
	if days == nil {
		days = map[string]any{}
	}
	raw, err := bson.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode plan week days: %w", err)
	}
	week.UpdatedAt = time.Now().UTC()

	filter := bson.M{"activityId": week.ActivityID, "weekNumber": week.WeekNumber}
	update := bson.M{
		"$set":         bson.M{"days": bson.Raw(raw), "updatedAt": week.UpdatedAt},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	var stored planWeekDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return err
	}
	week.ID = stored.ID
	return nil
}

// GetWeek retrieves one week of an activity's template.
func (r *mongoPlanTemplateRepository) GetWeek(ctx context.Context, activityID primitive.ObjectID, weekNumber int) (*domain.PlanWeek, error) {
	var doc planWeekDocument
	err := r.collection.FindOne(ctx, bson.M{"activityId": activityID, "weekNumber": weekNumber}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// GetWeeks retrieves every week of an activity's template, in week order.
func (r *mongoPlanTemplateRepository) GetWeeks(ctx context.Context, activityID primitive.ObjectID) ([]domain.PlanWeek, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"activityId": activityID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []planWeekDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	weeks := make([]domain.PlanWeek, 0, len(docs))
	for i := range docs {
		w, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, *w)
	}
	return weeks, nil
}

// EnsurePlanWeekIndexes creates necessary indexes. Call during startup.
func EnsurePlanWeekIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "activityId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
