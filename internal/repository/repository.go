package repository

import (
	"alcyxob/program-ledger/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// CatalogRepository stores the exercise and meal items plan templates reference.
type CatalogRepository interface {
	// Create assigns the next numeric item ID.
	Create(ctx context.Context, item *domain.CatalogItem) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.CatalogItem, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CatalogItem, error)
}

// ActivityRepository defines the interface for interacting with activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Activity, error)
}

// PlanTemplateRepository stores the weeks of each activity's plan template.
type PlanTemplateRepository interface {
	// UpsertWeek replaces the stored week with the same activity and week number.
	UpsertWeek(ctx context.Context, week *domain.PlanWeek) error
	GetWeek(ctx context.Context, activityID primitive.ObjectID, weekNumber int) (*domain.PlanWeek, error)
	// GetWeeks returns all weeks sorted by week number; no weeks is not an error.
	GetWeeks(ctx context.Context, activityID primitive.ObjectID) ([]domain.PlanWeek, error)
}

// PeriodConfigRepository stores one PeriodConfig per activity.
type PeriodConfigRepository interface {
	Get(ctx context.Context, activityID primitive.ObjectID) (*domain.PeriodConfig, error)
	Upsert(ctx context.Context, cfg *domain.PeriodConfig) error
}

// EnrollmentRepository defines the interface for interacting with enrollments.
type EnrollmentRepository interface {
	// Create inserts an enrollment under its given ID; ErrDuplicate if it exists.
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Enrollment, error)
	GetByActivityID(ctx context.Context, activityID primitive.ObjectID) ([]domain.Enrollment, error)
	GetByStatus(ctx context.Context, status domain.EnrollmentStatus) ([]domain.Enrollment, error)
	// UpdateStatus sets status and start date. Callers enforce start date immutability.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.EnrollmentStatus, startDate time.Time) error
	MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// ExecutionRepository defines the interface for the execution ledger.
type ExecutionRepository interface {
	// InsertMissing inserts every record whose key is not stored yet and
	// leaves existing ones untouched. It reports how many were inserted and
	// how many already existed.
	InsertMissing(ctx context.Context, records []domain.ExecutionRecord) (created, skipped int, err error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExecutionRecord, error)
	// GetByEnrollmentID returns records sorted by scheduled date, block, order.
	GetByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) ([]domain.ExecutionRecord, error)
	// SetCompleted toggles completion of a record owned by clientID.
	// ErrNotFound when no such record belongs to the client.
	SetCompleted(ctx context.Context, id, clientID primitive.ObjectID, completed bool, at time.Time) (*domain.ExecutionRecord, error)
}
