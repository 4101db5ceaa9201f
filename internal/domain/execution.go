package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExecutionRecord is one concrete, dated, per-client instance of a template item.
type ExecutionRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EnrollmentID     primitive.ObjectID `bson:"enrollmentId" json:"enrollmentId"`
	ActivityID       primitive.ObjectID `bson:"activityId" json:"activityId"`
	ClientID         primitive.ObjectID `bson:"clientId" json:"clientId"`
	ItemID           int64              `bson:"itemId" json:"itemId"`
	Block            int                `bson:"block" json:"block"`
	Order            int                `bson:"order" json:"order"`
	PeriodIndex      int                `bson:"periodIndex" json:"periodIndex"`
	WeekIndex        int                `bson:"weekIndex" json:"weekIndex"`
	DayNumber        int                `bson:"dayNumber" json:"dayNumber"`
	ScheduledDate    time.Time          `bson:"scheduledDate" json:"scheduledDate"`
	AppliedIntensity string             `bson:"appliedIntensity" json:"appliedIntensity"`
	Completed        bool               `bson:"completed" json:"completed"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ExecutionKey is the idempotency key of an ExecutionRecord.
type ExecutionKey struct {
	EnrollmentID primitive.ObjectID
	ItemID       int64
	Block        int
	Order        int
	PeriodIndex  int
	WeekIndex    int
	DayNumber    int
}

func (k ExecutionKey) String() string {
	return fmt.Sprintf("%s/%d_%d_%d/p%d/w%d/d%d", k.EnrollmentID.Hex(), k.ItemID, k.Block, k.Order, k.PeriodIndex, k.WeekIndex, k.DayNumber)
}

// Key returns the record's idempotency key.
func (r *ExecutionRecord) Key() ExecutionKey {
	return ExecutionKey{
		EnrollmentID: r.EnrollmentID,
		ItemID:       r.ItemID,
		Block:        r.Block,
		Order:        r.Order,
		PeriodIndex:  r.PeriodIndex,
		WeekIndex:    r.WeekIndex,
		DayNumber:    r.DayNumber,
	}
}

// GenerationResult reports how many records a generation run inserted and
// how many already existed.
type GenerationResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
