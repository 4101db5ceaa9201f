package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityKind is the kind of product a coach sells.
type ActivityKind string

const (
	ActivityProgram  ActivityKind = "program"
	ActivityWorkshop ActivityKind = "workshop"
	ActivityDocument ActivityKind = "document"
)

// DefaultPeriodCount applies when an activity has no PeriodConfig.
const DefaultPeriodCount = 1

// Activity is the coach-authored product that owns a plan template.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Kind        ActivityKind       `bson:"kind" json:"kind"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PeriodConfig holds how many times the whole week cycle of an activity repeats.
type PeriodConfig struct {
	ActivityID  primitive.ObjectID `bson:"_id" json:"activityId"`
	PeriodCount int                `bson:"periodCount" json:"periodCount"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Count returns the effective period count. A nil config or a count below
// one yields DefaultPeriodCount.
func (p *PeriodConfig) Count() int {
	if p == nil || p.PeriodCount < 1 {
		return DefaultPeriodCount
	}
	return p.PeriodCount
}
