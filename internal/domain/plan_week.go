package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanWeek is one week of an activity's plan template. Days maps a day key
// ("1".."7", "day3", "monday", ...) to the stored day payload, which may be
// in any of the historical shapes understood by the plan package.
type PlanWeek struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActivityID primitive.ObjectID `bson:"activityId" json:"activityId"`
	WeekNumber int                `bson:"weekNumber" json:"weekNumber"`
	Days       map[string]any     `bson:"-" json:"days"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
