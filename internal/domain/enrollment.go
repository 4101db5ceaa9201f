package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollmentStatus tracks a client's subscription lifecycle.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentFinished  EnrollmentStatus = "finished"
	EnrollmentExpired   EnrollmentStatus = "expired"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentActive, EnrollmentFinished, EnrollmentExpired, EnrollmentCancelled:
		return true
	}
	return false
}

// Enrollment is a client's subscription to an Activity. It anchors the
// schedule's start date; StartDate may not change once GeneratedAt is set.
type Enrollment struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	ActivityID  primitive.ObjectID `bson:"activityId" json:"activityId"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	Status      EnrollmentStatus   `bson:"status" json:"status"`
	StartDate   time.Time          `bson:"startDate" json:"startDate"`
	GeneratedAt *time.Time         `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether executions should be generated for e.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}
