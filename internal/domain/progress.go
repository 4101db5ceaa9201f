package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressSnapshot is derived from an enrollment's execution records on demand.
type ProgressSnapshot struct {
	EnrollmentID   primitive.ObjectID `json:"enrollmentId"`
	CompletedCount int                `json:"completedCount"`
	TotalCount     int                `json:"totalCount"`
	LateCount      int                `json:"lateCount"`
	PendingCount   int                `json:"pendingCount"` // not completed and not yet due
	Percent        int                `json:"percent"`
	AsOf           time.Time          `json:"asOf"`
}

// ClientProgress rolls up all of a client's enrollments.
type ClientProgress struct {
	ClientID       primitive.ObjectID `json:"clientId"`
	Enrollments    []ProgressSnapshot `json:"enrollments"`
	AveragePercent int                `json:"averagePercent"`
}
