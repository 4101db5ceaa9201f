// Package progress folds execution records into completion statistics.
package progress

import (
	"math"
	"time"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsLate reports whether r was due before asOf and is still not completed.
// Dates are compared by calendar day.
func IsLate(r *domain.ExecutionRecord, asOf time.Time) bool {
	return !r.Completed && schedule.DateOnly(r.ScheduledDate).Before(schedule.DateOnly(asOf))
}

// Aggregate computes the snapshot of one enrollment as of asOf.
func Aggregate(enrollmentID primitive.ObjectID, records []domain.ExecutionRecord, asOf time.Time) domain.ProgressSnapshot {
	snap := domain.ProgressSnapshot{
		EnrollmentID: enrollmentID,
		TotalCount:   len(records),
		AsOf:         schedule.DateOnly(asOf),
	}
	for i := range records {
		r := &records[i]
		switch {
		case r.Completed:
			snap.CompletedCount++
		case IsLate(r, asOf):
			snap.LateCount++
		default:
			snap.PendingCount++
		}
	}
	snap.Percent = percent(snap.CompletedCount, snap.TotalCount)
	return snap
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// Rollup averages per-enrollment percentages so that a long program does not
// outweigh short ones.
func Rollup(clientID primitive.ObjectID, snapshots []domain.ProgressSnapshot) domain.ClientProgress {
	out := domain.ClientProgress{ClientID: clientID, Enrollments: snapshots}
	if out.Enrollments == nil {
		out.Enrollments = []domain.ProgressSnapshot{}
	}
	if len(snapshots) == 0 {
		return out
	}
	sum := 0
	for _, s := range snapshots {
		sum += s.Percent
	}
	out.AveragePercent = int(math.Round(float64(sum) / float64(len(snapshots))))
	return out
}
