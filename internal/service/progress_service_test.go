package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnrollmentProgress(t *testing.T) {
	f := newFixture(t)
	activity := f.seedProgram(t)
	ctx := context.Background()
	res := f.activate(t, activity.ID, jan(1))

	records, err := f.executions.GetByEnrollmentID(ctx, res.Enrollment.ID)
	require.NoError(t, err)
	// Complete the three Jan 1 records.
	for _, r := range records[:3] {
		_, err := f.execs.SetCompleted(ctx, f.clientID, r.ID, true)
		require.NoError(t, err)
	}

	client := Viewer{UserID: f.clientID, Role: domain.RoleClient}
	snap, err := f.progress.EnrollmentProgress(ctx, client, res.Enrollment.ID, jan(12))
	require.NoError(t, err)
	assert.Equal(t, 10, snap.TotalCount)
	assert.Equal(t, 3, snap.CompletedCount)
	assert.Equal(t, 2, snap.LateCount, "Jan 10 records are late on Jan 12")
	assert.Equal(t, 5, snap.PendingCount)
	assert.Equal(t, 30, snap.Percent)

	coach := Viewer{UserID: f.coachID, Role: domain.RoleCoach}
	_, err = f.progress.EnrollmentProgress(ctx, coach, res.Enrollment.ID, jan(12))
	assert.NoError(t, err)

	stranger := Viewer{UserID: primitive.NewObjectID(), Role: domain.RoleClient}
	_, err = f.progress.EnrollmentProgress(ctx, stranger, res.Enrollment.ID, jan(12))
	assert.ErrorIs(t, err, ErrEnrollmentAccessDenied)

	otherCoach := Viewer{UserID: primitive.NewObjectID(), Role: domain.RoleCoach}
	_, err = f.progress.EnrollmentProgress(ctx, otherCoach, res.Enrollment.ID, jan(12))
	assert.ErrorIs(t, err, ErrEnrollmentAccessDenied)

	_, err = f.progress.EnrollmentProgress(ctx, client, primitive.NewObjectID(), jan(12))
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestClientProgress_RollsUpCountedStatuses(t *testing.T) {
	f := newFixture(t)
	activity := f.seedProgram(t)
	ctx := context.Background()

	first := f.activate(t, activity.ID, jan(1))
	f.activate(t, activity.ID, jan(1))

	records, err := f.executions.GetByEnrollmentID(ctx, first.Enrollment.ID)
	require.NoError(t, err)
	for _, r := range records {
		_, err := f.execs.SetCompleted(ctx, f.clientID, r.ID, true)
		require.NoError(t, err)
	}

	// A cancelled enrollment does not count.
	_, err = f.execs.HandleActivation(ctx, EnrollmentEvent{
		EnrollmentID: primitive.NewObjectID(),
		ActivityID:   activity.ID,
		ClientID:     f.clientID,
		StartDate:    jan(1),
		Status:       domain.EnrollmentCancelled,
	})
	require.NoError(t, err)

	rollup, err := f.progress.ClientProgress(ctx, f.clientID, jan(2))
	require.NoError(t, err)
	assert.Len(t, rollup.Enrollments, 2)
	assert.Equal(t, 50, rollup.AveragePercent)
}

func TestClientProgress_NoEnrollments(t *testing.T) {
	f := newFixture(t)
	rollup, err := f.progress.ClientProgress(context.Background(), f.clientID, jan(2))
	require.NoError(t, err)
	assert.Empty(t, rollup.Enrollments)
	assert.Zero(t, rollup.AveragePercent)
}

func TestExportActivityReport(t *testing.T) {
	f := newFixture(t)
	activity := f.seedProgram(t)
	ctx := context.Background()
	f.activate(t, activity.ID, jan(1))

	var written []byte
	keyPrefix := "reports/" + activity.ID.Hex() + "/"
	f.storage.On("PutObject", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, keyPrefix) && strings.HasSuffix(k, ".json")
	}), "application/json", mock.Anything).
		Run(func(args mock.Arguments) { written = args.Get(3).([]byte) }).
		Return(nil).Once()
	f.storage.On("GeneratePresignedDownloadURL", mock.Anything, mock.Anything, time.Minute).
		Return("https://example.test/report", nil).Once()

	export, err := f.progress.ExportActivityReport(ctx, f.coachID, activity.ID, jan(12))
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/report", export.DownloadURL)
	assert.Equal(t, 1, export.Enrollments)
	assert.True(t, strings.HasPrefix(export.ObjectKey, keyPrefix))

	var report ActivityReport
	require.NoError(t, json.Unmarshal(written, &report))
	assert.Equal(t, activity.ID, report.ActivityID)
	require.Len(t, report.Enrollments, 1)
	assert.Equal(t, 10, report.Enrollments[0].Progress.TotalCount)
	f.storage.AssertExpectations(t)
}

func TestExportActivityReport_Errors(t *testing.T) {
	f := newFixture(t)
	activity := f.seedProgram(t)
	ctx := context.Background()

	_, err := f.progress.ExportActivityReport(ctx, primitive.NewObjectID(), activity.ID, jan(1))
	assert.ErrorIs(t, err, ErrActivityAccessDenied)

	f.storage.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bucket gone")).Once()
	_, err = f.progress.ExportActivityReport(ctx, f.coachID, activity.ID, jan(1))
	assert.ErrorIs(t, err, ErrReportExportFailed)

	disabled := NewProgressService(f.enrollments, f.activities, f.executions, storage.NewDisabledStorage(), 0, zerolog.Nop())
	_, err = disabled.ExportActivityReport(ctx, f.coachID, activity.ID, jan(1))
	assert.ErrorIs(t, err, storage.ErrNotConfigured)
}
