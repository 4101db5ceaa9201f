package service

import (
	"context"
	"testing"

	"alcyxob/program-ledger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishElapsed(t *testing.T) {
	f := newFixture(t)
	activity := f.seedProgram(t)
	ctx := context.Background()
	res := f.activate(t, activity.ID, jan(1))

	// Last record is on Jan 24.
	n, err := f.lifecycle.FinishElapsed(ctx, jan(24))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.lifecycle.FinishElapsed(ctx, jan(25))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	enr, err := f.enrollments.GetByID(ctx, res.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentFinished, enr.Status)
	assert.True(t, enr.StartDate.Equal(jan(1)))

	records, err := f.executions.GetByEnrollmentID(ctx, res.Enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, records, 10, "records are kept")

	n, err = f.lifecycle.FinishElapsed(ctx, jan(30))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFinishElapsed_SkipsEnrollmentsWithoutRecords(t *testing.T) {
	f := newFixture(t)
	activity, err := f.programs.CreateActivity(context.Background(), f.coachID, "Empty", "", "")
	require.NoError(t, err)
	f.activate(t, activity.ID, jan(1))

	n, err := f.lifecycle.FinishElapsed(context.Background(), jan(31))
	require.NoError(t, err)
	assert.Zero(t, n)
}
