package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/ledger"
	"alcyxob/program-ledger/internal/repository"
	"alcyxob/program-ledger/internal/repository/memory"
	"alcyxob/program-ledger/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	enrollments repository.EnrollmentRepository
	activities  repository.ActivityRepository
	plans       repository.PlanTemplateRepository
	periods     repository.PeriodConfigRepository
	catalog     repository.CatalogRepository
	executions  repository.ExecutionRepository

	programs  ProgramService
	catalogs  CatalogService
	execs     ExecutionService
	clients   ClientService
	lifecycle LifecycleService
	storage   *mockStorage
	progress  ProgressService

	coachID  primitive.ObjectID
	clientID primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	f := &fixture{
		enrollments: memory.NewEnrollmentRepository(store),
		activities:  memory.NewActivityRepository(store),
		plans:       memory.NewPlanTemplateRepository(store),
		periods:     memory.NewPeriodConfigRepository(store),
		catalog:     memory.NewCatalogRepository(store),
		executions:  memory.NewExecutionRepository(store),
		storage:     &mockStorage{},
		coachID:     primitive.NewObjectID(),
		clientID:    primitive.NewObjectID(),
	}
	f.programs = NewProgramService(f.activities, f.plans, f.periods, f.enrollments, log)
	f.catalogs = NewCatalogService(f.catalog)
	f.execs = NewExecutionService(f.enrollments, f.activities, f.plans, f.periods, f.catalog, f.executions, ledger.DefaultIntensityTable(), log)
	f.clients = NewClientService(f.enrollments, f.activities, f.plans, f.periods, f.executions)
	f.lifecycle = NewLifecycleService(f.enrollments, f.executions, log)
	f.progress = NewProgressService(f.enrollments, f.activities, f.executions, f.storage, time.Minute, log)
	return f
}

func jan(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

// seedProgram creates a two-week activity: three items on day 1 of week 1,
// two items on day 3 of week 2, repeated over two periods.
func (f *fixture) seedProgram(t *testing.T) *domain.Activity {
	t.Helper()
	ctx := context.Background()
	activity, err := f.programs.CreateActivity(ctx, f.coachID, "Strength basics", "", domain.ActivityProgram)
	require.NoError(t, err)

	squat, err := f.catalogs.CreateItem(ctx, f.coachID, CatalogItemInput{Name: "Squat", Category: "Strength"})
	require.NoError(t, err)
	row, err := f.catalogs.CreateItem(ctx, f.coachID, CatalogItemInput{Name: "Row", Category: "cardio"})
	require.NoError(t, err)

	_, err = f.programs.PutWeek(ctx, f.coachID, activity.ID, 1, map[string]any{
		"1": map[string]any{
			"blockNames": []any{"Warm-up"},
			"exercises": []any{
				map[string]any{"id": float64(squat.ID), "block": 1.0, "order": 1.0},
				map[string]any{"id": float64(row.ID), "block": 1.0, "order": 2.0},
				map[string]any{"id": 99.0, "block": 2.0, "order": 1.0},
			},
		},
	})
	require.NoError(t, err)
	_, err = f.programs.PutWeek(ctx, f.coachID, activity.ID, 2, map[string]any{
		"day3": []any{"4_1_1", "5_1_2"},
	})
	require.NoError(t, err)
	_, err = f.programs.SetPeriodCount(ctx, f.coachID, activity.ID, 2)
	require.NoError(t, err)
	return activity
}

func (f *fixture) activate(t *testing.T, activityID primitive.ObjectID, start time.Time) *ActivationResult {
	t.Helper()
	res, err := f.execs.HandleActivation(context.Background(), EnrollmentEvent{
		EnrollmentID: primitive.NewObjectID(),
		ActivityID:   activityID,
		ClientID:     f.clientID,
		StartDate:    start,
		Status:       domain.EnrollmentActive,
	})
	require.NoError(t, err)
	return res
}

type mockStorage struct {
	mock.Mock
}

var _ storage.FileStorage = (*mockStorage)(nil)

func (m *mockStorage) PutObject(ctx context.Context, objectKey, contentType string, body []byte) error {
	args := m.Called(ctx, objectKey, contentType, body)
	return args.Error(0)
}

func (m *mockStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expires)
	return args.String(0), args.Error(1)
}
