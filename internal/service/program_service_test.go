package service

import (
	"context"
	"testing"

	"alcyxob/program-ledger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPutWeek_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity, err := f.programs.CreateActivity(ctx, f.coachID, "Plan", "", domain.ActivityProgram)
	require.NoError(t, err)

	_, err = f.programs.PutWeek(ctx, f.coachID, activity.ID, 2, map[string]any{})
	assert.ErrorIs(t, err, ErrWeekNotContiguous)

	_, err = f.programs.PutWeek(ctx, f.coachID, activity.ID, 1, map[string]any{"funday": []any{}})
	assert.ErrorIs(t, err, ErrInvalidDayKey)

	_, err = f.programs.PutWeek(ctx, primitive.NewObjectID(), activity.ID, 1, map[string]any{})
	assert.ErrorIs(t, err, ErrActivityAccessDenied)

	week, err := f.programs.PutWeek(ctx, f.coachID, activity.ID, 1, map[string]any{"monday": []any{"1_1_1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, week.WeekNumber)

	got, err := f.programs.GetWeek(ctx, f.coachID, activity.ID, 1)
	require.NoError(t, err)
	assert.Contains(t, got.Days, "monday")

	_, err = f.programs.GetWeek(ctx, f.coachID, activity.ID, 2)
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestPeriodConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity, err := f.programs.CreateActivity(ctx, f.coachID, "Plan", "", "")
	require.NoError(t, err)

	cfg, err := f.programs.GetPeriodConfig(ctx, f.coachID, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Count())

	_, err = f.programs.SetPeriodCount(ctx, f.coachID, activity.ID, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.programs.SetPeriodCount(ctx, f.coachID, activity.ID, 3)
	require.NoError(t, err)
	cfg, err = f.programs.GetPeriodConfig(ctx, f.coachID, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.PeriodCount)
}

func TestResolveBlockNames(t *testing.T) {
	f := newFixture(t)
	activity := f.seedProgram(t)
	ctx := context.Background()

	names, err := f.programs.ResolveBlockNames(ctx, activity.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "Warm-up", 2: "Block 2"}, names)

	names, err = f.programs.ResolveBlockNames(ctx, activity.ID, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "Block 1"}, names)

	names, err = f.programs.ResolveBlockNames(ctx, activity.ID, 1, 9)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = f.programs.ResolveBlockNames(ctx, activity.ID, 8, 1)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalogs.CreateItem(ctx, f.coachID, CatalogItemInput{Name: " "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	squat, err := f.catalogs.CreateItem(ctx, f.coachID, CatalogItemInput{Name: "Squat", Category: " Strength "})
	require.NoError(t, err)
	assert.Equal(t, "strength", squat.Category)
	assert.Equal(t, domain.KindExercise, squat.Kind)

	_, err = f.catalogs.CreateItem(ctx, f.coachID, CatalogItemInput{Name: "Oats", Kind: domain.KindMeal, Category: "breakfast", Calories: 350})
	require.NoError(t, err)

	meals, err := f.catalogs.ListItems(ctx, f.coachID, domain.KindMeal)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "Oats", meals[0].Name)

	all, err := f.catalogs.ListItems(ctx, f.coachID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.catalogs.GetItem(ctx, primitive.NewObjectID(), squat.ID)
	assert.ErrorIs(t, err, ErrCatalogItemAccessDenied)
	_, err = f.catalogs.GetItem(ctx, f.coachID, 999)
	assert.ErrorIs(t, err, ErrCatalogItemNotFound)
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	id := primitive.NewObjectID()
	unlock := k.Lock(id)
	assert.Len(t, k.locks, 1)
	unlock()
	assert.Empty(t, k.locks)
}
