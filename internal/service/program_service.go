package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/plan"
	"alcyxob/program-ledger/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWeekNotFound      = errors.New("plan week not found")
	ErrWeekNotContiguous = errors.New("plan weeks must be numbered contiguously from 1")
	ErrInvalidDayKey     = errors.New("invalid day key")
)

// --- Service Interface ---

// ProgramService is the coach-side authoring surface: activities, their plan
// templates and period configuration.
type ProgramService interface {
	CreateActivity(ctx context.Context, coachID primitive.ObjectID, title, description string, kind domain.ActivityKind) (*domain.Activity, error)
	GetActivity(ctx context.Context, coachID, activityID primitive.ObjectID) (*domain.Activity, error)
	ListActivities(ctx context.Context, coachID primitive.ObjectID) ([]domain.Activity, error)

	PutWeek(ctx context.Context, coachID, activityID primitive.ObjectID, weekNumber int, days map[string]any) (*domain.PlanWeek, error)
	GetWeek(ctx context.Context, coachID, activityID primitive.ObjectID, weekNumber int) (*domain.PlanWeek, error)
	GetTemplate(ctx context.Context, coachID, activityID primitive.ObjectID) ([]domain.PlanWeek, error)

	SetPeriodCount(ctx context.Context, coachID, activityID primitive.ObjectID, count int) (*domain.PeriodConfig, error)
	GetPeriodConfig(ctx context.Context, coachID, activityID primitive.ObjectID) (*domain.PeriodConfig, error)

	ListEnrollments(ctx context.Context, coachID, activityID primitive.ObjectID) ([]domain.Enrollment, error)
	GetEnrollment(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error)

	// ResolveBlockNames returns display labels for the blocks of one template
	// day. It has no effect on scheduling.
	ResolveBlockNames(ctx context.Context, activityID primitive.ObjectID, dayOfWeek, week int) (map[int]string, error)
}

// --- Service Implementation ---

type programService struct {
	activityRepo   repository.ActivityRepository
	planRepo       repository.PlanTemplateRepository
	periodRepo     repository.PeriodConfigRepository
	enrollmentRepo repository.EnrollmentRepository
	log            zerolog.Logger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	activityRepo repository.ActivityRepository,
	planRepo repository.PlanTemplateRepository,
	periodRepo repository.PeriodConfigRepository,
	enrollmentRepo repository.EnrollmentRepository,
	log zerolog.Logger,
) ProgramService {
	return &programService{
		activityRepo:   activityRepo,
		planRepo:       planRepo,
		periodRepo:     periodRepo,
		enrollmentRepo: enrollmentRepo,
		log:            log.With().Str("component", "program").Logger(),
	}
}

// === Activities ===

func (s *programService) CreateActivity(ctx context.Context, coachID primitive.ObjectID, title, description string, kind domain.ActivityKind) (*domain.Activity, error) {
	title = strings.TrimSpace(title)
	if coachID == primitive.NilObjectID || title == "" {
		return nil, ErrValidationFailed
	}
	if kind == "" {
		kind = domain.ActivityProgram
	}
	switch kind {
	case domain.ActivityProgram, domain.ActivityWorkshop, domain.ActivityDocument:
	default:
		return nil, ErrValidationFailed
	}

	activity := &domain.Activity{
		CoachID:     coachID,
		Title:       title,
		Description: description,
		Kind:        kind,
	}
	id, err := s.activityRepo.Create(ctx, activity)
	if err != nil {
		return nil, storageErr(err)
	}
	activity.ID = id
	s.log.Info().Str("activityId", id.Hex()).Str("coachId", coachID.Hex()).Msg("activity created")
	return activity, nil
}

func (s *programService) GetActivity(ctx context.Context, coachID, activityID primitive.ObjectID) (*domain.Activity, error) {
	return loadOwnedActivity(ctx, s.activityRepo, coachID, activityID)
}

func (s *programService) ListActivities(ctx context.Context, coachID primitive.ObjectID) ([]domain.Activity, error) {
	activities, err := s.activityRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, storageErr(err)
	}
	return activities, nil
}

// === Plan template ===

// PutWeek stores one week of the template. Week numbers must stay contiguous:
// a new week may only extend the template by one. Existing execution records
// are never rewritten by a template edit.
func (s *programService) PutWeek(ctx context.Context, coachID, activityID primitive.ObjectID, weekNumber int, days map[string]any) (*domain.PlanWeek, error) {
	if _, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID); err != nil {
		return nil, err
	}
	if weekNumber < 1 {
		return nil, fmt.Errorf("%w: week number must be at least 1", ErrValidationFailed)
	}
	for key := range days {
		if _, ok := plan.ParseDay(key); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDayKey, key)
		}
	}

	weeks, err := s.planRepo.GetWeeks(ctx, activityID)
	if err != nil {
		return nil, storageErr(err)
	}
	exists := false
	for _, w := range weeks {
		if w.WeekNumber == weekNumber {
			exists = true
			break
		}
	}
	if !exists && weekNumber != len(weeks)+1 {
		return nil, fmt.Errorf("%w: next week is %d", ErrWeekNotContiguous, len(weeks)+1)
	}

	if days == nil {
		days = map[string]any{}
	}
	week := &domain.PlanWeek{ActivityID: activityID, WeekNumber: weekNumber, Days: days}
	if err := s.planRepo.UpsertWeek(ctx, week); err != nil {
		return nil, storageErr(err)
	}

	items := 0
	for _, payload := range days {
		items += len(plan.Normalize(payload))
	}
	s.log.Info().
		Str("activityId", activityID.Hex()).
		Int("week", weekNumber).
		Int("items", items).
		Msg("plan week stored")
	return week, nil
}

func (s *programService) GetWeek(ctx context.Context, coachID, activityID primitive.ObjectID, weekNumber int) (*domain.PlanWeek, error) {
	if _, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID); err != nil {
		return nil, err
	}
	week, err := s.planRepo.GetWeek(ctx, activityID, weekNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, storageErr(err)
	}
	return week, nil
}

func (s *programService) GetTemplate(ctx context.Context, coachID, activityID primitive.ObjectID) ([]domain.PlanWeek, error) {
	if _, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID); err != nil {
		return nil, err
	}
	weeks, err := s.planRepo.GetWeeks(ctx, activityID)
	if err != nil {
		return nil, storageErr(err)
	}
	return weeks, nil
}

// === Period configuration ===

func (s *programService) SetPeriodCount(ctx context.Context, coachID, activityID primitive.ObjectID, count int) (*domain.PeriodConfig, error) {
	if _, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: period count must be at least 1", ErrValidationFailed)
	}
	cfg := &domain.PeriodConfig{ActivityID: activityID, PeriodCount: count}
	if err := s.periodRepo.Upsert(ctx, cfg); err != nil {
		return nil, storageErr(err)
	}
	return cfg, nil
}

// GetPeriodConfig returns the stored config, or the default of one period
// when none has been saved.
func (s *programService) GetPeriodConfig(ctx context.Context, coachID, activityID primitive.ObjectID) (*domain.PeriodConfig, error) {
	if _, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID); err != nil {
		return nil, err
	}
	return periodConfigOrDefault(ctx, s.periodRepo, activityID)
}

func periodConfigOrDefault(ctx context.Context, repo repository.PeriodConfigRepository, activityID primitive.ObjectID) (*domain.PeriodConfig, error) {
	cfg, err := repo.Get(ctx, activityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.PeriodConfig{ActivityID: activityID, PeriodCount: domain.DefaultPeriodCount}, nil
		}
		return nil, storageErr(err)
	}
	return cfg, nil
}

// === Enrollments ===

func (s *programService) ListEnrollments(ctx context.Context, coachID, activityID primitive.ObjectID) ([]domain.Enrollment, error) {
	if _, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.GetByActivityID(ctx, activityID)
	if err != nil {
		return nil, storageErr(err)
	}
	return enrollments, nil
}

func (s *programService) GetEnrollment(ctx context.Context, coachID, enrollmentID primitive.ObjectID) (*domain.Enrollment, error) {
	return loadEnrollmentFor(ctx, s.enrollmentRepo, s.activityRepo, Viewer{UserID: coachID, Role: domain.RoleCoach}, enrollmentID)
}

// === Presentation ===

func (s *programService) ResolveBlockNames(ctx context.Context, activityID primitive.ObjectID, dayOfWeek, week int) (map[int]string, error) {
	return resolveBlockNames(ctx, s.planRepo, activityID, dayOfWeek, week)
}

func resolveBlockNames(ctx context.Context, repo repository.PlanTemplateRepository, activityID primitive.ObjectID, dayOfWeek, week int) (map[int]string, error) {
	if dayOfWeek < 1 || dayOfWeek > plan.DaysPerWeek || week < 1 {
		return nil, ErrValidationFailed
	}
	pw, err := repo.GetWeek(ctx, activityID, week)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return map[int]string{}, nil
		}
		return nil, storageErr(err)
	}
	return plan.DayBlockNames(*pw, dayOfWeek), nil
}
