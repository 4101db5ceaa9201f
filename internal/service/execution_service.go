package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/ledger"
	"alcyxob/program-ledger/internal/plan"
	"alcyxob/program-ledger/internal/repository"
	"alcyxob/program-ledger/internal/schedule"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEnrollmentNotActive    = errors.New("enrollment is not active")
	ErrStartDateImmutable     = errors.New("start date cannot change after executions were generated")
	ErrEnrollmentMismatch     = errors.New("enrollment already exists for a different activity or client")
	ErrInvalidEnrollmentEvent = errors.New("invalid enrollment event")
	ErrExecutionNotFound      = errors.New("execution not found")
	ErrExecutionAccessDenied  = errors.New("access denied to this execution")
)

// EnrollmentEvent is an enrollment change reported by the enrollment flow.
// Delivery is at least once; handling the same event twice is harmless.
type EnrollmentEvent struct {
	EnrollmentID primitive.ObjectID
	ActivityID   primitive.ObjectID
	ClientID     primitive.ObjectID
	StartDate    time.Time
	Status       domain.EnrollmentStatus
}

// ActivationResult describes what HandleActivation did with an event.
type ActivationResult struct {
	Enrollment *domain.Enrollment       `json:"enrollment"`
	Ignored    bool                     `json:"ignored"`
	Generation *domain.GenerationResult `json:"generation,omitempty"`
}

// --- Service Interface ---
type ExecutionService interface {
	// HandleActivation records the enrollment and, for active ones, generates
	// its execution records. Non-active events are reported as ignored.
	HandleActivation(ctx context.Context, ev EnrollmentEvent) (*ActivationResult, error)
	// Generate inserts every missing execution record of an active enrollment.
	Generate(ctx context.Context, enrollmentID primitive.ObjectID) (domain.GenerationResult, error)
	// SetCompleted toggles completion of one of the client's own records.
	SetCompleted(ctx context.Context, clientID, executionID primitive.ObjectID, completed bool) (*domain.ExecutionRecord, error)
}

// --- Service Implementation ---

type executionService struct {
	enrollmentRepo repository.EnrollmentRepository
	activityRepo   repository.ActivityRepository
	planRepo       repository.PlanTemplateRepository
	periodRepo     repository.PeriodConfigRepository
	catalogRepo    repository.CatalogRepository
	executionRepo  repository.ExecutionRepository
	intensities    ledger.IntensityTable
	locks          *keyedMutex
	log            zerolog.Logger
}

// NewExecutionService creates a new instance of executionService.
func NewExecutionService(
	enrollmentRepo repository.EnrollmentRepository,
	activityRepo repository.ActivityRepository,
	planRepo repository.PlanTemplateRepository,
	periodRepo repository.PeriodConfigRepository,
	catalogRepo repository.CatalogRepository,
	executionRepo repository.ExecutionRepository,
	intensities ledger.IntensityTable,
	log zerolog.Logger,
) ExecutionService {
	return &executionService{
		enrollmentRepo: enrollmentRepo,
		activityRepo:   activityRepo,
		planRepo:       planRepo,
		periodRepo:     periodRepo,
		catalogRepo:    catalogRepo,
		executionRepo:  executionRepo,
		intensities:    intensities,
		locks:          newKeyedMutex(),
		log:            log.With().Str("component", "executions").Logger(),
	}
}

func (s *executionService) HandleActivation(ctx context.Context, ev EnrollmentEvent) (*ActivationResult, error) {
	if ev.EnrollmentID == primitive.NilObjectID || ev.ActivityID == primitive.NilObjectID || ev.ClientID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: enrollmentId, activityId and clientId are required", ErrInvalidEnrollmentEvent)
	}
	if ev.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: startDate is required", ErrInvalidEnrollmentEvent)
	}
	if !ev.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEnrollmentEvent, ev.Status)
	}
	start := schedule.DateOnly(ev.StartDate)

	unlock := s.locks.Lock(ev.EnrollmentID)
	defer unlock()

	if _, err := s.activityRepo.GetByID(ctx, ev.ActivityID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, storageErr(err)
	}

	enr, err := s.upsertEnrollment(ctx, ev, start)
	if err != nil {
		return nil, err
	}

	logger := s.log.With().
		Str("enrollmentId", enr.ID.Hex()).
		Str("status", string(enr.Status)).
		Logger()

	if !enr.IsActive() {
		logger.Info().Msg("enrollment event ignored: not active")
		return &ActivationResult{Enrollment: enr, Ignored: true}, nil
	}

	res, err := s.generateLocked(ctx, enr)
	if err != nil {
		return nil, err
	}
	return &ActivationResult{Enrollment: enr, Generation: &res}, nil
}

// upsertEnrollment creates the enrollment on first sight and otherwise
// updates its status, refusing a start date change once generation has run.
func (s *executionService) upsertEnrollment(ctx context.Context, ev EnrollmentEvent, start time.Time) (*domain.Enrollment, error) {
	existing, err := s.enrollmentRepo.GetByID(ctx, ev.EnrollmentID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr(err)
	}

	if existing == nil {
		enr := &domain.Enrollment{
			ID:         ev.EnrollmentID,
			ActivityID: ev.ActivityID,
			ClientID:   ev.ClientID,
			Status:     ev.Status,
			StartDate:  start,
		}
		err = s.enrollmentRepo.Create(ctx, enr)
		if err == nil {
			return enr, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, storageErr(err)
		}
		// Created concurrently by another process.
		existing, err = s.enrollmentRepo.GetByID(ctx, ev.EnrollmentID)
		if err != nil {
			return nil, storageErr(err)
		}
	}

	if existing.ActivityID != ev.ActivityID || existing.ClientID != ev.ClientID {
		return nil, ErrEnrollmentMismatch
	}
	if existing.GeneratedAt != nil && !schedule.DateOnly(existing.StartDate).Equal(start) {
		return nil, ErrStartDateImmutable
	}
	// A late redelivery of the activation must not reopen a finished enrollment.
	if existing.Status == domain.EnrollmentFinished && ev.Status == domain.EnrollmentActive {
		return existing, nil
	}
	if err := s.enrollmentRepo.UpdateStatus(ctx, existing.ID, ev.Status, start); err != nil {
		return nil, storageErr(err)
	}
	existing.Status = ev.Status
	existing.StartDate = start
	return existing, nil
}

func (s *executionService) Generate(ctx context.Context, enrollmentID primitive.ObjectID) (domain.GenerationResult, error) {
	unlock := s.locks.Lock(enrollmentID)
	defer unlock()

	enr, err := s.enrollmentRepo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.GenerationResult{}, ErrEnrollmentNotFound
		}
		return domain.GenerationResult{}, storageErr(err)
	}
	if !enr.IsActive() {
		return domain.GenerationResult{}, ErrEnrollmentNotActive
	}
	return s.generateLocked(ctx, enr)
}

// generateLocked must run under the enrollment's lock.
func (s *executionService) generateLocked(ctx context.Context, enr *domain.Enrollment) (domain.GenerationResult, error) {
	weeks, err := s.planRepo.GetWeeks(ctx, enr.ActivityID)
	if err != nil {
		return domain.GenerationResult{}, storageErr(err)
	}
	tpl := plan.Compile(weeks)

	cfg, err := periodConfigOrDefault(ctx, s.periodRepo, enr.ActivityID)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	categories, err := s.catalogCategories(ctx, tpl.ItemIDs())
	if err != nil {
		return domain.GenerationResult{}, err
	}

	records := ledger.Expand(ledger.Input{
		Enrollment:  *enr,
		Template:    tpl,
		PeriodCount: cfg.Count(),
		Intensities: s.intensities,
		Categories:  categories,
	})
	logger := s.log.With().Str("enrollmentId", enr.ID.Hex()).Logger()
	if len(records) == 0 {
		logger.Info().Msg("template is empty, nothing to generate")
		return domain.GenerationResult{}, nil
	}

	created, skipped, err := s.executionRepo.InsertMissing(ctx, records)
	if err != nil {
		logger.Error().Err(err).Int("created", created).Msg("execution generation interrupted")
		return domain.GenerationResult{Created: created, Skipped: skipped}, storageErr(err)
	}

	if enr.GeneratedAt == nil {
		now := time.Now().UTC()
		if err := s.enrollmentRepo.MarkGenerated(ctx, enr.ID, now); err != nil {
			return domain.GenerationResult{Created: created, Skipped: skipped}, storageErr(err)
		}
		enr.GeneratedAt = &now
	}

	logger.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("periods", cfg.Count()).
		Int("weeks", tpl.WeekCount()).
		Msg("executions generated")
	return domain.GenerationResult{Created: created, Skipped: skipped}, nil
}

func (s *executionService) catalogCategories(ctx context.Context, ids []int64) (map[int64]string, error) {
	categories := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return categories, nil
	}
	items, err := s.catalogRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(err)
	}
	for _, it := range items {
		categories[it.ID] = it.Category
	}
	return categories, nil
}

func (s *executionService) SetCompleted(ctx context.Context, clientID, executionID primitive.ObjectID, completed bool) (*domain.ExecutionRecord, error) {
	rec, err := s.executionRepo.SetCompleted(ctx, executionID, clientID, completed, time.Now().UTC())
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr(err)
	}
	// Tell "someone else's record" apart from "no such record".
	if _, getErr := s.executionRepo.GetByID(ctx, executionID); getErr == nil {
		return nil, ErrExecutionAccessDenied
	} else if !errors.Is(getErr, repository.ErrNotFound) {
		return nil, storageErr(getErr)
	}
	return nil, ErrExecutionNotFound
}
