package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"
	"alcyxob/program-ledger/internal/schedule"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LifecycleService moves enrollments through their terminal states.
type LifecycleService interface {
	// FinishElapsed marks active enrollments finished once every one of
	// their execution records is scheduled before now's calendar date.
	// Records are never changed. It returns how many enrollments finished.
	FinishElapsed(ctx context.Context, now time.Time) (int, error)
}

type lifecycleService struct {
	enrollmentRepo repository.EnrollmentRepository
	executionRepo  repository.ExecutionRepository
	log            zerolog.Logger
}

// NewLifecycleService creates a new instance of lifecycleService.
func NewLifecycleService(enrollmentRepo repository.EnrollmentRepository, executionRepo repository.ExecutionRepository, log zerolog.Logger) LifecycleService {
	return &lifecycleService{
		enrollmentRepo: enrollmentRepo,
		executionRepo:  executionRepo,
		log:            log.With().Str("component", "lifecycle").Logger(),
	}
}

func (s *lifecycleService) FinishElapsed(ctx context.Context, now time.Time) (int, error) {
	active, err := s.enrollmentRepo.GetByStatus(ctx, domain.EnrollmentActive)
	if err != nil {
		return 0, storageErr(err)
	}
	today := schedule.DateOnly(now)

	finished := 0
	var errs []error
	for _, enr := range active {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		records, err := s.executionRepo.GetByEnrollmentID(ctx, enr.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("enrollment %s: %w", enr.ID.Hex(), storageErr(err)))
			continue
		}
		if !allBefore(records, today) {
			continue
		}
		if err := s.enrollmentRepo.UpdateStatus(ctx, enr.ID, domain.EnrollmentFinished, enr.StartDate); err != nil {
			errs = append(errs, fmt.Errorf("enrollment %s: %w", enr.ID.Hex(), storageErr(err)))
			continue
		}
		finished++
		s.log.Info().Str("enrollmentId", enr.ID.Hex()).Int("records", len(records)).Msg("enrollment finished")
	}
	return finished, errors.Join(errs...)
}

// allBefore is false for an enrollment without records: nothing was ever
// scheduled, so there is nothing to have finished.
func allBefore(records []domain.ExecutionRecord, day time.Time) bool {
	if len(records) == 0 {
		return false
	}
	for _, rec := range records {
		if !schedule.DateOnly(rec.ScheduledDate).Before(day) {
			return false
		}
	}
	return true
}
