package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/plan"
	"alcyxob/program-ledger/internal/repository"
	"alcyxob/program-ledger/internal/schedule"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TodayView is what a client sees for one enrollment on a given day.
type TodayView struct {
	EnrollmentID primitive.ObjectID       `json:"enrollmentId"`
	Date         time.Time                `json:"date"`
	Started      bool                     `json:"started"`
	Period       int                      `json:"period"`
	Week         int                      `json:"week"`
	DayNumber    int                      `json:"dayNumber"`
	EndDate      time.Time                `json:"endDate"`
	Ended        bool                     `json:"ended"`
	BlockNames   map[int]string           `json:"blockNames"`
	// Planned is the current template's content for the day. It can differ
	// from Executions when the template was edited after generation.
	Planned      []plan.PlanItem          `json:"planned"`
	Executions   []domain.ExecutionRecord `json:"executions"`
}

// DateRange bounds a listing by scheduled date, both ends inclusive. A nil
// end is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether the calendar date of t falls inside r.
func (r DateRange) Contains(t time.Time) bool {
	d := schedule.DateOnly(t)
	if r.From != nil && d.Before(schedule.DateOnly(*r.From)) {
		return false
	}
	if r.To != nil && d.After(schedule.DateOnly(*r.To)) {
		return false
	}
	return true
}

// --- Service Interface ---
type ClientService interface {
	ListEnrollments(ctx context.Context, clientID primitive.ObjectID) ([]domain.Enrollment, error)
	ListExecutions(ctx context.Context, clientID, enrollmentID primitive.ObjectID, window DateRange) ([]domain.ExecutionRecord, error)
	Today(ctx context.Context, clientID, enrollmentID primitive.ObjectID, now time.Time) (*TodayView, error)
}

// --- Service Implementation ---

// clientService implements the ClientService interface.
type clientService struct {
	enrollmentRepo repository.EnrollmentRepository
	activityRepo   repository.ActivityRepository
	planRepo       repository.PlanTemplateRepository
	periodRepo     repository.PeriodConfigRepository
	executionRepo  repository.ExecutionRepository
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	enrollmentRepo repository.EnrollmentRepository,
	activityRepo repository.ActivityRepository,
	planRepo repository.PlanTemplateRepository,
	periodRepo repository.PeriodConfigRepository,
	executionRepo repository.ExecutionRepository,
) ClientService {
	return &clientService{
		enrollmentRepo: enrollmentRepo,
		activityRepo:   activityRepo,
		planRepo:       planRepo,
		periodRepo:     periodRepo,
		executionRepo:  executionRepo,
	}
}

func (s *clientService) viewer(clientID primitive.ObjectID) Viewer {
	return Viewer{UserID: clientID, Role: domain.RoleClient}
}

func (s *clientService) ListEnrollments(ctx context.Context, clientID primitive.ObjectID) ([]domain.Enrollment, error) {
	enrollments, err := s.enrollmentRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, storageErr(err)
	}
	return enrollments, nil
}

func (s *clientService) ListExecutions(ctx context.Context, clientID, enrollmentID primitive.ObjectID, window DateRange) ([]domain.ExecutionRecord, error) {
	enr, err := loadEnrollmentFor(ctx, s.enrollmentRepo, s.activityRepo, s.viewer(clientID), enrollmentID)
	if err != nil {
		return nil, err
	}
	records, err := s.executionRepo.GetByEnrollmentID(ctx, enr.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	out := make([]domain.ExecutionRecord, 0, len(records))
	for _, rec := range records {
		if window.Contains(rec.ScheduledDate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Today resolves which template week and day now falls on for the
// enrollment, with the block labels of that day and the records due.
func (s *clientService) Today(ctx context.Context, clientID, enrollmentID primitive.ObjectID, now time.Time) (*TodayView, error) {
	enr, err := loadEnrollmentFor(ctx, s.enrollmentRepo, s.activityRepo, s.viewer(clientID), enrollmentID)
	if err != nil {
		return nil, err
	}
	weeks, err := s.planRepo.GetWeeks(ctx, enr.ActivityID)
	if err != nil {
		return nil, storageErr(err)
	}
	tpl := plan.Compile(weeks)
	weekCount := tpl.WeekCount()
	periods, err := periodConfigOrDefault(ctx, s.periodRepo, enr.ActivityID)
	if err != nil {
		return nil, err
	}

	today := schedule.DateOnly(now)
	end := schedule.ProgramEnd(enr.StartDate, weekCount, periods.Count())
	view := &TodayView{
		EnrollmentID: enr.ID,
		Date:         today,
		Started:      schedule.DaysBetween(enr.StartDate, today) >= 0,
		Period:       schedule.CurrentPeriod(enr.StartDate, today, weekCount),
		Week:         schedule.ResolveWeek(enr.StartDate, today, weekCount),
		DayNumber:    schedule.DayNumber(enr.StartDate, today),
		EndDate:      end,
		Ended:        today.After(end),
		Planned:      []plan.PlanItem{},
		Executions:   []domain.ExecutionRecord{},
	}
	if view.Started && !view.Ended {
		if items := tpl.DayItems(view.Week, view.DayNumber); items != nil {
			view.Planned = items
		}
	}

	view.BlockNames, err = resolveBlockNames(ctx, s.planRepo, enr.ActivityID, view.DayNumber, view.Week)
	if err != nil {
		return nil, err
	}

	records, err := s.executionRepo.GetByEnrollmentID(ctx, enr.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	for _, rec := range records {
		if schedule.DateOnly(rec.ScheduledDate).Equal(today) {
			view.Executions = append(view.Executions, rec)
		}
	}
	return view, nil
}
