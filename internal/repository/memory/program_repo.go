package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type catalogRepository struct{ s *Store }

// NewCatalogRepository returns a repository.CatalogRepository over s.
func NewCatalogRepository(s *Store) repository.CatalogRepository { return &catalogRepository{s: s} }

func (r *catalogRepository) Create(_ context.Context, item *domain.CatalogItem) (int64, error) {
	if item.Name == "" || item.CoachID == primitive.NilObjectID {
		return 0, errors.New("catalog item name and coach ID are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextItemID++
	item.ID = r.s.nextItemID
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.catalog[item.ID] = *item
	return item.ID, nil
}

func (r *catalogRepository) GetByID(_ context.Context, id int64) (*domain.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.catalog[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *catalogRepository) GetByIDs(_ context.Context, ids []int64) ([]domain.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.CatalogItem
	for _, id := range ids {
		if it, ok := r.s.catalog[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *catalogRepository) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.CatalogItem
	for _, it := range r.s.catalog {
		if it.CoachID == coachID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type activityRepository struct{ s *Store }

// NewActivityRepository returns a repository.ActivityRepository over s.
func NewActivityRepository(s *Store) repository.ActivityRepository {
	return &activityRepository{s: s}
}

func (r *activityRepository) Create(_ context.Context, a *domain.Activity) (primitive.ObjectID, error) {
	if a.CoachID == primitive.NilObjectID || a.Title == "" {
		return primitive.NilObjectID, errors.New("activity requires coachId and title")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.s.activities[a.ID] = *a
	return a.ID, nil
}

func (r *activityRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *activityRepository) GetByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Activity
	for _, a := range r.s.activities {
		if a.CoachID == coachID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type planTemplateRepository struct{ s *Store }

// NewPlanTemplateRepository returns a repository.PlanTemplateRepository over s.
func NewPlanTemplateRepository(s *Store) repository.PlanTemplateRepository {
	return &planTemplateRepository{s: s}
}

func (r *planTemplateRepository) UpsertWeek(_ context.Context, week *domain.PlanWeek) error {
	if week.ActivityID == primitive.NilObjectID || week.WeekNumber < 1 {
		return errors.New("plan week requires activityId and a week number of at least 1")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := weekKey{activityID: week.ActivityID, week: week.WeekNumber}
	if existing, ok := r.s.weeks[k]; ok {
		week.ID = existing.ID
	} else {
		week.ID = primitive.NewObjectID()
	}
	week.UpdatedAt = time.Now().UTC()
	r.s.weeks[k] = *week
	return nil
}

func (r *planTemplateRepository) GetWeek(_ context.Context, activityID primitive.ObjectID, weekNumber int) (*domain.PlanWeek, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.weeks[weekKey{activityID: activityID, week: weekNumber}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *planTemplateRepository) GetWeeks(_ context.Context, activityID primitive.ObjectID) ([]domain.PlanWeek, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.PlanWeek
	for k, w := range r.s.weeks {
		if k.activityID == activityID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

type periodConfigRepository struct{ s *Store }

// NewPeriodConfigRepository returns a repository.PeriodConfigRepository over s.
func NewPeriodConfigRepository(s *Store) repository.PeriodConfigRepository {
	return &periodConfigRepository{s: s}
}

func (r *periodConfigRepository) Get(_ context.Context, activityID primitive.ObjectID) (*domain.PeriodConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.periods[activityID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *periodConfigRepository) Upsert(_ context.Context, cfg *domain.PeriodConfig) error {
	if cfg.ActivityID == primitive.NilObjectID {
		return errors.New("period config requires activityId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cfg.UpdatedAt = time.Now().UTC()
	r.s.periods[cfg.ActivityID] = *cfg
	return nil
}
