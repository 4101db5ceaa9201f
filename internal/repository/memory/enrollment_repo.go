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

type enrollmentRepository struct{ s *Store }

// NewEnrollmentRepository returns a repository.EnrollmentRepository over s.
func NewEnrollmentRepository(s *Store) repository.EnrollmentRepository {
	return &enrollmentRepository{s: s}
}

func (r *enrollmentRepository) Create(_ context.Context, e *domain.Enrollment) error {
	if e.ID == primitive.NilObjectID || e.ActivityID == primitive.NilObjectID || e.ClientID == primitive.NilObjectID {
		return errors.New("enrollment requires id, activityId and clientId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.enrollments[e.ID]; exists {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.s.enrollments[e.ID] = *e
	return nil
}

func (r *enrollmentRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *enrollmentRepository) filter(match func(domain.Enrollment) bool) []domain.Enrollment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Enrollment
	for _, e := range r.s.enrollments {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (r *enrollmentRepository) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Enrollment, error) {
	return r.filter(func(e domain.Enrollment) bool { return e.ClientID == clientID }), nil
}

func (r *enrollmentRepository) GetByActivityID(_ context.Context, activityID primitive.ObjectID) ([]domain.Enrollment, error) {
	return r.filter(func(e domain.Enrollment) bool { return e.ActivityID == activityID }), nil
}

func (r *enrollmentRepository) GetByStatus(_ context.Context, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	return r.filter(func(e domain.Enrollment) bool { return e.Status == status }), nil
}

func (r *enrollmentRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.EnrollmentStatus, startDate time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enrollments[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Status = status
	e.StartDate = startDate
	e.UpdatedAt = time.Now().UTC()
	r.s.enrollments[id] = e
	return nil
}

func (r *enrollmentRepository) MarkGenerated(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enrollments[id]
	if !ok {
		return repository.ErrNotFound
	}
	at = at.UTC()
	e.GeneratedAt = &at
	e.UpdatedAt = time.Now().UTC()
	r.s.enrollments[id] = e
	return nil
}
