package memory

import (
	"context"
	"sort"
	"time"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type executionRepository struct{ s *Store }

// NewExecutionRepository returns a repository.ExecutionRepository over s.
// Key uniqueness is checked and the record inserted under the store lock.
func NewExecutionRepository(s *Store) repository.ExecutionRepository {
	return &executionRepository{s: s}
}

func (r *executionRepository) InsertMissing(ctx context.Context, records []domain.ExecutionRecord) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created, skipped := 0, 0
	now := time.Now().UTC()
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return created, skipped, err
		}
		k := rec.Key()
		if _, exists := r.s.execByKey[k]; exists {
			skipped++
			continue
		}
		rec.ID = primitive.NewObjectID()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		r.s.executions[rec.ID] = rec
		r.s.execByKey[k] = rec.ID
		created++
	}
	return created, skipped, nil
}

func (r *executionRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ExecutionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.executions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *executionRepository) GetByEnrollmentID(_ context.Context, enrollmentID primitive.ObjectID) ([]domain.ExecutionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.ExecutionRecord
	for _, rec := range r.s.executions {
		if rec.EnrollmentID == enrollmentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ItemID < b.ItemID
	})
	return out, nil
}

func (r *executionRepository) SetCompleted(_ context.Context, id, clientID primitive.ObjectID, completed bool, at time.Time) (*domain.ExecutionRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.executions[id]
	if !ok || rec.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	rec.Completed = completed
	if completed {
		at = at.UTC()
		rec.CompletedAt = &at
	} else {
		rec.CompletedAt = nil
	}
	rec.UpdatedAt = time.Now().UTC()
	r.s.executions[id] = rec
	return &rec, nil
}
