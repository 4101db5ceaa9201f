package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// --- Shared Error Definitions ---
var (
	ErrValidationFailed       = errors.New("validation failed")
	ErrStorageUnavailable     = errors.New("storage temporarily unavailable")
	ErrActivityNotFound       = errors.New("activity not found")
	ErrActivityAccessDenied   = errors.New("access denied to this activity")
	ErrEnrollmentNotFound     = errors.New("enrollment not found")
	ErrEnrollmentAccessDenied = errors.New("access denied to this enrollment")
)

// storageErr marks transient backend failures with ErrStorageUnavailable so
// callers can retry. Other errors pass through unchanged.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		mongodriver.IsNetworkError(err) ||
		mongodriver.IsTimeout(err) ||
		errors.Is(err, mongodriver.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}

// Viewer identifies who is reading enrollment data.
type Viewer struct {
	UserID primitive.ObjectID
	Role   domain.Role
}

// loadEnrollmentFor fetches an enrollment and checks that viewer may see it:
// clients their own, coaches those of their activities.
func loadEnrollmentFor(ctx context.Context, enrollments repository.EnrollmentRepository, activities repository.ActivityRepository, viewer Viewer, enrollmentID primitive.ObjectID) (*domain.Enrollment, error) {
	enr, err := enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, storageErr(err)
	}
	switch viewer.Role {
	case domain.RoleClient:
		if enr.ClientID != viewer.UserID {
			return nil, ErrEnrollmentAccessDenied
		}
	case domain.RoleCoach:
		if _, err := loadOwnedActivity(ctx, activities, viewer.UserID, enr.ActivityID); err != nil {
			if errors.Is(err, ErrActivityAccessDenied) || errors.Is(err, ErrActivityNotFound) {
				return nil, ErrEnrollmentAccessDenied
			}
			return nil, err
		}
	default:
		return nil, ErrEnrollmentAccessDenied
	}
	return enr, nil
}

func loadOwnedActivity(ctx context.Context, activities repository.ActivityRepository, coachID, activityID primitive.ObjectID) (*domain.Activity, error) {
	activity, err := activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, storageErr(err)
	}
	if activity.CoachID != coachID {
		return nil, ErrActivityAccessDenied
	}
	return activity, nil
}
