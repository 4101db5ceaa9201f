package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/progress"
	"alcyxob/program-ledger/internal/repository"
	"alcyxob/program-ledger/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrReportExportFailed = errors.New("failed to export progress report")
	ErrReportURLError     = errors.New("failed to generate report download URL")
)

// reportPrefix is the object key prefix of exported reports.
const reportPrefix = "reports"

// rollupStatuses are the enrollment statuses that count towards a client's
// overall progress.
var rollupStatuses = map[domain.EnrollmentStatus]bool{
	domain.EnrollmentActive:   true,
	domain.EnrollmentFinished: true,
	domain.EnrollmentExpired:  true,
}

// ActivityReport is the document written by ExportActivityReport.
type ActivityReport struct {
	ActivityID     primitive.ObjectID `json:"activityId"`
	Title          string             `json:"title"`
	AsOf           time.Time          `json:"asOf"`
	GeneratedAt    time.Time          `json:"generatedAt"`
	Enrollments    []ReportRow        `json:"enrollments"`
	AveragePercent int                `json:"averagePercent"`
}

// ReportRow is one enrollment of an ActivityReport.
type ReportRow struct {
	EnrollmentID primitive.ObjectID      `json:"enrollmentId"`
	ClientID     primitive.ObjectID      `json:"clientId"`
	Status       domain.EnrollmentStatus `json:"status"`
	StartDate    time.Time               `json:"startDate"`
	Progress     domain.ProgressSnapshot `json:"progress"`
}

// ReportExport tells the coach where the exported report can be fetched.
type ReportExport struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Enrollments int       `json:"enrollments"`
}

// --- Service Interface ---
type ProgressService interface {
	EnrollmentProgress(ctx context.Context, viewer Viewer, enrollmentID primitive.ObjectID, asOf time.Time) (*domain.ProgressSnapshot, error)
	ClientProgress(ctx context.Context, clientID primitive.ObjectID, asOf time.Time) (*domain.ClientProgress, error)
	ExportActivityReport(ctx context.Context, coachID, activityID primitive.ObjectID, asOf time.Time) (*ReportExport, error)
}

// --- Service Implementation ---

type progressService struct {
	enrollmentRepo repository.EnrollmentRepository
	activityRepo   repository.ActivityRepository
	executionRepo  repository.ExecutionRepository
	fileStorage    storage.FileStorage
	urlExpiry      time.Duration
	log            zerolog.Logger
}

// NewProgressService creates a new instance of progressService.
func NewProgressService(
	enrollmentRepo repository.EnrollmentRepository,
	activityRepo repository.ActivityRepository,
	executionRepo repository.ExecutionRepository,
	fileStorage storage.FileStorage,
	urlExpiry time.Duration,
	log zerolog.Logger,
) ProgressService {
	if urlExpiry <= 0 {
		urlExpiry = storage.DefaultPresignedURLExpiry
	}
	return &progressService{
		enrollmentRepo: enrollmentRepo,
		activityRepo:   activityRepo,
		executionRepo:  executionRepo,
		fileStorage:    fileStorage,
		urlExpiry:      urlExpiry,
		log:            log.With().Str("component", "progress").Logger(),
	}
}

func (s *progressService) EnrollmentProgress(ctx context.Context, viewer Viewer, enrollmentID primitive.ObjectID, asOf time.Time) (*domain.ProgressSnapshot, error) {
	enr, err := loadEnrollmentFor(ctx, s.enrollmentRepo, s.activityRepo, viewer, enrollmentID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, enr.ID, asOf)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *progressService) snapshot(ctx context.Context, enrollmentID primitive.ObjectID, asOf time.Time) (domain.ProgressSnapshot, error) {
	records, err := s.executionRepo.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		return domain.ProgressSnapshot{}, storageErr(err)
	}
	return progress.Aggregate(enrollmentID, records, asOf), nil
}

// ClientProgress averages the progress of the client's active, finished and
// expired enrollments.
func (s *progressService) ClientProgress(ctx context.Context, clientID primitive.ObjectID, asOf time.Time) (*domain.ClientProgress, error) {
	enrollments, err := s.enrollmentRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, storageErr(err)
	}
	snapshots := make([]domain.ProgressSnapshot, 0, len(enrollments))
	for _, enr := range enrollments {
		if !rollupStatuses[enr.Status] {
			continue
		}
		snap, err := s.snapshot(ctx, enr.ID, asOf)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	rollup := progress.Rollup(clientID, snapshots)
	return &rollup, nil
}

// ExportActivityReport writes a JSON progress report of every enrollment of
// the activity to object storage and returns a pre-signed download URL.
func (s *progressService) ExportActivityReport(ctx context.Context, coachID, activityID primitive.ObjectID, asOf time.Time) (*ReportExport, error) {
	activity, err := loadOwnedActivity(ctx, s.activityRepo, coachID, activityID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.GetByActivityID(ctx, activityID)
	if err != nil {
		return nil, storageErr(err)
	}

	report := ActivityReport{
		ActivityID:  activity.ID,
		Title:       activity.Title,
		AsOf:        asOf.UTC(),
		GeneratedAt: time.Now().UTC(),
		Enrollments: make([]ReportRow, 0, len(enrollments)),
	}
	snapshots := make([]domain.ProgressSnapshot, 0, len(enrollments))
	for _, enr := range enrollments {
		snap, err := s.snapshot(ctx, enr.ID, asOf)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
		report.Enrollments = append(report.Enrollments, ReportRow{
			EnrollmentID: enr.ID,
			ClientID:     enr.ClientID,
			Status:       enr.Status,
			StartDate:    enr.StartDate,
			Progress:     snap,
		})
	}
	report.AveragePercent = progress.Rollup(primitive.NilObjectID, snapshots).AveragePercent

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportExportFailed, err)
	}

	objectKey := path.Join(reportPrefix, activityID.Hex(), uuid.NewString()+".json")
	if err := s.fileStorage.PutObject(ctx, objectKey, "application/json", body); err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrReportExportFailed, err)
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportURLError, err)
	}

	s.log.Info().
		Str("activityId", activityID.Hex()).
		Str("key", objectKey).
		Int("enrollments", len(enrollments)).
		Msg("progress report exported")
	return &ReportExport{
		ObjectKey:   objectKey,
		DownloadURL: url,
		ExpiresAt:   time.Now().UTC().Add(s.urlExpiry),
		Enrollments: len(enrollments),
	}, nil
}
