package service

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCatalogItemNotFound     = errors.New("catalog item not found")
	ErrCatalogItemAccessDenied = errors.New("access denied to this catalog item")
)

// CatalogItemInput carries the coach-editable fields of a catalogue item.
type CatalogItemInput struct {
	Name        string
	Kind        domain.ItemKind
	Category    string
	Description string
	MuscleGroup string
	Difficulty  string
	VideoURL    string
	Calories    int
}

// --- Service Interface ---
type CatalogService interface {
	CreateItem(ctx context.Context, coachID primitive.ObjectID, in CatalogItemInput) (*domain.CatalogItem, error)
	GetItem(ctx context.Context, coachID primitive.ObjectID, itemID int64) (*domain.CatalogItem, error)
	// ListItems returns the coach's items, all kinds when kind is empty.
	ListItems(ctx context.Context, coachID primitive.ObjectID, kind domain.ItemKind) ([]domain.CatalogItem, error)
}

// --- Service Implementation ---

// catalogService implements the CatalogService interface.
type catalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

// CreateItem adds an exercise or meal to the coach's catalogue. The category
// is stored lower-cased so it matches the intensity table.
func (s *catalogService) CreateItem(ctx context.Context, coachID primitive.ObjectID, in CatalogItemInput) (*domain.CatalogItem, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required to create a catalog item")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrValidationFailed
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.KindExercise
	}
	if kind != domain.KindExercise && kind != domain.KindMeal {
		return nil, ErrValidationFailed
	}
	if in.Calories < 0 {
		return nil, ErrValidationFailed
	}

	item := &domain.CatalogItem{
		CoachID:     coachID,
		Name:        name,
		Kind:        kind,
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Description: in.Description,
		MuscleGroup: in.MuscleGroup,
		Difficulty:  in.Difficulty,
		VideoURL:    in.VideoURL,
		Calories:    in.Calories,
	}
	if _, err := s.catalogRepo.Create(ctx, item); err != nil {
		return nil, storageErr(err)
	}
	return item, nil
}

// GetItem retrieves a single item owned by the coach.
func (s *catalogService) GetItem(ctx context.Context, coachID primitive.ObjectID, itemID int64) (*domain.CatalogItem, error) {
	item, err := s.catalogRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, storageErr(err)
	}
	if item.CoachID != coachID {
		return nil, ErrCatalogItemAccessDenied
	}
	return item, nil
}

// ListItems retrieves the coach's catalogue.
func (s *catalogService) ListItems(ctx context.Context, coachID primitive.ObjectID, kind domain.ItemKind) ([]domain.CatalogItem, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID cannot be nil")
	}
	items, err := s.catalogRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		return nil, storageErr(err)
	}
	if kind == "" {
		return items, nil
	}
	filtered := make([]domain.CatalogItem, 0, len(items))
	for _, it := range items {
		if it.Kind == kind {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}
