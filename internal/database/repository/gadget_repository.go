package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/database/models"
)

// GadgetRepository defines the interface for gadget data operations.
// Each call is a single store round trip; callers composing find-then-save
// sequences get no atomicity across the two calls.
type GadgetRepository interface {
	Create(ctx context.Context, gadget *models.Gadget) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Gadget, error)
	List(ctx context.Context, filter GadgetFilter) ([]models.Gadget, error)
	Save(ctx context.Context, gadget *models.Gadget) error
}

// GadgetFilter narrows List. A nil Status matches every gadget.
type GadgetFilter struct {
	Status *models.GadgetStatus
}

type gadgetRepository struct {
	db *gorm.DB
}

// NewGadgetRepository creates a new gadget repository instance
func NewGadgetRepository(db *gorm.DB) GadgetRepository {
	return &gadgetRepository{db: db}
}

func (r *gadgetRepository) Create(ctx context.Context, gadget *models.Gadget) error {
	return r.db.WithContext(ctx).Create(gadget).Error
}

func (r *gadgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Gadget, error) {
	var gadget models.Gadget
	err := r.db.WithContext(ctx).First(&gadget, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGadgetNotFound
		}
		return nil, err
	}
	return &gadget, nil
}

func (r *gadgetRepository) List(ctx context.Context, filter GadgetFilter) ([]models.Gadget, error) {
	query := r.db.WithContext(ctx).Model(&models.Gadget{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	gadgets := make([]models.Gadget, 0)
	if err := query.Order("created_at ASC").Find(&gadgets).Error; err != nil {
		return nil, err
	}
	return gadgets, nil
}

// Save writes every column of gadget. Unknown ids yield ErrGadgetNotFound
// instead of inserting a new row.
func (r *gadgetRepository) Save(ctx context.Context, gadget *models.Gadget) error {
	result := r.db.WithContext(ctx).Model(gadget).Select("*").Omit("id", "created_at").Updates(gadget)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrGadgetNotFound
	}
	return nil
}

// Repository errors
var (
	ErrGadgetNotFound = errors.New("gadget not found")
)
