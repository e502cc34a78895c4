package gorm

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// PantryRepository implements the pantry repository using GORM
type PantryRepository struct {
	db *gorm.DB
}

// NewPantryRepository creates a new pantry repository
func NewPantryRepository(db *gorm.DB) outbound.PantryRepository {
	return &PantryRepository{db: db}
}

// Create creates a new pantry item
func (r *PantryRepository) Create(ctx context.Context, item *pantry.Item) error {
	result := r.db.WithContext(ctx).Create(PantryItemToModel(item))
	if result.Error != nil {
		return errors.NewDatabaseError("create pantry item", result.Error)
	}
	return nil
}

// Save updates an existing pantry item
func (r *PantryRepository) Save(ctx context.Context, item *pantry.Item) error {
	result := r.db.WithContext(ctx).Save(PantryItemToModel(item))
	if result.Error != nil {
		return errors.NewDatabaseError("save pantry item", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewPantryItemNotFoundError(item.ID.String())
	}
	return nil
}

// SaveAll persists a batch inside one transaction. A deduction pass
// either lands for every touched item or for none.
func (r *PantryRepository) SaveAll(ctx context.Context, items []*pantry.Item) error {
	if len(items) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Save(PantryItemToModel(item)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.NewDatabaseError("save pantry items", err)
	}
	return nil
}

// Delete removes a pantry item
func (r *PantryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&PantryItemModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.NewDatabaseError("delete pantry item", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewPantryItemNotFoundError(id.String())
	}
	return nil
}

// FindByID finds a pantry item by ID
func (r *PantryRepository) FindByID(ctx context.Context, id uuid.UUID) (*pantry.Item, error) {
	var model PantryItemModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewPantryItemNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find pantry item", result.Error)
	}

	return ModelToPantryItem(&model), nil
}

// FindAll returns every pantry item ordered by name
func (r *PantryRepository) FindAll(ctx context.Context) ([]*pantry.Item, error) {
	var models []PantryItemModel

	result := r.db.WithContext(ctx).Order("name ASC").Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("list pantry items", result.Error)
	}

	items := make([]*pantry.Item, len(models))
	for i := range models {
		items[i] = ModelToPantryItem(&models[i])
	}
	return items, nil
}
