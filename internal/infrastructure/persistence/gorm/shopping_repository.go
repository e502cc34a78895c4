package gorm

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/v1/internal/domain/shopping"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// ShoppingListRepository implements the shopping list repository using GORM
type ShoppingListRepository struct {
	db *gorm.DB
}

// NewShoppingListRepository creates a new shopping list repository
func NewShoppingListRepository(db *gorm.DB) outbound.ShoppingListRepository {
	return &ShoppingListRepository{db: db}
}

// Replace deletes the plan's current items and inserts the given set in
// one transaction, so readers never see a half-replaced list.
func (r *ShoppingListRepository) Replace(ctx context.Context, planID uuid.UUID, items []*shopping.Item) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&ShoppingItemModel{}).Where("plan_id = ?", planID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("shopping_item_id IN ?", ids).Delete(&IngredientSourceModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("plan_id = ?", planID).Delete(&ShoppingItemModel{}).Error; err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := tx.Create(ShoppingItemToModel(item)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.NewDatabaseError("replace shopping list", err)
	}
	return nil
}

// Upsert creates or updates one item together with its provenance
func (r *ShoppingListRepository) Upsert(ctx context.Context, item *shopping.Item) error {
	model := ShoppingItemToModel(item)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sources := model.Sources
		model.Sources = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("shopping_item_id = ?", model.ID).Delete(&IngredientSourceModel{}).Error; err != nil {
			return err
		}
		if len(sources) > 0 {
			if err := tx.Create(&sources).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.NewDatabaseError("upsert shopping item", err)
	}
	return nil
}

// Delete removes an item; its sources go with it
func (r *ShoppingListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_item_id = ?", id).Delete(&IngredientSourceModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&ShoppingItemModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NewShoppingItemNotFoundError(id.String())
		}
		return nil
	})
	if err != nil {
		if errors.GetCode(err) == errors.CodeItemNotFound {
			return err
		}
		return errors.NewDatabaseError("delete shopping item", err)
	}
	return nil
}

// FindByID finds an item by ID
func (r *ShoppingListRepository) FindByID(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	var model ShoppingItemModel

	result := r.db.WithContext(ctx).
		Preload("Sources").
		First(&model, "id = ?", id)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewShoppingItemNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find shopping item", result.Error)
	}

	return ModelToShoppingItem(&model), nil
}

// FindByPlan returns the plan's full list ordered by creation time
func (r *ShoppingListRepository) FindByPlan(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	var models []ShoppingItemModel

	result := r.db.WithContext(ctx).
		Preload("Sources").
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&models)

	if result.Error != nil {
		return nil, errors.NewDatabaseError("list shopping items", result.Error)
	}

	items := make([]*shopping.Item, len(models))
	for i := range models {
		items[i] = ModelToShoppingItem(&models[i])
	}
	return items, nil
}

// FindChecked returns the plan's checked-off items
func (r *ShoppingListRepository) FindChecked(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	var models []ShoppingItemModel

	result := r.db.WithContext(ctx).
		Preload("Sources").
		Where("plan_id = ? AND checked = ?", planID, true).
		Order("created_at ASC").
		Find(&models)

	if result.Error != nil {
		return nil, errors.NewDatabaseError("list checked items", result.Error)
	}

	items := make([]*shopping.Item, len(models))
	for i := range models {
		items[i] = ModelToShoppingItem(&models[i])
	}
	return items, nil
}

// ReplaceSources rewrites one item's provenance records
func (r *ShoppingListRepository) ReplaceSources(ctx context.Context, itemID uuid.UUID, sources []shopping.Source) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_item_id = ?", itemID).Delete(&IngredientSourceModel{}).Error; err != nil {
			return err
		}
		for _, src := range sources {
			model := SourceToModel(src)
			model.ShoppingItemID = itemID
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.NewDatabaseError("replace item sources", err)
	}
	return nil
}
