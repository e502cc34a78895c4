package gorm

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// RecipeStore implements the recipe collaborator using GORM. Every write
// bumps the recipe's version and updated_at stamp.
type RecipeStore struct {
	db *gorm.DB
}

// NewRecipeStore creates a new recipe store
func NewRecipeStore(db *gorm.DB) outbound.RecipeStore {
	return &RecipeStore{db: db}
}

// PlannedRecipes returns the plan's recipes with their ingredient rows
func (r *RecipeStore) PlannedRecipes(ctx context.Context, planID uuid.UUID) ([]*recipe.Recipe, error) {
	var models []RecipeModel

	result := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&models)

	if result.Error != nil {
		return nil, errors.NewDatabaseError("list planned recipes", result.Error)
	}

	recipes := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		rec, err := ModelToRecipe(&models[i])
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// FindByID finds a recipe by ID
func (r *RecipeStore) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	model, err := r.loadModel(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return ModelToRecipe(model)
}

// UpdateIngredient rewrites one ingredient row in place
func (r *RecipeStore) UpdateIngredient(ctx context.Context, recipeID uuid.UUID, index int, ing recipe.Ingredient) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.loadModel(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(model.Ingredients) {
			return errors.NewValidationError(
				fmt.Sprintf("ingredient index %d out of range for recipe %s", index, recipeID),
			)
		}

		updates := map[string]interface{}{
			"name":        ing.Name,
			"quantity":    ing.Quantity,
			"unit":        ing.Unit,
			"preparation": ing.Preparation,
		}
		if err := tx.Model(&RecipeIngredientModel{}).
			Where("recipe_id = ? AND idx = ?", recipeID, index).
			Updates(updates).Error; err != nil {
			return err
		}
		return r.bumpVersion(tx, recipeID)
	})
	return r.wrap("update recipe ingredient", err)
}

// AppendIngredient adds a row at the end and returns its index
func (r *RecipeStore) AppendIngredient(ctx context.Context, recipeID uuid.UUID, ing recipe.Ingredient) (int, error) {
	var index int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.loadModel(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		index = len(model.Ingredients)

		row := RecipeIngredientModel{
			RecipeID:    recipeID,
			Idx:         index,
			Name:        ing.Name,
			Quantity:    ing.Quantity,
			Unit:        ing.Unit,
			Preparation: ing.Preparation,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return r.bumpVersion(tx, recipeID)
	})
	if err != nil {
		return 0, r.wrap("append recipe ingredient", err)
	}
	return index, nil
}

// RemoveIngredient deletes a row and closes the index gap it leaves, so
// row indexes stay dense.
func (r *RecipeStore) RemoveIngredient(ctx context.Context, recipeID uuid.UUID, index int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := r.loadModel(ctx, tx, recipeID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(model.Ingredients) {
			return errors.NewValidationError(
				fmt.Sprintf("ingredient index %d out of range for recipe %s", index, recipeID),
			)
		}

		if err := tx.Where("recipe_id = ? AND idx = ?", recipeID, index).
			Delete(&RecipeIngredientModel{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&RecipeIngredientModel{}).
			Where("recipe_id = ? AND idx > ?", recipeID, index).
			UpdateColumn("idx", gorm.Expr("idx - 1")).Error; err != nil {
			return err
		}
		return r.bumpVersion(tx, recipeID)
	})
	return r.wrap("remove recipe ingredient", err)
}

// UpdateNameAndSteps rewrites the recipe's title and step list
func (r *RecipeStore) UpdateNameAndSteps(ctx context.Context, recipeID uuid.UUID, name string, steps []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if name != "" {
			updates["name"] = name
		}
		if steps != nil {
			updates["steps"] = StringSlice(steps)
		}
		if len(updates) == 0 {
			return nil
		}

		result := tx.Model(&RecipeModel{}).Where("id = ?", recipeID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NewRecipeNotFoundError(recipeID.String())
		}
		return r.bumpVersion(tx, recipeID)
	})
	return r.wrap("update recipe name and steps", err)
}

func (r *RecipeStore) loadModel(ctx context.Context, db *gorm.DB, id uuid.UUID) (*RecipeModel, error) {
	var model RecipeModel

	result := db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		First(&model, "id = ?", id)

	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewRecipeNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("find recipe", result.Error)
	}
	return &model, nil
}

func (r *RecipeStore) bumpVersion(tx *gorm.DB, recipeID uuid.UUID) error {
	return tx.Model(&RecipeModel{}).
		Where("id = ?", recipeID).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// wrap keeps typed errors as-is and tags raw driver errors as database
// failures.
func (r *RecipeStore) wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewDatabaseError(operation, err)
}
