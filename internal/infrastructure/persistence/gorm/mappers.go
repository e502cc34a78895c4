package gorm

import (
	"fmt"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/domain/shopping"
	"github.com/grocerly/v1/pkg/errors"
)

// ShoppingItemToModel converts a domain shopping item to its GORM model
func ShoppingItemToModel(item *shopping.Item) *ShoppingItemModel {
	model := &ShoppingItemModel{
		ID:              item.ID,
		PlanID:          item.PlanID,
		Name:            item.Name,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		Category:        string(item.Category),
		DisplayQuantity: item.DisplayQuantity,
		Checked:         item.Checked,
		InCart:          item.InCart,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
	for _, src := range item.Sources {
		model.Sources = append(model.Sources, SourceToModel(src))
	}
	return model
}

// ModelToShoppingItem converts a GORM model to a domain shopping item
func ModelToShoppingItem(model *ShoppingItemModel) *shopping.Item {
	item := &shopping.Item{
		ID:              model.ID,
		PlanID:          model.PlanID,
		Name:            model.Name,
		Quantity:        model.Quantity,
		Unit:            model.Unit,
		Category:        shopping.ParseCategory(model.Category),
		DisplayQuantity: model.DisplayQuantity,
		Checked:         model.Checked,
		InCart:          model.InCart,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	for _, src := range model.Sources {
		item.Sources = append(item.Sources, ModelToSource(&src))
	}
	return item
}

// SourceToModel converts a provenance record to its GORM model
func SourceToModel(src shopping.Source) IngredientSourceModel {
	return IngredientSourceModel{
		ID:               src.ID,
		ShoppingItemID:   src.ShoppingItemID,
		RecipeID:         src.RecipeID,
		IngredientIndex:  src.IngredientIndex,
		OriginalName:     src.OriginalName,
		OriginalQuantity: src.OriginalQuantity,
		OriginalUnit:     src.OriginalUnit,
	}
}

// ModelToSource converts a GORM model to a provenance record
func ModelToSource(model *IngredientSourceModel) shopping.Source {
	return shopping.Source{
		ID:               model.ID,
		ShoppingItemID:   model.ShoppingItemID,
		RecipeID:         model.RecipeID,
		IngredientIndex:  model.IngredientIndex,
		OriginalName:     model.OriginalName,
		OriginalQuantity: model.OriginalQuantity,
		OriginalUnit:     model.OriginalUnit,
	}
}

// PantryItemToModel converts a domain pantry item to its GORM model
func PantryItemToModel(item *pantry.Item) *PantryItemModel {
	return &PantryItemModel{
		ID:                item.ID,
		Name:              item.Name,
		QuantityInitial:   item.QuantityInitial,
		QuantityRemaining: item.QuantityRemaining,
		Unit:              item.Unit,
		Category:          item.Category,
		TrackingMode:      string(item.TrackingMode),
		StockLevel:        item.StockLevel.String(),
		Perishable:        item.Perishable,
		Expiry:            item.Expiry,
		DateAdded:         item.DateAdded,
		LastUpdated:       item.LastUpdated,
		LastStockCheck:    item.LastStockCheck,
	}
}

// ModelToPantryItem converts a GORM model to a domain pantry item
func ModelToPantryItem(model *PantryItemModel) *pantry.Item {
	return &pantry.Item{
		ID:                model.ID,
		Name:              model.Name,
		QuantityInitial:   model.QuantityInitial,
		QuantityRemaining: model.QuantityRemaining,
		Unit:              model.Unit,
		Category:          model.Category,
		TrackingMode:      pantry.TrackingMode(model.TrackingMode),
		StockLevel:        pantry.ParseStockLevel(model.StockLevel),
		Perishable:        model.Perishable,
		Expiry:            model.Expiry,
		DateAdded:         model.DateAdded,
		LastUpdated:       model.LastUpdated,
		LastStockCheck:    model.LastStockCheck,
	}
}

// PendingJobToModel converts a pending job record to its GORM model
func PendingJobToModel(job *enrichment.PendingJob) *PendingJobModel {
	return &PendingJobModel{
		JobID:           job.JobID,
		JobType:         string(job.Type),
		RelatedEntityID: job.RelatedEntityID,
		StartedAt:       job.StartedAt,
	}
}

// ModelToPendingJob converts a GORM model to a pending job record
func ModelToPendingJob(model *PendingJobModel) *enrichment.PendingJob {
	return &enrichment.PendingJob{
		JobID:           model.JobID,
		Type:            enrichment.JobType(model.JobType),
		RelatedEntityID: model.RelatedEntityID,
		StartedAt:       model.StartedAt,
	}
}

// ModelToRecipe converts a GORM model to a domain recipe. A row with an
// unknown schema version or a gap in its ingredient indexes is a typed
// schema error.
func ModelToRecipe(model *RecipeModel) (*recipe.Recipe, error) {
	if model.SchemaVersion != recipe.SchemaVersion {
		return nil, errors.NewRecipeSchemaError(
			model.ID.String(),
			fmt.Errorf("unsupported schema version %d", model.SchemaVersion),
		)
	}

	ingredients := make([]recipe.Ingredient, len(model.Ingredients))
	seen := make([]bool, len(model.Ingredients))
	for _, row := range model.Ingredients {
		if row.Idx < 0 || row.Idx >= len(ingredients) {
			return nil, errors.NewRecipeSchemaError(
				model.ID.String(),
				fmt.Errorf("ingredient index %d out of range", row.Idx),
			)
		}
		if seen[row.Idx] {
			return nil, errors.NewRecipeSchemaError(
				model.ID.String(),
				fmt.Errorf("duplicate ingredient index %d", row.Idx),
			)
		}
		seen[row.Idx] = true
		ingredients[row.Idx] = recipe.Ingredient{
			Name:        row.Name,
			Quantity:    row.Quantity,
			Unit:        row.Unit,
			Preparation: row.Preparation,
		}
	}

	return &recipe.Recipe{
		ID:          model.ID,
		PlanID:      model.PlanID,
		Name:        model.Name,
		Version:     model.Version,
		Ingredients: ingredients,
		Steps:       model.Steps,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

// RecipeToModel converts a domain recipe to its GORM model
func RecipeToModel(rec *recipe.Recipe) *RecipeModel {
	model := &RecipeModel{
		ID:            rec.ID,
		PlanID:        rec.PlanID,
		Name:          rec.Name,
		Version:       rec.Version,
		SchemaVersion: recipe.SchemaVersion,
		Steps:         StringSlice(rec.Steps),
		UpdatedAt:     rec.UpdatedAt,
	}
	for i, ing := range rec.Ingredients {
		model.Ingredients = append(model.Ingredients, RecipeIngredientModel{
			RecipeID:    rec.ID,
			Idx:         i,
			Name:        ing.Name,
			Quantity:    ing.Quantity,
			Unit:        ing.Unit,
			Preparation: ing.Preparation,
		})
	}
	return model
}
