// Package recipe contains the recipe-side domain model the planner core
// reads from and writes back into: planned recipes, their ingredient
// lines, and the customization payloads that rewrite them.
package recipe

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current structural version of stored recipes.
// Ingredients and steps are explicit rows, never opaque JSON strings; a
// row with an unknown version is a typed error, not an empty list.
const SchemaVersion = 1

// Ingredient is one ingredient line of a recipe.
type Ingredient struct {
	Name        string
	Quantity    float64
	Unit        string
	Preparation string
}

// Recipe is a planned recipe. Editing a recipe bumps Version but keeps
// the same ID; ingredient indexes identify lines within a version.
type Recipe struct {
	ID          uuid.UUID
	PlanID      uuid.UUID
	Name        string
	Version     int64
	Ingredients []Ingredient
	Steps       []string
	UpdatedAt   time.Time
}

// IngredientAt returns the ingredient line at index, reporting whether
// the index is valid for this version.
func (r *Recipe) IngredientAt(index int) (Ingredient, bool) {
	if index < 0 || index >= len(r.Ingredients) {
		return Ingredient{}, false
	}
	return r.Ingredients[index], true
}

// IngredientRef identifies a single ingredient line across the plan:
// the source half of a provenance record.
type IngredientRef struct {
	RecipeID        uuid.UUID
	IngredientIndex int
	Ingredient
}

// IngredientRefs flattens the recipe into per-line refs, in index order.
func (r *Recipe) IngredientRefs() []IngredientRef {
	refs := make([]IngredientRef, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		refs[i] = IngredientRef{RecipeID: r.ID, IngredientIndex: i, Ingredient: ing}
	}
	return refs
}

// Modification changes one existing ingredient line. Nil/empty fields
// leave the corresponding attribute untouched.
type Modification struct {
	OriginalName   string
	NewName        string
	NewQuantity    *float64
	NewUnit        string
	NewPreparation string
}

// Customization is the transient payload of a full-recipe customization,
// produced externally, applied once and discarded.
type Customization struct {
	UpdatedRecipeName string
	Add               []Ingredient
	Remove            []string // by name
	Modify            []Modification
	UpdatedSteps      []string
}
