// Package shopping contains the shopping-list domain model: items, their
// provenance back to recipe ingredients, and the aggregation drafts that
// become items.
package shopping

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Category buckets items for display. Enrichment assigns real
// categories; aggregation always starts at Uncategorized.
type Category string

const (
	CategoryUncategorized Category = "uncategorized"
	CategoryProduce       Category = "produce"
	CategoryDairy         Category = "dairy"
	CategoryMeat          Category = "meat"
	CategorySeafood       Category = "seafood"
	CategoryBakery        Category = "bakery"
	CategoryFrozen        Category = "frozen"
	CategoryDryGoods      Category = "dry goods"
	CategoryCondiments    Category = "condiments"
	CategoryBeverages     Category = "beverages"
	CategoryHousehold     Category = "household"
)

// ParseCategory maps an externally-provided category string onto a known
// bucket, defaulting to Uncategorized.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryProduce, CategoryDairy, CategoryMeat, CategorySeafood,
		CategoryBakery, CategoryFrozen, CategoryDryGoods,
		CategoryCondiments, CategoryBeverages, CategoryHousehold:
		return Category(s)
	default:
		return CategoryUncategorized
	}
}

// Source is the provenance link from a shopping item back to the recipe
// ingredient it was aggregated from. Deleting an item cascades to its
// sources.
type Source struct {
	ID               uuid.UUID
	ShoppingItemID   uuid.UUID
	RecipeID         uuid.UUID
	IngredientIndex  int
	OriginalName     string
	OriginalQuantity float64
	OriginalUnit     string
}

// Item is one line of the current shopping list.
type Item struct {
	ID       uuid.UUID
	PlanID   uuid.UUID
	Name     string
	Quantity float64
	Unit     string
	Category Category

	// DisplayQuantity, once set by enrichment, is the authoritative
	// rendering and overrides Quantity/Unit.
	DisplayQuantity string

	Checked   bool
	InCart    bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Sources []Source
}

// NewItem creates a raw (pre-enrichment) shopping item.
func NewItem(planID uuid.UUID, name string, quantity float64, unit string) *Item {
	now := time.Now()
	return &Item{
		ID:        uuid.New(),
		PlanID:    planID,
		Name:      name,
		Quantity:  quantity,
		Unit:      unit,
		Category:  CategoryUncategorized,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddSource appends a provenance record for a contributing recipe
// ingredient and sums its quantity into the item.
func (i *Item) AddSource(recipeID uuid.UUID, index int, name string, quantity float64, unit string) {
	i.Quantity += quantity
	i.Sources = append(i.Sources, Source{
		ID:               uuid.New(),
		ShoppingItemID:   i.ID,
		RecipeID:         recipeID,
		IngredientIndex:  index,
		OriginalName:     name,
		OriginalQuantity: quantity,
		OriginalUnit:     unit,
	})
	i.UpdatedAt = time.Now()
}

// SourcesFor returns the item's sources belonging to one recipe.
func (i *Item) SourcesFor(recipeID uuid.UUID) []Source {
	var out []Source
	for _, s := range i.Sources {
		if s.RecipeID == recipeID {
			out = append(out, s)
		}
	}
	return out
}

// Display returns the user-facing quantity string, honoring the
// DisplayQuantity override.
func (i *Item) Display() string {
	if i.DisplayQuantity != "" {
		return i.DisplayQuantity
	}
	if i.Unit == "" {
		return trimFloat(i.Quantity)
	}
	return trimFloat(i.Quantity) + " " + i.Unit
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
