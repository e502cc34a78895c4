// Package inbound defines the use-case interfaces the presentation layer
// drives the core through.
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/domain/shopping"
)

// RestockLine is one purchased line handed to the pantry ledger after a
// completed shopping trip.
type RestockLine struct {
	Name         string
	Quantity     float64
	Unit         string
	Category     string
	TrackingMode pantry.TrackingMode // zero value lets the classifier decide
	Perishable   bool
	Expiry       *time.Time
}

// PantryService is the pantry ledger.
type PantryService interface {
	// IsSufficient reports whether the pantry already holds enough of
	// the named ingredient to suppress it from a shopping list.
	IsSufficient(ctx context.Context, name string) (bool, error)
	// Deduct reduces matching Units items, flooring at zero, and returns
	// how many items were affected. Zero is a normal result.
	Deduct(ctx context.Context, name string, amount float64) (int64, error)
	SetStockLevel(ctx context.Context, id uuid.UUID, level pantry.StockLevel) error
	ReduceStockLevel(ctx context.Context, id uuid.UUID) error
	// Restock inserts or merges pantry entries from a completed trip.
	Restock(ctx context.Context, lines []RestockLine) error
	// CookRecipe deducts every ingredient of a cooked recipe.
	CookRecipe(ctx context.Context, recipeID uuid.UUID) error
	Items(ctx context.Context) ([]*pantry.Item, error)
	ExpiringSoon(ctx context.Context, within time.Duration) ([]*pantry.Item, error)
	Snapshot(ctx context.Context) ([]enrichment.PantrySnapshotEntry, error)
}

// PlannerService aggregates planned recipes into a shopping list and
// maintains provenance.
type PlannerService interface {
	// GenerateList aggregates the plan's recipes against the pantry and
	// replaces the plan's shopping list with the result.
	GenerateList(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error)
	// RebuildSources best-effort relinks items to recipe ingredients
	// after an enrichment replace. Unlinked items are acceptable.
	RebuildSources(ctx context.Context, planID uuid.UUID) error
	// BuildPolishRequest assembles the enrichment payload for the plan's
	// current raw list.
	BuildPolishRequest(ctx context.Context, planID uuid.UUID) (enrichment.PolishRequest, error)
}

// ShoppingListService owns the current list and its trip lifecycle.
type ShoppingListService interface {
	Items(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error)
	Checked(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error)
	Upsert(ctx context.Context, item *shopping.Item) error
	ToggleChecked(ctx context.Context, id uuid.UUID) (*shopping.Item, error)
	ToggleInCart(ctx context.Context, id uuid.UUID) (*shopping.Item, error)
	// PolishAndApply runs a list-polish job and replaces the plan's list
	// with the enriched set, then rebuilds provenance. On enrichment
	// failure the raw list is left intact and the error is returned so
	// the caller can degrade gracefully.
	PolishAndApply(ctx context.Context, planID uuid.UUID) error
	// CompleteTrip moves checked items into the pantry, categorizing
	// them externally when possible and via the local classifier
	// otherwise.
	CompleteTrip(ctx context.Context, planID uuid.UUID) error
}

// CustomizationService propagates user edits across the shopping list,
// the source recipes, and provenance.
type CustomizationService interface {
	ApplyItemCustomization(ctx context.Context, itemID uuid.UUID, newName, newDisplayQuantity string) error
	ApplyRecipeCustomization(ctx context.Context, planID, recipeID uuid.UUID, cust recipe.Customization) error
}

// JobOutcome carries a finished job's payload or error on the channel
// returned at submission.
type JobOutcome struct {
	Payload []byte
	Err     error
}

// Resumed describes a pending job picked back up at startup.
type Resumed struct {
	Type            enrichment.JobType
	RelatedEntityID uuid.UUID
	Outcome         <-chan JobOutcome
}

// EnrichmentCoordinator manages asynchronous enrichment jobs: at most
// one pending job per type, persisted before the first poll, resumable
// after restart.
type EnrichmentCoordinator interface {
	SubmitListPolish(ctx context.Context, relatedID uuid.UUID, req enrichment.PolishRequest) (<-chan JobOutcome, error)
	SubmitCategorize(ctx context.Context, relatedID uuid.UUID, req enrichment.CategorizeRequest) (<-chan JobOutcome, error)
	SubmitSubstitution(ctx context.Context, relatedID uuid.UUID, req enrichment.SubstitutionRequest) (<-chan JobOutcome, error)
	// ResumePending purges stale job records without polling them and
	// resumes the rest.
	ResumePending(ctx context.Context) ([]Resumed, error)
	Close()
}
