// Package outbound defines the interfaces for outbound ports (secondary/
// driven adapters): local persistence, the external enrichment service,
// and the collaborator surfaces the core consumes but does not own.
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/domain/shopping"
)

// ShoppingListRepository persists shopping items and their provenance.
// Deleting an item cascades to its sources.
type ShoppingListRepository interface {
	// Replace transactionally deletes the plan's current items and
	// inserts the given set. Not observable half-done.
	Replace(ctx context.Context, planID uuid.UUID, items []*shopping.Item) error
	Upsert(ctx context.Context, item *shopping.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*shopping.Item, error)
	FindByPlan(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error)
	FindChecked(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error)

	// ReplaceSources rewrites one item's provenance records.
	ReplaceSources(ctx context.Context, itemID uuid.UUID, sources []shopping.Source) error
}

// PantryRepository persists pantry items. The pantry is single-user and
// small; matching by fuzzy name is done in the application layer over
// FindAll.
type PantryRepository interface {
	Create(ctx context.Context, item *pantry.Item) error
	Save(ctx context.Context, item *pantry.Item) error
	// SaveAll persists a batch inside one transaction.
	SaveAll(ctx context.Context, items []*pantry.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*pantry.Item, error)
	FindAll(ctx context.Context) ([]*pantry.Item, error)
}

// PendingJobRepository persists in-flight enrichment job records.
type PendingJobRepository interface {
	Create(ctx context.Context, job *enrichment.PendingJob) error
	// Delete is idempotent: deleting an absent record is not an error.
	Delete(ctx context.Context, jobID string) error
	// FindByType returns nil, nil when no job of the type is pending.
	FindByType(ctx context.Context, t enrichment.JobType) (*enrichment.PendingJob, error)
	FindAll(ctx context.Context) ([]*enrichment.PendingJob, error)
}

// RecipeStore is the consumed recipe collaborator: read planned recipes,
// write back customized ingredient lines, names, and steps.
type RecipeStore interface {
	PlannedRecipes(ctx context.Context, planID uuid.UUID) ([]*recipe.Recipe, error)
	FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error)
	UpdateIngredient(ctx context.Context, recipeID uuid.UUID, index int, ing recipe.Ingredient) error
	AppendIngredient(ctx context.Context, recipeID uuid.UUID, ing recipe.Ingredient) (int, error)
	RemoveIngredient(ctx context.Context, recipeID uuid.UUID, index int) error
	UpdateNameAndSteps(ctx context.Context, recipeID uuid.UUID, name string, steps []string) error
}

// SettingsProvider exposes the read-only user preferences the core
// consumes.
type SettingsProvider interface {
	// UnitSystem returns "metric" or "imperial".
	UnitSystem(ctx context.Context) string
}

// EnrichmentService is the external asynchronous enrichment boundary.
// All job types follow submit -> poll -> fetch-result -> delete.
type EnrichmentService interface {
	SubmitJob(ctx context.Context, t enrichment.JobType, payload interface{}) (jobID string, err error)
	JobState(ctx context.Context, jobID string) (enrichment.RemoteState, error)
	FetchResult(ctx context.Context, jobID string) ([]byte, error)
	// DeleteJob removes the remote job record. Pure cleanup; callers may
	// ignore its error.
	DeleteJob(ctx context.Context, jobID string) error
}

// ErrCacheMiss is returned by CacheRepository.Get for absent keys.
var ErrCacheMiss = errors.New("cache: key not found")

// CacheRepository caches enrichment responses keyed by request digest.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
