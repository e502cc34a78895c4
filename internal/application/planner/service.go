// Package planner aggregates ingredient lines from planned recipes into
// shopping items with provenance, suppressing what the pantry already
// covers.
package planner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/ingredient"
	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/domain/shopping"
	"github.com/grocerly/v1/internal/ports/inbound"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// Service implements the ingredient aggregator.
type Service struct {
	recipes  outbound.RecipeStore
	list     outbound.ShoppingListRepository
	pantry   inbound.PantryService
	settings outbound.SettingsProvider
	match    ingredient.Matcher
	logger   *zap.Logger
}

// NewService creates a new aggregator service.
func NewService(
	recipes outbound.RecipeStore,
	list outbound.ShoppingListRepository,
	pantryService inbound.PantryService,
	settings outbound.SettingsProvider,
	match ingredient.Matcher,
	logger *zap.Logger,
) inbound.PlannerService {
	return &Service{
		recipes:  recipes,
		list:     list,
		pantry:   pantryService,
		settings: settings,
		match:    match,
		logger:   logger.Named("planner"),
	}
}

// GenerateList aggregates the plan's recipes and replaces its shopping
// list with the result. Buckets are keyed by (normalized name, unit),
// with exact unit match and no conversion, and built in recipe/ingredient
// order
// so re-aggregation over an unchanged pantry is deterministic up to
// source ordering.
func (s *Service) GenerateList(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	recipes, err := s.recipes.PlannedRecipes(ctx, planID)
	if err != nil {
		return nil, err
	}

	items, err := s.aggregate(ctx, planID, recipes)
	if err != nil {
		return nil, err
	}

	if err := s.list.Replace(ctx, planID, items); err != nil {
		return nil, errors.NewDatabaseError("replace shopping list", err)
	}

	s.logger.Info("Shopping list generated",
		zap.String("plan_id", planID.String()),
		zap.Int("recipes", len(recipes)),
		zap.Int("items", len(items)),
	)
	return items, nil
}

type bucketKey struct {
	name string
	unit string
}

func (s *Service) aggregate(ctx context.Context, planID uuid.UUID, recipes []*recipe.Recipe) ([]*shopping.Item, error) {
	buckets := make(map[bucketKey]*shopping.Item)
	var ordered []*shopping.Item

	for _, rec := range recipes {
		for _, ref := range rec.IngredientRefs() {
			sufficient, err := s.pantry.IsSufficient(ctx, ref.Name)
			if err != nil {
				return nil, err
			}
			if sufficient {
				continue
			}

			key := bucketKey{name: ingredient.Normalize(ref.Name), unit: ref.Unit}
			item, ok := buckets[key]
			if !ok {
				item = shopping.NewItem(planID, ref.Name, 0, ref.Unit)
				buckets[key] = item
				ordered = append(ordered, item)
			}
			item.AddSource(ref.RecipeID, ref.IngredientIndex, ref.Name, ref.Quantity, ref.Unit)
		}
	}

	return ordered, nil
}

// RebuildSources relinks the plan's items to recipe ingredients by fuzzy
// name after an enrichment replace cascaded the old provenance away.
// Best-effort: an item the matcher cannot link simply keeps no sources.
func (s *Service) RebuildSources(ctx context.Context, planID uuid.UUID) error {
	recipes, err := s.recipes.PlannedRecipes(ctx, planID)
	if err != nil {
		return err
	}

	items, err := s.list.FindByPlan(ctx, planID)
	if err != nil {
		return errors.NewDatabaseError("load shopping list", err)
	}

	var unlinked int
	for _, item := range items {
		var sources []shopping.Source
		for _, rec := range recipes {
			for _, ref := range rec.IngredientRefs() {
				if !s.match(item.Name, ref.Name) {
					continue
				}
				sources = append(sources, shopping.Source{
					ID:               uuid.New(),
					ShoppingItemID:   item.ID,
					RecipeID:         ref.RecipeID,
					IngredientIndex:  ref.IngredientIndex,
					OriginalName:     ref.Name,
					OriginalQuantity: ref.Quantity,
					OriginalUnit:     ref.Unit,
				})
			}
		}

		if err := s.list.ReplaceSources(ctx, item.ID, sources); err != nil {
			return errors.NewDatabaseError("replace item sources", err)
		}
		if len(sources) == 0 {
			unlinked++
		}
	}

	if unlinked > 0 {
		s.logger.Info("Some enriched items have no provenance",
			zap.String("plan_id", planID.String()),
			zap.Int("unlinked", unlinked),
		)
	}
	return nil
}

// BuildPolishRequest assembles the enrichment request for the plan's
// current raw list: the lines, a pantry snapshot, and the user's unit
// system preference.
func (s *Service) BuildPolishRequest(ctx context.Context, planID uuid.UUID) (enrichment.PolishRequest, error) {
	items, err := s.list.FindByPlan(ctx, planID)
	if err != nil {
		return enrichment.PolishRequest{}, errors.NewDatabaseError("load shopping list", err)
	}

	snapshot, err := s.pantry.Snapshot(ctx)
	if err != nil {
		return enrichment.PolishRequest{}, err
	}

	lines := make([]enrichment.RawLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, enrichment.RawLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
		})
	}

	return enrichment.PolishRequest{
		Lines:      lines,
		Pantry:     snapshot,
		UnitSystem: s.settings.UnitSystem(ctx),
	}, nil
}
