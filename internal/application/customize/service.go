// Package customize propagates user-approved edits on shopping items
// backward into the source recipes and keeps provenance valid, with a
// local fallback when the external rewrite path fails.
package customize

import (
	"context"
	"encoding/json"
	"sort"

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

// Service implements the substitution propagator.
type Service struct {
	list        outbound.ShoppingListRepository
	recipes     outbound.RecipeStore
	coordinator inbound.EnrichmentCoordinator
	match       ingredient.Matcher
	logger      *zap.Logger
}

// NewService creates a new customization service.
func NewService(
	list outbound.ShoppingListRepository,
	recipes outbound.RecipeStore,
	coordinator inbound.EnrichmentCoordinator,
	match ingredient.Matcher,
	logger *zap.Logger,
) inbound.CustomizationService {
	return &Service{
		list:        list,
		recipes:     recipes,
		coordinator: coordinator,
		match:       match,
		logger:      logger.Named("customize"),
	}
}

// ApplyItemCustomization applies a user-approved name/quantity change on
// one shopping item. A true substitution (the normalized names differ)
// is replayed into every recipe ingredient the item was sourced from,
// through the external rewrite service when it answers and a local
// rename when it does not. The shopping item itself is updated last.
func (s *Service) ApplyItemCustomization(ctx context.Context, itemID uuid.UUID, newName, newDisplayQuantity string) error {
	item, err := s.list.FindByID(ctx, itemID)
	if err != nil {
		return err
	}

	trueSubstitution := newName != "" &&
		ingredient.Normalize(newName) != ingredient.Normalize(item.Name)

	if trueSubstitution {
		if err := s.propagateSubstitution(ctx, item, newName); err != nil {
			return err
		}
	}

	if newName != "" {
		item.Name = newName
	}
	item.DisplayQuantity = newDisplayQuantity
	if err := s.list.Upsert(ctx, item); err != nil {
		return errors.NewDatabaseError("save customized item", err)
	}

	s.logger.Info("Item customization applied",
		zap.String("item_id", itemID.String()),
		zap.Bool("substitution", trueSubstitution),
		zap.Int("sources", len(item.Sources)),
	)
	return nil
}

// propagateSubstitution rewrites every source recipe around the new
// ingredient, keeping the item's provenance records in step.
func (s *Service) propagateSubstitution(ctx context.Context, item *shopping.Item, newName string) error {
	for i := range item.Sources {
		src := &item.Sources[i]

		rec, err := s.recipes.FindByID(ctx, src.RecipeID)
		if err != nil {
			return err
		}

		result, rewriteErr := s.requestRewrite(ctx, item.ID, rec, src, newName)
		if rewriteErr != nil {
			// explicit fallback: rename the ingredient in place, leave
			// quantity, unit, and steps untouched
			s.logger.Warn("External rewrite failed, falling back to local rename",
				zap.String("recipe_id", src.RecipeID.String()),
				zap.String("original", src.OriginalName),
				zap.String("replacement", newName),
				zap.Error(rewriteErr),
			)
			result = &enrichment.SubstitutionResult{
				UpdatedName:     newName,
				UpdatedQuantity: src.OriginalQuantity,
				UpdatedUnit:     src.OriginalUnit,
			}
		}

		updated := recipe.Ingredient{
			Name:        result.UpdatedName,
			Quantity:    result.UpdatedQuantity,
			Unit:        result.UpdatedUnit,
			Preparation: result.UpdatedPreparation,
		}
		if err := s.recipes.UpdateIngredient(ctx, src.RecipeID, src.IngredientIndex, updated); err != nil {
			return err
		}
		if rewriteErr == nil && (result.UpdatedRecipeName != "" || len(result.RewrittenSteps) > 0) {
			name := result.UpdatedRecipeName
			if name == "" {
				name = rec.Name
			}
			steps := result.RewrittenSteps
			if len(steps) == 0 {
				steps = rec.Steps
			}
			if err := s.recipes.UpdateNameAndSteps(ctx, src.RecipeID, name, steps); err != nil {
				return err
			}
		}

		src.OriginalName = updated.Name
		src.OriginalQuantity = updated.Quantity
		src.OriginalUnit = updated.Unit
	}

	if err := s.list.ReplaceSources(ctx, item.ID, item.Sources); err != nil {
		return errors.NewDatabaseError("update item sources", err)
	}
	return nil
}

func (s *Service) requestRewrite(ctx context.Context, itemID uuid.UUID, rec *recipe.Recipe, src *shopping.Source, newName string) (*enrichment.SubstitutionResult, error) {
	req := enrichment.SubstitutionRequest{
		RecipeName:       rec.Name,
		OriginalName:     src.OriginalName,
		OriginalQuantity: src.OriginalQuantity,
		OriginalUnit:     src.OriginalUnit,
		NewName:          newName,
		Steps:            rec.Steps,
	}

	outcomeCh, err := s.coordinator.SubmitSubstitution(ctx, itemID, req)
	if err != nil {
		return nil, err
	}

	var outcome inbound.JobOutcome
	select {
	case outcome = <-outcomeCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if outcome.Err != nil {
		return nil, outcome.Err
	}

	var result enrichment.SubstitutionResult
	if err := json.Unmarshal(outcome.Payload, &result); err != nil {
		return nil, errors.NewExternalServiceError("decode substitution result", err)
	}
	if result.UpdatedName == "" {
		result.UpdatedName = newName
	}
	return &result, nil
}

// ApplyRecipeCustomization applies a whole-recipe customization: the
// recipe's ingredient lines, name, and steps are rewritten, and the
// plan's shopping list follows the quantity algebra: removal subtracts
// and deletes only at zero, addition merges or creates, modification
// edits in place. Matching uses the fuzzy name rule throughout.
func (s *Service) ApplyRecipeCustomization(ctx context.Context, planID, recipeID uuid.UUID, cust recipe.Customization) error {
	rec, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return err
	}

	items, err := s.list.FindByPlan(ctx, planID)
	if err != nil {
		return errors.NewDatabaseError("load shopping list", err)
	}

	deleted, err := s.applyRemovals(ctx, rec, items, cust.Remove)
	if err != nil {
		return err
	}
	if err := s.applyAdditions(ctx, planID, rec, items, deleted, cust.Add); err != nil {
		return err
	}
	if len(cust.Modify) > 0 && (len(cust.Remove) > 0 || len(cust.Add) > 0) {
		// removals shifted line indexes in the store; modifications must
		// work from fresh refs, not the ones loaded above
		rec, err = s.recipes.FindByID(ctx, recipeID)
		if err != nil {
			return err
		}
	}
	if err := s.applyModifications(ctx, rec, items, deleted, cust.Modify); err != nil {
		return err
	}

	if cust.UpdatedRecipeName != "" || len(cust.UpdatedSteps) > 0 {
		name := cust.UpdatedRecipeName
		if name == "" {
			name = rec.Name
		}
		steps := cust.UpdatedSteps
		if len(steps) == 0 {
			steps = rec.Steps
		}
		if err := s.recipes.UpdateNameAndSteps(ctx, recipeID, name, steps); err != nil {
			return err
		}
	}

	s.logger.Info("Recipe customization applied",
		zap.String("recipe_id", recipeID.String()),
		zap.Int("added", len(cust.Add)),
		zap.Int("removed", len(cust.Remove)),
		zap.Int("modified", len(cust.Modify)),
	)
	return nil
}

// applyRemovals deletes matching recipe lines and subtracts their
// quantities from the plan's items. An item is deleted only when its
// remainder reaches zero; a partial reduction keeps it. The returned set
// holds the deleted item IDs so later phases never touch them again.
func (s *Service) applyRemovals(ctx context.Context, rec *recipe.Recipe, items []*shopping.Item, removals []string) (map[uuid.UUID]bool, error) {
	var removedIndexes []int
	deleted := make(map[uuid.UUID]bool)

	for _, name := range removals {
		var removedQty float64
		for _, ref := range rec.IngredientRefs() {
			if s.match(ref.Name, name) {
				removedIndexes = append(removedIndexes, ref.IngredientIndex)
				removedQty += ref.Quantity
			}
		}

		item := s.matchItem(items, name, deleted)
		if item == nil {
			// the ingredient may have been pantry-suppressed; nothing to
			// subtract from
			continue
		}

		// prefer the recorded provenance for the subtraction amount
		var sourceQty float64
		for _, src := range item.SourcesFor(rec.ID) {
			if s.match(src.OriginalName, name) {
				sourceQty += src.OriginalQuantity
			}
		}
		if sourceQty > 0 {
			removedQty = sourceQty
		}

		item.Quantity -= removedQty
		if item.Quantity <= 0 {
			// cascade removes the item's sources with it
			if err := s.list.Delete(ctx, item.ID); err != nil {
				return nil, errors.NewDatabaseError("delete shopping item", err)
			}
			deleted[item.ID] = true
			continue
		}
		if err := s.list.Upsert(ctx, item); err != nil {
			return nil, errors.NewDatabaseError("save shopping item", err)
		}
	}

	// remove recipe lines highest-index first so earlier indexes hold
	sort.Sort(sort.Reverse(sort.IntSlice(removedIndexes)))
	for _, idx := range removedIndexes {
		if err := s.recipes.RemoveIngredient(ctx, rec.ID, idx); err != nil {
			return nil, err
		}
	}
	if len(removedIndexes) > 0 {
		if err := s.reindexSources(ctx, items, rec.ID, removedIndexes, deleted); err != nil {
			return nil, err
		}
	}
	return deleted, nil
}

// reindexSources shifts surviving provenance indexes down past removed
// recipe lines so they keep pointing at the right ingredient.
func (s *Service) reindexSources(ctx context.Context, items []*shopping.Item, recipeID uuid.UUID, removed []int, deleted map[uuid.UUID]bool) error {
	for _, item := range items {
		if deleted[item.ID] {
			continue
		}
		changed := false
		kept := item.Sources[:0]
		for _, src := range item.Sources {
			if src.RecipeID != recipeID {
				kept = append(kept, src)
				continue
			}
			shift := 0
			dropped := false
			for _, idx := range removed {
				if src.IngredientIndex == idx {
					dropped = true
					break
				}
				if src.IngredientIndex > idx {
					shift++
				}
			}
			if dropped {
				changed = true
				continue
			}
			if shift > 0 {
				src.IngredientIndex -= shift
				changed = true
			}
			kept = append(kept, src)
		}
		if changed {
			item.Sources = kept
			if err := s.list.ReplaceSources(ctx, item.ID, kept); err != nil {
				return errors.NewDatabaseError("reindex item sources", err)
			}
		}
	}
	return nil
}

// applyAdditions appends lines to the recipe and merges them into the
// plan's items, creating a new item when no fuzzy match exists. Items
// deleted by the removal phase are never merge targets: re-adding a
// fully removed ingredient starts a fresh item.
func (s *Service) applyAdditions(ctx context.Context, planID uuid.UUID, rec *recipe.Recipe, items []*shopping.Item, deleted map[uuid.UUID]bool, additions []recipe.Ingredient) error {
	for _, ing := range additions {
		index, err := s.recipes.AppendIngredient(ctx, rec.ID, ing)
		if err != nil {
			return err
		}

		item := s.matchItem(items, ing.Name, deleted)
		if item == nil {
			item = shopping.NewItem(planID, ing.Name, 0, ing.Unit)
			items = append(items, item)
		}
		item.AddSource(rec.ID, index, ing.Name, ing.Quantity, ing.Unit)

		if err := s.list.Upsert(ctx, item); err != nil {
			return errors.NewDatabaseError("save shopping item", err)
		}
		if err := s.list.ReplaceSources(ctx, item.ID, item.Sources); err != nil {
			return errors.NewDatabaseError("save item sources", err)
		}
	}
	return nil
}

// applyModifications renames/requantifies recipe lines and the matching
// items in place.
func (s *Service) applyModifications(ctx context.Context, rec *recipe.Recipe, items []*shopping.Item, deleted map[uuid.UUID]bool, mods []recipe.Modification) error {
	for _, mod := range mods {
		for _, ref := range rec.IngredientRefs() {
			if !s.match(ref.Name, mod.OriginalName) {
				continue
			}

			updated := ref.Ingredient
			if mod.NewName != "" {
				updated.Name = mod.NewName
			}
			if mod.NewQuantity != nil {
				updated.Quantity = *mod.NewQuantity
			}
			if mod.NewUnit != "" {
				updated.Unit = mod.NewUnit
			}
			if mod.NewPreparation != "" {
				updated.Preparation = mod.NewPreparation
			}
			if err := s.recipes.UpdateIngredient(ctx, rec.ID, ref.IngredientIndex, updated); err != nil {
				return err
			}

			item := s.matchItem(items, mod.OriginalName, deleted)
			if item == nil {
				continue
			}

			if mod.NewName != "" {
				item.Name = mod.NewName
			}
			if mod.NewQuantity != nil {
				// adjust by the delta: the item may aggregate other recipes
				item.Quantity += *mod.NewQuantity - ref.Quantity
			}
			changedSources := false
			for i := range item.Sources {
				src := &item.Sources[i]
				if src.RecipeID == rec.ID && src.IngredientIndex == ref.IngredientIndex {
					src.OriginalName = updated.Name
					src.OriginalQuantity = updated.Quantity
					src.OriginalUnit = updated.Unit
					changedSources = true
				}
			}
			if err := s.list.Upsert(ctx, item); err != nil {
				return errors.NewDatabaseError("save shopping item", err)
			}
			if changedSources {
				if err := s.list.ReplaceSources(ctx, item.ID, item.Sources); err != nil {
					return errors.NewDatabaseError("save item sources", err)
				}
			}
		}
	}
	return nil
}

func (s *Service) matchItem(items []*shopping.Item, name string, deleted map[uuid.UUID]bool) *shopping.Item {
	for _, item := range items {
		if deleted[item.ID] {
			continue
		}
		if s.match(item.Name, name) {
			return item
		}
	}
	return nil
}
