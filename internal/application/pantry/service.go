// Package pantry provides the pantry ledger use cases: sufficiency
// checks, deduction, stock-level bookkeeping, and restocking from a
// completed shopping trip.
package pantry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/ingredient"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/ports/inbound"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// Service implements the pantry ledger use cases.
type Service struct {
	repo             outbound.PantryRepository
	recipes          outbound.RecipeStore
	classifier       *pantry.Classifier
	match            ingredient.Matcher
	lowStockFraction float64
	logger           *zap.Logger
}

// NewService creates a new pantry ledger service.
func NewService(
	repo outbound.PantryRepository,
	recipes outbound.RecipeStore,
	match ingredient.Matcher,
	lowStockFraction float64,
	logger *zap.Logger,
) inbound.PantryService {
	return &Service{
		repo:             repo,
		recipes:          recipes,
		classifier:       pantry.DefaultClassifier(),
		match:            match,
		lowStockFraction: lowStockFraction,
		logger:           logger.Named("pantry-ledger"),
	}
}

// IsSufficient reports whether any matching pantry item counts as enough
// on hand. No match means not sufficient, never an error.
func (s *Service) IsSufficient(ctx context.Context, name string) (bool, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return false, errors.NewDatabaseError("load pantry items", err)
	}

	for _, item := range items {
		if s.match(item.Name, name) && item.Sufficient(s.lowStockFraction) {
			return true, nil
		}
	}
	return false, nil
}

// Deduct reduces every matching Units item by amount, flooring at zero.
// Recipes may reference items never pantried, so zero matches is a
// normal result.
func (s *Service) Deduct(ctx context.Context, name string, amount float64) (int64, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, errors.NewDatabaseError("load pantry items", err)
	}

	var affected []*pantry.Item
	for _, item := range items {
		if item.TrackingMode != pantry.TrackingUnits {
			continue
		}
		if s.match(item.Name, name) {
			item.Deduct(amount)
			affected = append(affected, item)
		}
	}

	if len(affected) == 0 {
		return 0, nil
	}

	if err := s.repo.SaveAll(ctx, affected); err != nil {
		return 0, errors.NewDatabaseError("save deducted pantry items", err)
	}
	return int64(len(affected)), nil
}

// SetStockLevel records a user-observed level for one item.
func (s *Service) SetStockLevel(ctx context.Context, id uuid.UUID, level pantry.StockLevel) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	item.SetStockLevel(level)
	if err := s.repo.Save(ctx, item); err != nil {
		return errors.NewDatabaseError("save pantry item", err)
	}
	return nil
}

// ReduceStockLevel steps one item's level down a notch; no-op at Out.
func (s *Service) ReduceStockLevel(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	item.ReduceStockLevel()
	if err := s.repo.Save(ctx, item); err != nil {
		return errors.NewDatabaseError("save pantry item", err)
	}
	return nil
}

// Restock inserts or merges pantry entries from a completed trip.
// Merging matches by fuzzy name: Units items add quantities, StockLevel
// items return to Plenty. New entries get their tracking mode from the
// line when it names a known mode, otherwise from the classifier.
func (s *Service) Restock(ctx context.Context, lines []inbound.RestockLine) error {
	existing, err := s.repo.FindAll(ctx)
	if err != nil {
		return errors.NewDatabaseError("load pantry items", err)
	}

	var updated []*pantry.Item
	var created int
	for _, line := range lines {
		if merged := s.mergeLine(existing, line); merged != nil {
			updated = append(updated, merged)
			continue
		}

		// never store a mode outside the known set; the classifier
		// decides when the line carries none or an unknown one
		mode, valid := pantry.ParseTrackingMode(string(line.TrackingMode))
		if !valid {
			mode = s.classifier.Classify(line.Name, line.Category)
		}

		item := pantry.NewItem(line.Name, line.Quantity, line.Unit, mode)
		item.Category = line.Category
		item.Perishable = line.Perishable
		item.Expiry = line.Expiry
		if err := s.repo.Create(ctx, item); err != nil {
			return errors.NewDatabaseError("create pantry item", err)
		}
		existing = append(existing, item)
		created++
	}

	if len(updated) > 0 {
		if err := s.repo.SaveAll(ctx, updated); err != nil {
			return errors.NewDatabaseError("save restocked pantry items", err)
		}
	}

	s.logger.Info("Pantry restocked",
		zap.Int("lines", len(lines)),
		zap.Int("created", created),
		zap.Int("merged", len(updated)),
	)
	return nil
}

func (s *Service) mergeLine(existing []*pantry.Item, line inbound.RestockLine) *pantry.Item {
	for _, item := range existing {
		if !s.match(item.Name, line.Name) {
			continue
		}
		item.Restock(line.Quantity)
		if line.Expiry != nil {
			item.Perishable = line.Perishable
			item.Expiry = line.Expiry
		}
		return item
	}
	return nil
}

// CookRecipe deducts every ingredient of a cooked recipe from the
// pantry: Units items by quantity, StockLevel items one notch down.
// Ingredients with no pantry match are skipped.
func (s *Service) CookRecipe(ctx context.Context, recipeID uuid.UUID) error {
	rec, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return err
	}

	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return errors.NewDatabaseError("load pantry items", err)
	}

	touched := make(map[uuid.UUID]*pantry.Item)
	for _, ing := range rec.Ingredients {
		for _, item := range items {
			if !s.match(item.Name, ing.Name) {
				continue
			}
			// each item is deducted once per cook even when the fuzzy
			// match pairs it with several ingredient lines
			if _, seen := touched[item.ID]; seen {
				continue
			}
			if item.TrackingMode == pantry.TrackingUnits {
				item.Deduct(ing.Quantity)
			} else {
				item.ReduceStockLevel()
			}
			touched[item.ID] = item
		}
	}

	if len(touched) == 0 {
		return nil
	}

	updated := make([]*pantry.Item, 0, len(touched))
	for _, item := range touched {
		updated = append(updated, item)
	}
	if err := s.repo.SaveAll(ctx, updated); err != nil {
		return errors.NewDatabaseError("save cooked deductions", err)
	}

	s.logger.Info("Recipe cooked, pantry deducted",
		zap.String("recipe_id", recipeID.String()),
		zap.Int("items_affected", len(updated)),
	)
	return nil
}

// Items returns the full ledger.
func (s *Service) Items(ctx context.Context) ([]*pantry.Item, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load pantry items", err)
	}
	return items, nil
}

// ExpiringSoon returns perishable items expiring inside the window.
func (s *Service) ExpiringSoon(ctx context.Context, within time.Duration) ([]*pantry.Item, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load pantry items", err)
	}

	now := time.Now()
	var out []*pantry.Item
	for _, item := range items {
		if item.ExpiresWithin(now, within) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Snapshot renders the ledger as enrichment payload entries.
func (s *Service) Snapshot(ctx context.Context) ([]enrichment.PantrySnapshotEntry, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load pantry items", err)
	}

	entries := make([]enrichment.PantrySnapshotEntry, 0, len(items))
	for _, item := range items {
		entry := enrichment.PantrySnapshotEntry{
			Name:      item.Name,
			Remaining: item.QuantityRemaining,
			Unit:      item.Unit,
		}
		if item.TrackingMode == pantry.TrackingStockLevel {
			entry.StockLevel = item.StockLevel.String()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
