// Package shopping owns the current shopping list: check/in-cart state,
// the enrichment replace cycle, and trip completion into the pantry.
package shopping

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/domain/shopping"
	"github.com/grocerly/v1/internal/ports/inbound"
	"github.com/grocerly/v1/internal/ports/outbound"
	"github.com/grocerly/v1/pkg/errors"
)

// Service implements the shopping list use cases.
type Service struct {
	repo        outbound.ShoppingListRepository
	planner     inbound.PlannerService
	pantry      inbound.PantryService
	coordinator inbound.EnrichmentCoordinator
	classifier  *pantry.Classifier
	logger      *zap.Logger
}

// NewService creates a new shopping list service.
func NewService(
	repo outbound.ShoppingListRepository,
	planner inbound.PlannerService,
	pantryService inbound.PantryService,
	coordinator inbound.EnrichmentCoordinator,
	logger *zap.Logger,
) inbound.ShoppingListService {
	return &Service{
		repo:        repo,
		planner:     planner,
		pantry:      pantryService,
		coordinator: coordinator,
		classifier:  pantry.DefaultClassifier(),
		logger:      logger.Named("shopping-list"),
	}
}

// Items returns the plan's current list.
func (s *Service) Items(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	items, err := s.repo.FindByPlan(ctx, planID)
	if err != nil {
		return nil, errors.NewDatabaseError("load shopping list", err)
	}
	return items, nil
}

// Checked returns the plan's checked items.
func (s *Service) Checked(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	items, err := s.repo.FindChecked(ctx, planID)
	if err != nil {
		return nil, errors.NewDatabaseError("load checked items", err)
	}
	return items, nil
}

// Upsert saves one item.
func (s *Service) Upsert(ctx context.Context, item *shopping.Item) error {
	if err := s.repo.Upsert(ctx, item); err != nil {
		return errors.NewDatabaseError("save shopping item", err)
	}
	return nil
}

// ToggleChecked flips an item's checked state.
func (s *Service) ToggleChecked(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Checked = !item.Checked
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, errors.NewDatabaseError("save shopping item", err)
	}
	return item, nil
}

// ToggleInCart flips an item's in-cart state.
func (s *Service) ToggleInCart(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.InCart = !item.InCart
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, errors.NewDatabaseError("save shopping item", err)
	}
	return item, nil
}

// PolishAndApply runs a list-polish job and replaces the plan's list
// with the enriched set. The service may merge or split lines freely, so
// the prior set is replaced wholesale and provenance is rebuilt rather
// than diffed. On enrichment failure the raw list is left intact and the
// error returned so the caller can degrade to it.
func (s *Service) PolishAndApply(ctx context.Context, planID uuid.UUID) error {
	req, err := s.planner.BuildPolishRequest(ctx, planID)
	if err != nil {
		return err
	}
	if len(req.Lines) == 0 {
		return nil
	}

	outcomeCh, err := s.coordinator.SubmitListPolish(ctx, planID, req)
	if err != nil {
		return err
	}

	var outcome inbound.JobOutcome
	select {
	case outcome = <-outcomeCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	if outcome.Err != nil {
		s.logger.Warn("List polish failed, keeping raw list",
			zap.String("plan_id", planID.String()),
			zap.Error(outcome.Err),
		)
		return outcome.Err
	}

	var lines []enrichment.PolishedLine
	if err := json.Unmarshal(outcome.Payload, &lines); err != nil {
		return errors.NewExternalServiceError("decode polish result", err)
	}

	items := make([]*shopping.Item, 0, len(lines))
	for _, line := range lines {
		item := shopping.NewItem(planID, line.Name, line.Quantity, line.Unit)
		item.Category = shopping.ParseCategory(line.Category)
		item.DisplayQuantity = line.DisplayQuantity
		items = append(items, item)
	}

	if err := s.repo.Replace(ctx, planID, items); err != nil {
		return errors.NewDatabaseError("replace shopping list", err)
	}

	// the replace cascaded the old provenance away
	if err := s.planner.RebuildSources(ctx, planID); err != nil {
		return err
	}

	s.logger.Info("Shopping list enriched",
		zap.String("plan_id", planID.String()),
		zap.Int("items", len(items)),
	)
	return nil
}

// CompleteTrip moves the plan's checked items into the pantry. External
// categorization supplies category, tracking mode, and expiry estimates;
// when it fails the local classifier decides and the trip still
// completes.
func (s *Service) CompleteTrip(ctx context.Context, planID uuid.UUID) error {
	checked, err := s.repo.FindChecked(ctx, planID)
	if err != nil {
		return errors.NewDatabaseError("load checked items", err)
	}
	if len(checked) == 0 {
		return nil
	}

	lines := s.categorize(ctx, planID, checked)
	if err := s.pantry.Restock(ctx, lines); err != nil {
		return err
	}

	s.logger.Info("Shopping trip completed",
		zap.String("plan_id", planID.String()),
		zap.Int("items", len(checked)),
	)
	return nil
}

func (s *Service) categorize(ctx context.Context, planID uuid.UUID, checked []*shopping.Item) []inbound.RestockLine {
	req := enrichment.CategorizeRequest{Lines: make([]enrichment.RawLine, 0, len(checked))}
	for _, item := range checked {
		req.Lines = append(req.Lines, enrichment.RawLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
		})
	}

	categorized, err := s.runCategorize(ctx, planID, req)
	if err != nil {
		s.logger.Warn("Pantry categorization failed, using local classifier",
			zap.String("plan_id", planID.String()),
			zap.Error(err),
		)
	}

	lines := make([]inbound.RestockLine, 0, len(checked))
	for _, item := range checked {
		line := inbound.RestockLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Category: string(item.Category),
		}
		if got, ok := categorized[item.Name]; ok {
			line.Category = got.Category
			if mode, valid := pantry.ParseTrackingMode(got.TrackingMode); valid {
				line.TrackingMode = mode
			} else {
				line.TrackingMode = s.classifier.Classify(item.Name, got.Category)
			}
			line.Perishable = got.Perishable
			if got.ExpiryEstimate > 0 {
				expiry := item.UpdatedAt.AddDate(0, 0, got.ExpiryEstimate)
				line.Expiry = &expiry
			}
		} else {
			line.TrackingMode = s.classifier.Classify(item.Name, string(item.Category))
		}
		lines = append(lines, line)
	}
	return lines
}

func (s *Service) runCategorize(ctx context.Context, planID uuid.UUID, req enrichment.CategorizeRequest) (map[string]enrichment.CategorizedLine, error) {
	outcomeCh, err := s.coordinator.SubmitCategorize(ctx, planID, req)
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

	var lines []enrichment.CategorizedLine
	if err := json.Unmarshal(outcome.Payload, &lines); err != nil {
		return nil, errors.NewExternalServiceError("decode categorize result", err)
	}

	byName := make(map[string]enrichment.CategorizedLine, len(lines))
	for _, line := range lines {
		byName[line.Name] = line
	}
	return byName, nil
}
