package planner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/ingredient"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/domain/shopping"
	"github.com/grocerly/v1/internal/ports/inbound"
	"github.com/grocerly/v1/pkg/errors"
)

// fakeRecipeStore serves a fixed recipe set
type fakeRecipeStore struct {
	recipes []*recipe.Recipe
}

func (s *fakeRecipeStore) PlannedRecipes(ctx context.Context, planID uuid.UUID) ([]*recipe.Recipe, error) {
	return s.recipes, nil
}

func (s *fakeRecipeStore) FindByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	for _, rec := range s.recipes {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, errors.NewRecipeNotFoundError(id.String())
}

func (s *fakeRecipeStore) UpdateIngredient(ctx context.Context, recipeID uuid.UUID, index int, ing recipe.Ingredient) error {
	return nil
}

func (s *fakeRecipeStore) AppendIngredient(ctx context.Context, recipeID uuid.UUID, ing recipe.Ingredient) (int, error) {
	return 0, nil
}

func (s *fakeRecipeStore) RemoveIngredient(ctx context.Context, recipeID uuid.UUID, index int) error {
	return nil
}

func (s *fakeRecipeStore) UpdateNameAndSteps(ctx context.Context, recipeID uuid.UUID, name string, steps []string) error {
	return nil
}

// fakeListRepo is an in-memory ShoppingListRepository
type fakeListRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*shopping.Item
}

func newFakeListRepo() *fakeListRepo {
	return &fakeListRepo{items: make(map[uuid.UUID]*shopping.Item)}
}

func (r *fakeListRepo) Replace(ctx context.Context, planID uuid.UUID, items []*shopping.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.PlanID == planID {
			delete(r.items, id)
		}
	}
	for _, item := range items {
		r.items[item.ID] = item
	}
	return nil
}

func (r *fakeListRepo) Upsert(ctx context.Context, item *shopping.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *fakeListRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeListRepo) FindByID(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		return item, nil
	}
	return nil, errors.NewShoppingItemNotFoundError(id.String())
}

func (r *fakeListRepo) FindByPlan(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shopping.Item
	for _, item := range r.items {
		if item.PlanID == planID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeListRepo) FindChecked(ctx context.Context, planID uuid.UUID) ([]*shopping.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shopping.Item
	for _, item := range r.items {
		if item.PlanID == planID && item.Checked {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeListRepo) ReplaceSources(ctx context.Context, itemID uuid.UUID, sources []shopping.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[itemID]; ok {
		item.Sources = sources
	}
	return nil
}

// fakePantry reports a fixed set of sufficient ingredient names
type fakePantry struct {
	sufficient map[string]bool
	snapshot   []enrichment.PantrySnapshotEntry
}

func (p *fakePantry) IsSufficient(ctx context.Context, name string) (bool, error) {
	return p.sufficient[ingredient.Normalize(name)], nil
}

func (p *fakePantry) Deduct(ctx context.Context, name string, amount float64) (int64, error) {
	return 0, nil
}

func (p *fakePantry) SetStockLevel(ctx context.Context, id uuid.UUID, level pantry.StockLevel) error {
	return nil
}

func (p *fakePantry) ReduceStockLevel(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (p *fakePantry) Restock(ctx context.Context, lines []inbound.RestockLine) error {
	return nil
}

func (p *fakePantry) CookRecipe(ctx context.Context, recipeID uuid.UUID) error {
	return nil
}

func (p *fakePantry) Items(ctx context.Context) ([]*pantry.Item, error) {
	return nil, nil
}

func (p *fakePantry) ExpiringSoon(ctx context.Context, within time.Duration) ([]*pantry.Item, error) {
	return nil, nil
}

func (p *fakePantry) Snapshot(ctx context.Context) ([]enrichment.PantrySnapshotEntry, error) {
	return p.snapshot, nil
}

// fakeSettings serves a fixed unit system preference
type fakeSettings struct {
	unitSystem string
}

func (s *fakeSettings) UnitSystem(ctx context.Context) string {
	return s.unitSystem
}

func makeRecipe(planID uuid.UUID, name string, ings ...recipe.Ingredient) *recipe.Recipe {
	return &recipe.Recipe{
		ID:          uuid.New(),
		PlanID:      planID,
		Name:        name,
		Version:     1,
		Ingredients: ings,
	}
}

func newTestService(t *testing.T, recipes []*recipe.Recipe, suff map[string]bool) (inbound.PlannerService, *fakeListRepo) {
	t.Helper()
	repo := newFakeListRepo()
	svc := NewService(
		&fakeRecipeStore{recipes: recipes},
		repo,
		&fakePantry{sufficient: suff},
		&fakeSettings{unitSystem: "metric"},
		ingredient.ContainsMatch,
		zaptest.NewLogger(t),
	)
	return svc, repo
}

func TestGenerateListAggregatesByNormalizedNameAndUnit(t *testing.T) {
	planID := uuid.New()
	recipes := []*recipe.Recipe{
		makeRecipe(planID, "Fried Rice",
			recipe.Ingredient{Name: "rice", Quantity: 2, Unit: "cup"},
			recipe.Ingredient{Name: "garlic cloves", Quantity: 3, Unit: ""},
		),
		makeRecipe(planID, "Rice Pudding",
			recipe.Ingredient{Name: "Rice", Quantity: 1, Unit: "cup"},
			recipe.Ingredient{Name: "fresh garlic", Quantity: 2, Unit: ""},
		),
	}

	svc, _ := newTestService(t, recipes, nil)

	items, err := svc.GenerateList(context.Background(), planID)
	require.NoError(t, err)
	require.Len(t, items, 2, "rice and garlic should each merge into one item")

	byName := map[string]*shopping.Item{}
	for _, item := range items {
		byName[ingredient.Normalize(item.Name)] = item
	}

	rice := byName["rice"]
	require.NotNil(t, rice)
	assert.Equal(t, 3.0, rice.Quantity)
	assert.Len(t, rice.Sources, 2)

	garlic := byName["garlic"]
	require.NotNil(t, garlic)
	assert.Equal(t, 5.0, garlic.Quantity)
	assert.Len(t, garlic.Sources, 2)
}

func TestGenerateListKeepsUnitsSeparate(t *testing.T) {
	planID := uuid.New()
	recipes := []*recipe.Recipe{
		makeRecipe(planID, "Soup",
			recipe.Ingredient{Name: "milk", Quantity: 200, Unit: "ml"},
			recipe.Ingredient{Name: "milk", Quantity: 1, Unit: "cup"},
		),
	}

	svc, _ := newTestService(t, recipes, nil)

	items, err := svc.GenerateList(context.Background(), planID)
	require.NoError(t, err)
	assert.Len(t, items, 2, "different units must not merge")
}

func TestGenerateListSuppressesSufficientPantryItems(t *testing.T) {
	planID := uuid.New()
	recipes := []*recipe.Recipe{
		makeRecipe(planID, "Fried Rice",
			recipe.Ingredient{Name: "rice", Quantity: 2, Unit: "cup"},
			recipe.Ingredient{Name: "soy sauce", Quantity: 3, Unit: "tbsp"},
		),
	}

	svc, repo := newTestService(t, recipes, map[string]bool{"rice": true})

	items, err := svc.GenerateList(context.Background(), planID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "soy sauce", items[0].Name)

	persisted, err := repo.FindByPlan(context.Background(), planID)
	require.NoError(t, err)
	assert.Len(t, persisted, 1, "suppressed line must not be persisted")
}

func TestGenerateListIsDeterministic(t *testing.T) {
	planID := uuid.New()
	recipes := []*recipe.Recipe{
		makeRecipe(planID, "A",
			recipe.Ingredient{Name: "flour", Quantity: 500, Unit: "g"},
			recipe.Ingredient{Name: "sugar", Quantity: 100, Unit: "g"},
		),
		makeRecipe(planID, "B",
			recipe.Ingredient{Name: "sugar", Quantity: 50, Unit: "g"},
			recipe.Ingredient{Name: "butter", Quantity: 250, Unit: "g"},
		),
	}

	svc, _ := newTestService(t, recipes, nil)

	first, err := svc.GenerateList(context.Background(), planID)
	require.NoError(t, err)
	second, err := svc.GenerateList(context.Background(), planID)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Quantity, second[i].Quantity)
		assert.Equal(t, first[i].Unit, second[i].Unit)
	}
}

func TestGenerateListRecordsProvenance(t *testing.T) {
	planID := uuid.New()
	rec := makeRecipe(planID, "Stir Fry",
		recipe.Ingredient{Name: "chicken breast", Quantity: 500, Unit: "g", Preparation: "diced"},
	)

	svc, _ := newTestService(t, []*recipe.Recipe{rec}, nil)

	items, err := svc.GenerateList(context.Background(), planID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Sources, 1)

	src := items[0].Sources[0]
	assert.Equal(t, rec.ID, src.RecipeID)
	assert.Equal(t, 0, src.IngredientIndex)
	assert.Equal(t, "chicken breast", src.OriginalName)
	assert.Equal(t, 500.0, src.OriginalQuantity)
	assert.Equal(t, "g", src.OriginalUnit)
}

func TestRebuildSourcesRelinksByFuzzyName(t *testing.T) {
	planID := uuid.New()
	rec := makeRecipe(planID, "Pasta",
		recipe.Ingredient{Name: "canned tomatoes", Quantity: 800, Unit: "g"},
	)

	svc, repo := newTestService(t, []*recipe.Recipe{rec}, nil)

	// an enriched item whose name was rewritten by the external service
	enriched := shopping.NewItem(planID, "Tomatoes", 800, "g")
	require.NoError(t, repo.Upsert(context.Background(), enriched))

	require.NoError(t, svc.RebuildSources(context.Background(), planID))

	relinked, err := repo.FindByID(context.Background(), enriched.ID)
	require.NoError(t, err)
	require.Len(t, relinked.Sources, 1)
	assert.Equal(t, rec.ID, relinked.Sources[0].RecipeID)
	assert.Equal(t, "canned tomatoes", relinked.Sources[0].OriginalName)
}

func TestRebuildSourcesToleratesUnlinkedItems(t *testing.T) {
	planID := uuid.New()
	svc, repo := newTestService(t, nil, nil)

	orphan := shopping.NewItem(planID, "paper towels", 1, "roll")
	require.NoError(t, repo.Upsert(context.Background(), orphan))

	require.NoError(t, svc.RebuildSources(context.Background(), planID))

	item, err := repo.FindByID(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.Empty(t, item.Sources)
}

func TestBuildPolishRequestCarriesLinesPantryAndUnits(t *testing.T) {
	planID := uuid.New()
	repo := newFakeListRepo()
	snapshot := []enrichment.PantrySnapshotEntry{{Name: "rice", Remaining: 4, Unit: "cup"}}
	svc := NewService(
		&fakeRecipeStore{},
		repo,
		&fakePantry{snapshot: snapshot},
		&fakeSettings{unitSystem: "imperial"},
		ingredient.ContainsMatch,
		zaptest.NewLogger(t),
	)

	item := shopping.NewItem(planID, "soy sauce", 3, "tbsp")
	require.NoError(t, repo.Upsert(context.Background(), item))

	req, err := svc.BuildPolishRequest(context.Background(), planID)
	require.NoError(t, err)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, "soy sauce", req.Lines[0].Name)
	assert.Equal(t, 3.0, req.Lines[0].Quantity)
	assert.Equal(t, snapshot, req.Pantry)
	assert.Equal(t, "imperial", req.UnitSystem)
}
