package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormDB "gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/grocerly/v1/internal/domain/enrichment"
	"github.com/grocerly/v1/internal/domain/pantry"
	"github.com/grocerly/v1/internal/domain/recipe"
	"github.com/grocerly/v1/internal/domain/shopping"
	persistence "github.com/grocerly/v1/internal/infrastructure/persistence/gorm"
	"github.com/grocerly/v1/internal/infrastructure/persistence/sqlite"
	"github.com/grocerly/v1/pkg/errors"
)

func setupDB(t *testing.T) *gormDB.DB {
	t.Helper()
	db, err := sqlite.SetupDatabase("sqlite", "", gormLogger.Silent)
	require.NoError(t, err)
	return db
}

func sampleItem(planID uuid.UUID, name string, qty float64) *shopping.Item {
	item := shopping.NewItem(planID, name, 0, "g")
	item.AddSource(uuid.New(), 0, name, qty, "g")
	return item
}

func TestShoppingRepositoryReplaceIsWholesale(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewShoppingListRepository(db)
	ctx := context.Background()
	planID := uuid.New()

	first := []*shopping.Item{
		sampleItem(planID, "flour", 500),
		sampleItem(planID, "sugar", 200),
	}
	require.NoError(t, repo.Replace(ctx, planID, first))

	items, err := repo.FindByPlan(ctx, planID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Len(t, items[0].Sources, 1, "sources are persisted with the item")

	second := []*shopping.Item{sampleItem(planID, "butter", 250)}
	require.NoError(t, repo.Replace(ctx, planID, second))

	items, err = repo.FindByPlan(ctx, planID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "butter", items[0].Name)

	_, err = repo.FindByID(ctx, first[0].ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeItemNotFound, errors.GetCode(err))

	// the replaced items' sources must not linger
	var orphans int64
	db.Model(&persistence.IngredientSourceModel{}).
		Where("shopping_item_id = ?", first[0].ID).
		Count(&orphans)
	assert.Zero(t, orphans)
}

func TestShoppingRepositoryReplaceScopedToPlan(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewShoppingListRepository(db)
	ctx := context.Background()

	planA := uuid.New()
	planB := uuid.New()
	require.NoError(t, repo.Replace(ctx, planA, []*shopping.Item{sampleItem(planA, "flour", 500)}))
	require.NoError(t, repo.Replace(ctx, planB, []*shopping.Item{sampleItem(planB, "sugar", 200)}))

	require.NoError(t, repo.Replace(ctx, planA, []*shopping.Item{sampleItem(planA, "butter", 250)}))

	other, err := repo.FindByPlan(ctx, planB)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "sugar", other[0].Name)
}

func TestShoppingRepositoryUpsert(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewShoppingListRepository(db)
	ctx := context.Background()
	planID := uuid.New()

	item := sampleItem(planID, "milk", 1)
	require.NoError(t, repo.Upsert(ctx, item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "milk", found.Name)
	require.Len(t, found.Sources, 1)

	// second upsert rewrites fields and provenance in place
	item.Name = "oat milk"
	item.Checked = true
	item.Sources[0].OriginalName = "oat milk"
	item.AddSource(uuid.New(), 1, "oat milk", 2, "l")
	require.NoError(t, repo.Upsert(ctx, item))

	found, err = repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "oat milk", found.Name)
	assert.True(t, found.Checked)
	assert.Len(t, found.Sources, 2)
}

func TestShoppingRepositoryDelete(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewShoppingListRepository(db)
	ctx := context.Background()
	planID := uuid.New()

	item := sampleItem(planID, "milk", 1)
	require.NoError(t, repo.Upsert(ctx, item))
	require.NoError(t, repo.Delete(ctx, item.ID))

	_, err := repo.FindByID(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeItemNotFound, errors.GetCode(err))

	var orphans int64
	db.Model(&persistence.IngredientSourceModel{}).
		Where("shopping_item_id = ?", item.ID).
		Count(&orphans)
	assert.Zero(t, orphans, "deleting an item deletes its sources")

	err = repo.Delete(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeItemNotFound, errors.GetCode(err))
}

func TestShoppingRepositoryFindChecked(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewShoppingListRepository(db)
	ctx := context.Background()
	planID := uuid.New()

	checked := sampleItem(planID, "milk", 1)
	checked.Checked = true
	unchecked := sampleItem(planID, "flour", 500)
	require.NoError(t, repo.Replace(ctx, planID, []*shopping.Item{checked, unchecked}))

	items, err := repo.FindChecked(ctx, planID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "milk", items[0].Name)
}

func TestShoppingRepositoryReplaceSources(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewShoppingListRepository(db)
	ctx := context.Background()
	planID := uuid.New()

	item := sampleItem(planID, "milk", 1)
	require.NoError(t, repo.Upsert(ctx, item))

	recipeID := uuid.New()
	require.NoError(t, repo.ReplaceSources(ctx, item.ID, []shopping.Source{
		{ID: uuid.New(), RecipeID: recipeID, IngredientIndex: 2, OriginalName: "whole milk", OriginalQuantity: 2, OriginalUnit: "l"},
	}))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, found.Sources, 1)
	assert.Equal(t, recipeID, found.Sources[0].RecipeID)
	assert.Equal(t, 2, found.Sources[0].IngredientIndex)
	assert.Equal(t, "whole milk", found.Sources[0].OriginalName)
}

func TestPantryRepositoryRoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewPantryRepository(db)
	ctx := context.Background()

	item := pantry.NewItem("rice", 5, "cup", pantry.TrackingStockLevel)
	item.Category = "grains"
	require.NoError(t, repo.Create(ctx, item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "rice", found.Name)
	assert.Equal(t, pantry.TrackingStockLevel, found.TrackingMode)
	assert.Equal(t, pantry.StockPlenty, found.StockLevel)

	found.StockLevel = pantry.StockLow
	require.NoError(t, repo.Save(ctx, found))

	found, err = repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, pantry.StockLow, found.StockLevel)
}

func TestPantryRepositorySaveAllAndFindAll(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewPantryRepository(db)
	ctx := context.Background()

	items := []*pantry.Item{
		pantry.NewItem("sugar", 2, "cup", pantry.TrackingUnits),
		pantry.NewItem("flour", 1, "kg", pantry.TrackingStockLevel),
	}
	require.NoError(t, repo.SaveAll(ctx, items))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "flour", all[0].Name, "listing is ordered by name")
	assert.Equal(t, "sugar", all[1].Name)
}

func TestPantryRepositoryDeleteMissing(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewPantryRepository(db)

	err := repo.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, errors.CodePantryItemNotFound, errors.GetCode(err))
}

func TestPendingJobRepository(t *testing.T) {
	db := setupDB(t)
	repo := persistence.NewPendingJobRepository(db)
	ctx := context.Background()

	job := &enrichment.PendingJob{
		JobID:           "job-1",
		Type:            enrichment.JobListPolish,
		RelatedEntityID: uuid.New(),
		StartedAt:       time.Now(),
	}
	require.NoError(t, repo.Create(ctx, job))

	found, err := repo.FindByType(ctx, enrichment.JobListPolish)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "job-1", found.JobID)

	found, err = repo.FindByType(ctx, enrichment.JobSubstitution)
	require.NoError(t, err, "absence is not an error")
	assert.Nil(t, found)

	require.NoError(t, repo.Delete(ctx, "job-1"))
	require.NoError(t, repo.Delete(ctx, "job-1"), "delete is idempotent")

	found, err = repo.FindByType(ctx, enrichment.JobListPolish)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func seedRecipe(t *testing.T, db *gormDB.DB, planID uuid.UUID, names ...string) *recipe.Recipe {
	t.Helper()
	rec := &recipe.Recipe{
		ID:      uuid.New(),
		PlanID:  planID,
		Name:    "Test Recipe",
		Version: 1,
		Steps:   []string{"Mix", "Cook"},
	}
	for _, name := range names {
		rec.Ingredients = append(rec.Ingredients, recipe.Ingredient{Name: name, Quantity: 1, Unit: "cup"})
	}
	require.NoError(t, db.Create(persistence.RecipeToModel(rec)).Error)
	return rec
}

func TestRecipeStoreRoundTrip(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)
	ctx := context.Background()
	planID := uuid.New()

	seeded := seedRecipe(t, db, planID, "flour", "sugar", "eggs")

	rec, err := store.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Recipe", rec.Name)
	require.Len(t, rec.Ingredients, 3)
	assert.Equal(t, "flour", rec.Ingredients[0].Name)
	assert.Equal(t, []string{"Mix", "Cook"}, rec.Steps)

	planned, err := store.PlannedRecipes(ctx, planID)
	require.NoError(t, err)
	require.Len(t, planned, 1)
}

func TestRecipeStoreUpdateIngredientBumpsVersion(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)
	ctx := context.Background()

	seeded := seedRecipe(t, db, uuid.New(), "milk")

	err := store.UpdateIngredient(ctx, seeded.ID, 0, recipe.Ingredient{
		Name: "oat milk", Quantity: 2, Unit: "l",
	})
	require.NoError(t, err)

	rec, err := store.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "oat milk", rec.Ingredients[0].Name)
	assert.Equal(t, 2.0, rec.Ingredients[0].Quantity)
	assert.Equal(t, int64(2), rec.Version)
}

func TestRecipeStoreUpdateIngredientOutOfRange(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)

	seeded := seedRecipe(t, db, uuid.New(), "milk")

	err := store.UpdateIngredient(context.Background(), seeded.ID, 5, recipe.Ingredient{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationFailed, errors.GetCode(err))
}

func TestRecipeStoreAppendIngredient(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)
	ctx := context.Background()

	seeded := seedRecipe(t, db, uuid.New(), "flour")

	index, err := store.AppendIngredient(ctx, seeded.ID, recipe.Ingredient{Name: "vanilla", Quantity: 1, Unit: "tsp"})
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	rec, err := store.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, rec.Ingredients, 2)
	assert.Equal(t, "vanilla", rec.Ingredients[1].Name)
}

func TestRecipeStoreRemoveIngredientClosesGap(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)
	ctx := context.Background()

	seeded := seedRecipe(t, db, uuid.New(), "flour", "sugar", "eggs")

	require.NoError(t, store.RemoveIngredient(ctx, seeded.ID, 1))

	rec, err := store.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.Len(t, rec.Ingredients, 2)
	assert.Equal(t, "flour", rec.Ingredients[0].Name)
	assert.Equal(t, "eggs", rec.Ingredients[1].Name, "later rows shift down to keep indexes dense")
}

func TestRecipeStoreUpdateNameAndSteps(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)
	ctx := context.Background()

	seeded := seedRecipe(t, db, uuid.New(), "flour")

	require.NoError(t, store.UpdateNameAndSteps(ctx, seeded.ID, "Better Recipe", []string{"Mix well"}))

	rec, err := store.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Better Recipe", rec.Name)
	assert.Equal(t, []string{"Mix well"}, rec.Steps)

	err = store.UpdateNameAndSteps(ctx, uuid.New(), "Nope", nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeRecipeNotFound, errors.GetCode(err))
}

func TestRecipeStoreRejectsUnknownSchemaVersion(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)

	model := &persistence.RecipeModel{
		ID:            uuid.New(),
		PlanID:        uuid.New(),
		Name:          "Legacy",
		SchemaVersion: 99,
	}
	require.NoError(t, db.Create(model).Error)

	_, err := store.FindByID(context.Background(), model.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeRecipeSchemaInvalid, errors.GetCode(err))
}

func TestRecipeStoreRejectsDuplicateIngredientIndex(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)

	recipeID := uuid.New()
	model := &persistence.RecipeModel{
		ID:            recipeID,
		PlanID:        uuid.New(),
		Name:          "Corrupt",
		SchemaVersion: 1,
	}
	require.NoError(t, db.Create(model).Error)
	for _, name := range []string{"flour", "sugar"} {
		row := &persistence.RecipeIngredientModel{RecipeID: recipeID, Idx: 0, Name: name, Quantity: 1}
		require.NoError(t, db.Create(row).Error)
	}

	_, err := store.FindByID(context.Background(), recipeID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeRecipeSchemaInvalid, errors.GetCode(err))
}

func TestRecipeStoreFindMissing(t *testing.T) {
	db := setupDB(t)
	store := persistence.NewRecipeStore(db)

	_, err := store.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, errors.CodeRecipeNotFound, errors.GetCode(err))
}

func TestSeedDatabaseIsIdempotent(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, sqlite.SeedDatabase(db))
	require.NoError(t, sqlite.SeedDatabase(db))

	var recipes int64
	db.Model(&persistence.RecipeModel{}).Count(&recipes)
	assert.Equal(t, int64(2), recipes)

	var pantryItems int64
	db.Model(&persistence.PantryItemModel{}).Count(&pantryItems)
	assert.Equal(t, int64(3), pantryItems)
}
