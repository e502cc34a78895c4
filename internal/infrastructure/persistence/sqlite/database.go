// Package sqlite provides database setup and demo seeding
package sqlite

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	gormModels "github.com/grocerly/v1/internal/infrastructure/persistence/gorm"
)

// SetupDatabase opens the configured database and runs auto-migration.
// SQLite is the default; postgres is available for shared deployments.
func SetupDatabase(driver, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		// Use in-memory database if no path provided
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run auto-migration
	err = db.AutoMigrate(
		&gormModels.ShoppingItemModel{},
		&gormModels.IngredientSourceModel{},
		&gormModels.PantryItemModel{},
		&gormModels.PendingJobModel{},
		&gormModels.RecipeModel{},
		&gormModels.RecipeIngredientModel{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates the database with a small demo plan
func SeedDatabase(db *gorm.DB) error {
	// Check if data already exists
	var recipeCount int64
	db.Model(&gormModels.RecipeModel{}).Count(&recipeCount)
	if recipeCount > 0 {
		return nil // Already seeded
	}

	planID := uuid.New()

	demoRecipes := []gormModels.RecipeModel{
		{
			PlanID:        planID,
			Name:          "Chicken Fried Rice",
			Version:       1,
			SchemaVersion: 1,
			Steps: gormModels.StringSlice{
				"Cook the rice and let it cool",
				"Stir-fry the chicken until golden",
				"Add rice, soy sauce, and peas; toss over high heat",
			},
			Ingredients: []gormModels.RecipeIngredientModel{
				{Idx: 0, Name: "rice", Quantity: 2, Unit: "cup"},
				{Idx: 1, Name: "chicken breast", Quantity: 500, Unit: "g", Preparation: "diced"},
				{Idx: 2, Name: "soy sauce", Quantity: 3, Unit: "tbsp"},
				{Idx: 3, Name: "frozen peas", Quantity: 1, Unit: "cup"},
			},
		},
		{
			PlanID:        planID,
			Name:          "Tomato Basil Pasta",
			Version:       1,
			SchemaVersion: 1,
			Steps: gormModels.StringSlice{
				"Boil pasta in salted water",
				"Simmer tomatoes with garlic and olive oil",
				"Toss pasta in the sauce and finish with basil leaves",
			},
			Ingredients: []gormModels.RecipeIngredientModel{
				{Idx: 0, Name: "pasta", Quantity: 400, Unit: "g"},
				{Idx: 1, Name: "canned tomatoes", Quantity: 800, Unit: "g", Preparation: "crushed"},
				{Idx: 2, Name: "garlic cloves", Quantity: 3, Unit: ""},
				{Idx: 3, Name: "fresh basil leaves", Quantity: 1, Unit: "bunch"},
				{Idx: 4, Name: "olive oil", Quantity: 2, Unit: "tbsp"},
			},
		},
	}

	for _, rec := range demoRecipes {
		if err := db.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create demo recipe: %w", err)
		}
	}

	demoPantry := []gormModels.PantryItemModel{
		{
			Name:              "rice",
			QuantityInitial:   5,
			QuantityRemaining: 4,
			Unit:              "cup",
			Category:          "grains",
			TrackingMode:      "stock_level",
			StockLevel:        "plenty",
		},
		{
			Name:              "olive oil",
			QuantityInitial:   1,
			QuantityRemaining: 1,
			Unit:              "bottle",
			Category:          "condiments",
			TrackingMode:      "stock_level",
			StockLevel:        "some",
		},
		{
			Name:              "chicken breast",
			QuantityInitial:   300,
			QuantityRemaining: 300,
			Unit:              "g",
			Category:          "protein",
			TrackingMode:      "units",
			Perishable:        true,
		},
	}

	for _, item := range demoPantry {
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create demo pantry item: %w", err)
		}
	}

	return nil
}
