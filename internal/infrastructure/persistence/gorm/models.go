// Package gorm provides GORM model definitions and repository
// implementations for the planner core.
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShoppingItemModel represents the GORM model for shopping list items
type ShoppingItemModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlanID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Name     string    `gorm:"type:varchar(255);not null;index"`
	Quantity float64   `gorm:"default:0"`
	Unit     string    `gorm:"type:varchar(50)"`
	Category string    `gorm:"type:varchar(50);default:'uncategorized';index"`

	// DisplayQuantity overrides Quantity/Unit once enrichment has run
	DisplayQuantity string `gorm:"type:varchar(100)"`

	Checked   bool `gorm:"default:false;index"`
	InCart    bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Sources []IngredientSourceModel `gorm:"foreignKey:ShoppingItemID;constraint:OnDelete:CASCADE"`
}

// IngredientSourceModel represents the GORM model for provenance records
type IngredientSourceModel struct {
	ID               uuid.UUID `gorm:"type:char(36);primaryKey"`
	ShoppingItemID   uuid.UUID `gorm:"type:char(36);not null;index"`
	RecipeID         uuid.UUID `gorm:"type:char(36);not null;index"`
	IngredientIndex  int       `gorm:"not null"`
	OriginalName     string    `gorm:"type:varchar(255);not null"`
	OriginalQuantity float64   `gorm:"default:0"`
	OriginalUnit     string    `gorm:"type:varchar(50)"`
}

// PantryItemModel represents the GORM model for pantry items
type PantryItemModel struct {
	ID                uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name              string    `gorm:"type:varchar(255);not null;index"`
	QuantityInitial   float64   `gorm:"default:0"`
	QuantityRemaining float64   `gorm:"default:0"`
	Unit              string    `gorm:"type:varchar(50)"`
	Category          string    `gorm:"type:varchar(50);index"`
	TrackingMode      string    `gorm:"type:varchar(20);not null;default:'units'"`
	StockLevel        string    `gorm:"type:varchar(10);default:'out'"`
	Perishable        bool      `gorm:"default:false"`
	Expiry            *time.Time
	DateAdded         time.Time
	LastUpdated       time.Time
	LastStockCheck    *time.Time
}

// PendingJobModel represents the GORM model for in-flight enrichment jobs
type PendingJobModel struct {
	JobID           string    `gorm:"type:varchar(100);primaryKey"`
	JobType         string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	RelatedEntityID uuid.UUID `gorm:"type:char(36)"`
	StartedAt       time.Time `gorm:"index"`
}

// RecipeModel represents the GORM model for planned recipes
type RecipeModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlanID        uuid.UUID `gorm:"type:char(36);not null;index"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Version       int64     `gorm:"default:1"`
	SchemaVersion int       `gorm:"default:1"`
	Steps         StringSlice `gorm:"type:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Relationships
	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredientModel represents one structured ingredient row.
// Ingredients are explicit rows with explicit fields, not JSON blobs, so
// a malformed row is a typed schema error instead of a silent empty list.
type RecipeIngredientModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Idx         int       `gorm:"not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Quantity    float64   `gorm:"default:0"`
	Unit        string    `gorm:"type:varchar(50)"`
	Preparation string    `gorm:"type:varchar(100)"`
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// BeforeCreate hook for ShoppingItemModel
func (m *ShoppingItemModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for IngredientSourceModel
func (m *IngredientSourceModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for PantryItemModel
func (m *PantryItemModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeModel
func (m *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for RecipeIngredientModel
func (m *RecipeIngredientModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (ShoppingItemModel) TableName() string {
	return "shopping_items"
}

func (IngredientSourceModel) TableName() string {
	return "ingredient_sources"
}

func (PantryItemModel) TableName() string {
	return "pantry_items"
}

func (PendingJobModel) TableName() string {
	return "pending_jobs"
}

func (RecipeModel) TableName() string {
	return "recipes"
}

func (RecipeIngredientModel) TableName() string {
	return "recipe_ingredients"
}
