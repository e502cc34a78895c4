package enrichment

// RawLine is one locally-aggregated shopping line sent for enrichment.
type RawLine struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// PantrySnapshotEntry is the pantry state shipped with a polish request
// so the service can subtract what is already on hand.
type PantrySnapshotEntry struct {
	Name       string  `json:"name"`
	Remaining  float64 `json:"remaining"`
	Unit       string  `json:"unit"`
	StockLevel string  `json:"stock_level,omitempty"`
}

// PolishRequest asks the service to consolidate, unit-convert, and
// categorize a raw list.
type PolishRequest struct {
	Lines      []RawLine             `json:"lines"`
	Pantry     []PantrySnapshotEntry `json:"pantry"`
	UnitSystem string                `json:"unit_system"`
}

// PolishedLine is one consolidated output line. The service may merge or
// split input lines freely; no correspondence to input order is implied.
type PolishedLine struct {
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	Category        string  `json:"category"`
	DisplayQuantity string  `json:"display_quantity"`
}

// CategorizeRequest asks the service to classify checked lines for
// pantry insertion.
type CategorizeRequest struct {
	Lines []RawLine `json:"lines"`
}

// CategorizedLine carries category, tracking mode, and an expiry
// estimate for one purchased line.
type CategorizedLine struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	TrackingMode   string `json:"tracking_mode"`
	ExpiryEstimate int    `json:"expiry_estimate_days"`
	Perishable     bool   `json:"perishable"`
}

// SubstitutionRequest asks the service to rewrite a recipe around a
// substituted ingredient.
type SubstitutionRequest struct {
	RecipeName       string   `json:"recipe_name"`
	OriginalName     string   `json:"original_name"`
	OriginalQuantity float64  `json:"original_quantity"`
	OriginalUnit     string   `json:"original_unit"`
	NewName          string   `json:"new_name"`
	Steps            []string `json:"steps"`
}

// SubstitutionResult is the rewritten recipe material.
type SubstitutionResult struct {
	UpdatedRecipeName  string   `json:"updated_recipe_name"`
	UpdatedName        string   `json:"updated_name"`
	UpdatedQuantity    float64  `json:"updated_quantity"`
	UpdatedUnit        string   `json:"updated_unit"`
	UpdatedPreparation string   `json:"updated_preparation"`
	RewrittenSteps     []string `json:"rewritten_steps"`
	Notes              string   `json:"notes"`
}
