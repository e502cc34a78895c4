package pantry

import "strings"

// Classifier assigns a tracking mode to a newly pantried line. The
// keyword tables are data, not control flow, so new terms can be added
// without touching call sites. Keyword matches win over the category
// fallback; the default is Units.
type Classifier struct {
	stockLevelKeywords []string
	unitsKeywords      []string
	categoryModes      map[string]TrackingMode
}

// DefaultClassifier returns the classifier with the built-in tables.
func DefaultClassifier() *Classifier {
	return &Classifier{
		stockLevelKeywords: []string{
			// bulk staples
			"flour", "sugar", "rice", "oats", "pasta", "salt", "cereal",
			// liquids
			"oil", "vinegar", "sauce", "syrup", "honey", "stock", "broth",
			"juice",
			// dairy poured or spread rather than counted
			"milk", "cream", "butter", "yogurt",
		},
		unitsKeywords: []string{
			// discrete produce
			"apple", "banana", "orange", "lemon", "lime", "onion", "potato",
			"tomato", "pepper", "avocado", "egg",
			// portioned protein
			"chicken breast", "thigh", "steak", "fillet", "chop", "sausage",
			// packaged counts
			"can", "tin", "jar", "bar", "roll", "loaf",
		},
		categoryModes: map[string]TrackingMode{
			"dairy":      TrackingStockLevel,
			"condiments": TrackingStockLevel,
			"baking":     TrackingStockLevel,
			"beverages":  TrackingStockLevel,
			"produce":    TrackingUnits,
			"meat":       TrackingUnits,
			"seafood":    TrackingUnits,
			"bakery":     TrackingUnits,
			"frozen":     TrackingUnits,
		},
	}
}

// Classify picks the tracking mode for an item name and category.
func (c *Classifier) Classify(name, category string) TrackingMode {
	// pad so keywords match whole words only ("oil" must not hit "boiled")
	lowered := " " + strings.ToLower(name) + " "

	for _, kw := range c.stockLevelKeywords {
		if strings.Contains(lowered, " "+kw+" ") {
			return TrackingStockLevel
		}
	}
	for _, kw := range c.unitsKeywords {
		if strings.Contains(lowered, " "+kw+" ") {
			return TrackingUnits
		}
	}

	if mode, ok := c.categoryModes[strings.ToLower(category)]; ok {
		return mode
	}
	return TrackingUnits
}
