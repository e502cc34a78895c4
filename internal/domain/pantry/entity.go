// Package pantry contains the domain model for tracked pantry inventory.
// Availability is recorded in one of two modes: a precise remaining
// quantity (Units) or a coarse qualitative level (StockLevel); which
// field is authoritative depends on the mode.
package pantry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrackingMode selects how an item's availability is recorded.
type TrackingMode string

const (
	// TrackingUnits means QuantityRemaining is authoritative.
	TrackingUnits TrackingMode = "units"
	// TrackingStockLevel means StockLevel is authoritative and the
	// quantity fields are advisory only.
	TrackingStockLevel TrackingMode = "stock_level"
)

// ParseTrackingMode maps an externally-supplied mode string onto a known
// mode, tolerating casing and surrounding space. Anything else reports
// false so the caller can fall back to the classifier instead of storing
// an invalid mode.
func ParseTrackingMode(s string) (TrackingMode, bool) {
	switch TrackingMode(strings.ToLower(strings.TrimSpace(s))) {
	case TrackingUnits:
		return TrackingUnits, true
	case TrackingStockLevel:
		return TrackingStockLevel, true
	default:
		return "", false
	}
}

// StockLevel is a coarse availability level with the total order
// Plenty > Some > Low > Out.
type StockLevel int

const (
	StockOut StockLevel = iota
	StockLow
	StockSome
	StockPlenty
)

// String returns the level's stored representation.
func (l StockLevel) String() string {
	switch l {
	case StockPlenty:
		return "plenty"
	case StockSome:
		return "some"
	case StockLow:
		return "low"
	default:
		return "out"
	}
}

// ParseStockLevel maps a stored representation back to a level.
// Unknown values parse as StockOut, the conservative floor.
func ParseStockLevel(s string) StockLevel {
	switch s {
	case "plenty":
		return StockPlenty
	case "some":
		return StockSome
	case "low":
		return StockLow
	default:
		return StockOut
	}
}

// StepDown returns the next level down the total order. No-op at the floor.
func (l StockLevel) StepDown() StockLevel {
	if l <= StockOut {
		return StockOut
	}
	return l - 1
}

// Item is a tracked pantry record.
type Item struct {
	ID                uuid.UUID
	Name              string
	QuantityInitial   float64
	QuantityRemaining float64
	Unit              string
	Category          string
	TrackingMode      TrackingMode
	StockLevel        StockLevel
	Perishable        bool
	Expiry            *time.Time
	DateAdded         time.Time
	LastUpdated       time.Time
	LastStockCheck    *time.Time
}

// NewItem creates a pantry item with quantities clamped to the
// QuantityRemaining <= QuantityInitial invariant.
func NewItem(name string, quantity float64, unit string, mode TrackingMode) *Item {
	now := time.Now()
	item := &Item{
		ID:                uuid.New(),
		Name:              name,
		QuantityInitial:   quantity,
		QuantityRemaining: quantity,
		Unit:              unit,
		TrackingMode:      mode,
		DateAdded:         now,
		LastUpdated:       now,
	}
	if mode == TrackingStockLevel {
		item.StockLevel = StockPlenty
	}
	return item
}

// Sufficient reports whether the item counts as "enough on hand" so the
// ingredient can be suppressed from a shopping list. lowStockFraction is
// the remaining/initial ratio below which a Units item is considered low.
func (i *Item) Sufficient(lowStockFraction float64) bool {
	if i.TrackingMode == TrackingStockLevel {
		return i.StockLevel >= StockSome
	}
	if i.QuantityRemaining <= 0 {
		return false
	}
	if i.QuantityInitial <= 0 {
		// no baseline to judge low stock against
		return false
	}
	return i.QuantityRemaining/i.QuantityInitial >= lowStockFraction
}

// Deduct reduces the remaining quantity of a Units item, flooring at
// zero. StockLevel items ignore quantity deduction; their availability
// moves via ReduceStockLevel.
func (i *Item) Deduct(amount float64) {
	if i.TrackingMode != TrackingUnits || amount <= 0 {
		return
	}
	i.QuantityRemaining -= amount
	if i.QuantityRemaining < 0 {
		i.QuantityRemaining = 0
	}
	i.LastUpdated = time.Now()
}

// Restock tops a Units item back up, or raises a StockLevel item to
// Plenty; the initial quantity grows so the invariant holds.
func (i *Item) Restock(quantity float64) {
	now := time.Now()
	if i.TrackingMode == TrackingStockLevel {
		i.StockLevel = StockPlenty
	} else {
		i.QuantityRemaining += quantity
		if i.QuantityRemaining > i.QuantityInitial {
			i.QuantityInitial = i.QuantityRemaining
		}
	}
	i.LastUpdated = now
}

// SetStockLevel records a user-observed level and stamps the check time.
func (i *Item) SetStockLevel(level StockLevel) {
	now := time.Now()
	i.StockLevel = level
	i.LastStockCheck = &now
	i.LastUpdated = now
}

// ReduceStockLevel steps the level down one notch. No-op at Out.
func (i *Item) ReduceStockLevel() {
	i.StockLevel = i.StockLevel.StepDown()
	i.LastUpdated = time.Now()
}

// ExpiresWithin reports whether a perishable item expires inside the
// window starting at now.
func (i *Item) ExpiresWithin(now time.Time, window time.Duration) bool {
	if !i.Perishable || i.Expiry == nil {
		return false
	}
	return !i.Expiry.After(now.Add(window))
}
