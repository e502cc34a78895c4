// Package settings provides the read-only user preference surface the
// planner core consumes.
package settings

import (
	"context"

	"github.com/grocerly/v1/internal/infrastructure/config"
	"github.com/grocerly/v1/internal/ports/outbound"
)

// Provider serves user preferences straight from configuration. The
// core only reads preferences; whoever owns the settings screen owns
// the writes.
type Provider struct {
	unitSystem string
}

// NewProvider creates a new configuration-backed settings provider
func NewProvider(cfg *config.Config) outbound.SettingsProvider {
	return &Provider{unitSystem: cfg.Settings.UnitSystem}
}

// UnitSystem returns "metric" or "imperial"
func (p *Provider) UnitSystem(ctx context.Context) string {
	if p.unitSystem == "" {
		return "metric"
	}
	return p.unitSystem
}
