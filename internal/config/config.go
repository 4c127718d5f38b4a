package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinColors is the smallest palette that still gives every participant a distinct color.
const MinColors = 4

// GameConfig holds the per-match tunables read from the Nakama runtime environment.
type GameConfig struct {
	TickRate      int           `env:"kitchenrush_tick_rate"      envDefault:"10"`
	Countdown     time.Duration `env:"kitchenrush_countdown"      envDefault:"3s"`
	MatchDuration time.Duration `env:"kitchenrush_match_duration" envDefault:"90s"`
	OrderInterval time.Duration `env:"kitchenrush_order_interval" envDefault:"4s"`
	MaxOrders     int           `env:"kitchenrush_max_orders"     envDefault:"4"`
	// Colors is the player palette; participants store an index into it.
	Colors []string `env:"kitchenrush_colors" envDefault:"#3b82f6,#ef4444,#22c55e,#eab308,#a855f7,#06b6d4,#f97316,#f5f5f5" envSeparator:","`

	IdentitySecret string        `env:"kitchenrush_identity_secret"`
	IdentityIssuer string        `env:"kitchenrush_identity_issuer" envDefault:"kitchenrush"`
	IdentityTTL    time.Duration `env:"kitchenrush_identity_ttl"    envDefault:"1h"`

	// CatalogPath points at a kitchen definition file. Empty uses the embedded default.
	CatalogPath string `env:"kitchenrush_catalog_path"`
}

// Load parses the runtime environment map into a GameConfig. Keys missing from vars take
// their defaults; the process environment is never consulted.
func Load(vars map[string]string) (*GameConfig, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	var cfg GameConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the match loop cannot run with.
func (c *GameConfig) Validate() error {
	if c.TickRate < 1 || c.TickRate > 60 {
		return fmt.Errorf("tick rate %d out of range 1..60", c.TickRate)
	}
	if c.Countdown <= 0 || c.MatchDuration <= 0 || c.OrderInterval <= 0 {
		return fmt.Errorf("countdown, match duration and order interval must be positive")
	}
	if c.MaxOrders < 1 {
		return fmt.Errorf("max orders %d must be at least 1", c.MaxOrders)
	}
	if len(c.Colors) < MinColors {
		return fmt.Errorf("palette has %d colors, need at least %d", len(c.Colors), MinColors)
	}
	if c.IdentitySecret != "" && c.IdentityTTL <= 0 {
		return fmt.Errorf("identity ttl must be positive")
	}
	return nil
}

// IdentityEnabled reports whether identity tokens are issued and verified.
func (c *GameConfig) IdentityEnabled() bool {
	return c.IdentitySecret != ""
}

// TickInterval is the simulated time between two match loop calls.
func (c *GameConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
