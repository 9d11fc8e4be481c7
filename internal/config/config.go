// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers files and environment on top of those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Store drivers understood by the repository layer.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver picks the claim/profile store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the database/sql data source name for sql drivers.
	StoreDSN string `koanf:"store_dsn"`

	// SpeciesCatalogPath and BonusCatalogPath point at the catalog JSON files.
	// BonusCatalogPath may be empty.
	SpeciesCatalogPath string `koanf:"species_catalog_path"`
	BonusCatalogPath   string `koanf:"bonus_catalog_path"`

	// ExemptSlugs lists species that never earn the first-time multiplier.
	// Nil means the scoring defaults; an empty list disables exemptions.
	ExemptSlugs []string `koanf:"exempt_slugs"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CatalogMaxDepth bounds nesting in catalog files.
	CatalogMaxDepth int `koanf:"catalog_max_depth"`
}

// New creates a Config with defaults. Context is accepted first to satisfy the
// project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		StoreDriver:         DriverMemory,
		SpeciesCatalogPath:  "data/species.json",
		BonusCatalogPath:    "data/bonuses.json",
		MaxLeaderboardLimit: 100,
		CatalogMaxDepth:     32,
	}
}

// Validate checks the config for values the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.StoreDSN) == "" {
			return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	// An empty bonus path runs the season without bonuses.
	if strings.TrimSpace(c.SpeciesCatalogPath) == "" {
		return fmt.Errorf("%w: species_catalog_path must not be empty", ErrInvalidConfig)
	}
	if c.MaxLeaderboardLimit <= 0 {
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	if c.CatalogMaxDepth <= 0 {
		return fmt.Errorf("%w: catalog_max_depth must be positive", ErrInvalidConfig)
	}
	return nil
}
