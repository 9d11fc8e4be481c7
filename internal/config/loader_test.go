package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/remoterob/fish-bingo/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Point the .env layer somewhere empty so a developer's file is not picked up.
		_ = os.Setenv(config.EnvEnvFile, filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.ExemptSlugs, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FISHBINGO_ADDR", ":8080")
			_ = os.Setenv("FISHBINGO_MAX_LEADERBOARD_LIMIT", "25")
			_ = os.Setenv("FISHBINGO_EXEMPT_SLUGS", "rescue,kina")
			_ = os.Setenv("FISHBINGO_STORE_DRIVER", "sqlite")
			_ = os.Setenv("FISHBINGO_STORE_DSN", "file:bingo.db")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.ExemptSlugs, convey.ShouldResemble, []string{"rescue", "kina"})
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file:bingo.db")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
log_format: json
species_catalog_path: /srv/species.json
exempt_slugs:
  - dishes
`)
			_ = os.Setenv(config.EnvConfig, tmpFile)
			_ = os.Setenv("FISHBINGO_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.SpeciesCatalogPath, convey.ShouldEqual, "/srv/species.json")
				convey.So(cfg.BonusCatalogPath, convey.ShouldEqual, "data/bonuses.json")
				convey.So(cfg.ExemptSlugs, convey.ShouldResemble, []string{"dishes"})
			})
		})

		convey.Convey("When a .env file is present", func() {
			envFile := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(envFile, []byte("FISHBINGO_ADDR=:7070\nFISHBINGO_LOG_LEVEL=debug\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvEnvFile, envFile)
			_ = os.Setenv("FISHBINGO_LOG_LEVEL", "warn")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills gaps without overriding the real environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv(config.EnvConfig, createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvConfig, "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("FISHBINGO_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FISHBINGO_MAX_LEADERBOARD_LIMIT", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		config.EnvConfig,
		config.EnvEnvFile,
		"FISHBINGO_ADDR",
		"FISHBINGO_LOG_LEVEL",
		"FISHBINGO_MAX_LEADERBOARD_LIMIT",
		"FISHBINGO_EXEMPT_SLUGS",
		"FISHBINGO_STORE_DRIVER",
		"FISHBINGO_STORE_DSN",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "fishbingo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
