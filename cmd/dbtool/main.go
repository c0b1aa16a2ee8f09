package main

import (
	"context"
	"database/sql"
	"fmt"
	"freight-tariff-service/internal/adapters/fleet"
	"freight-tariff-service/internal/adapters/repositories"
	"freight-tariff-service/internal/adapters/tariffs"
	"freight-tariff-service/internal/config"
	"freight-tariff-service/internal/platform/db"
	"freight-tariff-service/migrations"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

// dbtool applies the schema migrations and loads the tariff and vehicle
// catalog. Usage: dbtool [migrate|seed|all]; the default is all.
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	cmd := "all"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx := context.Background()
	switch cmd {
	case "migrate":
		err = migrate(ctx, cfg.DatabaseURL)
	case "seed":
		err = seed(ctx, cfg.DatabaseURL, cfg.SeedPath)
	case "all":
		if err = migrate(ctx, cfg.DatabaseURL); err == nil {
			err = seed(ctx, cfg.DatabaseURL, cfg.SeedPath)
		}
	default:
		err = fmt.Errorf("unknown command %q, want migrate, seed or all", cmd)
	}
	if err != nil {
		slog.Error("dbtool failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, databaseURL string) error {
	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer sqlDB.Close()

	return applyMigrations(ctx, sqlDB)
}

func applyMigrations(ctx context.Context, sqlDB *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	for _, r := range results {
		slog.Info("migration applied", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	slog.Info("schema ready", "applied", len(results))
	return nil
}

func seed(ctx context.Context, databaseURL, seedPath string) error {
	s, err := repositories.LoadSeedFromJSON(seedPath)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	pool, err := db.OpenPool(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer pool.Close()

	if err := s.Apply(ctx, tariffs.NewPgCatalog(pool), fleet.NewPgFleet(pool)); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	slog.Info("seeding complete", "path", seedPath, "tariffs", len(s.Tariffs), "vehicles", len(s.Vehicles))
	return nil
}
