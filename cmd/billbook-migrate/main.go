// Command billbook-migrate brings the schema up to date and seeds the
// author key. The key itself is never logged.
package main

import (
	"context"
	"os"
	"time"

	"billbook/internal/backend"
	"billbook/internal/cli"
	"billbook/internal/log"
)

const seedTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentMigrate)

	backendCfg, err := backend.FromAppConfig(cfg, cli.Dates(cfg))
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	// Opening a SQL backend applies pending migrations.
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Migration failed", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	defer result.Close()
	logger.Info("Schema up to date", log.FieldBackend, cfg.DataBackend)

	if result.Seeder == nil {
		logger.Info("Backend takes its author key from configuration, nothing to seed", log.FieldBackend, cfg.DataBackend)
		return
	}

	key, isDefault := cfg.AuthorKeyToSeed()
	if isDefault {
		logger.Warn("INITIAL_AUTHOR_KEY not set, seeding the default author key; change it before exposing the dashboard")
	}

	res, err := result.Seeder.SeedAuthorKey(ctx, key, cfg.UpdateAuthorKey)
	if err != nil {
		logger.Error("Author key seeding failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Author key seeding finished",
		"result", string(res),
		"default_key", isDefault,
		"overwrite", cfg.UpdateAuthorKey)
}
