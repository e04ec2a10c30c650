package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/polkiloo/checkout/internal/config"
	"github.com/polkiloo/checkout/internal/logger"
	"github.com/polkiloo/checkout/internal/storage/postgres"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURI == "" {
		return fmt.Errorf("database uri is required (-d or DATABASE_URI)")
	}
	return postgres.Migrate(cfg.DatabaseURI, log)
}
