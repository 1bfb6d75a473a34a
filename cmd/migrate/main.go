package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	apporders "github.com/Apurer/kitchenpos-api/internal/app/orders"
	platformpostgres "github.com/Apurer/kitchenpos-api/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := apporders.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	_, closeDB, err := platformpostgres.Open(ctx, platformpostgres.Options{
		DSN:          cfg.PostgresDSN,
		MaxOpenConns: cfg.PostgresMaxOpenConns,
		Migrate:      true,
	})
	if err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	defer closeDB()
	logger.Info("schema migration completed")
}
