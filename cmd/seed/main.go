package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simaogato/portfolio-backend/internal/adapter/csvloader"
	"github.com/simaogato/portfolio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-backend/internal/config"
	"github.com/simaogato/portfolio-backend/internal/usecase/seeder"
	"github.com/simaogato/portfolio-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	path := flag.String("file", cfg.CSVFilePath, "price dump to load, a local path or s3://bucket/key")
	batchSize := flag.Int("batch-size", cfg.CSVBatchSize, "rows per database batch")
	flag.Parse()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	var client csvloader.ObjectGetter
	if csvloader.IsS3Path(*path) {
		s3Client, err := csvloader.NewS3Client(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		client = s3Client
	}

	file, err := csvloader.Open(ctx, *path, client)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to open price dump")
	}
	defer file.Close()

	marketSeeder := seeder.NewMarketDataSeeder(
		postgres.NewTradingItemRepository(db),
		postgres.NewHistoricalPriceRepository(db),
		log,
	)

	start := time.Now()
	stats, err := marketSeeder.Seed(ctx, csvloader.NewLoader(file, *batchSize))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed market data")
	}

	log.Info().
		Int("batches", stats.Batches).
		Int("rows", stats.Rows).
		Dur("elapsed", time.Since(start)).
		Msg("Market data seeded successfully")
}
