package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"eventstore-sqlite/internal/config"
	"eventstore-sqlite/internal/logger"
	"eventstore-sqlite/internal/pipeline"
	"eventstore-sqlite/pkg/utils"
)

const version = "eventstore-sqlite-converter 1.0.0"

func main() {
	// Optional .env file; environment variables win.
	godotenv.Load()

	dbPath := flag.String("db", config.DefaultDBPath, "path to the SQLite database file")
	batchSize := flag.Int("batch-size", config.DefaultBatchSize, "number of events per batch")
	commitFrequency := flag.Int("commit-frequency", config.DefaultCommitFrequency, "commit to the database every N batches")
	skipValidation := flag.Bool("skip-validation", false, "skip event data validation (faster but less safe)")
	skipIndexes := flag.Bool("skip-indexes", false, "skip creating database indexes (faster initial import)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	uri := os.Getenv("EVENTSTORE_URI")
	if uri == "" {
		fmt.Fprintln(os.Stderr, "Error: EVENTSTORE_URI environment variable is required. Set it in your .env file or environment.")
		os.Exit(1)
	}

	cfg, err := config.New(config.Config{
		EventStoreURI:   uri,
		DBPath:          *dbPath,
		BatchSize:       *batchSize,
		CommitFrequency: *commitFrequency,
		ValidateData:    !*skipValidation,
		CreateIndexes:   !*skipIndexes,
	})
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.Convert(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			logger.Info("conversion interrupted by user")
			fmt.Println("\nConversion interrupted by user")
		} else {
			logger.Error("conversion failed", "error", err)
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("CONVERSION COMPLETED SUCCESSFULLY")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Database file: %s\n", cfg.DBPath)
	fmt.Printf("Total events: %d\n", stats.TotalEvents)
	fmt.Printf("Duration: %.2f seconds\n", stats.DurationSeconds)
	fmt.Printf("Rate: %.1f events/second\n", stats.EventsPerSecond)
	fmt.Printf("Database size: %.2f MB\n", utils.MiB(stats.DatabaseSizeBytes))
	if stats.SkippedEvents > 0 {
		fmt.Printf("Skipped events: %d\n", stats.SkippedEvents)
	}
}
