package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"season-engine/internal/config"
	"season-engine/internal/repository"
	"season-engine/internal/services"
	"season-engine/pkg/database"
	"season-engine/pkg/logging"
	"season-engine/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	dataDir := flag.String("data-dir", "./sample_data", "Directory containing temperature sample files")
	batchSize := flag.Int("batch-size", 1000, "Number of samples to insert in each batch")
	runTicks := flag.Bool("run-ticks", false, "Replay daily ticks over the ingested date range")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("season-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting sample ingestion", logging.Fields{
		"version":    "1.0.0",
		"data_dir":   *dataDir,
		"batch_size": *batchSize,
		"sensor_id":  cfg.Engine.SensorID,
		"run_ticks":  *runTicks,
	})

	metricsCollector := metrics.NewCollector("season_ingester")

	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	seasonRepo := repository.NewSeasonRepository(db, logger, metricsCollector)

	ingestionService := services.NewIngestionService(seasonRepo, logger, metricsCollector)

	result, err := ingestionService.IngestDirectory(ctx, *dataDir, cfg.Engine.SensorID, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Missing Records:    %d\n", result.MissingRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	if *runTicks {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("REPLAYING DAILY TICKS")
		fmt.Println(strings.Repeat("=", 80))

		if err := replayTicks(ctx, seasonRepo, logger, metricsCollector, cfg.Engine.SensorID); err != nil {
			logger.Error(ctx, "[REPLAY_ERROR] Tick replay failed", logging.Fields{}, err)
			fmt.Printf("Tick replay failed: %v\n", err)
		} else {
			fmt.Println("Tick replay completed successfully")
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"missing_records":    result.MissingRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})
}

// replayTicks runs the daily tick for every day in the ingested range,
// oldest first, rebuilding counters and the arrival ledger from the
// historical feed.
func replayTicks(ctx context.Context, repo repository.SeasonRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, sensorID string) error {
	first, last, err := repo.GetSampleDateRange(ctx, sensorID)
	if err != nil {
		return fmt.Errorf("failed to determine sample date range: %w", err)
	}

	tickService := services.NewTickService(repo, logger, metricsCollector, sensorID)

	days := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		summary, err := tickService.ProcessDay(ctx, day)
		if err != nil {
			return fmt.Errorf("tick failed for %s: %w", day.Format("2006-01-02"), err)
		}
		days++

		if !summary.Skipped {
			fmt.Printf("%s  mean %6.1f°C  active: %s\n",
				summary.Day.Format("2006-01-02"),
				summary.Mean.MeanCelsius,
				summary.ActiveSeason)
		}
	}

	fmt.Printf("\nProcessed %d days (%s to %s)\n",
		days, first.Format("2006-01-02"), last.Format("2006-01-02"))

	return nil
}
