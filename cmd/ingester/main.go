package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"waste-platform/internal/config"
	"waste-platform/internal/loader"
	"waste-platform/internal/repository"
	"waste-platform/internal/services"
	"waste-platform/pkg/database"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	csvPath := flag.String("csv", "", "CSV file to archive (defaults to configured data path)")
	batchSize := flag.Int("batch-size", 500, "Number of records to insert in each batch")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if !cfg.Database.Enabled() {
		fmt.Fprintln(os.Stderr, "Archive database is not configured (set WASTE_DATABASE_HOST)")
		os.Exit(1)
	}

	path := *csvPath
	if path == "" {
		path = cfg.Data.CSVPath
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("waste-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting waste dataset archival", logging.Fields{
		"version":    "1.0.0",
		"csv_path":   path,
		"batch_size": *batchSize,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("waste_ingester")

	// Initialize database
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

	// Initialize repository and archive service
	wasteRepo := repository.NewWasteRepository(db, logger, metricsCollector)
	csvLoader := loader.NewLoader(logger, metricsCollector)
	archiveService := services.NewArchiveService(csvLoader, wasteRepo, logger, metricsCollector)

	// Archive the dataset
	result, err := archiveService.ArchiveFile(ctx, path, *batchSize)
	if err != nil {
		logger.Fatal(ctx, "[ARCHIVE_ERROR] Archival failed", logging.Fields{
			"csv_path": path,
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("ARCHIVAL COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Rows:       %d\n", result.TotalRows)
	fmt.Printf("Loaded Rows:      %d\n", result.LoadedRows)
	fmt.Printf("Skipped Rows:     %d\n", result.SkippedRows)
	fmt.Printf("Archived Records: %d\n", result.ArchivedRecords)
	fmt.Printf("Duration:         %v\n", result.Duration)
	if result.Duration.Seconds() > 0 {
		fmt.Printf("Records/Second:   %.2f\n", float64(result.ArchivedRecords)/result.Duration.Seconds())
	}

	if regions, err := wasteRepo.ListRegions(ctx); err == nil {
		fmt.Printf("Archive Regions:  %d (%s)\n", len(regions), strings.Join(regions, ", "))
	}

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

	logger.Info(ctx, "[INGESTER_COMPLETE] Archival completed successfully", logging.Fields{
		"total_rows":       result.TotalRows,
		"archived_records": result.ArchivedRecords,
		"skipped_rows":     result.SkippedRows,
		"duration_seconds": result.Duration.Seconds(),
	})
}
