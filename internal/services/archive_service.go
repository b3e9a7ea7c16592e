package services

import (
	"context"
	"fmt"
	"time"

	"waste-platform/internal/loader"
	"waste-platform/internal/repository"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

// ArchiveService copies the CSV dataset into the Postgres archive
type ArchiveService struct {
	loader  *loader.Loader
	repo    repository.WasteRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// ArchiveResult contains archival statistics
type ArchiveResult struct {
	TotalRows       int
	LoadedRows      int
	SkippedRows     int
	ArchivedRecords int
	Duration        time.Duration
	Errors          []string
}

// NewArchiveService creates a new archive service
func NewArchiveService(csvLoader *loader.Loader, repo repository.WasteRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ArchiveService {
	return &ArchiveService{
		loader:  csvLoader,
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ArchiveFile loads the CSV at path and batch-inserts its records into the
// archive. Bad input rows are already dropped by the loader; batch failures
// are collected and do not abort the remaining batches.
func (s *ArchiveService) ArchiveFile(ctx context.Context, path string, batchSize int) (*ArchiveResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[ARCHIVE_START] Starting dataset archival", logging.Fields{
		"path":       path,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	if batchSize <= 0 {
		batchSize = 500
	}

	loadResult, err := s.loader.Load(ctx, path)
	if err != nil {
		s.metrics.RecordArchiveError("load_error")
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	result := &ArchiveResult{
		TotalRows:   loadResult.TotalRows,
		LoadedRows:  loadResult.Table.Len(),
		SkippedRows: loadResult.SkippedRows,
		Errors:      make([]string, 0),
	}

	records := loadResult.Table.Records()
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		batch := records[start:end]
		if err := s.repo.CreateRecordsBatch(ctx, batch); err != nil {
			errMsg := fmt.Sprintf("batch %d-%d failed: %v", start, end, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[ARCHIVE_BATCH_ERROR] Batch insert failed", logging.Fields{
				"batch_start": start,
				"batch_end":   end,
				"stage":       "BATCH_INSERT",
			}, err)
			s.metrics.RecordArchiveError("batch_error")
			continue
		}

		result.ArchivedRecords += len(batch)
	}

	result.Duration = time.Since(startTime)
	s.metrics.ArchiveDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[ARCHIVE_COMPLETE] Dataset archival completed", logging.Fields{
		"total_rows":       result.TotalRows,
		"loaded_rows":      result.LoadedRows,
		"skipped_rows":     result.SkippedRows,
		"archived_records": result.ArchivedRecords,
		"duration_seconds": result.Duration.Seconds(),
		"error_count":      len(result.Errors),
		"stage":            "COMPLETE",
	})

	return result, nil
}
