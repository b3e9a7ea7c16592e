package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"waste-platform/internal/models"
	"waste-platform/pkg/database"
	"waste-platform/pkg/logging"
	"waste-platform/pkg/metrics"
)

// WasteRepository provides data access for the archived waste dataset
type WasteRepository interface {
	// Record operations
	CreateRecordsBatch(ctx context.Context, records []*models.Record) error
	GetRecords(ctx context.Context, filter RecordFilter) ([]*models.Record, int, error)
	GetRecord(ctx context.Context, region, district string, year int) (*models.Record, error)

	// Summary operations
	ListRegions(ctx context.Context) ([]string, error)
	YearlySummary(ctx context.Context, region string) ([]*RegionYearSummary, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// RecordFilter defines filters for querying archived records
type RecordFilter struct {
	Region   *string
	District *string
	Year     *int
	Limit    int
	Offset   int
}

// RegionYearSummary holds per-year aggregates for one region, computed in SQL
type RegionYearSummary struct {
	Region         string  `json:"region" db:"region"`
	Year           int     `json:"year" db:"year"`
	DistrictCount  int     `json:"district_count" db:"district_count"`
	AvgGPCDomestic float64 `json:"avg_gpc_domestic" db:"avg_gpc_domestic"`
	TotalMunicipal float64 `json:"total_municipal" db:"total_municipal"`
}

// wasteRepository implements WasteRepository
type wasteRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewWasteRepository creates a new waste repository
func NewWasteRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) WasteRepository {
	return &wasteRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateRecordsBatch inserts records in a single transaction, upserting on
// the (region, district, year) key.
func (r *wasteRepository) CreateRecordsBatch(ctx context.Context, records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.ArchiveBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO waste_records (
			region, district, year,
			gpc_domestic, q_domestic, q_non_domestic, q_municipal,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (region, district, year) DO UPDATE SET
			gpc_domestic = EXCLUDED.gpc_domestic,
			q_domestic = EXCLUDED.q_domestic,
			q_non_domestic = EXCLUDED.q_non_domestic,
			q_municipal = EXCLUDED.q_municipal
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Region,
			rec.District,
			rec.Year,
			rec.GPCDomestic,
			rec.QDomestic,
			rec.QNonDomestic,
			rec.QMunicipal,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.ArchiveRecordsTotal.Add(float64(len(records)))

	return nil
}

// GetRecords retrieves archived records with filtering and pagination
func (r *wasteRepository) GetRecords(ctx context.Context, filter RecordFilter) ([]*models.Record, int, error) {
	query := `
		SELECT region, district, year,
		       gpc_domestic, q_domestic, q_non_domestic, q_municipal
		FROM waste_records
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.Region != nil {
		query += fmt.Sprintf(" AND region = $%d", argNum)
		args = append(args, models.NormalizeName(*filter.Region))
		argNum++
	}

	if filter.District != nil {
		query += fmt.Sprintf(" AND district = $%d", argNum)
		args = append(args, models.NormalizeName(*filter.District))
		argNum++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_records", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	query += " ORDER BY region, district, year"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var records []*models.Record
	err = r.db.SelectContext(ctx, "get_records", &records, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get records: %w", err)
	}

	return records, totalCount, nil
}

// GetRecord retrieves a single archived observation
func (r *wasteRepository) GetRecord(ctx context.Context, region, district string, year int) (*models.Record, error) {
	query := `
		SELECT region, district, year,
		       gpc_domestic, q_domestic, q_non_domestic, q_municipal
		FROM waste_records
		WHERE region = $1 AND district = $2 AND year = $3
	`

	var rec models.Record
	err := r.db.GetContext(ctx, "get_record", &rec, query,
		models.NormalizeName(region), models.NormalizeName(district), year)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "waste_record",
			ID:       fmt.Sprintf("%s:%s:%d", region, district, year),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &rec, nil
}

// ListRegions returns the distinct regions in the archive, sorted
func (r *wasteRepository) ListRegions(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT region FROM waste_records ORDER BY region`

	var regions []string
	err := r.db.SelectContext(ctx, "list_regions", &regions, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}

	return regions, nil
}

// YearlySummary computes per-year aggregates for one region in SQL
func (r *wasteRepository) YearlySummary(ctx context.Context, region string) ([]*RegionYearSummary, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.logger.Debug(ctx, "[REPO_YEARLY_SUMMARY] Summary calculated", logging.Fields{
			"region":      region,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	query := `
		SELECT
			region,
			year,
			COUNT(DISTINCT district) AS district_count,
			AVG(gpc_domestic) AS avg_gpc_domestic,
			SUM(q_municipal) AS total_municipal
		FROM waste_records
		WHERE region = $1
		GROUP BY region, year
		ORDER BY year
	`

	var summaries []*RegionYearSummary
	err := r.db.SelectContext(ctx, "yearly_summary", &summaries, query, models.NormalizeName(region))
	if err != nil {
		return nil, fmt.Errorf("failed to calculate yearly summary: %w", err)
	}

	return summaries, nil
}

// HealthCheck performs a repository health check
func (r *wasteRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
