package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"season-engine/internal/models"
	"season-engine/pkg/database"
	"season-engine/pkg/logging"
	"season-engine/pkg/metrics"
)

// SeasonRepository provides data access for the season rule engine:
// the raw sample feed, computed daily means, and the engine's full
// rehydratable state (counters, ledger, snapshot).
type SeasonRepository interface {
	// Sample operations
	CreateSamplesBatch(ctx context.Context, samples []*models.TemperatureSample) error
	GetSamplesForDay(ctx context.Context, sensorID string, day time.Time) ([]models.TemperatureSample, error)
	GetSampleDateRange(ctx context.Context, sensorID string) (first, last time.Time, err error)

	// Daily mean operations
	UpsertDailyMean(ctx context.Context, mean *models.DailyMean) error
	GetDailyMeans(ctx context.Context, filter MeanFilter) ([]*models.DailyMean, int, error)
	GetLatestDailyMean(ctx context.Context) (*models.DailyMean, error)

	// Engine state operations
	LoadState(ctx context.Context, year int) (models.EngineState, error)
	SaveState(ctx context.Context, state models.EngineState) error

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// MeanFilter defines filters for querying daily means
type MeanFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// seasonRepository implements SeasonRepository
type seasonRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSeasonRepository creates a new season repository
func NewSeasonRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) SeasonRepository {
	return &seasonRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateSamplesBatch inserts temperature samples in a single transaction
func (r *seasonRepository) CreateSamplesBatch(ctx context.Context, samples []*models.TemperatureSample) error {
	if len(samples) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(samples)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Sample batch insert completed", logging.Fields{
			"count":       len(samples),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO temperature_samples (sensor_id, sampled_at, value_celsius, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sensor_id, sampled_at) DO UPDATE SET
			value_celsius = EXCLUDED.value_celsius
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		_, err := stmt.ExecContext(ctx,
			s.SensorID,
			s.SampledAt,
			s.ValueCelsius,
			s.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.SamplesIngestedTotal.Add(float64(len(samples)))

	return nil
}

// GetSamplesForDay retrieves all samples for one calendar day
func (r *seasonRepository) GetSamplesForDay(ctx context.Context, sensorID string, day time.Time) ([]models.TemperatureSample, error) {
	start := models.DayOf(day)
	end := start.AddDate(0, 0, 1)

	query := `
		SELECT id, sensor_id, sampled_at, value_celsius, created_at
		FROM temperature_samples
		WHERE sensor_id = $1 AND sampled_at >= $2 AND sampled_at < $3
		ORDER BY sampled_at
	`

	var samples []models.TemperatureSample
	err := r.db.SelectContext(ctx, "get_samples_for_day", &samples, query, sensorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get samples: %w", err)
	}

	return samples, nil
}

// GetSampleDateRange returns the first and last sample days for a sensor
func (r *seasonRepository) GetSampleDateRange(ctx context.Context, sensorID string) (time.Time, time.Time, error) {
	query := `
		SELECT MIN(sampled_at) AS first, MAX(sampled_at) AS last
		FROM temperature_samples
		WHERE sensor_id = $1
	`

	var result struct {
		First *time.Time `db:"first"`
		Last  *time.Time `db:"last"`
	}

	err := r.db.GetContext(ctx, "get_sample_date_range", &result, query, sensorID)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to get sample date range: %w", err)
	}

	if result.First == nil || result.Last == nil {
		return time.Time{}, time.Time{}, &NotFoundError{
			Resource: "temperature_samples",
			ID:       sensorID,
		}
	}

	return models.DayOf(*result.First), models.DayOf(*result.Last), nil
}

// UpsertDailyMean creates or replaces the daily mean for a date
func (r *seasonRepository) UpsertDailyMean(ctx context.Context, mean *models.DailyMean) error {
	query := `
		INSERT INTO daily_means (mean_date, mean_celsius, sample_count, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (mean_date) DO UPDATE SET
			mean_celsius = EXCLUDED.mean_celsius,
			sample_count = EXCLUDED.sample_count
	`

	_, err := r.db.ExecContext(ctx, "upsert_daily_mean", query,
		mean.Date,
		mean.MeanCelsius,
		mean.SampleCount,
		mean.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily mean: %w", err)
	}

	return nil
}

// GetDailyMeans retrieves daily means with filtering and pagination
func (r *seasonRepository) GetDailyMeans(ctx context.Context, filter MeanFilter) ([]*models.DailyMean, int, error) {
	query := `
		SELECT mean_date, mean_celsius, sample_count, created_at
		FROM daily_means
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND mean_date >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND mean_date <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_daily_means", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count daily means: %w", err)
	}

	query += " ORDER BY mean_date DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var means []*models.DailyMean
	err = r.db.SelectContext(ctx, "get_daily_means", &means, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get daily means: %w", err)
	}

	return means, totalCount, nil
}

// GetLatestDailyMean retrieves the most recently dated daily mean
func (r *seasonRepository) GetLatestDailyMean(ctx context.Context) (*models.DailyMean, error) {
	query := `
		SELECT mean_date, mean_celsius, sample_count, created_at
		FROM daily_means
		ORDER BY mean_date DESC
		LIMIT 1
	`

	var mean models.DailyMean
	err := r.db.GetContext(ctx, "get_latest_daily_mean", &mean, query)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get latest daily mean: %w", err)
	}

	return &mean, nil
}

// LoadState rehydrates the full engine state. Absent state loads as
// the zero state for the given year: zero counters, empty records.
func (r *seasonRepository) LoadState(ctx context.Context, year int) (models.EngineState, error) {
	state := models.NewEngineState(year)

	var counters []models.SeasonCounter
	err := r.db.SelectContext(ctx, "load_counters", &counters, `
		SELECT season, consecutive_days, commit_deferred
		FROM season_counters
	`)
	if err != nil {
		return state, fmt.Errorf("failed to load counters: %w", err)
	}

	for _, c := range counters {
		if ptr := state.Counter(c.Season); ptr != nil {
			*ptr = c
		}
	}

	var current []models.ArrivalRecord
	err = r.db.SelectContext(ctx, "load_arrival_records", &current, `
		SELECT season, year, arrival_date, manually_set
		FROM arrival_records
		WHERE historical = false
	`)
	if err != nil {
		return state, fmt.Errorf("failed to load arrival records: %w", err)
	}

	for _, rec := range current {
		if ptr := state.CurrentRecord(rec.Season); ptr != nil {
			*ptr = rec
		}
	}

	var historical []models.ArrivalRecord
	err = r.db.SelectContext(ctx, "load_historical_records", &historical, `
		SELECT season, year, arrival_date, manually_set
		FROM arrival_records
		WHERE historical = true
	`)
	if err != nil {
		return state, fmt.Errorf("failed to load historical records: %w", err)
	}

	for _, rec := range historical {
		if ptr := state.HistoricalRecord(rec.Season); ptr != nil {
			*ptr = rec
		}
	}

	state.LastMean, err = r.GetLatestDailyMean(ctx)
	if err != nil {
		return state, err
	}

	return state, nil
}

// SaveState persists the full engine state in one transaction
func (r *seasonRepository) SaveState(ctx context.Context, state models.EngineState) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counterStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO season_counters (season, consecutive_days, commit_deferred)
		VALUES ($1, $2, $3)
		ON CONFLICT (season) DO UPDATE SET
			consecutive_days = EXCLUDED.consecutive_days,
			commit_deferred = EXCLUDED.commit_deferred
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare counter statement: %w", err)
	}
	defer counterStmt.Close()

	for _, c := range state.Counters {
		if _, err := counterStmt.ExecContext(ctx, c.Season, c.ConsecutiveDays, c.CommitDeferred); err != nil {
			return fmt.Errorf("failed to save counter: %w", err)
		}
	}

	recordStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO arrival_records (season, historical, year, arrival_date, manually_set)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (season, historical) DO UPDATE SET
			year = EXCLUDED.year,
			arrival_date = EXCLUDED.arrival_date,
			manually_set = EXCLUDED.manually_set
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record statement: %w", err)
	}
	defer recordStmt.Close()

	for _, rec := range state.Current {
		if _, err := recordStmt.ExecContext(ctx, rec.Season, false, rec.Year, rec.Date, rec.ManuallySet); err != nil {
			return fmt.Errorf("failed to save arrival record: %w", err)
		}
	}

	for _, rec := range state.Historical {
		if _, err := recordStmt.ExecContext(ctx, rec.Season, true, rec.Year, rec.Date, rec.ManuallySet); err != nil {
			return fmt.Errorf("failed to save historical record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a repository health check
func (r *seasonRepository) HealthCheck(ctx context.Context) error {
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
