package services

import (
	"context"
	"fmt"
	"time"

	"season-engine/internal/engine"
	"season-engine/internal/models"
	"season-engine/internal/repository"
	"season-engine/pkg/logging"
	"season-engine/pkg/metrics"
)

// SeasonService exposes the engine's status records and the manual
// override operations.
type SeasonService struct {
	repo    repository.SeasonRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// SeasonStatus is the primary status record: the active season label,
// per-season counter progress and arrival dates, and the most recent
// daily mean.
type SeasonStatus struct {
	CurrentSeason models.Season         `json:"current_season"`
	LastMean      *models.DailyMean     `json:"last_mean,omitempty"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Seasons       []SeasonCounterStatus `json:"seasons"`
}

// SeasonCounterStatus is the per-season slice of the status record
type SeasonCounterStatus struct {
	Season          models.Season `json:"season"`
	ConsecutiveDays int           `json:"consecutive_days"`
	RunLength       int           `json:"run_length"`
	Progress        string        `json:"progress"`
	ArrivalDate     *string       `json:"arrival_date,omitempty"`
	ManuallySet     bool          `json:"manually_set"`
}

// HistoryStatus is the historical status record: the prior year's
// arrival dates, replaced wholesale at each rollover.
type HistoryStatus struct {
	Year     int             `json:"year"`
	Arrivals []SeasonArrival `json:"arrivals"`
}

// SeasonArrival is one season's prior-year arrival date
type SeasonArrival struct {
	Season models.Season `json:"season"`
	Date   *string       `json:"date,omitempty"`
}

// NewSeasonService creates a new season service
func NewSeasonService(repo repository.SeasonRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SeasonService {
	return &SeasonService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetStatus builds the primary status record as of now
func (s *SeasonService) GetStatus(ctx context.Context, now time.Time) (*SeasonStatus, error) {
	state, err := s.repo.LoadState(ctx, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to load engine state: %w", err)
	}

	status := &SeasonStatus{
		CurrentSeason: engine.Resolve(state, now),
		LastMean:      state.LastMean,
		UpdatedAt:     time.Now().UTC(),
	}

	for i, def := range models.Catalog() {
		counter := state.Counters[i]
		record := state.Current[i]

		entry := SeasonCounterStatus{
			Season:          def.Season,
			ConsecutiveDays: counter.ConsecutiveDays,
			RunLength:       def.RunLength,
			Progress:        fmt.Sprintf("%d/%d", counter.ConsecutiveDays, def.RunLength),
			ManuallySet:     record.ManuallySet,
		}
		if record.Date != nil {
			d := record.Date.Format("2006-01-02")
			entry.ArrivalDate = &d
		}
		status.Seasons = append(status.Seasons, entry)
	}

	return status, nil
}

// GetHistory builds the historical status record
func (s *SeasonService) GetHistory(ctx context.Context, now time.Time) (*HistoryStatus, error) {
	state, err := s.repo.LoadState(ctx, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to load engine state: %w", err)
	}

	history := &HistoryStatus{}
	for _, rec := range state.Historical {
		arrival := SeasonArrival{Season: rec.Season}
		if rec.Date != nil {
			d := rec.Date.Format("2006-01-02")
			arrival.Date = &d
		}
		history.Year = rec.Year
		history.Arrivals = append(history.Arrivals, arrival)
	}

	return history, nil
}

// SetOverride fixes a season's arrival date manually. The automatic
// engine will not overwrite it until the override is cleared.
func (s *SeasonService) SetOverride(ctx context.Context, season models.Season, date time.Time) error {
	if season == models.SeasonUnknown {
		return &models.ValidationError{
			Field:   "season",
			Value:   season.String(),
			Message: "cannot override the unknown season",
		}
	}

	state, err := s.repo.LoadState(ctx, date.Year())
	if err != nil {
		return fmt.Errorf("failed to load engine state: %w", err)
	}

	state, ok := engine.SetOverride(state, season, date)
	if !ok {
		return &models.ValidationError{
			Field:   "season",
			Value:   season.String(),
			Message: "season not present in catalog",
		}
	}

	if err := s.repo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("failed to save engine state: %w", err)
	}

	s.logger.Info(ctx, "[OVERRIDE_SET] Manual arrival date set", logging.Fields{
		"season": season.String(),
		"date":   models.DayOf(date).Format("2006-01-02"),
	})

	return nil
}

// ClearOverride removes a season's manual arrival date, re-enabling
// automatic commit for the remainder of the year.
func (s *SeasonService) ClearOverride(ctx context.Context, season models.Season, now time.Time) error {
	if season == models.SeasonUnknown {
		return &models.ValidationError{
			Field:   "season",
			Value:   season.String(),
			Message: "cannot override the unknown season",
		}
	}

	state, err := s.repo.LoadState(ctx, now.Year())
	if err != nil {
		return fmt.Errorf("failed to load engine state: %w", err)
	}

	state, ok := engine.ClearOverride(state, season)
	if !ok {
		return &models.ValidationError{
			Field:   "season",
			Value:   season.String(),
			Message: "season not present in catalog",
		}
	}

	if err := s.repo.SaveState(ctx, state); err != nil {
		return fmt.Errorf("failed to save engine state: %w", err)
	}

	s.logger.Info(ctx, "[OVERRIDE_CLEARED] Manual arrival date cleared", logging.Fields{
		"season": season.String(),
	})

	return nil
}

// GetDailyMeans retrieves stored daily means with filtering
func (s *SeasonService) GetDailyMeans(ctx context.Context, filter repository.MeanFilter) ([]*models.DailyMean, int, error) {
	return s.repo.GetDailyMeans(ctx, filter)
}
