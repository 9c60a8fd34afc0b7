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

// TickService runs the once-per-day engine cycle: aggregate the
// completed day's samples into a mean, evaluate all four season
// counters, apply the arrival ledger policy, and persist the new
// state. It owns the read-modify-write-persist cycle around the pure
// engine core.
type TickService struct {
	repo     repository.SeasonRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	sensorID string
}

// TickSummary reports what one daily tick did
type TickSummary struct {
	Day          time.Time            `json:"day"`
	Skipped      bool                 `json:"skipped"`
	Mean         *models.DailyMean    `json:"mean,omitempty"`
	ActiveSeason models.Season        `json:"active_season"`
	RolledOver   bool                 `json:"rolled_over"`
	Evaluations  []SeasonDayEvaluation `json:"evaluations,omitempty"`
}

// SeasonDayEvaluation is the per-season view of one tick for API consumers
type SeasonDayEvaluation struct {
	Season           models.Season `json:"season"`
	Qualified        bool          `json:"qualified"`
	ConsecutiveDays  int           `json:"consecutive_days"`
	RunLength        int           `json:"run_length"`
	ThresholdReached bool          `json:"threshold_reached"`
	Outcome          string        `json:"outcome,omitempty"`
	CommittedDate    *string       `json:"committed_date,omitempty"`
}

// NewTickService creates a new tick service
func NewTickService(repo repository.SeasonRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, sensorID string) *TickService {
	return &TickService{
		repo:     repo,
		logger:   logger,
		metrics:  metricsCollector,
		sensorID: sensorID,
	}
}

// ProcessDay runs the daily tick for one completed calendar day.
// A day without samples is a gap, not an error: counters and ledger
// stay untouched and only the rollover check runs.
func (s *TickService) ProcessDay(ctx context.Context, day time.Time) (*TickSummary, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.TickDuration.Observe(time.Since(startTime).Seconds())
	}()

	day = models.DayOf(day)

	state, err := s.repo.LoadState(ctx, day.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to load engine state: %w", err)
	}

	state, rolled := s.checkRollover(ctx, state, day)

	samples, err := s.repo.GetSamplesForDay(ctx, s.sensorID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	mean, ok := engine.ComputeDailyMean(day, samples)
	if !ok {
		s.logger.Info(ctx, "[TICK_GAP] No samples for day, skipping evaluation", logging.Fields{
			"day":       day.Format("2006-01-02"),
			"sensor_id": s.sensorID,
		})
		s.metrics.GapDaysTotal.Inc()

		if rolled {
			if err := s.repo.SaveState(ctx, state); err != nil {
				return nil, fmt.Errorf("failed to save engine state: %w", err)
			}
		}

		return &TickSummary{
			Day:          day,
			Skipped:      true,
			RolledOver:   rolled,
			ActiveSeason: engine.Resolve(state, day),
		}, nil
	}

	if err := s.repo.UpsertDailyMean(ctx, &mean); err != nil {
		return nil, fmt.Errorf("failed to save daily mean: %w", err)
	}

	state, result := engine.Tick(state, mean)
	s.logTickResult(ctx, result)

	if err := s.repo.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save engine state: %w", err)
	}

	summary := &TickSummary{
		Day:          day,
		Mean:         &mean,
		ActiveSeason: result.ActiveSeason,
		RolledOver:   rolled,
	}
	for _, eval := range result.Evaluations {
		summary.Evaluations = append(summary.Evaluations, toDayEvaluation(eval))
	}

	return summary, nil
}

// RunRolloverCheck runs the year-boundary check on its own, outside
// the daily tick, persisting state only when a rollover happened.
func (s *TickService) RunRolloverCheck(ctx context.Context, today time.Time) (bool, error) {
	today = models.DayOf(today)

	state, err := s.repo.LoadState(ctx, today.Year())
	if err != nil {
		return false, fmt.Errorf("failed to load engine state: %w", err)
	}

	state, rolled := s.checkRollover(ctx, state, today)
	if !rolled {
		return false, nil
	}

	if err := s.repo.SaveState(ctx, state); err != nil {
		return false, fmt.Errorf("failed to save engine state: %w", err)
	}
	return true, nil
}

// checkRollover applies the rollover rule and logs anomalies. State
// with future-year records is surfaced, never repaired.
func (s *TickService) checkRollover(ctx context.Context, state models.EngineState, today time.Time) (models.EngineState, bool) {
	for _, rec := range engine.FutureYearRecords(state, today) {
		s.logger.Warn(ctx, "[STATE_ANOMALY] Arrival record dated in a future year", logging.Fields{
			"season":      rec.Season.String(),
			"record_year": rec.Year,
			"today":       today.Format("2006-01-02"),
		})
	}

	state, rolled := engine.Rollover(state, today)
	if rolled {
		s.metrics.RolloversTotal.Inc()
		s.logger.Info(ctx, "[ROLLOVER] Year boundary crossed, ledger moved to history", logging.Fields{
			"new_year": today.Year(),
		})
	}

	return state, rolled
}

// logTickResult emits the per-day observability events: comparator
// result and counter value for every season, and the ledger outcome
// for every commit attempt.
func (s *TickService) logTickResult(ctx context.Context, result engine.TickResult) {
	day := result.Mean.Date.Format("2006-01-02")

	for _, eval := range result.Evaluations {
		season := eval.Season.String()
		s.metrics.SetConsecutiveDays(season, eval.ConsecutiveDays)

		s.logger.Debug(ctx, "[TICK_EVAL] Season criterion evaluated", logging.Fields{
			"day":              day,
			"season":           season,
			"mean_celsius":     result.Mean.MeanCelsius,
			"qualified":        eval.Qualified,
			"consecutive_days": eval.ConsecutiveDays,
			"run_length":       eval.RunLength,
		})

		if eval.Outcome == "" {
			continue
		}

		s.metrics.RecordTickOutcome(season, string(eval.Outcome))

		fields := logging.Fields{
			"day":    day,
			"season": season,
		}

		switch eval.Outcome {
		case engine.OutcomeCommitted:
			s.metrics.RecordCommit(season)
			fields["arrival_date"] = eval.CommittedDate.Format("2006-01-02")
			s.logger.Info(ctx, "[LEDGER_COMMIT] Season arrival date committed", fields)
		case engine.OutcomeDeferred:
			s.logger.Info(ctx, "[LEDGER_DEFERRED] Threshold reached before eligibility gate", fields)
		case engine.OutcomeAlreadySet:
			s.logger.Info(ctx, "[LEDGER_ALREADY_SET] Arrival date already committed this year", fields)
		case engine.OutcomeOverrideBlocked:
			s.logger.Info(ctx, "[LEDGER_OVERRIDE_BLOCKED] Manual override protects arrival date", fields)
		}
	}

	s.logger.Info(ctx, "[TICK_COMPLETE] Daily tick processed", logging.Fields{
		"day":           day,
		"mean_celsius":  result.Mean.MeanCelsius,
		"sample_count":  result.Mean.SampleCount,
		"active_season": result.ActiveSeason.String(),
	})
}

func toDayEvaluation(eval engine.SeasonEvaluation) SeasonDayEvaluation {
	out := SeasonDayEvaluation{
		Season:           eval.Season,
		Qualified:        eval.Qualified,
		ConsecutiveDays:  eval.ConsecutiveDays,
		RunLength:        eval.RunLength,
		ThresholdReached: eval.ThresholdReached,
		Outcome:          string(eval.Outcome),
	}
	if eval.CommittedDate != nil {
		d := eval.CommittedDate.Format("2006-01-02")
		out.CommittedDate = &d
	}
	return out
}
