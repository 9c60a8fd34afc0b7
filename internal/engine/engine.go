// Package engine implements the season rule engine: daily aggregation
// of temperature samples into a mean, four independent per-season
// consecutive-day counters, an at-most-once-per-year arrival ledger
// with eligibility gating and manual-override protection, year-boundary
// rollover, and resolution of the single active season label.
//
// Every season is evaluated against every daily mean independently.
// A single mild winter day can increment the spring and autumn
// counters while resetting winter and summer; this is not a mutually
// exclusive state machine.
//
// All operations are pure: state goes in by value and comes out by
// value, and no operation blocks, logs, or touches storage. Callers
// own the read-modify-write-persist cycle and emit observability from
// the returned results.
package engine

import (
	"time"

	"season-engine/internal/models"
)

// Outcome classifies what the arrival ledger did with a commit attempt
type Outcome string

const (
	// OutcomeCommitted means an arrival date was written this tick
	OutcomeCommitted Outcome = "committed"
	// OutcomeAlreadySet means an automatic commit already happened this year
	OutcomeAlreadySet Outcome = "already_set"
	// OutcomeDeferred means the day precedes the season's eligibility gate
	OutcomeDeferred Outcome = "deferred"
	// OutcomeOverrideBlocked means a manual override protects the record
	OutcomeOverrideBlocked Outcome = "override_blocked"
)

// SeasonEvaluation is the per-season outcome of one daily tick
type SeasonEvaluation struct {
	Season           models.Season
	Qualified        bool
	ConsecutiveDays  int
	RunLength        int
	ThresholdReached bool // counter crossed run length this tick (edge)
	Outcome          Outcome
	CommittedDate    *time.Time
}

// TickResult reports everything one daily tick did, for logging and
// metrics. It carries no correctness weight beyond the state itself.
type TickResult struct {
	Mean         models.DailyMean
	Evaluations  [4]SeasonEvaluation
	ActiveSeason models.Season
}

// ComputeDailyMean reduces one calendar day's samples to their
// arithmetic mean. A day with zero samples yields ok=false: the day is
// a gap, skipped by downstream logic, not a failure.
func ComputeDailyMean(date time.Time, samples []models.TemperatureSample) (models.DailyMean, bool) {
	if len(samples) == 0 {
		return models.DailyMean{}, false
	}

	var sum float64
	for _, s := range samples {
		sum += s.ValueCelsius
	}

	return models.DailyMean{
		Date:        models.DayOf(date),
		MeanCelsius: sum / float64(len(samples)),
		SampleCount: len(samples),
		CreatedAt:   time.Now().UTC(),
	}, true
}

// Tick evaluates one daily mean against all four season definitions,
// updates the counters, and applies the ledger commit policy. The
// returned state replaces the input; the result describes what
// happened for observability.
func Tick(state models.EngineState, mean models.DailyMean) (models.EngineState, TickResult) {
	day := models.DayOf(mean.Date)
	result := TickResult{Mean: mean}

	for i, def := range models.Catalog() {
		counter := &state.Counters[i]
		record := &state.Current[i]

		qualified := def.Comparator.Evaluate(mean.MeanCelsius, def.ThresholdTemp)

		edge := false
		if qualified {
			counter.ConsecutiveDays++
			edge = counter.ConsecutiveDays == def.RunLength
		} else {
			counter.ConsecutiveDays = 0
			counter.CommitDeferred = false
		}

		eval := SeasonEvaluation{
			Season:           def.Season,
			Qualified:        qualified,
			ConsecutiveDays:  counter.ConsecutiveDays,
			RunLength:        def.RunLength,
			ThresholdReached: edge,
		}

		// A commit is attempted on the edge transition, or while an
		// earlier edge in the same unbroken run is deferred behind the
		// eligibility gate.
		recheck := counter.CommitDeferred && qualified && counter.ConsecutiveDays >= def.RunLength
		if edge || recheck {
			eval.Outcome, eval.CommittedDate = commit(def, counter, record, day)
		}

		result.Evaluations[i] = eval
	}

	state.LastMean = &mean
	result.ActiveSeason = Resolve(state, day)

	return state, result
}

// commit applies the arrival ledger policy for one threshold-reached
// or deferred-recheck event on day d.
func commit(def models.SeasonDefinition, counter *models.SeasonCounter, record *models.ArrivalRecord, d time.Time) (Outcome, *time.Time) {
	switch {
	case record.ManuallySet:
		counter.CommitDeferred = false
		return OutcomeOverrideBlocked, nil

	case record.Date != nil:
		// At most one automatic commit per season per year.
		counter.CommitDeferred = false
		return OutcomeAlreadySet, nil

	case def.EarliestEligible != nil && d.Before(def.EarliestEligible.DateIn(d.Year())):
		counter.CommitDeferred = true
		return OutcomeDeferred, nil

	default:
		// The arrival date is the first day of the qualifying run,
		// never earlier than the eligibility gate.
		arrival := d.AddDate(0, 0, -(def.RunLength - 1))
		if def.EarliestEligible != nil {
			if gate := def.EarliestEligible.DateIn(d.Year()); arrival.Before(gate) {
				arrival = gate
			}
		}
		record.Date = &arrival
		counter.CommitDeferred = false
		return OutcomeCommitted, &arrival
	}
}
