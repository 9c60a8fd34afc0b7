package models

import (
	"time"
)

// SeasonCounter tracks how many days in a row a season's criterion has
// held. Counters keep counting past the required run length; the commit
// event is edge-triggered, so the ceiling is display-only.
type SeasonCounter struct {
	Season          Season `json:"season" db:"season"`
	ConsecutiveDays int    `json:"consecutive_days" db:"consecutive_days"`

	// CommitDeferred marks a run that reached its required length
	// before the season's eligibility gate. The pending commit is
	// re-checked daily while the run holds.
	CommitDeferred bool `json:"commit_deferred" db:"commit_deferred"`
}

// ArrivalRecord holds at most one committed arrival date per season
// and year. Year is stamped even while Date is empty so year-boundary
// rollover is decidable for untouched ledgers.
type ArrivalRecord struct {
	Season      Season     `json:"season" db:"season"`
	Year        int        `json:"year" db:"year"`
	Date        *time.Time `json:"date,omitempty" db:"arrival_date"`
	ManuallySet bool       `json:"manually_set" db:"manually_set"`
}

// EngineState is the complete mutable state of the season rule engine:
// four counters, the current-year arrival ledger, the prior-year
// historical snapshot, and the last computed daily mean. It is passed
// by value into and out of the engine's operations; callers own the
// read-modify-write-persist cycle.
type EngineState struct {
	Counters   [4]SeasonCounter // catalog order
	Current    [4]ArrivalRecord // catalog order
	Historical [4]ArrivalRecord // catalog order
	LastMean   *DailyMean
}

// NewEngineState returns the zero state for the given ledger year:
// zero counters, empty records, no mean. Absent external state loads
// as this.
func NewEngineState(year int) EngineState {
	var state EngineState
	for i, def := range Catalog() {
		state.Counters[i] = SeasonCounter{Season: def.Season}
		state.Current[i] = ArrivalRecord{Season: def.Season, Year: year}
		state.Historical[i] = ArrivalRecord{Season: def.Season, Year: year - 1}
	}
	return state
}

// Counter returns the counter for a season, or nil for Unknown
func (s *EngineState) Counter(season Season) *SeasonCounter {
	if i := SeasonIndex(season); i >= 0 {
		return &s.Counters[i]
	}
	return nil
}

// CurrentRecord returns the current-year arrival record for a season,
// or nil for Unknown
func (s *EngineState) CurrentRecord(season Season) *ArrivalRecord {
	if i := SeasonIndex(season); i >= 0 {
		return &s.Current[i]
	}
	return nil
}

// HistoricalRecord returns the prior-year arrival record for a season,
// or nil for Unknown
func (s *EngineState) HistoricalRecord(season Season) *ArrivalRecord {
	if i := SeasonIndex(season); i >= 0 {
		return &s.Historical[i]
	}
	return nil
}
