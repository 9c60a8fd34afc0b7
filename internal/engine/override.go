package engine

import (
	"time"

	"season-engine/internal/models"
)

// SetOverride writes a manually fixed arrival date for a season into
// the current-year ledger. The automatic engine keeps updating the
// counter and logging threshold crossings but never overwrites the
// record while the override stands.
func SetOverride(state models.EngineState, season models.Season, date time.Time) (models.EngineState, bool) {
	rec := state.CurrentRecord(season)
	if rec == nil {
		return state, false
	}

	d := models.DayOf(date)
	rec.Date = &d
	rec.ManuallySet = true
	return state, true
}

// ClearOverride removes a manual arrival date, re-enabling automatic
// commit: the next threshold-reached event for the season can commit
// again this year.
func ClearOverride(state models.EngineState, season models.Season) (models.EngineState, bool) {
	rec := state.CurrentRecord(season)
	if rec == nil {
		return state, false
	}

	rec.Date = nil
	rec.ManuallySet = false
	return state, true
}
