package engine

import (
	"time"

	"season-engine/internal/models"
)

// Rollover moves a completed year's ledger into the historical
// snapshot and opens a fresh ledger for the current year. It triggers
// only when all four current records belong to a year strictly before
// today's year; otherwise it is a no-op, which makes re-running it
// after a rollover idempotent.
func Rollover(state models.EngineState, today time.Time) (models.EngineState, bool) {
	year := models.DayOf(today).Year()

	for _, rec := range state.Current {
		if rec.Year >= year {
			return state, false
		}
	}

	state.Historical = state.Current
	for i, def := range models.Catalog() {
		state.Current[i] = models.ArrivalRecord{Season: def.Season, Year: year}
	}

	return state, true
}

// FutureYearRecords returns current-ledger records stamped with a year
// after today's, which should never happen and blocks rollover. The
// engine surfaces them for logging and does not repair them.
func FutureYearRecords(state models.EngineState, today time.Time) []models.ArrivalRecord {
	year := models.DayOf(today).Year()

	var anomalies []models.ArrivalRecord
	for _, rec := range state.Current {
		if rec.Year > year {
			anomalies = append(anomalies, rec)
		}
	}
	return anomalies
}
