package engine

import (
	"time"

	"season-engine/internal/models"
)

// Resolve derives the single active season label from the ledger.
// Among current-year records with an arrival date on or before today,
// the latest date wins. With no current-year candidate the historical
// snapshot is consulted the same way, covering the gap between Jan 1
// and the first new-year commit. With no candidate at all the label is
// Unknown. Equal dates resolve in catalog declaration order.
func Resolve(state models.EngineState, today time.Time) models.Season {
	day := models.DayOf(today)

	if season := latestArrival(state.Current, day); season != models.SeasonUnknown {
		return season
	}
	return latestArrival(state.Historical, day)
}

func latestArrival(records [4]models.ArrivalRecord, day time.Time) models.Season {
	best := models.SeasonUnknown
	var bestDate time.Time

	for _, rec := range records {
		if rec.Date == nil || rec.Date.After(day) {
			continue
		}
		if best == models.SeasonUnknown || rec.Date.After(bestDate) {
			best = rec.Season
			bestDate = *rec.Date
		}
	}

	return best
}
