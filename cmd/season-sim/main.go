package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"season-engine/internal/engine"
	"season-engine/internal/models"
	"season-engine/pkg/logging"
)

// season-sim drives a synthetic year of daily means through the rule
// engine without a database, printing every season transition. Useful
// for eyeballing the rules before pointing the server at real data.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("SEASON ENGINE - SYNTHETIC YEAR SIMULATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	logger := logging.NewStructuredLogger("season-sim", "1.0.0", logging.WarnLevel)
	ctx := context.Background()

	year := time.Now().UTC().Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	state := models.NewEngineState(year)
	active := models.SeasonUnknown
	commits := 0

	for offset := 0; offset < 365; offset++ {
		day := start.AddDate(0, 0, offset)
		mean := syntheticMean(offset)

		samples := []models.TemperatureSample{
			{SensorID: "sim", SampledAt: day.Add(6 * time.Hour), ValueCelsius: mean - 2},
			{SensorID: "sim", SampledAt: day.Add(12 * time.Hour), ValueCelsius: mean + 2},
			{SensorID: "sim", SampledAt: day.Add(18 * time.Hour), ValueCelsius: mean},
		}

		daily, ok := engine.ComputeDailyMean(day, samples)
		if !ok {
			logger.Warn(ctx, "[SIM_GAP] Synthetic day produced no samples", logging.Fields{
				"day": day.Format("2006-01-02"),
			})
			continue
		}

		var result engine.TickResult
		state, result = engine.Tick(state, daily)

		for _, eval := range result.Evaluations {
			if eval.Outcome == engine.OutcomeCommitted {
				commits++
				fmt.Printf("%s  %s arrived (run started %s, mean %5.1f°C)\n",
					day.Format("2006-01-02"),
					eval.Season,
					eval.CommittedDate.Format("2006-01-02"),
					daily.MeanCelsius)
			}
		}

		if result.ActiveSeason != active {
			active = result.ActiveSeason
			fmt.Printf("%s  active season is now: %s\n", day.Format("2006-01-02"), active)
		}
	}

	fmt.Println()
	fmt.Printf("Simulated %d days, %d arrival commits\n", 365, commits)
	fmt.Println("\nFinal counters:")
	for i, def := range models.Catalog() {
		fmt.Printf("  %-7s %d/%d\n", def.Season.String(), state.Counters[i].ConsecutiveDays, def.RunLength)
	}
}

// syntheticMean produces a smooth northern-hemisphere temperature
// curve: around -5°C in late January, around +17°C in late July.
func syntheticMean(dayOfYear int) float64 {
	phase := 2 * math.Pi * float64(dayOfYear-28) / 365.0
	return 6.0 - 11.0*math.Cos(phase)
}
