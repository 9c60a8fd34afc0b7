package engine

import (
	"testing"
	"time"

	"season-engine/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// runMeans feeds a sequence of daily means to the engine, one per
// consecutive day starting at start, and returns the final state and
// all tick results.
func runMeans(t *testing.T, state models.EngineState, start time.Time, means []float64) (models.EngineState, []TickResult) {
	t.Helper()

	var results []TickResult
	for i, m := range means {
		mean := models.DailyMean{
			Date:        start.AddDate(0, 0, i),
			MeanCelsius: m,
			SampleCount: 24,
		}
		var result TickResult
		state, result = Tick(state, mean)
		results = append(results, result)
	}
	return state, results
}

func TestComputeDailyMean(t *testing.T) {
	date := day(2025, time.March, 10)

	tests := []struct {
		name      string
		values    []float64
		wantOK    bool
		wantMean  float64
		wantCount int
	}{
		{
			name:   "no samples is a gap, not a failure",
			values: nil,
			wantOK: false,
		},
		{
			name:      "single sample",
			values:    []float64{3.5},
			wantOK:    true,
			wantMean:  3.5,
			wantCount: 1,
		},
		{
			name:      "arithmetic mean of several samples",
			values:    []float64{-2.0, 0.0, 4.0, 6.0},
			wantOK:    true,
			wantMean:  2.0,
			wantCount: 4,
		},
		{
			name:      "negative mean",
			values:    []float64{-10.0, -5.0},
			wantOK:    true,
			wantMean:  -7.5,
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var samples []models.TemperatureSample
			for i, v := range tt.values {
				samples = append(samples, models.TemperatureSample{
					SensorID:     "outdoor",
					SampledAt:    date.Add(time.Duration(i) * time.Hour),
					ValueCelsius: v,
				})
			}

			mean, ok := ComputeDailyMean(date, samples)
			if ok != tt.wantOK {
				t.Fatalf("ComputeDailyMean() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}

			if mean.MeanCelsius != tt.wantMean {
				t.Errorf("MeanCelsius = %v, want %v", mean.MeanCelsius, tt.wantMean)
			}
			if mean.SampleCount != tt.wantCount {
				t.Errorf("SampleCount = %v, want %v", mean.SampleCount, tt.wantCount)
			}
			if !mean.Date.Equal(date) {
				t.Errorf("Date = %v, want %v", mean.Date, date)
			}
		})
	}
}

func TestCounterIncrementsAndResets(t *testing.T) {
	state := models.NewEngineState(2025)

	// Three cold days, one mild day, two cold days.
	state, _ = runMeans(t, state, day(2025, time.November, 1), []float64{-1, -1, -1, 5, -1, -1})

	if got := state.Counter(models.SeasonWinter).ConsecutiveDays; got != 2 {
		t.Errorf("winter counter = %d, want 2 (reset by mild day, then two cold days)", got)
	}
}

func TestParallelCountersMoveIndependently(t *testing.T) {
	state := models.NewEngineState(2025)

	// A 5°C day qualifies spring (>0) and autumn (<10) while
	// resetting winter (<=0) and summer (>=10).
	mean := models.DailyMean{Date: day(2025, time.October, 1), MeanCelsius: 5, SampleCount: 24}
	state.Counter(models.SeasonWinter).ConsecutiveDays = 3
	state.Counter(models.SeasonSummer).ConsecutiveDays = 2

	state, result := Tick(state, mean)

	if got := state.Counter(models.SeasonWinter).ConsecutiveDays; got != 0 {
		t.Errorf("winter counter = %d, want 0", got)
	}
	if got := state.Counter(models.SeasonSummer).ConsecutiveDays; got != 0 {
		t.Errorf("summer counter = %d, want 0", got)
	}
	if got := state.Counter(models.SeasonSpring).ConsecutiveDays; got != 1 {
		t.Errorf("spring counter = %d, want 1", got)
	}
	if got := state.Counter(models.SeasonAutumn).ConsecutiveDays; got != 1 {
		t.Errorf("autumn counter = %d, want 1", got)
	}

	for _, eval := range result.Evaluations {
		switch eval.Season {
		case models.SeasonSpring, models.SeasonAutumn:
			if !eval.Qualified {
				t.Errorf("%s should qualify at 5°C", eval.Season)
			}
		case models.SeasonWinter, models.SeasonSummer:
			if eval.Qualified {
				t.Errorf("%s should not qualify at 5°C", eval.Season)
			}
		}
	}
}

func TestWinterCommitsAfterFiveColdDays(t *testing.T) {
	state := models.NewEngineState(2025)
	start := day(2025, time.November, 10)

	state, results := runMeans(t, state, start, []float64{-1, -1, -1, -1, -1})

	rec := state.CurrentRecord(models.SeasonWinter)
	if rec.Date == nil {
		t.Fatal("winter arrival date not committed after five qualifying days")
	}
	if !rec.Date.Equal(start) {
		t.Errorf("arrival date = %v, want first day of run %v", rec.Date, start)
	}

	// The edge fires on day five, not earlier.
	for i, result := range results {
		eval := result.Evaluations[models.SeasonIndex(models.SeasonWinter)]
		wantEdge := i == 4
		if eval.ThresholdReached != wantEdge {
			t.Errorf("day %d: ThresholdReached = %v, want %v", i+1, eval.ThresholdReached, wantEdge)
		}
	}
}

func TestThresholdEventFiresOncePerRun(t *testing.T) {
	state := models.NewEngineState(2025)

	// Eight cold days: a single maximal run. The edge fires exactly
	// once, on day five, and the counter keeps counting.
	state, results := runMeans(t, state, day(2025, time.November, 1),
		[]float64{-1, -1, -1, -1, -1, -1, -1, -1})

	edges := 0
	commits := 0
	for _, result := range results {
		eval := result.Evaluations[models.SeasonIndex(models.SeasonWinter)]
		if eval.ThresholdReached {
			edges++
		}
		if eval.Outcome == OutcomeCommitted {
			commits++
		}
	}

	if edges != 1 {
		t.Errorf("threshold events = %d, want exactly 1", edges)
	}
	if commits != 1 {
		t.Errorf("commits = %d, want exactly 1", commits)
	}
	if got := state.Counter(models.SeasonWinter).ConsecutiveDays; got != 8 {
		t.Errorf("winter counter = %d, want 8 (no reset on commit)", got)
	}
}

func TestCommitIdempotentWithinYear(t *testing.T) {
	state := models.NewEngineState(2025)
	firstRun := day(2025, time.November, 1)

	// First run commits.
	state, _ = runMeans(t, state, firstRun, []float64{-1, -1, -1, -1, -1})
	committed := *state.CurrentRecord(models.SeasonWinter).Date

	// Break the run, then a second full run later the same year.
	state, results := runMeans(t, state, firstRun.AddDate(0, 0, 5),
		[]float64{5, -1, -1, -1, -1, -1})

	last := results[len(results)-1].Evaluations[models.SeasonIndex(models.SeasonWinter)]
	if !last.ThresholdReached {
		t.Fatal("second run should raise a fresh threshold event")
	}
	if last.Outcome != OutcomeAlreadySet {
		t.Errorf("outcome = %q, want %q", last.Outcome, OutcomeAlreadySet)
	}
	if !state.CurrentRecord(models.SeasonWinter).Date.Equal(committed) {
		t.Errorf("arrival date changed from %v to %v", committed, state.CurrentRecord(models.SeasonWinter).Date)
	}
}

func TestOverrideBlocksAutomaticCommit(t *testing.T) {
	state := models.NewEngineState(2025)

	manual := day(2025, time.October, 20)
	state, ok := SetOverride(state, models.SeasonWinter, manual)
	if !ok {
		t.Fatal("SetOverride failed")
	}

	state, results := runMeans(t, state, day(2025, time.November, 1),
		[]float64{-1, -1, -1, -1, -1})

	last := results[len(results)-1].Evaluations[models.SeasonIndex(models.SeasonWinter)]
	if last.Outcome != OutcomeOverrideBlocked {
		t.Errorf("outcome = %q, want %q", last.Outcome, OutcomeOverrideBlocked)
	}

	rec := state.CurrentRecord(models.SeasonWinter)
	if !rec.ManuallySet {
		t.Error("ManuallySet cleared by automatic engine")
	}
	if !rec.Date.Equal(manual) {
		t.Errorf("manual date overwritten: got %v, want %v", rec.Date, manual)
	}

	// Counters keep running under an override.
	if got := state.Counter(models.SeasonWinter).ConsecutiveDays; got != 5 {
		t.Errorf("winter counter = %d, want 5", got)
	}
}

func TestClearOverrideReenablesOneCommit(t *testing.T) {
	state := models.NewEngineState(2025)

	state, _ = SetOverride(state, models.SeasonWinter, day(2025, time.October, 20))
	state, ok := ClearOverride(state, models.SeasonWinter)
	if !ok {
		t.Fatal("ClearOverride failed")
	}

	rec := state.CurrentRecord(models.SeasonWinter)
	if rec.Date != nil || rec.ManuallySet {
		t.Fatal("override not fully cleared")
	}

	start := day(2025, time.November, 1)
	state, _ = runMeans(t, state, start, []float64{-1, -1, -1, -1, -1})

	rec = state.CurrentRecord(models.SeasonWinter)
	if rec.Date == nil {
		t.Fatal("automatic commit not re-enabled after clearing override")
	}
	if !rec.Date.Equal(start) {
		t.Errorf("arrival date = %v, want %v", rec.Date, start)
	}
	if rec.ManuallySet {
		t.Error("automatic commit marked the record as manually set")
	}
}

func TestSpringGateDefersEarlyRun(t *testing.T) {
	state := models.NewEngineState(2025)

	// Seven qualifying days completing Feb 10: deferred, not dropped.
	start := day(2025, time.February, 4)
	state, results := runMeans(t, state, start, []float64{5, 5, 5, 5, 5, 5, 5})

	edgeEval := results[6].Evaluations[models.SeasonIndex(models.SeasonSpring)]
	if !edgeEval.ThresholdReached {
		t.Fatal("spring edge should fire on day seven")
	}
	if edgeEval.Outcome != OutcomeDeferred {
		t.Errorf("outcome = %q, want %q", edgeEval.Outcome, OutcomeDeferred)
	}
	if state.CurrentRecord(models.SeasonSpring).Date != nil {
		t.Fatal("spring committed before Feb 15")
	}

	// Still qualifying through Feb 15: commits with the gate date.
	state, results = runMeans(t, state, day(2025, time.February, 11), []float64{5, 5, 5, 5, 5})

	rec := state.CurrentRecord(models.SeasonSpring)
	if rec.Date == nil {
		t.Fatal("deferred commit never happened after the gate date")
	}
	if want := day(2025, time.February, 15); !rec.Date.Equal(want) {
		t.Errorf("arrival date = %v, want gate date %v", rec.Date, want)
	}

	// Commit happened on Feb 15, the first eligible day.
	feb15 := results[4].Evaluations[models.SeasonIndex(models.SeasonSpring)]
	if feb15.Outcome != OutcomeCommitted {
		t.Errorf("Feb 15 outcome = %q, want %q", feb15.Outcome, OutcomeCommitted)
	}
}

func TestSpringRunCrossingGateClampsToGate(t *testing.T) {
	state := models.NewEngineState(2025)

	// Seven qualifying days starting Feb 10: raw run completes
	// Feb 16, after the gate, but its first day precedes Feb 15.
	start := day(2025, time.February, 10)
	state, results := runMeans(t, state, start, []float64{5, 5, 5, 5, 5, 5, 5})

	for i := 0; i < 6; i++ {
		eval := results[i].Evaluations[models.SeasonIndex(models.SeasonSpring)]
		if eval.Outcome == OutcomeCommitted {
			t.Fatalf("commit before Feb 16 on day %d", i+1)
		}
	}

	edge := results[6].Evaluations[models.SeasonIndex(models.SeasonSpring)]
	if edge.Outcome != OutcomeCommitted {
		t.Fatalf("Feb 16 outcome = %q, want %q", edge.Outcome, OutcomeCommitted)
	}

	rec := state.CurrentRecord(models.SeasonSpring)
	if rec.Date == nil {
		t.Fatal("spring never committed")
	}
	if want := day(2025, time.February, 15); !rec.Date.Equal(want) {
		t.Errorf("arrival date = %v, want no earlier than gate %v", rec.Date, want)
	}
}

func TestBrokenDeferredRunEvaluatedFresh(t *testing.T) {
	state := models.NewEngineState(2025)

	// Run completes before the gate, then breaks before Feb 15.
	state, _ = runMeans(t, state, day(2025, time.February, 1),
		[]float64{5, 5, 5, 5, 5, 5, 5, -2})

	if state.CurrentRecord(models.SeasonSpring).Date != nil {
		t.Fatal("broken deferred run should not commit")
	}
	counter := state.Counter(models.SeasonSpring)
	if counter.ConsecutiveDays != 0 {
		t.Errorf("spring counter = %d, want 0 after failing day", counter.ConsecutiveDays)
	}
	if counter.CommitDeferred {
		t.Error("deferred flag survived a counter reset")
	}

	// A fresh run entirely after the gate commits from its true start.
	start := day(2025, time.March, 1)
	state, _ = runMeans(t, state, start, []float64{5, 5, 5, 5, 5, 5, 5})

	rec := state.CurrentRecord(models.SeasonSpring)
	if rec.Date == nil {
		t.Fatal("fresh post-gate run did not commit")
	}
	if !rec.Date.Equal(start) {
		t.Errorf("arrival date = %v, want run start %v", rec.Date, start)
	}
}

func TestAutumnGate(t *testing.T) {
	state := models.NewEngineState(2025)

	// Five days below 10°C completing Aug 3: run starts Jul 30,
	// before the Aug 1 gate, so the date clamps to the gate.
	state, _ = runMeans(t, state, day(2025, time.July, 30), []float64{8, 8, 8, 8, 8})

	rec := state.CurrentRecord(models.SeasonAutumn)
	if rec.Date == nil {
		t.Fatal("autumn never committed")
	}
	if want := day(2025, time.August, 1); !rec.Date.Equal(want) {
		t.Errorf("arrival date = %v, want gate %v", rec.Date, want)
	}
}

func TestRolloverMovesLedgerToHistory(t *testing.T) {
	state := models.NewEngineState(2025)
	winterArrival := day(2025, time.December, 1)
	state, _ = SetOverride(state, models.SeasonWinter, winterArrival)

	today := day(2026, time.January, 3)

	state, rolled := Rollover(state, today)
	if !rolled {
		t.Fatal("rollover should trigger when all records are from a prior year")
	}

	hist := state.HistoricalRecord(models.SeasonWinter)
	if hist.Date == nil || !hist.Date.Equal(winterArrival) {
		t.Errorf("historical winter date = %v, want %v", hist.Date, winterArrival)
	}
	if hist.Year != 2025 {
		t.Errorf("historical year = %d, want 2025", hist.Year)
	}

	for _, rec := range state.Current {
		if rec.Year != 2026 {
			t.Errorf("%s: current year = %d, want 2026", rec.Season, rec.Year)
		}
		if rec.Date != nil {
			t.Errorf("%s: current date not cleared", rec.Season)
		}
		if rec.ManuallySet {
			t.Errorf("%s: manually_set not cleared", rec.Season)
		}
	}

	// A second call is a no-op.
	before := state
	state, rolled = Rollover(state, today)
	if rolled {
		t.Error("second rollover call should be a no-op")
	}
	if state != before {
		t.Error("no-op rollover mutated state")
	}
}

func TestRolloverNotTriggeredMidYear(t *testing.T) {
	state := models.NewEngineState(2025)

	_, rolled := Rollover(state, day(2025, time.June, 15))
	if rolled {
		t.Error("rollover triggered while records belong to the current year")
	}
}

func TestFutureYearRecordsSurfaced(t *testing.T) {
	state := models.NewEngineState(2027)

	anomalies := FutureYearRecords(state, day(2025, time.June, 1))
	if len(anomalies) != 4 {
		t.Fatalf("anomalies = %d, want 4", len(anomalies))
	}

	_, rolled := Rollover(state, day(2025, time.June, 1))
	if rolled {
		t.Error("future-year records must block rollover")
	}
}

func TestResolve(t *testing.T) {
	d := func(y int, m time.Month, dd int) *time.Time {
		v := day(y, m, dd)
		return &v
	}

	tests := []struct {
		name    string
		current map[models.Season]*time.Time
		history map[models.Season]*time.Time
		today   time.Time
		want    models.Season
	}{
		{
			name:  "no data yields unknown",
			today: day(2025, time.June, 1),
			want:  models.SeasonUnknown,
		},
		{
			name: "latest current-year date wins",
			current: map[models.Season]*time.Time{
				models.SeasonSpring: d(2025, time.March, 10),
				models.SeasonSummer: d(2025, time.June, 2),
			},
			today: day(2025, time.July, 1),
			want:  models.SeasonSummer,
		},
		{
			name: "future-dated record ignored",
			current: map[models.Season]*time.Time{
				models.SeasonSpring: d(2025, time.March, 10),
				models.SeasonSummer: d(2025, time.June, 2),
			},
			today: day(2025, time.April, 1),
			want:  models.SeasonSpring,
		},
		{
			name: "historical fallback covers the new-year gap",
			history: map[models.Season]*time.Time{
				models.SeasonAutumn: d(2024, time.September, 5),
				models.SeasonWinter: d(2024, time.December, 12),
			},
			today: day(2025, time.January, 20),
			want:  models.SeasonWinter,
		},
		{
			name: "current year beats history",
			current: map[models.Season]*time.Time{
				models.SeasonSpring: d(2025, time.March, 20),
			},
			history: map[models.Season]*time.Time{
				models.SeasonWinter: d(2024, time.December, 12),
			},
			today: day(2025, time.April, 1),
			want:  models.SeasonSpring,
		},
		{
			name: "identical dates resolve in catalog order",
			current: map[models.Season]*time.Time{
				models.SeasonSpring: d(2025, time.March, 1),
				models.SeasonAutumn: d(2025, time.March, 1),
			},
			today: day(2025, time.April, 1),
			want:  models.SeasonSpring,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewEngineState(tt.today.Year())
			for season, date := range tt.current {
				state.CurrentRecord(season).Date = date
			}
			for season, date := range tt.history {
				rec := state.HistoricalRecord(season)
				rec.Date = date
				rec.Year = date.Year()
			}

			if got := Resolve(state, tt.today); got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTickUpdatesLastMeanAndActiveSeason(t *testing.T) {
	state := models.NewEngineState(2025)

	state, results := runMeans(t, state, day(2025, time.November, 1),
		[]float64{-1, -1, -1, -1, -1})

	if state.LastMean == nil || state.LastMean.MeanCelsius != -1 {
		t.Errorf("LastMean not carried on state: %+v", state.LastMean)
	}

	final := results[len(results)-1]
	if final.ActiveSeason != models.SeasonWinter {
		t.Errorf("active season = %v, want winter after commit", final.ActiveSeason)
	}
}
