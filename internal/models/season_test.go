package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSeasonStringRoundTrip(t *testing.T) {
	seasons := []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn, SeasonUnknown}

	for _, season := range seasons {
		parsed, err := ParseSeason(season.String())
		if err != nil {
			t.Errorf("ParseSeason(%q): %v", season.String(), err)
			continue
		}
		if parsed != season {
			t.Errorf("ParseSeason(%q) = %v, want %v", season.String(), parsed, season)
		}
	}
}

func TestParseSeasonRejectsGarbage(t *testing.T) {
	_, err := ParseSeason("monsoon")
	if err == nil {
		t.Fatal("expected error for unknown season name")
	}
	var vErr *ValidationError
	if ve, ok := err.(*ValidationError); ok {
		vErr = ve
	} else {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if vErr.IsTransient() {
		t.Error("validation errors must not be transient")
	}
}

func TestSeasonJSON(t *testing.T) {
	data, err := json.Marshal(SeasonAutumn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"autumn"` {
		t.Errorf("marshal = %s, want %q", data, "autumn")
	}

	var season Season
	if err := json.Unmarshal([]byte(`"winter"`), &season); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if season != SeasonWinter {
		t.Errorf("unmarshal = %v, want winter", season)
	}
}

func TestComparatorEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		comparator Comparator
		mean       float64
		threshold  float64
		want       bool
	}{
		{"at most: below", CompareLessOrEqual, -1.0, 0.0, true},
		{"at most: exactly on threshold counts", CompareLessOrEqual, 0.0, 0.0, true},
		{"at most: above", CompareLessOrEqual, 0.1, 0.0, false},
		{"strictly above: below", CompareGreaterThan, -0.1, 0.0, false},
		{"strictly above: exactly on threshold does not count", CompareGreaterThan, 0.0, 0.0, false},
		{"strictly above: above", CompareGreaterThan, 0.1, 0.0, true},
		{"at least: exactly on threshold counts", CompareGreaterOrEqual, 10.0, 10.0, true},
		{"at least: just below", CompareGreaterOrEqual, 9.9, 10.0, false},
		{"strictly below: exactly on threshold does not count", CompareLessThan, 10.0, 10.0, false},
		{"strictly below: below", CompareLessThan, 9.9, 10.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.comparator.Evaluate(tt.mean, tt.threshold); got != tt.want {
				t.Errorf("%v.Evaluate(%v, %v) = %v, want %v",
					tt.comparator, tt.mean, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestCatalogRules(t *testing.T) {
	catalog := Catalog()

	wantOrder := []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn}
	for i, want := range wantOrder {
		if catalog[i].Season != want {
			t.Errorf("catalog[%d] = %v, want %v", i, catalog[i].Season, want)
		}
	}

	check := func(season Season, comparator Comparator, threshold float64, runLength int, gate *MonthDay) {
		t.Helper()
		def, ok := DefinitionFor(season)
		if !ok {
			t.Fatalf("no definition for %v", season)
		}
		if def.Comparator != comparator || def.ThresholdTemp != threshold || def.RunLength != runLength {
			t.Errorf("%v: got %v %v°C over %d days", season, def.Comparator, def.ThresholdTemp, def.RunLength)
		}
		switch {
		case gate == nil && def.EarliestEligible != nil:
			t.Errorf("%v: unexpected eligibility gate %v", season, *def.EarliestEligible)
		case gate != nil && def.EarliestEligible == nil:
			t.Errorf("%v: missing eligibility gate, want %v", season, *gate)
		case gate != nil && *def.EarliestEligible != *gate:
			t.Errorf("%v: gate = %v, want %v", season, *def.EarliestEligible, *gate)
		}
	}

	check(SeasonWinter, CompareLessOrEqual, 0.0, 5, nil)
	check(SeasonSpring, CompareGreaterThan, 0.0, 7, &MonthDay{Month: time.February, Day: 15})
	check(SeasonSummer, CompareGreaterOrEqual, 10.0, 5, nil)
	check(SeasonAutumn, CompareLessThan, 10.0, 5, &MonthDay{Month: time.August, Day: 1})
}

func TestSeasonIndex(t *testing.T) {
	if got := SeasonIndex(SeasonWinter); got != 0 {
		t.Errorf("SeasonIndex(winter) = %d, want 0", got)
	}
	if got := SeasonIndex(SeasonAutumn); got != 3 {
		t.Errorf("SeasonIndex(autumn) = %d, want 3", got)
	}
	if got := SeasonIndex(SeasonUnknown); got != -1 {
		t.Errorf("SeasonIndex(unknown) = %d, want -1", got)
	}
}

func TestRawSampleRecordToSample(t *testing.T) {
	tests := []struct {
		name      string
		record    RawSampleRecord
		wantNil   bool
		wantErr   bool
		wantValue float64
	}{
		{
			name:      "valid reading in tenths",
			record:    RawSampleRecord{Timestamp: "2025-03-10T06:00:00Z", TemperatureTenths: -23},
			wantValue: -2.3,
		},
		{
			name:    "missing sentinel is skipped without error",
			record:  RawSampleRecord{Timestamp: "2025-03-10T06:00:00Z", TemperatureTenths: -9999},
			wantNil: true,
		},
		{
			name:    "malformed timestamp",
			record:  RawSampleRecord{Timestamp: "10/03/2025 06:00", TemperatureTenths: 50},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := tt.record.ToSample("outdoor")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToSample: %v", err)
			}

			if tt.wantNil {
				if sample != nil {
					t.Fatalf("expected nil sample for sentinel, got %+v", sample)
				}
				return
			}

			if sample.ValueCelsius != tt.wantValue {
				t.Errorf("ValueCelsius = %v, want %v", sample.ValueCelsius, tt.wantValue)
			}
			if sample.SensorID != "outdoor" {
				t.Errorf("SensorID = %q, want %q", sample.SensorID, "outdoor")
			}
		})
	}
}

func TestDayOf(t *testing.T) {
	// 23:59 CET is 22:59 UTC, still March 10 in UTC.
	in := time.Date(2025, time.March, 10, 23, 59, 59, 0, time.FixedZone("CET", 3600))
	got := DayOf(in)
	want := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayOf(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("DayOf location = %v, want UTC", got.Location())
	}
}

func TestNewEngineState(t *testing.T) {
	state := NewEngineState(2025)

	for i, def := range Catalog() {
		if state.Counters[i].Season != def.Season {
			t.Errorf("counter[%d] season = %v, want %v", i, state.Counters[i].Season, def.Season)
		}
		if state.Current[i].Year != 2025 {
			t.Errorf("%v: current year = %d, want 2025", def.Season, state.Current[i].Year)
		}
		if state.Historical[i].Year != 2024 {
			t.Errorf("%v: historical year = %d, want 2024", def.Season, state.Historical[i].Year)
		}
		if state.Current[i].Date != nil || state.Historical[i].Date != nil {
			t.Errorf("%v: fresh state carries an arrival date", def.Season)
		}
	}

	if rec := state.CurrentRecord(SeasonSummer); rec.Season != SeasonSummer {
		t.Errorf("CurrentRecord(summer) points at %v", rec.Season)
	}
}
