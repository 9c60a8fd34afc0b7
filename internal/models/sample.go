package models

import (
	"time"
)

// TemperatureSample represents a single outdoor temperature reading
type TemperatureSample struct {
	ID           int64     `json:"id" db:"id"`
	SensorID     string    `json:"sensor_id" db:"sensor_id"`
	SampledAt    time.Time `json:"sampled_at" db:"sampled_at"`
	ValueCelsius float64   `json:"value_celsius" db:"value_celsius"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DailyMean is the arithmetic mean of one calendar day's samples.
// Immutable once computed.
type DailyMean struct {
	Date        time.Time `json:"date" db:"mean_date"`
	MeanCelsius float64   `json:"mean_celsius" db:"mean_celsius"`
	SampleCount int       `json:"sample_count" db:"sample_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RawSampleRecord represents a single line from an input sample file.
// Used during ingestion.
type RawSampleRecord struct {
	Timestamp         string
	TemperatureTenths int // Raw value in 0.1°C (may be -9999 for missing)
}

// ToSample converts a RawSampleRecord to a TemperatureSample.
// A -9999 sentinel yields (nil, nil): the reading is missing, not invalid.
func (r *RawSampleRecord) ToSample(sensorID string) (*TemperatureSample, error) {
	ts, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return nil, &ValidationError{
			Field:   "timestamp",
			Value:   r.Timestamp,
			Message: "invalid timestamp format, expected RFC3339",
		}
	}

	if r.TemperatureTenths == -9999 {
		return nil, nil
	}

	return &TemperatureSample{
		SensorID:     sensorID,
		SampledAt:    ts.UTC(),
		ValueCelsius: float64(r.TemperatureTenths) / 10.0,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// DayOf returns the calendar day a timestamp belongs to, normalized
// to midnight UTC. All engine dates are calendar days in this form.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
