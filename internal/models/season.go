package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Season identifies one of the four meteorological seasons, or Unknown
// when no season has been established yet.
type Season int

const (
	SeasonUnknown Season = iota
	SeasonWinter
	SeasonSpring
	SeasonSummer
	SeasonAutumn
)

// String returns the season's display name
func (s Season) String() string {
	switch s {
	case SeasonWinter:
		return "winter"
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonAutumn:
		return "autumn"
	default:
		return "unknown"
	}
}

// ParseSeason converts a season name to a Season
func ParseSeason(name string) (Season, error) {
	switch name {
	case "winter":
		return SeasonWinter, nil
	case "spring":
		return SeasonSpring, nil
	case "summer":
		return SeasonSummer, nil
	case "autumn":
		return SeasonAutumn, nil
	case "unknown":
		return SeasonUnknown, nil
	default:
		return SeasonUnknown, &ValidationError{
			Field:   "season",
			Value:   name,
			Message: fmt.Sprintf("unknown season %q, expected winter, spring, summer or autumn", name),
		}
	}
}

// MarshalJSON encodes the season as its display name
func (s Season) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a season from its display name
func (s *Season) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeason(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer so seasons are stored as text
func (s Season) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan implements sql.Scanner for text season columns
func (s *Season) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseSeason(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case []byte:
		parsed, err := ParseSeason(string(v))
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan season from %T", src)
	}
}

// Comparator is the qualification test a daily mean must pass for a season
type Comparator int

const (
	CompareLessOrEqual Comparator = iota
	CompareGreaterThan
	CompareGreaterOrEqual
	CompareLessThan
)

// Evaluate reports whether mean satisfies the comparator against threshold
func (c Comparator) Evaluate(mean, threshold float64) bool {
	switch c {
	case CompareLessOrEqual:
		return mean <= threshold
	case CompareGreaterThan:
		return mean > threshold
	case CompareGreaterOrEqual:
		return mean >= threshold
	case CompareLessThan:
		return mean < threshold
	default:
		return false
	}
}

// String returns the comparator's operator symbol
func (c Comparator) String() string {
	switch c {
	case CompareLessOrEqual:
		return "<="
	case CompareGreaterThan:
		return ">"
	case CompareGreaterOrEqual:
		return ">="
	case CompareLessThan:
		return "<"
	default:
		return "?"
	}
}

// MonthDay is a recurring yearly calendar boundary
type MonthDay struct {
	Month time.Month
	Day   int
}

// DateIn returns the boundary as a concrete date within the given year
func (md MonthDay) DateIn(year int) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
}

// SeasonDefinition is one immutable entry of the season catalog
type SeasonDefinition struct {
	Season           Season
	Comparator       Comparator
	ThresholdTemp    float64 // °C
	RunLength        int     // required consecutive qualifying days
	EarliestEligible *MonthDay
}

// catalog holds the SMHI season rules. Winter and summer have no
// eligibility gate; spring cannot arrive before Feb 15 and autumn
// not before Aug 1. Declaration order doubles as the resolver's
// deterministic tie-break order.
var catalog = [4]SeasonDefinition{
	{Season: SeasonWinter, Comparator: CompareLessOrEqual, ThresholdTemp: 0.0, RunLength: 5},
	{Season: SeasonSpring, Comparator: CompareGreaterThan, ThresholdTemp: 0.0, RunLength: 7, EarliestEligible: &MonthDay{Month: time.February, Day: 15}},
	{Season: SeasonSummer, Comparator: CompareGreaterOrEqual, ThresholdTemp: 10.0, RunLength: 5},
	{Season: SeasonAutumn, Comparator: CompareLessThan, ThresholdTemp: 10.0, RunLength: 5, EarliestEligible: &MonthDay{Month: time.August, Day: 1}},
}

// Catalog returns the four season definitions in declaration order
func Catalog() [4]SeasonDefinition {
	return catalog
}

// DefinitionFor returns the catalog entry for a season
func DefinitionFor(season Season) (SeasonDefinition, bool) {
	for _, def := range catalog {
		if def.Season == season {
			return def, true
		}
	}
	return SeasonDefinition{}, false
}

// SeasonIndex returns a season's position in catalog order, or -1
// for Unknown.
func SeasonIndex(season Season) int {
	for i, def := range catalog {
		if def.Season == season {
			return i
		}
	}
	return -1
}
