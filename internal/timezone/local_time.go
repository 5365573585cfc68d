package timezone

import (
	"encoding/json"
	"strings"
	"time"
)

// Layouts accepted for wall-clock input. The first one is used for output.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type localState uint8

const (
	stateUnset localState = iota
	stateValid
	stateInvalid
)

// LocalTime is a date and time of day with no zone attached, as picked in an
// editor. The zero value is unset.
type LocalTime struct {
	wall  time.Time // fields only; location is always UTC
	raw   string
	state localState
}

// FromTime captures the wall-clock fields of t, discarding its location.
func FromTime(t time.Time) LocalTime {
	return LocalTime{
		wall:  time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
		state: stateValid,
	}
}

// Date builds a LocalTime from its fields.
func Date(year int, month time.Month, day, hour, min int) LocalTime {
	return FromTime(time.Date(year, month, day, hour, min, 0, 0, time.UTC))
}

// ParseLocal parses an editor value. An empty string is unset; anything that
// does not match a known layout is kept as an invalid value.
func ParseLocal(v string) LocalTime {
	v = strings.TrimSpace(v)
	if v == "" {
		return LocalTime{}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return FromTime(t)
		}
	}
	return LocalTime{raw: v, state: stateInvalid}
}

// IsSet reports whether a value (valid or not) was entered.
func (l LocalTime) IsSet() bool { return l.state != stateUnset }

// Valid reports whether the value is a well-formed wall clock.
func (l LocalTime) Valid() bool { return l.state == stateValid }

// Time returns the wall clock positioned in UTC. Callers must not treat it as an instant.
func (l LocalTime) Time() time.Time {
	if !l.Valid() {
		return time.Time{}
	}
	return l.wall
}

// Add returns l shifted by d. Invalid and unset values are returned unchanged.
func (l LocalTime) Add(d time.Duration) LocalTime {
	if !l.Valid() {
		return l
	}
	return FromTime(l.wall.Add(d))
}

// AddMonths returns l shifted by n calendar months. The day is clamped to the
// last day of the target month, so Jan 31 plus one month is Feb 28 or 29.
func (l LocalTime) AddMonths(n int) LocalTime {
	if !l.Valid() {
		return l
	}
	w := l.wall
	first := time.Date(w.Year(), w.Month()+time.Month(n), 1, w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := w.Day()
	if day > last {
		day = last
	}
	return FromTime(first.AddDate(0, 0, day-1))
}

// Before reports whether l is strictly earlier than o. Both must be valid.
func (l LocalTime) Before(o LocalTime) bool {
	return l.Valid() && o.Valid() && l.wall.Before(o.wall)
}

// Equal reports whether both values hold the same state and wall clock.
func (l LocalTime) Equal(o LocalTime) bool {
	if l.state != o.state {
		return false
	}
	switch l.state {
	case stateValid:
		return l.wall.Equal(o.wall)
	case stateInvalid:
		return l.raw == o.raw
	default:
		return true
	}
}

// String renders the value in the first accepted layout.
func (l LocalTime) String() string {
	switch l.state {
	case stateValid:
		return l.wall.Format(localLayouts[0])
	case stateInvalid:
		return l.raw
	default:
		return ""
	}
}

// MarshalJSON encodes unset values as null.
func (l LocalTime) MarshalJSON() ([]byte, error) {
	if !l.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts null or a string in any accepted layout.
func (l *LocalTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = LocalTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLocal(s)
	return nil
}
