// Package recurrence encodes the editor's small recurrence configuration into
// RFC 5545 rule text and decodes stored rules back for editing.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/dojocal/scheduler-api/internal/timezone"
)

// Frequency is how often an event repeats. The zero value means it does not.
type Frequency string

const (
	FrequencyNone    Frequency = ""
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Termination is the policy ending a recurrence.
type Termination string

const (
	TerminationNever      Termination = "NEVER"
	TerminationOnDate     Termination = "UNTIL"
	TerminationAfterCount Termination = "COUNT"
)

const dtstartLayout = "20060102T150405Z"

var (
	// ErrInvalidCount is returned when an explicit occurrence count is not positive.
	ErrInvalidCount = errors.New("recurrence: count must be greater than 0")
	// ErrUnknownFrequency is returned for frequencies the codec cannot encode.
	ErrUnknownFrequency = errors.New("recurrence: unknown frequency")
)

var toLibFrequency = map[Frequency]rrule.Frequency{
	FrequencyDaily:   rrule.DAILY,
	FrequencyWeekly:  rrule.WEEKLY,
	FrequencyMonthly: rrule.MONTHLY,
	FrequencyYearly:  rrule.YEARLY,
}

// Options is the editable recurrence configuration.
type Options struct {
	Frequency   Frequency          `json:"frequency,omitempty"`
	Termination Termination        `json:"ends"`
	Until       timezone.LocalTime `json:"until"`
	Count       *int               `json:"count,omitempty"`
}

// Recurs reports whether a frequency is set.
func (o Options) Recurs() bool {
	return o.Frequency != FrequencyNone
}

// DefaultCount is the number of occurrences used when the user picks
// "after N occurrences" but leaves N blank.
func DefaultCount(f Frequency) int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyWeekly:
		return 4
	case FrequencyDaily:
		return 30
	default:
		return 2
	}
}

// Encode builds the rule text for opts anchored at dtstart (a UTC instant).
// zone is the author's timezone override, used to resolve the until date.
// An empty string is returned when opts does not recur.
func Encode(opts Options, dtstart time.Time, zone string) (string, error) {
	if !opts.Recurs() {
		return "", nil
	}
	freq, ok := toLibFrequency[opts.Frequency]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFrequency, opts.Frequency)
	}

	ro := rrule.ROption{
		Freq:     freq,
		Interval: 1,
	}

	switch opts.Termination {
	case TerminationAfterCount:
		count := DefaultCount(opts.Frequency)
		if opts.Count != nil {
			count = *opts.Count
		}
		if count <= 0 {
			return "", ErrInvalidCount
		}
		ro.Count = count
	case TerminationOnDate:
		until := opts.Until
		if !until.Valid() {
			until = timezone.ToLocal(dtstart, zone).AddMonths(1)
		}
		ro.Until = timezone.ToInstant(until, zone)
	}

	// Validate the combination before serialising.
	check := ro
	check.Dtstart = dtstart.UTC()
	if _, err := rrule.NewRRule(check); err != nil {
		return "", fmt.Errorf("recurrence: build rule: %w", err)
	}

	return "DTSTART:" + dtstart.UTC().Format(dtstartLayout) + "\nRRULE:" + ro.RRuleString(), nil
}

// Decode parses a stored rule back into editable options. zone is the
// viewer's timezone override; the until instant is shown as its wall clock.
func Decode(rule string, zone string) (Options, error) {
	line, _, err := split(rule)
	if err != nil {
		return Options{}, err
	}
	if line == "" {
		return Options{Termination: TerminationNever}, nil
	}

	ro, err := rrule.StrToROption(line)
	if err != nil {
		return Options{}, fmt.Errorf("recurrence: parse rule: %w", err)
	}

	opts := Options{
		Frequency:   Frequency(ro.Freq.String()),
		Termination: TerminationNever,
	}
	switch {
	case ro.Count > 0:
		count := ro.Count
		opts.Count = &count
		opts.Termination = TerminationAfterCount
	case !ro.Until.IsZero():
		opts.Termination = TerminationOnDate
	}
	if !ro.Until.IsZero() {
		opts.Until = timezone.ToLocal(ro.Until, zone)
	}
	return opts, nil
}

// RRuleLine returns the bare FREQ=... value of a stored rule, suitable for an
// iCalendar RRULE property.
func RRuleLine(rule string) string {
	line, _, err := split(rule)
	if err != nil {
		return ""
	}
	return line
}

// split separates a stored rule into its RRULE value and DTSTART anchor.
// Both the two-line form written by Encode and a bare rule are accepted.
func split(rule string) (string, time.Time, error) {
	var (
		line    string
		dtstart time.Time
	)
	for _, raw := range strings.Split(strings.TrimSpace(rule), "\n") {
		raw = strings.TrimSpace(raw)
		upper := strings.ToUpper(raw)
		switch {
		case raw == "":
			continue
		case strings.HasPrefix(upper, "DTSTART"):
			idx := strings.LastIndex(raw, ":")
			if idx < 0 {
				return "", time.Time{}, fmt.Errorf("recurrence: malformed DTSTART %q", raw)
			}
			t, err := time.Parse(dtstartLayout, raw[idx+1:])
			if err != nil {
				return "", time.Time{}, fmt.Errorf("recurrence: parse DTSTART: %w", err)
			}
			dtstart = t
		case strings.HasPrefix(upper, "RRULE:"):
			line = raw[len("RRULE:"):]
		default:
			line = raw
		}
	}
	return line, dtstart, nil
}
