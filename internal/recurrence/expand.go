package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultMaxOccurrences caps expansion of open-ended rules.
const DefaultMaxOccurrences = 500

// Occurrences expands rule into the start instants falling inside [from, to].
// The anchor is taken from the rule's DTSTART, or from anchor when the rule
// carries none. The second return value is true when limit truncated the result.
func Occurrences(rule string, anchor, from, to time.Time, limit int) ([]time.Time, bool, error) {
	if to.Before(from) {
		return nil, false, errors.New("recurrence: window end is before start")
	}
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}

	r, err := parse(rule, anchor)
	if err != nil || r == nil {
		return nil, false, err
	}

	times := r.Between(from.UTC(), to.UTC(), true)
	if len(times) > limit {
		return times[:limit], true, nil
	}
	return times, false, nil
}

// LastOccurrence returns the final start instant of a rule that terminates by
// count or date. ok is false for an empty or open-ended rule.
func LastOccurrence(rule string, anchor time.Time) (last time.Time, ok bool, err error) {
	line, _, err := split(rule)
	if err != nil || line == "" {
		return time.Time{}, false, err
	}
	opts, err := rrule.StrToROption(line)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("recurrence: parse rule: %w", err)
	}
	if opts.Count <= 0 && opts.Until.IsZero() {
		return time.Time{}, false, nil
	}

	r, err := parse(rule, anchor)
	if err != nil {
		return time.Time{}, false, err
	}
	all := r.All()
	if len(all) == 0 {
		return time.Time{}, false, nil
	}
	return all[len(all)-1], true, nil
}

func parse(rule string, anchor time.Time) (*rrule.RRule, error) {
	line, dtstart, err := split(rule)
	if err != nil || line == "" {
		return nil, err
	}
	if dtstart.IsZero() {
		dtstart = anchor
	}
	r, err := rrule.StrToRRule(line)
	if err != nil {
		return nil, fmt.Errorf("recurrence: parse rule: %w", err)
	}
	r.DTStart(dtstart.UTC())
	return r, nil
}
