package editor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/recurrence"
	"github.com/dojocal/scheduler-api/internal/timezone"
)

// MinimumPriceCents is the floor for required prices.
const MinimumPriceCents = 500

// Tolerance when deciding whether dollars*100 is a whole number of cents.
const centTolerance = 1e-6

// ValidateTimeRange checks that start and end are present and well formed and
// that end comes after start. A positive minDuration additionally requires
// end >= start+minDuration.
func ValidateTimeRange(start, end timezone.LocalTime, minDuration time.Duration) FieldErrors {
	errs := FieldErrors{}

	switch {
	case !start.IsSet():
		errs[FieldStart] = MsgRequired
	case !start.Valid():
		errs[FieldStart] = MsgInvalidStart
	}

	switch {
	case !end.IsSet():
		errs[FieldEnd] = MsgRequired
	case !end.Valid():
		errs[FieldEnd] = MsgInvalidEnd
	case !start.Valid():
		// nothing to compare against
	case minDuration > 0 && end.Before(start.Add(minDuration)):
		errs[FieldEnd] = minDurationMessage(minDuration)
	case !start.Before(end):
		errs[FieldEnd] = MsgEndBeforeStart
	}
	return errs
}

func minDurationMessage(d time.Duration) string {
	if d == time.Hour {
		return MsgMinimumHour
	}
	return fmt.Sprintf("End time must be at least %s after start time", d)
}

// RequireNonEmpty fails when the trimmed value is empty.
func RequireNonEmpty(field Field, value string) FieldErrors {
	if strings.TrimSpace(value) == "" {
		return fieldError(field, MsgRequired)
	}
	return nil
}

// RequireMaxParticipants parses a positive integer capacity. It returns -1
// alongside any error.
func RequireMaxParticipants(raw string) (int, FieldErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return -1, fieldError(FieldMaxParticipants, MsgRequired)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return -1, fieldError(FieldMaxParticipants, MsgPositiveInteger)
	}
	return int(f), nil
}

// RequirePrice parses a dollar amount into cents, enforcing the $5 floor.
func RequirePrice(field Field, raw string) (int, FieldErrors) {
	if strings.TrimSpace(raw) == "" {
		return -1, fieldError(field, MsgRequired)
	}
	cents, errs := parseCents(field, raw)
	if errs != nil {
		return -1, errs
	}
	if cents < MinimumPriceCents {
		return -1, fieldError(field, MsgMinimumPrice)
	}
	return cents, nil
}

// OptionalPrice is RequirePrice without the floor. A blank value is absent
// and yields -1 with no error.
func OptionalPrice(field Field, raw string) (int, FieldErrors) {
	if strings.TrimSpace(raw) == "" {
		return -1, nil
	}
	cents, errs := parseCents(field, raw)
	if errs != nil {
		return -1, errs
	}
	if cents < 0 {
		return -1, fieldError(field, MsgNegativePrice)
	}
	return cents, nil
}

// parseCents rejects amounts that are not a whole number of cents, so "5.005"
// fails even though it parses. Amounts beyond MaxInt32 cents are not numbers
// we can store.
func parseCents(field Field, raw string) (int, FieldErrors) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return -1, fieldError(field, MsgNumber)
	}
	scaled := f * 100
	if math.Abs(scaled) > math.MaxInt32 {
		return -1, fieldError(field, MsgNumber)
	}
	cents := math.Round(scaled)
	if math.Abs(scaled-cents) > centTolerance {
		return -1, fieldError(field, MsgPrecision)
	}
	return int(cents), nil
}

// ResolveCohortSelection returns the selected cohorts in catalog order. When
// all is set the whole catalog is returned regardless of the checkboxes.
func ResolveCohortSelection(catalog *cohort.Catalog, all bool, selected map[string]bool) []string {
	if all {
		return catalog.Labels()
	}
	return catalog.Ordered(selected)
}

// ResolveRecurrenceRule encodes opts anchored at start as seen in zone. No
// rule is produced when the draft does not recur or start is unusable.
func ResolveRecurrenceRule(opts recurrence.Options, start timezone.LocalTime, zone string) (string, FieldErrors) {
	if !opts.Recurs() || !start.Valid() {
		return "", nil
	}
	rule, err := recurrence.Encode(opts, timezone.ToInstant(start, zone), zone)
	switch {
	case err == nil:
		return rule, nil
	case errors.Is(err, recurrence.ErrInvalidCount):
		return "", fieldError(FieldCount, MsgCount)
	default:
		return "", fieldError(FieldCount, MsgRecurrence)
	}
}
