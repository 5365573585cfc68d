package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/recurrence"
	"github.com/dojocal/scheduler-api/internal/timezone"
)

func TestValidateTimeRange(t *testing.T) {
	nine := timezone.Date(2024, time.January, 1, 9, 0)

	tests := []struct {
		name   string
		start  timezone.LocalTime
		end    timezone.LocalTime
		min    time.Duration
		expect FieldErrors
	}{
		{name: "valid", start: nine, end: nine.Add(90 * time.Minute), min: time.Hour, expect: FieldErrors{}},
		{name: "exactly minimum", start: nine, end: nine.Add(time.Hour), min: time.Hour, expect: FieldErrors{}},
		{name: "missing both", expect: FieldErrors{FieldStart: MsgRequired, FieldEnd: MsgRequired}},
		{
			name:   "malformed",
			start:  timezone.ParseLocal("tomorrow"),
			end:    timezone.ParseLocal("later"),
			expect: FieldErrors{FieldStart: MsgInvalidStart, FieldEnd: MsgInvalidEnd},
		},
		{name: "below minimum", start: nine, end: nine.Add(59 * time.Minute), min: time.Hour, expect: FieldErrors{FieldEnd: MsgMinimumHour}},
		{name: "end equals start", start: nine, end: nine, expect: FieldErrors{FieldEnd: MsgEndBeforeStart}},
		{name: "end before start", start: nine, end: nine.Add(-time.Minute), expect: FieldErrors{FieldEnd: MsgEndBeforeStart}},
		{name: "invalid start only", start: timezone.ParseLocal("x"), end: nine, expect: FieldErrors{FieldStart: MsgInvalidStart}},
		{
			name:   "custom minimum",
			start:  nine,
			end:    nine.Add(10 * time.Minute),
			min:    30 * time.Minute,
			expect: FieldErrors{FieldEnd: "End time must be at least 30m0s after start time"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, ValidateTimeRange(tc.start, tc.end, tc.min))
		})
	}
}

func TestRequireNonEmpty(t *testing.T) {
	assert.Nil(t, RequireNonEmpty(FieldTitle, "Lecture"))
	assert.Equal(t, FieldErrors{FieldTitle: MsgRequired}, RequireNonEmpty(FieldTitle, "   "))
}

func TestRequireMaxParticipants(t *testing.T) {
	tests := []struct {
		raw    string
		expect int
		msg    string
	}{
		{raw: "1", expect: 1},
		{raw: " 12 ", expect: 12},
		{raw: "3.0", expect: 3},
		{raw: "", expect: -1, msg: MsgRequired},
		{raw: "0", expect: -1, msg: MsgPositiveInteger},
		{raw: "-2", expect: -1, msg: MsgPositiveInteger},
		{raw: "2.5", expect: -1, msg: MsgPositiveInteger},
		{raw: "many", expect: -1, msg: MsgPositiveInteger},
		{raw: "2147483647", expect: 2147483647},
		{raw: "2147483648", expect: -1, msg: MsgPositiveInteger},
		{raw: "9223372036854775808", expect: -1, msg: MsgPositiveInteger},
		{raw: "1e30", expect: -1, msg: MsgPositiveInteger},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			n, errs := RequireMaxParticipants(tc.raw)
			assert.Equal(t, tc.expect, n)
			if tc.msg == "" {
				assert.True(t, errs.Empty())
				return
			}
			assert.Equal(t, tc.msg, errs[FieldMaxParticipants])
		})
	}
}

func TestRequirePrice(t *testing.T) {
	tests := []struct {
		raw    string
		expect int
		msg    string
	}{
		{raw: "5.00", expect: 500},
		{raw: "5", expect: 500},
		{raw: "5.10", expect: 510},
		{raw: "19.99", expect: 1999},
		{raw: "4.99", expect: -1, msg: MsgMinimumPrice},
		{raw: "5.005", expect: -1, msg: MsgPrecision},
		{raw: "five", expect: -1, msg: MsgNumber},
		{raw: "", expect: -1, msg: MsgRequired},
		{raw: "NaN", expect: -1, msg: MsgNumber},
		{raw: "1e17", expect: -1, msg: MsgNumber},
		{raw: "21474836.48", expect: -1, msg: MsgNumber},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			cents, errs := RequirePrice(FieldFullPrice, tc.raw)
			assert.Equal(t, tc.expect, cents)
			if tc.msg == "" {
				assert.True(t, errs.Empty())
				return
			}
			assert.Equal(t, FieldErrors{FieldFullPrice: tc.msg}, errs)
		})
	}
}

func TestOptionalPrice(t *testing.T) {
	cents, errs := OptionalPrice(FieldCurrentPrice, "")
	assert.Equal(t, -1, cents)
	assert.True(t, errs.Empty())

	cents, errs = OptionalPrice(FieldCurrentPrice, "2.50")
	assert.Equal(t, 250, cents)
	assert.True(t, errs.Empty())

	cents, errs = OptionalPrice(FieldCurrentPrice, "0")
	assert.Equal(t, 0, cents)
	assert.True(t, errs.Empty())

	_, errs = OptionalPrice(FieldCurrentPrice, "-1")
	assert.Equal(t, MsgNegativePrice, errs[FieldCurrentPrice])

	_, errs = OptionalPrice(FieldCurrentPrice, "1.234")
	assert.Equal(t, MsgPrecision, errs[FieldCurrentPrice])

	cents, errs = OptionalPrice(FieldCurrentPrice, "1e17")
	assert.Equal(t, -1, cents)
	assert.Equal(t, MsgNumber, errs[FieldCurrentPrice])

	_, errs = OptionalPrice(FieldCurrentPrice, "-1e17")
	assert.Equal(t, MsgNumber, errs[FieldCurrentPrice])
}

func TestResolveCohortSelection(t *testing.T) {
	catalog := cohort.Default()
	checked := map[string]bool{"2000-2100": true, "0-400": true, "1100-1200": true}

	assert.Equal(t, []string{"0-400", "1100-1200", "2000-2100"}, ResolveCohortSelection(catalog, false, checked))
	assert.Equal(t, catalog.Labels(), ResolveCohortSelection(catalog, true, checked))
	assert.Empty(t, ResolveCohortSelection(catalog, false, nil))
}

func TestResolveRecurrenceRule(t *testing.T) {
	start := timezone.Date(2024, time.January, 1, 9, 0)

	rule, errs := ResolveRecurrenceRule(recurrence.Options{}, start, "Etc/GMT+5")
	assert.Empty(t, rule)
	assert.True(t, errs.Empty())

	rule, errs = ResolveRecurrenceRule(recurrence.Options{
		Frequency:   recurrence.FrequencyWeekly,
		Termination: recurrence.TerminationAfterCount,
	}, start, "Etc/GMT+5")
	assert.True(t, errs.Empty())
	assert.Contains(t, rule, "DTSTART:20240101T140000Z")
	assert.Contains(t, rule, "COUNT=4")

	zero := 0
	rule, errs = ResolveRecurrenceRule(recurrence.Options{
		Frequency:   recurrence.FrequencyDaily,
		Termination: recurrence.TerminationAfterCount,
		Count:       &zero,
	}, start, "UTC")
	assert.Empty(t, rule)
	assert.Equal(t, FieldErrors{FieldCount: MsgCount}, errs)

	rule, errs = ResolveRecurrenceRule(recurrence.Options{Frequency: recurrence.FrequencyDaily}, timezone.LocalTime{}, "UTC")
	assert.Empty(t, rule)
	assert.True(t, errs.Empty())
}

func TestMergeKeepsFirstMessage(t *testing.T) {
	merged := Merge(
		FieldErrors{FieldEnd: "first"},
		nil,
		FieldErrors{FieldEnd: "second", FieldTitle: MsgRequired},
	)
	assert.Equal(t, FieldErrors{FieldEnd: "first", FieldTitle: MsgRequired}, merged)
	assert.NotNil(t, Merge())
	assert.Equal(t, map[string]string{"end": "first", "title": MsgRequired}, merged.Strings())
}
