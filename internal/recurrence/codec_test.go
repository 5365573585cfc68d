package recurrence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojocal/scheduler-api/internal/timezone"
)

var anchor = time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func TestEncodeNoFrequency(t *testing.T) {
	rule, err := Encode(Options{Termination: TerminationAfterCount, Count: intPtr(3)}, anchor, "UTC")
	require.NoError(t, err)
	assert.Empty(t, rule)
}

func TestEncodeDefaultCounts(t *testing.T) {
	cases := map[Frequency]int{
		FrequencyDaily:   30,
		FrequencyWeekly:  4,
		FrequencyMonthly: 12,
		FrequencyYearly:  2,
	}
	for freq, want := range cases {
		t.Run(string(freq), func(t *testing.T) {
			rule, err := Encode(Options{Frequency: freq, Termination: TerminationAfterCount}, anchor, "UTC")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(rule, "DTSTART:20240101T140000Z\nRRULE:FREQ="+string(freq)))

			decoded, err := Decode(rule, "UTC")
			require.NoError(t, err)
			assert.Equal(t, freq, decoded.Frequency)
			assert.Equal(t, TerminationAfterCount, decoded.Termination)
			require.NotNil(t, decoded.Count)
			assert.Equal(t, want, *decoded.Count)
		})
	}
}

func TestEncodeRejectsNonPositiveCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := Encode(Options{Frequency: FrequencyWeekly, Termination: TerminationAfterCount, Count: intPtr(n)}, anchor, "UTC")
		assert.ErrorIs(t, err, ErrInvalidCount)
	}
}

func TestEncodeUntilDefaultsToOneMonth(t *testing.T) {
	rule, err := Encode(Options{Frequency: FrequencyWeekly, Termination: TerminationOnDate}, anchor, "Etc/GMT+5")
	require.NoError(t, err)
	assert.Contains(t, rule, "UNTIL=20240201T140000Z")
	assert.NotContains(t, rule, "COUNT=")

	decoded, err := Decode(rule, "Etc/GMT+5")
	require.NoError(t, err)
	assert.Equal(t, TerminationOnDate, decoded.Termination)
	assert.Equal(t, "2024-02-01T09:00:00", decoded.Until.String())
	assert.Nil(t, decoded.Count)
}

func TestEncodeUntilDefaultClampsToMonthEnd(t *testing.T) {
	start := time.Date(2024, time.January, 31, 14, 0, 0, 0, time.UTC)

	rule, err := Encode(Options{Frequency: FrequencyWeekly, Termination: TerminationOnDate}, start, "Etc/GMT+5")
	require.NoError(t, err)
	assert.Contains(t, rule, "UNTIL=20240229T140000Z")

	decoded, err := Decode(rule, "Etc/GMT+5")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T09:00:00", decoded.Until.String())
}

func TestEncodeUntilRoundTrip(t *testing.T) {
	opts := Options{
		Frequency:   FrequencyMonthly,
		Termination: TerminationOnDate,
		Until:       timezone.Date(2024, time.June, 30, 18, 30),
	}
	rule, err := Encode(opts, anchor, "America/New_York")
	require.NoError(t, err)
	assert.Contains(t, rule, "UNTIL=20240630T223000Z")

	decoded, err := Decode(rule, "America/New_York")
	require.NoError(t, err)
	assert.True(t, opts.Until.Equal(decoded.Until))
	assert.Equal(t, FrequencyMonthly, decoded.Frequency)
}

func TestEncodeNeverTerminates(t *testing.T) {
	rule, err := Encode(Options{Frequency: FrequencyDaily, Termination: TerminationNever}, anchor, "UTC")
	require.NoError(t, err)
	assert.NotContains(t, rule, "COUNT=")
	assert.NotContains(t, rule, "UNTIL=")

	decoded, err := Decode(rule, "UTC")
	require.NoError(t, err)
	assert.Equal(t, TerminationNever, decoded.Termination)
	assert.True(t, decoded.Recurs())
}

func TestEncodeUnknownFrequency(t *testing.T) {
	_, err := Encode(Options{Frequency: "FORTNIGHTLY"}, anchor, "UTC")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestDecodeEmptyRule(t *testing.T) {
	decoded, err := Decode("", "UTC")
	require.NoError(t, err)
	assert.False(t, decoded.Recurs())
	assert.Equal(t, TerminationNever, decoded.Termination)
}

func TestDecodeBareRule(t *testing.T) {
	decoded, err := Decode("FREQ=WEEKLY;COUNT=6", "UTC")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, decoded.Frequency)
	require.NotNil(t, decoded.Count)
	assert.Equal(t, 6, *decoded.Count)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("DTSTART:yesterday\nRRULE:FREQ=DAILY", "UTC")
	assert.Error(t, err)
}

func TestRRuleLine(t *testing.T) {
	assert.Equal(t, "FREQ=DAILY;COUNT=2", RRuleLine("DTSTART:20240101T140000Z\nRRULE:FREQ=DAILY;COUNT=2"))
	assert.Equal(t, "", RRuleLine(""))
}
