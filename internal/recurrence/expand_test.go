package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrencesWeeklyCount(t *testing.T) {
	rule, err := Encode(Options{Frequency: FrequencyWeekly, Termination: TerminationAfterCount}, anchor, "UTC")
	require.NoError(t, err)

	from := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	got, truncated, err := Occurrences(rule, time.Time{}, from, to, 0)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, got, 4)
	assert.True(t, got[0].Equal(anchor))
	assert.True(t, got[3].Equal(anchor.AddDate(0, 0, 21)))
}

func TestOccurrencesLimit(t *testing.T) {
	rule, err := Encode(Options{Frequency: FrequencyDaily, Termination: TerminationNever}, anchor, "UTC")
	require.NoError(t, err)

	got, truncated, err := Occurrences(rule, time.Time{}, anchor, anchor.AddDate(0, 0, 30), 5)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Len(t, got, 5)
}

func TestOccurrencesUsesAnchorForBareRule(t *testing.T) {
	got, _, err := Occurrences("FREQ=DAILY;COUNT=3", anchor, anchor, anchor.AddDate(0, 0, 10), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[2].Equal(anchor.AddDate(0, 0, 2)))
}

func TestOccurrencesEmptyRule(t *testing.T) {
	got, truncated, err := Occurrences("", anchor, anchor, anchor.AddDate(0, 0, 1), 0)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Empty(t, got)
}

func TestOccurrencesInvertedWindow(t *testing.T) {
	_, _, err := Occurrences("FREQ=DAILY", anchor, anchor, anchor.AddDate(0, 0, -1), 0)
	assert.Error(t, err)
}

func TestLastOccurrence(t *testing.T) {
	count := 6
	rule, err := Encode(Options{Frequency: FrequencyWeekly, Termination: TerminationAfterCount, Count: &count}, anchor, "UTC")
	require.NoError(t, err)

	last, ok, err := LastOccurrence(rule, time.Time{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(anchor.AddDate(0, 0, 35)))
}

func TestLastOccurrenceUntil(t *testing.T) {
	rule, err := Encode(Options{Frequency: FrequencyDaily, Termination: TerminationOnDate}, anchor, "UTC")
	require.NoError(t, err)

	last, ok, err := LastOccurrence(rule, time.Time{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(anchor.AddDate(0, 1, 0)))
}

func TestLastOccurrenceOpenEnded(t *testing.T) {
	rule, err := Encode(Options{Frequency: FrequencyMonthly, Termination: TerminationNever}, anchor, "UTC")
	require.NoError(t, err)

	_, ok, err := LastOccurrence(rule, time.Time{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = LastOccurrence("", anchor)
	require.NoError(t, err)
	assert.False(t, ok)
}
