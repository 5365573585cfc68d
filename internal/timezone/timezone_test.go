package timezone

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInstantAppliesOverride(t *testing.T) {
	local := Date(2024, time.January, 1, 9, 0)

	got := ToInstant(local, "Etc/GMT+5")

	assert.Equal(t, time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC), got)
}

func TestToInstantDefaultZoneUsesLocal(t *testing.T) {
	local := Date(2024, time.March, 5, 18, 30)
	want := time.Date(2024, time.March, 5, 18, 30, 0, 0, time.Local).UTC()

	assert.Equal(t, want, ToInstant(local, ""))
	assert.Equal(t, want, ToInstant(local, BrowserDefault))
}

func TestToLocalReversesInstant(t *testing.T) {
	instant := time.Date(2024, time.July, 1, 2, 15, 0, 0, time.UTC)

	got := ToLocal(instant, "America/New_York")

	assert.Equal(t, "2024-06-30T22:15:00", got.String())
}

func TestRoundTripAcrossZones(t *testing.T) {
	zones := []string{"", BrowserDefault, "UTC", "Etc/GMT+5", "Asia/Kolkata", "Europe/Berlin", "Pacific/Chatham", "America/Los_Angeles"}
	locals := []LocalTime{
		Date(2024, time.January, 1, 9, 0),
		Date(2023, time.December, 31, 23, 45),
		Date(2025, time.February, 28, 0, 0),
		Date(2024, time.August, 15, 12, 30),
	}
	for _, zone := range zones {
		for _, local := range locals {
			back := ToLocal(ToInstant(local, zone), zone)
			assert.True(t, local.Equal(back), "zone %q: %s != %s", zone, local, back)
		}
	}
}

func TestResolveDirections(t *testing.T) {
	wall := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	instant := Resolve(wall, "Etc/GMT+5", Forward)
	require.Equal(t, time.Date(2024, time.January, 1, 14, 0, 0, 0, time.UTC), instant)

	back := Resolve(instant, "Etc/GMT+5", Reverse)
	assert.Equal(t, wall, back)
}

func TestInvalidZoneFallsBackToLocal(t *testing.T) {
	assert.False(t, IsValidZone("Mars/Olympus_Mons"))
	assert.True(t, IsValidZone(BrowserDefault))
	assert.True(t, IsValidZone("Europe/Paris"))

	local := Date(2024, time.January, 1, 9, 0)
	assert.Equal(t, ToInstant(local, ""), ToInstant(local, "Mars/Olympus_Mons"))
}

func TestParseLocalStates(t *testing.T) {
	unset := ParseLocal("  ")
	assert.False(t, unset.IsSet())
	assert.False(t, unset.Valid())

	valid := ParseLocal("2024-01-01T09:00")
	assert.True(t, valid.Valid())
	assert.Equal(t, "2024-01-01T09:00:00", valid.String())

	invalid := ParseLocal("tomorrow-ish")
	assert.True(t, invalid.IsSet())
	assert.False(t, invalid.Valid())
	assert.Equal(t, "tomorrow-ish", invalid.String())
	assert.True(t, ToInstant(invalid, "UTC").IsZero())
}

func TestLocalTimeJSON(t *testing.T) {
	var payload struct {
		Start LocalTime `json:"start"`
		End   LocalTime `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-01-01T10:30","end":null}`), &payload))
	assert.True(t, payload.Start.Valid())
	assert.False(t, payload.End.IsSet())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-01-01T10:30:00","end":null}`, string(out))
}

func TestLocalTimeArithmetic(t *testing.T) {
	start := Date(2024, time.January, 31, 9, 0)

	assert.Equal(t, "2024-01-31T10:00:00", start.Add(time.Hour).String())
	assert.Equal(t, "2024-02-29T09:00:00", start.AddMonths(1).String())
	assert.Equal(t, "2023-02-28T09:00:00", Date(2023, time.January, 31, 9, 0).AddMonths(1).String())
	assert.Equal(t, "2025-01-31T09:00:00", Date(2024, time.December, 31, 9, 0).AddMonths(1).String())
	assert.Equal(t, "2024-05-15T09:00:00", Date(2024, time.April, 15, 9, 0).AddMonths(1).String())
	assert.False(t, LocalTime{}.AddMonths(1).IsSet())
	assert.True(t, start.Before(start.Add(time.Minute)))
	assert.False(t, LocalTime{}.Before(start))
}
