package service

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojocal/scheduler-api/internal/models"
)

func TestICSRenderParsesBack(t *testing.T) {
	svc := NewICSService("dojo.test")
	ev := models.Event{
		ID:          "ev-1",
		Kind:        models.EventKindCoaching,
		Owner:       "carol",
		Title:       "Endgame clinic",
		Description: "Rook endings",
		Location:    "Zoom",
		StartTime:   "2024-01-01T17:00:00.000Z",
		EndTime:     "2024-01-01T18:00:00.000Z",
		Status:      models.EventStatusScheduled,
		UpdatedAt:   time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	body, err := svc.Render("Dojo", ev)
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(body))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "ev-1@dojo.test", events[0].Id())
	assert.Equal(t, "Endgame clinic", events[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Zoom", events[0].GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "CONFIRMED", events[0].GetProperty(ics.ComponentPropertyStatus).Value)
	assert.Nil(t, events[0].GetProperty(ics.ComponentPropertyRrule))
}

func TestICSRenderCanceledAvailability(t *testing.T) {
	svc := NewICSService("")
	ev := models.Event{
		ID:        "ev-2",
		Kind:      models.EventKindAvailability,
		Types:     []models.AvailabilityType{models.AvailabilityClassicalGame, models.AvailabilityBookStudy},
		StartTime: "2024-01-01T17:00:00.000Z",
		EndTime:   "2024-01-01T18:00:00.000Z",
		Status:    models.EventStatusCanceled,
	}

	body, err := svc.Render("", ev)
	require.NoError(t, err)
	assert.Contains(t, body, "STATUS:CANCELLED")
	assert.Contains(t, body, "Availability: Classical Game")
}

func TestICSRenderRejectsBadInstant(t *testing.T) {
	_, err := NewICSService("").Render("", models.Event{ID: "x", StartTime: "nope"})
	assert.Error(t, err)
}
