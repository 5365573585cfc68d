package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dojocal/scheduler-api/internal/editor"
	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/recurrence"
)

func TestDraftPayloadAvailabilityRoundTrip(t *testing.T) {
	raw := `{
		"type": "AVAILABILITY",
		"start": "2024-01-01T09:00",
		"end": "2024-01-01T10:30:00",
		"cohorts": ["1600-1700", "1500-1600"],
		"types": ["BOOK_STUDY", "CLASSICAL_GAME"],
		"maxParticipants": "3",
		"invited": [{"username": "bob"}],
		"inviteOnly": true
	}`
	var p DraftPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	d, err := p.ToDraft(nil)
	require.NoError(t, err)
	fields, ok := d.Payload.(*editor.AvailabilityFields)
	require.True(t, ok)
	assert.True(t, fields.Types[models.AvailabilityBookStudy])
	assert.Equal(t, "3", fields.MaxParticipants)
	assert.Equal(t, recurrence.TerminationNever, d.Recurrence.Termination)

	out := FromDraft(d)
	assert.Equal(t, []string{"1500-1600", "1600-1700"}, out.Cohorts)
	assert.Equal(t, []models.AvailabilityType{models.AvailabilityClassicalGame, models.AvailabilityBookStudy}, out.Types)
	assert.Equal(t, "2024-01-01T09:00:00", out.Start.String())
	assert.True(t, out.InviteOnly)
	assert.Len(t, out.Invited, 1)
}

func TestDraftPayloadCoachingRoundTrip(t *testing.T) {
	count := 6
	p := DraftPayload{
		Type:         models.EventKindCoaching,
		Title:        "Clinic",
		FullPrice:    "25",
		CurrentPrice: "19.99",
		Recurrence:   RecurrencePayload{Frequency: recurrence.FrequencyWeekly, Ends: recurrence.TerminationAfterCount, Count: &count},
		// ignored for coaching
		Types: []models.AvailabilityType{models.AvailabilityClassicalGame},
	}
	d, err := p.ToDraft(nil)
	require.NoError(t, err)

	out := FromDraft(d)
	assert.Equal(t, "25", out.FullPrice)
	assert.Equal(t, "19.99", out.CurrentPrice)
	assert.Empty(t, out.Types)
	require.NotNil(t, out.Recurrence.Count)
	assert.Equal(t, 6, *out.Recurrence.Count)
}

func TestDraftPayloadRejectsTournament(t *testing.T) {
	_, err := DraftPayload{Type: models.EventKindLigaTournament}.ToDraft(nil)
	assert.ErrorIs(t, err, editor.ErrUnsupportedKind)
}

func TestFromDraftCarriesErrors(t *testing.T) {
	d, err := DraftPayload{Type: models.EventKindDojo}.ToDraft(nil)
	require.NoError(t, err)
	d.Errors = editor.FieldErrors{editor.FieldTitle: editor.MsgRequired}

	out := FromDraft(d)
	assert.Equal(t, map[string]string{"title": editor.MsgRequired}, out.Errors)
}

func TestValidatorTags(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(DraftPayload{Type: models.EventKindDojo}))
	assert.Error(t, v.Struct(DraftPayload{Type: models.EventKindLigaTournament}))
	assert.Error(t, v.Struct(DraftPayload{Type: models.EventKindAvailability, Types: []models.AvailabilityType{"BLITZ"}}))
	assert.Error(t, v.Struct(DraftPayload{Type: models.EventKindDojo, Recurrence: RecurrencePayload{Frequency: "HOURLY"}}))
	assert.Error(t, v.Struct(DraftPayload{Type: models.EventKindDojo, Recurrence: RecurrencePayload{Ends: "SOMETIMES"}}))
	assert.Error(t, v.Struct(DraftPayload{Type: models.EventKindAvailability, Invited: []models.Participant{{}}}))

	assert.NoError(t, v.Struct(UpdateTimezoneRequest{Timezone: "America/Chicago"}))
	assert.NoError(t, v.Struct(UpdateTimezoneRequest{Timezone: "DEFAULT"}))
	assert.Error(t, v.Struct(UpdateTimezoneRequest{Timezone: "Nowhere/Land"}))
}
