package dto

import (
	"time"

	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/editor"
	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/recurrence"
	"github.com/dojocal/scheduler-api/internal/timezone"
)

// RecurrencePayload is the wire form of recurrence.Options.
type RecurrencePayload struct {
	Frequency recurrence.Frequency   `json:"frequency,omitempty" validate:"omitempty,frequency"`
	Ends      recurrence.Termination `json:"ends,omitempty" validate:"omitempty,termination"`
	Until     timezone.LocalTime     `json:"until"`
	Count     *int                   `json:"count,omitempty"`
}

// DraftPayload is the full editor state exchanged with clients. Fields that
// do not apply to Type are ignored.
type DraftPayload struct {
	Type        models.EventKind   `json:"type" validate:"required,eventkind"`
	Title       string             `json:"title" validate:"max=200"`
	Location    string             `json:"location" validate:"max=500"`
	Description string             `json:"description" validate:"max=5000"`
	Start       timezone.LocalTime `json:"start"`
	End         timezone.LocalTime `json:"end"`
	AllCohorts  bool               `json:"allCohorts"`
	Cohorts     []string           `json:"cohorts"`
	Recurrence  RecurrencePayload  `json:"recurrence"`

	AllTypes        bool                      `json:"allTypes"`
	Types           []models.AvailabilityType `json:"types" validate:"dive,availabilitytype"`
	MaxParticipants string                    `json:"maxParticipants"`
	Invited         []models.Participant      `json:"invited" validate:"dive"`
	InviteOnly      bool                      `json:"inviteOnly"`

	HideFromPublicDiscord bool `json:"hideFromPublicDiscord"`

	FullPrice           string `json:"fullPrice"`
	CurrentPrice        string `json:"currentPrice"`
	BookableByFreeUsers bool   `json:"bookableByFreeUsers"`
	HideParticipants    bool   `json:"hideParticipants"`

	Errors map[string]string `json:"errors,omitempty"`
}

// NewDraftRequest asks for the defaults of a new event in a calendar slot.
type NewDraftRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// EditorRequest submits a draft for validation or saving. EventID names the
// event being edited; empty means a new event.
type EditorRequest struct {
	EventID string       `json:"eventId"`
	Draft   DraftPayload `json:"draft" validate:"required"`
}

// SwitchKindRequest asks for the draft re-shaped for another event kind.
// With EventID set, switching back to the stored kind restores the stored
// inputs and cohorts.
type SwitchKindRequest struct {
	EventID string           `json:"eventId"`
	Draft   DraftPayload     `json:"draft" validate:"required"`
	Type    models.EventKind `json:"type" validate:"required,eventkind"`
}

// EditorResponse is returned by the validate endpoint.
type EditorResponse struct {
	Event  *models.Event     `json:"event,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ListEventsQuery bounds a calendar listing.
type ListEventsQuery struct {
	Start time.Time          `form:"start" time_format:"2006-01-02T15:04:05Z07:00" validate:"required"`
	End   time.Time          `form:"end" time_format:"2006-01-02T15:04:05Z07:00" validate:"required,gtfield=Start"`
	Types []models.EventKind `form:"type" validate:"dive,oneof=AVAILABILITY DOJO COACHING LIGA_TOURNAMENT"`
	Owner string             `form:"owner"`
}

// ListEventsResponse carries stored events and their concrete occurrences.
type ListEventsResponse struct {
	Events      []models.Event      `json:"events"`
	Occurrences []models.Occurrence `json:"occurrences"`
	Truncated   bool                `json:"truncated,omitempty"`
}

// UpdateTimezoneRequest changes the acting user's timezone override.
type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required,timezone"`
}

// ToDraft builds an editor draft from the payload.
func (p DraftPayload) ToDraft(catalog *cohort.Catalog) (*editor.Draft, error) {
	d, err := editor.Blank(p.Type, catalog)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyTo(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ApplyTo switches d to the payload's kind and overwrites its inputs with the
// payload. Inputs d held for other kinds stay stashed in d.
func (p DraftPayload) ApplyTo(d *editor.Draft) error {
	if err := d.SetKind(p.Type); err != nil {
		return err
	}

	d.Title = p.Title
	d.Location = p.Location
	d.Description = p.Description
	d.Start = p.Start
	d.End = p.End
	d.AllCohorts = p.AllCohorts
	d.Cohorts = map[string]bool{}
	for _, c := range p.Cohorts {
		d.SetCohort(c, true)
	}
	d.Recurrence = recurrence.Options{
		Frequency:   p.Recurrence.Frequency,
		Termination: p.Recurrence.Ends,
		Until:       p.Recurrence.Until,
		Count:       p.Recurrence.Count,
	}
	if d.Recurrence.Termination == "" {
		d.Recurrence.Termination = recurrence.TerminationNever
	}

	switch fields := d.Payload.(type) {
	case *editor.AvailabilityFields:
		fields.AllTypes = p.AllTypes
		fields.Types = map[models.AvailabilityType]bool{}
		for _, t := range p.Types {
			if err := d.SetAvailabilityType(t, true); err != nil {
				return err
			}
		}
		fields.MaxParticipants = p.MaxParticipants
		return d.SetInvited(p.Invited, p.InviteOnly)
	case *editor.DojoFields:
		fields.HideFromPublicDiscord = p.HideFromPublicDiscord
	case *editor.CoachingFields:
		fields.MaxParticipants = p.MaxParticipants
		fields.BookableByFreeUsers = p.BookableByFreeUsers
		fields.HideParticipants = p.HideParticipants
		return d.SetPrices(p.FullPrice, p.CurrentPrice)
	}
	return nil
}

// FromDraft renders a draft for clients. Checked cohorts and types are
// listed in canonical order.
func FromDraft(d *editor.Draft) DraftPayload {
	p := DraftPayload{
		Type:        d.Kind(),
		Title:       d.Title,
		Location:    d.Location,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
		AllCohorts:  d.AllCohorts,
		Cohorts:     d.Catalog().Ordered(d.Cohorts),
		Recurrence: RecurrencePayload{
			Frequency: d.Recurrence.Frequency,
			Ends:      d.Recurrence.Termination,
			Until:     d.Recurrence.Until,
			Count:     d.Recurrence.Count,
		},
		Types:   []models.AvailabilityType{},
		Invited: []models.Participant{},
	}
	if !d.Errors.Empty() {
		p.Errors = d.Errors.Strings()
	}

	switch fields := d.Payload.(type) {
	case *editor.AvailabilityFields:
		p.AllTypes = fields.AllTypes
		for _, t := range models.AvailabilityTypes {
			if fields.Types[t] {
				p.Types = append(p.Types, t)
			}
		}
		p.MaxParticipants = fields.MaxParticipants
		p.Invited = append(p.Invited, fields.Invited...)
		p.InviteOnly = fields.InviteOnly
	case *editor.DojoFields:
		p.HideFromPublicDiscord = fields.HideFromPublicDiscord
	case *editor.CoachingFields:
		p.FullPrice = fields.FullPrice
		p.CurrentPrice = fields.CurrentPrice
		p.MaxParticipants = fields.MaxParticipants
		p.BookableByFreeUsers = fields.BookableByFreeUsers
		p.HideParticipants = fields.HideParticipants
	}
	return p
}
