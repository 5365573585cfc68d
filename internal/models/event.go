package models

import (
	"time"
)

// EventKind identifies which editor produced an event.
type EventKind string

const (
	EventKindAvailability   EventKind = "AVAILABILITY"
	EventKindDojo           EventKind = "DOJO"
	EventKindCoaching       EventKind = "COACHING"
	EventKindLigaTournament EventKind = "LIGA_TOURNAMENT"
)

// Authored reports whether events of this kind are created through the editor.
func (k EventKind) Authored() bool {
	switch k {
	case EventKindAvailability, EventKindDojo, EventKindCoaching:
		return true
	default:
		return false
	}
}

// EventStatus is the scheduling status of an event.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusBooked    EventStatus = "BOOKED"
	EventStatusCanceled  EventStatus = "CANCELED"
)

// InstantLayout is the ISO-8601 layout used for persisted start/end instants.
const InstantLayout = "2006-01-02T15:04:05.000Z"

// FormatInstant renders t in UTC using InstantLayout.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// ParseInstant parses an instant written by FormatInstant or any RFC3339 value.
func ParseInstant(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Participant is a user who booked or was invited to an event.
type Participant struct {
	Username       string `json:"username" validate:"required"`
	DisplayName    string `json:"displayName"`
	Cohort         string `json:"cohort"`
	PreviousCohort string `json:"previousCohort"`
	HasPaid        bool   `json:"hasPaid,omitempty"`
}

// Coaching holds pricing for a paid coaching session. Prices are in cents.
type Coaching struct {
	StripeID            string `json:"stripeId"`
	FullPrice           int    `json:"fullPrice"`
	CurrentPrice        int    `json:"currentPrice"`
	BookableByFreeUsers bool   `json:"bookableByFreeUsers"`
	HideParticipants    bool   `json:"hideParticipants"`
}

// Event is a persisted calendar entry.
type Event struct {
	// ID is empty until the event has been saved.
	ID   string    `json:"id"`
	Kind EventKind `json:"type"`

	Owner               string `json:"owner"`
	OwnerDisplayName    string `json:"ownerDisplayName"`
	OwnerCohort         string `json:"ownerCohort"`
	OwnerPreviousCohort string `json:"ownerPreviousCohort"`

	Title string `json:"title"`

	// StartTime and EndTime are UTC instants in InstantLayout.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	Types   []AvailabilityType `json:"types"`
	Cohorts []string           `json:"cohorts"`
	Status  EventStatus        `json:"status"`

	Location    string `json:"location"`
	Description string `json:"description"`

	MaxParticipants int                    `json:"maxParticipants"`
	Participants    map[string]Participant `json:"participants"`

	Invited    []Participant `json:"invited,omitempty"`
	InviteOnly bool          `json:"inviteOnly,omitempty"`

	Coaching *Coaching `json:"coaching,omitempty"`

	HideFromPublicDiscord bool   `json:"hideFromPublicDiscord"`
	DiscordMessageID      string `json:"discordMessageId,omitempty"`
	PrivateDiscordEventID string `json:"privateDiscordEventId,omitempty"`
	PublicDiscordEventID  string `json:"publicDiscordEventId,omitempty"`

	// RRule is an RFC 5545 rule; empty means the event does not recur.
	RRule string `json:"rrule"`

	ExpiresAt time.Time `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Start parses StartTime.
func (e *Event) Start() (time.Time, error) {
	return ParseInstant(e.StartTime)
}

// End parses EndTime.
func (e *Event) End() (time.Time, error) {
	return ParseInstant(e.EndTime)
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	out := *e
	if e.Types != nil {
		out.Types = append([]AvailabilityType(nil), e.Types...)
	}
	if e.Cohorts != nil {
		out.Cohorts = append([]string(nil), e.Cohorts...)
	}
	if e.Invited != nil {
		out.Invited = append([]Participant(nil), e.Invited...)
	}
	if e.Participants != nil {
		out.Participants = make(map[string]Participant, len(e.Participants))
		for k, v := range e.Participants {
			out.Participants[k] = v
		}
	}
	if e.Coaching != nil {
		c := *e.Coaching
		out.Coaching = &c
	}
	return &out
}

// EventFilter narrows down listed events.
type EventFilter struct {
	From   *time.Time
	To     *time.Time
	Kinds  []EventKind
	Owner  string
	Status []EventStatus
}

// Occurrence is one concrete instance of an event inside a listing window.
type Occurrence struct {
	EventID string      `json:"eventId"`
	Kind    EventKind   `json:"type"`
	Title   string      `json:"title"`
	Start   string      `json:"startTime"`
	End     string      `json:"endTime"`
	Status  EventStatus `json:"status"`
}
