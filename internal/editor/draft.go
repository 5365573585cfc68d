package editor

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dojocal/scheduler-api/internal/cohort"
	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/recurrence"
	"github.com/dojocal/scheduler-api/internal/timezone"
)

var (
	// ErrUnsupportedKind is returned for kinds the editor cannot author.
	ErrUnsupportedKind = errors.New("editor: event kind is not editable")
	// ErrWrongKind is returned when a setter does not apply to the draft's kind.
	ErrWrongKind = errors.New("editor: field does not apply to this event kind")
)

// Common holds the inputs shared by every kind.
type Common struct {
	Title       string
	Location    string
	Description string
	Start       timezone.LocalTime
	End         timezone.LocalTime
	AllCohorts  bool
	Cohorts     map[string]bool
	Recurrence  recurrence.Options
}

// Payload is the kind-specific part of a draft: *AvailabilityFields,
// *DojoFields or *CoachingFields.
type Payload interface {
	Kind() models.EventKind
	clone() Payload
}

// AvailabilityFields are the inputs of an availability block.
type AvailabilityFields struct {
	AllTypes        bool
	Types           map[models.AvailabilityType]bool
	MaxParticipants string
	Invited         []models.Participant
	InviteOnly      bool
}

func (*AvailabilityFields) Kind() models.EventKind { return models.EventKindAvailability }

func (f *AvailabilityFields) clone() Payload {
	out := *f
	out.Types = make(map[models.AvailabilityType]bool, len(f.Types))
	for k, v := range f.Types {
		out.Types[k] = v
	}
	out.Invited = append([]models.Participant(nil), f.Invited...)
	return &out
}

// DojoFields are the inputs of a Dojo-wide event.
type DojoFields struct {
	HideFromPublicDiscord bool
}

func (*DojoFields) Kind() models.EventKind { return models.EventKindDojo }

func (f *DojoFields) clone() Payload {
	out := *f
	return &out
}

// CoachingFields are the inputs of a coaching session. Prices are dollar strings.
type CoachingFields struct {
	FullPrice           string
	CurrentPrice        string
	MaxParticipants     string
	BookableByFreeUsers bool
	HideParticipants    bool
}

func (*CoachingFields) Kind() models.EventKind { return models.EventKindCoaching }

func (f *CoachingFields) clone() Payload {
	out := *f
	return &out
}

// Draft is the working copy of an event in an edit session.
type Draft struct {
	Common
	Payload Payload
	// Errors holds the last validation result and survives a failed save.
	Errors FieldErrors

	catalog         *cohort.Catalog
	originalCohorts []string
	defaultCohorts  []string
	stash           map[models.EventKind]Payload
}

// NewDraft returns the defaults for a new event between start and end. The
// instants are shown in the user's zone and the user's cohort and its
// neighbours are pre-selected.
func NewDraft(user *models.User, catalog *cohort.Catalog, start, end time.Time) *Draft {
	if catalog == nil {
		catalog = cohort.Default()
	}
	zone := userZone(user)
	d := &Draft{
		Common: Common{
			Start:      timezone.ToLocal(start, zone),
			End:        timezone.ToLocal(end, zone),
			Recurrence: recurrence.Options{Termination: recurrence.TerminationNever},
		},
		Payload: newPayload(models.EventKindAvailability),
		Errors:  FieldErrors{},
		catalog: catalog,
	}
	if user != nil {
		d.defaultCohorts = catalog.Neighbors(user.DojoCohort)
	}
	d.Cohorts = selection(d.defaultCohorts)
	return d
}

// Blank returns an empty draft of the given kind, to be filled from a request.
func Blank(kind models.EventKind, catalog *cohort.Catalog) (*Draft, error) {
	if !kind.Authored() {
		return nil, ErrUnsupportedKind
	}
	if catalog == nil {
		catalog = cohort.Default()
	}
	return &Draft{
		Common: Common{
			Cohorts:    map[string]bool{},
			Recurrence: recurrence.Options{Termination: recurrence.TerminationNever},
		},
		Payload: newPayload(kind),
		Errors:  FieldErrors{},
		catalog: catalog,
	}, nil
}

// DraftFromEvent seeds a draft from a stored event, converting instants into
// the user's zone and cents back into dollar strings.
func DraftFromEvent(user *models.User, catalog *cohort.Catalog, ev *models.Event) (*Draft, error) {
	if ev == nil {
		return nil, errors.New("editor: nil event")
	}
	if !ev.Kind.Authored() {
		return nil, ErrUnsupportedKind
	}
	if catalog == nil {
		catalog = cohort.Default()
	}
	zone := userZone(user)

	start, err := ev.Start()
	if err != nil {
		return nil, fmt.Errorf("editor: event start: %w", err)
	}
	end, err := ev.End()
	if err != nil {
		return nil, fmt.Errorf("editor: event end: %w", err)
	}
	rec, err := recurrence.Decode(ev.RRule, zone)
	if err != nil {
		return nil, err
	}

	d := &Draft{
		Common: Common{
			Title:       ev.Title,
			Location:    ev.Location,
			Description: ev.Description,
			Start:       timezone.ToLocal(start, zone),
			End:         timezone.ToLocal(end, zone),
			Cohorts:     selection(ev.Cohorts),
			Recurrence:  rec,
		},
		Errors:          FieldErrors{},
		catalog:         catalog,
		originalCohorts: append([]string(nil), ev.Cohorts...),
	}
	if user != nil {
		d.defaultCohorts = catalog.Neighbors(user.DojoCohort)
	}

	switch ev.Kind {
	case models.EventKindAvailability:
		types := make(map[models.AvailabilityType]bool, len(ev.Types))
		for _, t := range ev.Types {
			types[t] = true
		}
		d.Payload = &AvailabilityFields{
			Types:           types,
			MaxParticipants: formatCount(ev.MaxParticipants),
			Invited:         append([]models.Participant(nil), ev.Invited...),
			InviteOnly:      ev.InviteOnly,
		}
	case models.EventKindDojo:
		d.Payload = &DojoFields{HideFromPublicDiscord: ev.HideFromPublicDiscord}
	case models.EventKindCoaching:
		fields := &CoachingFields{MaxParticipants: formatCount(ev.MaxParticipants)}
		if c := ev.Coaching; c != nil {
			fields.FullPrice = formatDollars(c.FullPrice)
			fields.CurrentPrice = formatDollars(c.CurrentPrice)
			fields.BookableByFreeUsers = c.BookableByFreeUsers
			fields.HideParticipants = c.HideParticipants
		}
		d.Payload = fields
	}
	return d, nil
}

// Kind returns the kind selected in the draft.
func (d *Draft) Kind() models.EventKind {
	if d.Payload == nil {
		return ""
	}
	return d.Payload.Kind()
}

// Catalog returns the cohort catalog the draft was seeded with.
func (d *Draft) Catalog() *cohort.Catalog {
	if d.catalog == nil {
		return cohort.Default()
	}
	return d.catalog
}

// SetKind switches the draft to another kind. Inputs typed for the previous
// kind are kept aside and come back when switching back. Availability
// restores the event's own cohorts (or the user's defaults); the other kinds
// target every cohort.
func (d *Draft) SetKind(kind models.EventKind) error {
	if !kind.Authored() {
		return ErrUnsupportedKind
	}
	if d.Kind() == kind {
		return nil
	}
	if d.stash == nil {
		d.stash = make(map[models.EventKind]Payload, 3)
	}
	if d.Payload != nil {
		d.stash[d.Payload.Kind()] = d.Payload
	}
	if p, ok := d.stash[kind]; ok {
		d.Payload = p
	} else {
		d.Payload = newPayload(kind)
	}

	if kind == models.EventKindAvailability {
		d.AllCohorts = false
		if len(d.originalCohorts) > 0 {
			d.Cohorts = selection(d.originalCohorts)
		} else {
			d.Cohorts = selection(d.defaultCohorts)
		}
		return nil
	}
	d.AllCohorts = true
	d.Cohorts = map[string]bool{}
	return nil
}

// SetCohort checks or unchecks a single cohort.
func (d *Draft) SetCohort(label string, on bool) {
	if d.Cohorts == nil {
		d.Cohorts = map[string]bool{}
	}
	d.Cohorts[label] = on
}

// SetAvailabilityType checks or unchecks an availability type.
func (d *Draft) SetAvailabilityType(t models.AvailabilityType, on bool) error {
	fields, ok := d.Payload.(*AvailabilityFields)
	if !ok {
		return ErrWrongKind
	}
	if fields.Types == nil {
		fields.Types = map[models.AvailabilityType]bool{}
	}
	fields.Types[t] = on
	return nil
}

// SetInvited replaces the invite list of an availability draft.
func (d *Draft) SetInvited(invited []models.Participant, inviteOnly bool) error {
	fields, ok := d.Payload.(*AvailabilityFields)
	if !ok {
		return ErrWrongKind
	}
	fields.Invited = append([]models.Participant(nil), invited...)
	fields.InviteOnly = inviteOnly
	return nil
}

// SetPrices sets the dollar inputs of a coaching draft.
func (d *Draft) SetPrices(full, current string) error {
	fields, ok := d.Payload.(*CoachingFields)
	if !ok {
		return ErrWrongKind
	}
	fields.FullPrice = full
	fields.CurrentPrice = current
	return nil
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	out := *d
	out.Cohorts = make(map[string]bool, len(d.Cohorts))
	for k, v := range d.Cohorts {
		out.Cohorts[k] = v
	}
	if d.Recurrence.Count != nil {
		count := *d.Recurrence.Count
		out.Recurrence.Count = &count
	}
	if d.Payload != nil {
		out.Payload = d.Payload.clone()
	}
	out.Errors = Merge(d.Errors)
	out.originalCohorts = append([]string(nil), d.originalCohorts...)
	out.defaultCohorts = append([]string(nil), d.defaultCohorts...)
	if d.stash != nil {
		out.stash = make(map[models.EventKind]Payload, len(d.stash))
		for k, p := range d.stash {
			out.stash[k] = p.clone()
		}
	}
	return &out
}

func newPayload(kind models.EventKind) Payload {
	switch kind {
	case models.EventKindDojo:
		return &DojoFields{}
	case models.EventKindCoaching:
		return &CoachingFields{}
	default:
		return &AvailabilityFields{Types: map[models.AvailabilityType]bool{}}
	}
}

func userZone(user *models.User) string {
	if user == nil {
		return timezone.BrowserDefault
	}
	return user.TimezoneOverride
}

func selection(labels []string) map[string]bool {
	out := make(map[string]bool, len(labels))
	for _, l := range labels {
		out[l] = true
	}
	return out
}

func formatCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// formatDollars renders cents for the price inputs; zero and negative values
// render blank.
func formatDollars(cents int) string {
	if cents <= 0 {
		return ""
	}
	return strconv.FormatFloat(float64(cents)/100, 'f', -1, 64)
}
