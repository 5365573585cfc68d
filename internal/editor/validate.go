package editor

import (
	"strings"
	"time"

	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/timezone"
)

// AvailabilityMinDuration is the shortest bookable availability block.
const AvailabilityMinDuration = time.Hour

// Result is the outcome of validating a draft. Event is set if and only if
// Errors is empty.
type Result struct {
	Event  *models.Event
	Errors FieldErrors
}

// OK reports whether the draft produced an event.
func (r Result) OK() bool {
	return r.Event != nil && r.Errors.Empty()
}

func failed(errs FieldErrors) Result {
	return Result{Errors: errs}
}

// Validate dispatches to the validator for the draft's kind. The draft is
// never modified.
func Validate(user *models.User, original *models.Event, d *Draft) (Result, error) {
	switch fields := d.Payload.(type) {
	case *AvailabilityFields:
		return ValidateAvailability(user, original, d, fields), nil
	case *DojoFields:
		return ValidateDojo(user, original, d, fields), nil
	case *CoachingFields:
		return ValidateCoaching(user, original, d, fields), nil
	default:
		return Result{}, ErrUnsupportedKind
	}
}

// ValidateAvailability validates an availability block: a one hour minimum,
// at least one type, and cohorts unless the block is invite-only.
func ValidateAvailability(user *models.User, original *models.Event, d *Draft, fields *AvailabilityFields) Result {
	types := selectedTypes(fields)
	cohorts := ResolveCohortSelection(d.Catalog(), d.AllCohorts, d.Cohorts)

	var checks []FieldErrors
	checks = append(checks, ValidateTimeRange(d.Start, d.End, AvailabilityMinDuration))
	if len(types) == 0 {
		checks = append(checks, fieldError(FieldTypes, MsgTypes))
	}
	if !fields.InviteOnly && len(cohorts) == 0 {
		checks = append(checks, fieldError(FieldCohorts, MsgCohorts))
	}
	if fields.InviteOnly && len(fields.Invited) == 0 {
		checks = append(checks, fieldError(FieldInvited, MsgInvited))
	}

	maxParticipants := defaultCapacity(fields)
	if fields.MaxParticipants != "" {
		n, errs := RequireMaxParticipants(fields.MaxParticipants)
		maxParticipants = n
		checks = append(checks, errs)
	}

	errs := Merge(checks...)
	if !errs.Empty() {
		return failed(errs)
	}

	ev := baseEvent(user, original, d, models.EventKindAvailability)
	ev.Types = types
	ev.Cohorts = cohorts
	ev.MaxParticipants = maxParticipants
	ev.Invited = append([]models.Participant(nil), fields.Invited...)
	ev.InviteOnly = fields.InviteOnly
	return Result{Event: ev, Errors: errs}
}

// ValidateDojo validates a Dojo-wide broadcast event.
func ValidateDojo(user *models.User, original *models.Event, d *Draft, fields *DojoFields) Result {
	rule, ruleErrs := ResolveRecurrenceRule(d.Recurrence, d.Start, userZone(user))
	errs := Merge(
		ValidateTimeRange(d.Start, d.End, 0),
		RequireNonEmpty(FieldTitle, d.Title),
		ruleErrs,
	)
	if !errs.Empty() {
		return failed(errs)
	}

	ev := baseEvent(user, original, d, models.EventKindDojo)
	ev.Cohorts = cohortsOrAll(d)
	ev.RRule = rule
	ev.MaxParticipants = 0
	ev.HideFromPublicDiscord = fields.HideFromPublicDiscord
	return Result{Event: ev, Errors: errs}
}

// ValidateCoaching validates a paid coaching session. The coach's payment
// account is copied from the profile.
func ValidateCoaching(user *models.User, original *models.Event, d *Draft, fields *CoachingFields) Result {
	fullPrice, fullErrs := RequirePrice(FieldFullPrice, fields.FullPrice)
	currentPrice, currentErrs := OptionalPrice(FieldCurrentPrice, fields.CurrentPrice)
	if fullErrs.Empty() && currentErrs.Empty() && currentPrice > 0 && currentPrice >= fullPrice {
		currentErrs = fieldError(FieldCurrentPrice, MsgPriceOrdering)
	}
	maxParticipants, capacityErrs := RequireMaxParticipants(fields.MaxParticipants)
	rule, ruleErrs := ResolveRecurrenceRule(d.Recurrence, d.Start, userZone(user))

	errs := Merge(
		ValidateTimeRange(d.Start, d.End, 0),
		RequireNonEmpty(FieldTitle, d.Title),
		RequireNonEmpty(FieldDescription, d.Description),
		RequireNonEmpty(FieldLocation, d.Location),
		fullErrs,
		currentErrs,
		capacityErrs,
		ruleErrs,
	)
	if !errs.Empty() {
		return failed(errs)
	}

	if currentPrice < 0 {
		currentPrice = 0
	}
	ev := baseEvent(user, original, d, models.EventKindCoaching)
	ev.Cohorts = cohortsOrAll(d)
	ev.RRule = rule
	ev.MaxParticipants = maxParticipants
	ev.Coaching = &models.Coaching{
		StripeID:            user.StripeID(),
		FullPrice:           fullPrice,
		CurrentPrice:        currentPrice,
		BookableByFreeUsers: fields.BookableByFreeUsers,
		HideParticipants:    fields.HideParticipants,
	}
	return Result{Event: ev, Errors: errs}
}

// baseEvent starts from a copy of the original so stored-only fields such as
// the id, participants and broadcast ids are carried forward. Kind-specific
// fields are reset and filled in by the caller.
func baseEvent(user *models.User, original *models.Event, d *Draft, kind models.EventKind) *models.Event {
	ev := original.Clone()
	if ev == nil {
		ev = &models.Event{}
	}
	zone := userZone(user)

	ev.Kind = kind
	if user != nil {
		ev.Owner = user.Username
		ev.OwnerDisplayName = user.DisplayName
		ev.OwnerCohort = user.DojoCohort
		ev.OwnerPreviousCohort = user.PreviousCohort
	}
	ev.Title = strings.TrimSpace(d.Title)
	ev.Location = strings.TrimSpace(d.Location)
	ev.Description = strings.TrimSpace(d.Description)
	ev.StartTime = models.FormatInstant(timezone.ToInstant(d.Start, zone))
	ev.EndTime = models.FormatInstant(timezone.ToInstant(d.End, zone))
	ev.Status = models.EventStatusScheduled

	ev.Types = []models.AvailabilityType{}
	ev.Invited = nil
	ev.InviteOnly = false
	ev.Coaching = nil
	ev.HideFromPublicDiscord = false
	ev.RRule = ""
	if ev.Participants == nil {
		ev.Participants = map[string]models.Participant{}
	}
	return ev
}

func selectedTypes(fields *AvailabilityFields) []models.AvailabilityType {
	if fields.AllTypes {
		return append([]models.AvailabilityType(nil), models.AvailabilityTypes...)
	}
	out := make([]models.AvailabilityType, 0, len(fields.Types))
	for _, t := range models.AvailabilityTypes {
		if fields.Types[t] {
			out = append(out, t)
		}
	}
	return out
}

// defaultCapacity is the largest default capacity among the selected types,
// never less than one.
func defaultCapacity(fields *AvailabilityFields) int {
	if fields.AllTypes {
		return models.AllTypesCapacity
	}
	capacity := 1
	for t, on := range fields.Types {
		if on {
			capacity = max(capacity, models.DefaultCapacity[t])
		}
	}
	return capacity
}

// cohortsOrAll treats an empty selection as every cohort.
func cohortsOrAll(d *Draft) []string {
	cohorts := ResolveCohortSelection(d.Catalog(), d.AllCohorts, d.Cohorts)
	if len(cohorts) == 0 {
		return d.Catalog().Labels()
	}
	return cohorts
}
