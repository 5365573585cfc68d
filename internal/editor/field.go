// Package editor turns an event draft into a validated event. Validation never
// fails fast: every check runs and the result carries one message per field.
package editor

// Field names an editor input. The set is closed so clients can route each
// message to the right input.
type Field string

const (
	FieldStart           Field = "start"
	FieldEnd             Field = "end"
	FieldTitle           Field = "title"
	FieldDescription     Field = "description"
	FieldLocation        Field = "location"
	FieldMaxParticipants Field = "maxParticipants"
	FieldFullPrice       Field = "fullPrice"
	FieldCurrentPrice    Field = "currentPrice"
	FieldTypes           Field = "types"
	FieldCohorts         Field = "cohorts"
	FieldInvited         Field = "invited"
	FieldCount           Field = "count"
)

// Messages shown to users.
const (
	MsgRequired        = "This field is required"
	MsgInvalidStart    = "Start time must be a valid time"
	MsgInvalidEnd      = "End time must be a valid time"
	MsgMinimumHour     = "End time must be at least one hour after start time"
	MsgEndBeforeStart  = "End time must be after start time"
	MsgPositiveInteger = "You must specify an integer greater than 0"
	MsgNumber          = "You must specify a number"
	MsgPrecision       = "You must specify a valid dollar amount with up to 2 decimal places"
	MsgMinimumPrice    = "Price must be at least $5"
	MsgNegativePrice   = "Price must not be negative"
	MsgPriceOrdering   = "Current price must be less than full price"
	MsgTypes           = "At least one type is required"
	MsgCohorts         = "At least one cohort is required"
	MsgInvited         = "At least one user is required when the event is invite-only"
	MsgCount           = "Must be greater than 0"
	MsgRecurrence      = "Recurrence settings are invalid"
)

// FieldErrors maps a field to its message. A nil or empty map means no errors.
type FieldErrors map[Field]string

func fieldError(f Field, msg string) FieldErrors {
	return FieldErrors{f: msg}
}

// Has reports whether f carries an error.
func (e FieldErrors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Empty reports whether there are no errors.
func (e FieldErrors) Empty() bool { return len(e) == 0 }

// Strings converts the map for transport.
func (e FieldErrors) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for f, msg := range e {
		out[string(f)] = msg
	}
	return out
}

// Merge folds error sets left to right. The first message recorded for a
// field wins. The result is never nil.
func Merge(sets ...FieldErrors) FieldErrors {
	out := FieldErrors{}
	for _, set := range sets {
		for f, msg := range set {
			if _, exists := out[f]; !exists {
				out[f] = msg
			}
		}
	}
	return out
}
