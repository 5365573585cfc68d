package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/recurrence"
	"github.com/dojocal/scheduler-api/internal/timezone"
)

// NewValidator returns a validator with the request tags used by this package.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations installs the custom tags: eventkind, availabilitytype,
// frequency, termination and timezone.
func RegisterValidations(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"eventkind": func(fl validator.FieldLevel) bool {
			return models.EventKind(fl.Field().String()).Authored()
		},
		"availabilitytype": func(fl validator.FieldLevel) bool {
			return models.AvailabilityType(fl.Field().String()).IsValid()
		},
		"frequency": func(fl validator.FieldLevel) bool {
			switch recurrence.Frequency(fl.Field().String()) {
			case recurrence.FrequencyDaily, recurrence.FrequencyWeekly, recurrence.FrequencyMonthly, recurrence.FrequencyYearly:
				return true
			default:
				return false
			}
		},
		"termination": func(fl validator.FieldLevel) bool {
			switch recurrence.Termination(fl.Field().String()) {
			case recurrence.TerminationNever, recurrence.TerminationOnDate, recurrence.TerminationAfterCount:
				return true
			default:
				return false
			}
		},
		"timezone": func(fl validator.FieldLevel) bool {
			return timezone.IsValidZone(fl.Field().String())
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
