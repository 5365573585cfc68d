package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/dojocal/scheduler-api/internal/models"
	"github.com/dojocal/scheduler-api/internal/recurrence"
)

const icsProductID = "-//Dojo Calendar//Scheduler//EN"

// ICSService renders events as iCalendar documents.
type ICSService struct {
	domain string
	now    func() time.Time
}

// NewICSService constructs an ICSService. domain qualifies event UIDs.
func NewICSService(domain string) *ICSService {
	if domain == "" {
		domain = "dojocal"
	}
	return &ICSService{domain: domain, now: time.Now}
}

// Render builds a calendar holding the given events.
func (s *ICSService) Render(name string, events ...models.Event) (string, error) {
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetMethod(ics.MethodPublish)
	if name != "" {
		cal.SetName(name)
	}

	for i := range events {
		ev := &events[i]
		start, err := ev.Start()
		if err != nil {
			return "", fmt.Errorf("event %s start: %w", ev.ID, err)
		}
		end, err := ev.End()
		if err != nil {
			return "", fmt.Errorf("event %s end: %w", ev.ID, err)
		}

		e := cal.AddEvent(fmt.Sprintf("%s@%s", ev.ID, s.domain))
		stamp := ev.UpdatedAt
		if stamp.IsZero() {
			stamp = s.now()
		}
		e.SetDtStampTime(stamp.UTC())
		e.SetStartAt(start)
		e.SetEndAt(end)
		e.SetSummary(summary(ev))
		if ev.Description != "" {
			e.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			e.AddProperty(ics.ComponentPropertyLocation, ev.Location)
		}
		if ev.Status == models.EventStatusCanceled {
			e.AddProperty(ics.ComponentPropertyStatus, "CANCELLED")
		} else {
			e.AddProperty(ics.ComponentPropertyStatus, "CONFIRMED")
		}
		e.AddProperty(ics.ComponentPropertyCategories, string(ev.Kind))
		if ev.RRule != "" {
			if line := recurrence.RRuleLine(ev.RRule); line != "" {
				e.AddProperty(ics.ComponentPropertyRrule, line)
			}
		}
		if ev.Owner != "" {
			e.SetProperty(ics.ComponentProperty("X-DOJO-OWNER"), ev.Owner)
		}
	}
	return cal.Serialize(), nil
}

func summary(ev *models.Event) string {
	if ev.Title != "" {
		return ev.Title
	}
	switch ev.Kind {
	case models.EventKindAvailability:
		names := make([]string, 0, len(ev.Types))
		for _, t := range ev.Types {
			names = append(names, t.DisplayName())
		}
		if len(names) == 0 {
			return "Availability"
		}
		return "Availability: " + strings.Join(names, ", ")
	case models.EventKindCoaching:
		return "Coaching session"
	default:
		return "Dojo event"
	}
}
