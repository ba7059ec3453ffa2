// Package calendar renders interview slots as iCalendar documents.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ContentType is the media type of an exported document.
const ContentType = "text/calendar; charset=utf-8"

const productID = "-//slotplanner//Interview Slots//EN"

// Event is one slot to be rendered as a VEVENT.
type Event struct {
	UID      string
	Summary  string
	Start    time.Time
	End      time.Time
	Location string
	URL      string
	// Booked slots are exported as confirmed, everything else as tentative.
	Booked bool
}

// Request describes the calendar to build.
type Request struct {
	Name   string
	Stamp  time.Time
	Events []Event
}

// Export contains the rendered calendar.
type Export struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Build renders req into an iCalendar document.
func Build(req Request) (Export, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name := strings.TrimSpace(req.Name); name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := req.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for i, ev := range req.Events {
		if strings.TrimSpace(ev.UID) == "" {
			return Export{}, fmt.Errorf("event %d: uid is required", i)
		}
		if ev.Start.IsZero() || !ev.End.After(ev.Start) {
			return Export{}, fmt.Errorf("event %s: %w", ev.UID, ErrInvalidInterval)
		}

		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(ev.Start.UTC())
		event.SetEndAt(ev.End.UTC())
		event.SetSummary(ev.Summary)
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.URL != "" {
			event.SetURL(ev.URL)
		}
		if ev.Booked {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return Export{
		Data:        []byte(cal.Serialize()),
		ContentType: ContentType,
	}, nil
}

// ErrInvalidInterval is returned for events whose end is not after their start.
var ErrInvalidInterval = errors.New("calendar: event end must be after start")
