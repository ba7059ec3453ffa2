package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ls1intum/tum-apply-sub002/internal/application"
	"github.com/ls1intum/tum-apply-sub002/internal/bookingstore"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

var bookingCounter uint64

// Zone is the wall-clock zone shared by fixtures. It is fixed so tests do not
// depend on the host tz database or daylight saving transitions.
var Zone = time.FixedZone("CET", 60*60)

var referenceTime = time.Date(2025, time.March, 13, 12, 0, 0, 0, Zone)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// PlanningDay returns the day fixtures plan on, the day after ReferenceTime.
func PlanningDay() time.Time {
	return time.Date(2025, time.March, 14, 0, 0, 0, 0, Zone)
}

// At anchors an HH:MM clock value onto day in Zone. It panics on malformed input.
func At(day time.Time, clock string) time.Time {
	ts, ok := scheduler.ParseClock(clock, day, Zone)
	if !ok {
		panic(fmt.Sprintf("testfixtures: invalid clock %q", clock))
	}
	return ts
}

// ----------------------------- Booking fixtures -----------------------------

// BookingFixture represents a deterministic booked slot.
type BookingFixture struct {
	ID        string
	ProcessID string
	Start     time.Time
	End       time.Time
	Location  string
}

// BookingOption mutates a booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a 30 minute booking at 08:00 on PlanningDay.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	id := atomic.AddUint64(&bookingCounter, 1)
	start := At(PlanningDay(), "08:00")
	fixture := BookingFixture{
		ID:        fmt.Sprintf("booking-%d", id),
		ProcessID: "process-1",
		Start:     start,
		End:       start.Add(30 * time.Minute),
		Location:  "Room 1",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the booking identifier.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingProcess overrides the owning interview process.
func WithBookingProcess(processID string) BookingOption {
	return func(f *BookingFixture) {
		f.ProcessID = processID
	}
}

// WithBookingClock places the booking between two HH:MM values on day.
func WithBookingClock(day time.Time, start, end string) BookingOption {
	return func(f *BookingFixture) {
		f.Start = At(day, start)
		f.End = At(day, end)
	}
}

// WithBookingLocation overrides the booking location.
func WithBookingLocation(location string) BookingOption {
	return func(f *BookingFixture) {
		f.Location = location
	}
}

// Booking converts the fixture into a booking store record.
func (f BookingFixture) Booking() bookingstore.Booking {
	return bookingstore.Booking{
		ID:        f.ID,
		ProcessID: f.ProcessID,
		Start:     f.Start,
		End:       f.End,
		Location:  f.Location,
	}
}

// Slot converts the fixture into a persisted scheduler slot.
func (f BookingFixture) Slot() scheduler.Slot {
	return scheduler.Slot{
		ID:       f.ID,
		Start:    f.Start,
		End:      f.End,
		Location: f.Location,
	}
}

// ----------------------------- Range fixtures -----------------------------

// SingleInput describes a single range starting at start.
func SingleInput(start, location string) application.RangeInput {
	return application.RangeInput{
		Kind:     scheduler.RangeKindSingle,
		Start:    start,
		Location: location,
	}
}

// WindowInput describes a window range covering start to end.
func WindowInput(start, end, location string) application.RangeInput {
	return application.RangeInput{
		Kind:     scheduler.RangeKindWindow,
		Start:    start,
		End:      end,
		Location: location,
	}
}

// DefaultPolicy is the 30 minute, no break policy used by most fixtures.
func DefaultPolicy() scheduler.Policy {
	return scheduler.Policy{DurationMinutes: 30}
}

// OpenParams opens PlanningDay for "process-1" with DefaultPolicy.
func OpenParams() application.OpenSessionParams {
	return application.OpenSessionParams{
		Day:       PlanningDay(),
		ProcessID: "process-1",
		Policy:    DefaultPolicy(),
	}
}
