package testfixtures

import (
	"context"
	"testing"

	"github.com/ls1intum/tum-apply-sub002/internal/bookingstore"
	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

func TestServiceFactoryNewPlanningService(t *testing.T) {
	factory := NewServiceFactory()
	store := bookingstore.NewMemory(Zone)
	booking := NewBookingFixture(WithBookingID("booked"), WithBookingClock(PlanningDay(), "08:00", "08:45"))
	if err := store.Book(booking.Booking()); err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	svc := factory.NewPlanningService(PlanningServiceDeps{Bookings: store})
	session, err := svc.OpenSession(context.Background(), OpenParams())
	if err != nil {
		t.Fatalf("OpenSession returned error: %v", err)
	}

	if session.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", session.ID)
	}
	if !session.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), session.CreatedAt)
	}
	if len(session.Ranges) != 1 || session.Ranges[0].Kind != scheduler.RangeKindScheduled {
		t.Fatalf("expected booked slot to be seeded, got %+v", session.Ranges)
	}

	copied, err := svc.CopyToDate(context.Background(), session.ID, PlanningDay().AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CopyToDate returned error: %v", err)
	}
	if copied.Ranges[0].ID != "copy-1" {
		t.Fatalf("expected copied range to use engine ids, got %q", copied.Ranges[0].ID)
	}
}

func TestServiceFactoryDefaultsToEmptyStore(t *testing.T) {
	svc := NewServiceFactory().NewPlanningService(PlanningServiceDeps{})

	session, err := svc.OpenSession(context.Background(), OpenParams())
	if err != nil {
		t.Fatalf("OpenSession returned error: %v", err)
	}
	if len(session.Ranges) != 0 {
		t.Fatalf("expected no scheduled ranges, got %d", len(session.Ranges))
	}
}

func TestBookingFixtureDefaults(t *testing.T) {
	first := NewBookingFixture()
	second := NewBookingFixture(WithBookingProcess("other"), WithBookingLocation("zoom.us/j/1"))

	if first.ID == second.ID {
		t.Fatalf("expected unique booking ids, got %q twice", first.ID)
	}
	if got := first.End.Sub(first.Start); got.Minutes() != 30 {
		t.Fatalf("expected 30 minute booking, got %s", got)
	}
	if slot := second.Slot(); !slot.Persisted() || slot.Location != "zoom.us/j/1" {
		t.Fatalf("unexpected slot conversion: %+v", slot)
	}
}
