package scheduler

import (
	"fmt"
	"time"
)

// RangeKind identifies how a range configuration produces its slots.
type RangeKind string

const (
	// RangeKindSingle produces exactly one slot of the policy duration.
	RangeKindSingle RangeKind = "single"
	// RangeKindWindow fills a time window with back-to-back slots separated by the break.
	RangeKindWindow RangeKind = "window"
	// RangeKindScheduled wraps a slot that already exists in the booking store.
	RangeKindScheduled RangeKind = "scheduled"
)

// Valid reports whether k is a known range kind.
func (k RangeKind) Valid() bool {
	switch k {
	case RangeKindSingle, RangeKindWindow, RangeKindScheduled:
		return true
	}
	return false
}

// ConflictKind describes the origin of a conflict annotation.
type ConflictKind string

const (
	// ConflictBatchInternal marks an overlap with another slot of the same editing session.
	ConflictBatchInternal ConflictKind = "batch_internal"
	// ConflictSameProcessBooked marks a slot that collides with a booking of the same interview process.
	ConflictSameProcessBooked ConflictKind = "same_process_booked"
	// ConflictBookedElsewhere marks a slot that collides with a booking of another process.
	ConflictBookedElsewhere ConflictKind = "booked_elsewhere"
)

// Policy carries the global duration settings applied to mutable ranges.
type Policy struct {
	DurationMinutes int
	BreakMinutes    int
}

func (p Policy) duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}

func (p Policy) breakDuration() time.Duration {
	return time.Duration(p.BreakMinutes) * time.Minute
}

// Slot is one concrete, bookable interval.
type Slot struct {
	// ID is set only when the slot already exists in the booking store.
	ID         string
	Start      time.Time
	End        time.Time
	Location   string
	StreamLink string
}

// Persisted reports whether the slot carries a booking store identifier.
func (s Slot) Persisted() bool {
	return s.ID != ""
}

// Range is one user-configured slot generator for a calendar day.
//
// Slots is derived from the other fields and is only ever replaced wholesale by
// engine operations.
type Range struct {
	ID              string
	Kind            RangeKind
	StartTime       *time.Time
	EndTime         *time.Time
	DurationMinutes int
	Location        string
	Slots           []Slot
}

func (r Range) clone() Range {
	out := r
	out.StartTime = cloneTime(r.StartTime)
	out.EndTime = cloneTime(r.EndTime)
	if r.Slots != nil {
		out.Slots = make([]Slot, len(r.Slots))
		copy(out.Slots, r.Slots)
	}
	return out
}

// SlotKey identifies a generated slot by its owning range and position.
// Keys are only stable for one generation pass.
type SlotKey struct {
	RangeID string
	Index   int
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s-%d", k.RangeID, k.Index)
}

// Annotation is the conflict flag attached to a single slot.
type Annotation struct {
	Kind        ConflictKind
	DisplayTime string
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
