// Package bookingstore holds interview slots that have already been booked.
package bookingstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

// ErrInvalidBooking is returned when a booking lacks an id or a valid interval.
var ErrInvalidBooking = errors.New("bookingstore: invalid booking")

// Booking is a persisted interview slot owned by one process.
type Booking struct {
	ID        string
	ProcessID string
	Start     time.Time
	End       time.Time
	Location  string
}

// Memory is an in-memory booking store. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	location *time.Location
	bookings map[string]Booking
}

// NewMemory creates an empty store. loc is the zone used for day boundaries and
// display times; nil selects time.Local.
func NewMemory(loc *time.Location) *Memory {
	if loc == nil {
		loc = time.Local
	}
	return &Memory{location: loc, bookings: make(map[string]Booking)}
}

// Book stores or replaces a booking.
func (m *Memory) Book(booking Booking) error {
	booking.ID = strings.TrimSpace(booking.ID)
	booking.ProcessID = strings.TrimSpace(booking.ProcessID)
	if booking.ID == "" || booking.ProcessID == "" {
		return fmt.Errorf("%w: id and process_id are required", ErrInvalidBooking)
	}
	if booking.Start.IsZero() || !booking.End.After(booking.Start) {
		return fmt.Errorf("%w: %s must end after it starts", ErrInvalidBooking, booking.ID)
	}

	m.mu.Lock()
	m.bookings[booking.ID] = booking
	m.mu.Unlock()
	return nil
}

// Cancel removes a booking and reports whether it existed.
func (m *Memory) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bookings[id]
	delete(m.bookings, id)
	return ok
}

// Len returns the number of stored bookings.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// BookedSlots returns the slots processID has booked on day, ordered by start.
func (m *Memory) BookedSlots(ctx context.Context, day time.Time, processID string) ([]scheduler.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dayStart := scheduler.StartOfDay(day, m.location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	slots := make([]scheduler.Slot, 0)
	for _, booking := range m.sorted() {
		if booking.ProcessID != processID {
			continue
		}
		if !scheduler.Overlaps(booking.Start, booking.End, dayStart, dayEnd) {
			continue
		}
		slots = append(slots, scheduler.Slot{
			ID:       booking.ID,
			Start:    booking.Start.In(m.location),
			End:      booking.End.In(m.location),
			Location: booking.Location,
		})
	}
	return slots, nil
}

// ServerConflicts reports every unpersisted slot that overlaps a stored booking.
// The result is keyed by scheduler.IntervalKey of the candidate slot.
func (m *Memory) ServerConflicts(ctx context.Context, processID string, slots []scheduler.Slot) (map[string]scheduler.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bookings := m.sorted()
	conflicts := make(map[string]scheduler.Annotation)
	for _, slot := range slots {
		if slot.Persisted() || !slot.End.After(slot.Start) {
			continue
		}
		key := scheduler.IntervalKey(slot.Start, slot.End)
		if _, seen := conflicts[key]; seen {
			continue
		}
		for _, booking := range bookings {
			if !scheduler.Overlaps(slot.Start, slot.End, booking.Start, booking.End) {
				continue
			}
			kind := scheduler.ConflictBookedElsewhere
			if booking.ProcessID == processID {
				kind = scheduler.ConflictSameProcessBooked
			}
			conflicts[key] = scheduler.Annotation{
				Kind:        kind,
				DisplayTime: scheduler.FormatRange(booking.Start, booking.End, m.location),
			}
			break
		}
	}
	return conflicts, nil
}

func (m *Memory) sorted() []Booking {
	m.mu.RLock()
	out := make([]Booking, 0, len(m.bookings))
	for _, booking := range m.bookings {
		out = append(out, booking)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

type seedFile struct {
	Bookings []seedBooking `yaml:"bookings"`
}

type seedBooking struct {
	ID        string `yaml:"id"`
	ProcessID string `yaml:"process_id"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Location  string `yaml:"location"`
}

// LoadFile seeds the store from a YAML file and returns the number of bookings read.
func (m *Memory) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read bookings file: %w", err)
	}
	return m.Load(data)
}

// Load seeds the store from YAML content.
func (m *Memory) Load(data []byte) (int, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("decode bookings: %w", err)
	}

	for i, entry := range file.Bookings {
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Start))
		if err != nil {
			return i, fmt.Errorf("booking %d: start: %w", i, err)
		}
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.End))
		if err != nil {
			return i, fmt.Errorf("booking %d: end: %w", i, err)
		}
		if err := m.Book(Booking{
			ID:        entry.ID,
			ProcessID: entry.ProcessID,
			Start:     start,
			End:       end,
			Location:  entry.Location,
		}); err != nil {
			return i, fmt.Errorf("booking %d: %w", i, err)
		}
	}
	return len(file.Bookings), nil
}
