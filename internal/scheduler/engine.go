package scheduler

import (
	"time"
)

// DefaultMaxWindowSlots bounds the number of slots a single window may emit.
// It is a termination guard for degenerate policies, not a business limit.
const DefaultMaxWindowSlots = 70

// EngineOptions configures an Engine. Zero values select defaults.
type EngineOptions struct {
	// Location is the wall-clock zone for HH:MM arithmetic. Defaults to time.Local.
	Location *time.Location
	// MaxWindowSlots overrides DefaultMaxWindowSlots when positive.
	MaxWindowSlots int
	// Classifier decides which locations receive a stream link.
	Classifier *Classifier
	// IDGenerator supplies identifiers for ranges created by Transpose.
	IDGenerator func() string
}

// Engine expands range configurations into slots and annotates conflicts.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	location       *time.Location
	maxWindowSlots int
	classifier     *Classifier
	idGenerator    func() string
}

// NewEngine constructs an Engine from opts.
func NewEngine(opts EngineOptions) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	maxSlots := opts.MaxWindowSlots
	if maxSlots <= 0 {
		maxSlots = DefaultMaxWindowSlots
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewClassifier()
	}
	idGenerator := opts.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &Engine{
		location:       loc,
		maxWindowSlots: maxSlots,
		classifier:     classifier,
		idGenerator:    idGenerator,
	}
}

// Location returns the engine's wall-clock zone.
func (e *Engine) Location() *time.Location {
	return e.location
}

// Classifier returns the location classifier used for stream links.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// ParseClock anchors text onto day using the engine location.
func (e *Engine) ParseClock(text string, day time.Time) (time.Time, bool) {
	return ParseClock(text, day, e.location)
}

// FormatRange renders an interval in the engine location.
func (e *Engine) FormatRange(start, end time.Time) string {
	return FormatRange(start, end, e.location)
}

// NewSingle builds a single-slot range starting at start. A nil start yields an empty range.
func (e *Engine) NewSingle(id string, start *time.Time, day time.Time, policy Policy, location string) Range {
	r := Range{
		ID:              id,
		Kind:            RangeKindSingle,
		StartTime:       cloneTime(start),
		DurationMinutes: policy.DurationMinutes,
		Location:        location,
	}
	return e.Generate(r, day, policy)
}

// NewWindow builds a window range covering [start, end).
func (e *Engine) NewWindow(id string, start, end *time.Time, day time.Time, policy Policy, location string) Range {
	r := Range{
		ID:              id,
		Kind:            RangeKindWindow,
		StartTime:       cloneTime(start),
		EndTime:         cloneTime(end),
		DurationMinutes: policy.DurationMinutes,
		Location:        location,
	}
	return e.Generate(r, day, policy)
}

// NewScheduled wraps an already booked slot. The range id equals the slot id.
func (e *Engine) NewScheduled(slot Slot) Range {
	start := slot.Start
	end := slot.End
	slot.StreamLink = e.classifier.StreamLink(slot.Location)
	return Range{
		ID:              slot.ID,
		Kind:            RangeKindScheduled,
		StartTime:       &start,
		EndTime:         &end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Location:        slot.Location,
		Slots:           []Slot{slot},
	}
}

// Generate recomputes the slots of r for day. Scheduled ranges are returned unchanged.
// The duration of r is used as the slot length; policy supplies the break.
func (e *Engine) Generate(r Range, day time.Time, policy Policy) Range {
	out := r.clone()
	switch out.Kind {
	case RangeKindSingle:
		return e.generateSingle(out, day)
	case RangeKindWindow:
		return e.generateWindow(out, day, policy.breakDuration())
	default:
		return out
	}
}

func (e *Engine) generateSingle(r Range, day time.Time) Range {
	if r.StartTime == nil {
		r.EndTime = nil
		r.Slots = []Slot{}
		return r
	}
	start := Reanchor(*r.StartTime, day, e.location)
	end := start.Add(time.Duration(r.DurationMinutes) * time.Minute)
	r.StartTime = &start
	r.EndTime = &end
	if !end.After(start) {
		r.Slots = []Slot{}
		return r
	}
	r.Slots = []Slot{e.newSlot(start, end, r.Location)}
	return r
}

func (e *Engine) generateWindow(r Range, day time.Time, breakDuration time.Duration) Range {
	r.Slots = []Slot{}
	if r.StartTime == nil || r.EndTime == nil {
		return r
	}
	windowStart := Reanchor(*r.StartTime, day, e.location)
	windowEnd := Reanchor(*r.EndTime, day, e.location)
	r.StartTime = &windowStart
	r.EndTime = &windowEnd

	duration := time.Duration(r.DurationMinutes) * time.Minute
	if duration <= 0 || !windowStart.Before(windowEnd) {
		return r
	}

	current := windowStart
	for i := 0; i < e.maxWindowSlots; i++ {
		candidateEnd := current.Add(duration)
		// A trailing remainder shorter than one slot is dropped, not truncated.
		if candidateEnd.After(windowEnd) {
			break
		}
		r.Slots = append(r.Slots, e.newSlot(current, candidateEnd, r.Location))
		current = candidateEnd.Add(breakDuration)
		if !current.Before(windowEnd) {
			break
		}
	}
	return r
}

func (e *Engine) newSlot(start, end time.Time, location string) Slot {
	return Slot{
		Start:      start,
		End:        end,
		Location:   location,
		StreamLink: e.classifier.StreamLink(location),
	}
}
