package scheduler

import (
	"sort"
	"time"
)

// Transpose clones a day's ranges onto target, keeping every time of day.
//
// This is a structural copy: slots are re-anchored rather than regenerated. Every
// range receives a fresh identifier, and scheduled ranges become unscheduled single
// ranges whose slot carries no persisted id.
func (e *Engine) Transpose(ranges []Range, target time.Time) []Range {
	out := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		clone := Range{
			ID:              e.idGenerator(),
			Kind:            r.Kind,
			DurationMinutes: r.DurationMinutes,
			Location:        r.Location,
			Slots:           make([]Slot, 0, len(r.Slots)),
		}
		if clone.Kind == RangeKindScheduled {
			clone.Kind = RangeKindSingle
		}
		if r.StartTime != nil {
			start := Reanchor(*r.StartTime, target, e.location)
			clone.StartTime = &start
		}
		if r.EndTime != nil {
			// Window bounds are wall-clock values on one day. A single range ends a
			// fixed span after its start, which may fall on the following day.
			end := Reanchor(*r.EndTime, target, e.location)
			if clone.Kind == RangeKindSingle && clone.StartTime != nil && r.StartTime != nil {
				end = clone.StartTime.Add(r.EndTime.Sub(*r.StartTime))
			}
			clone.EndTime = &end
		}
		for _, slot := range r.Slots {
			start := Reanchor(slot.Start, target, e.location)
			clone.Slots = append(clone.Slots, Slot{
				Start:      start,
				End:        start.Add(slot.End.Sub(slot.Start)),
				Location:   slot.Location,
				StreamLink: e.classifier.StreamLink(slot.Location),
			})
		}
		out = append(out, clone)
	}
	return out
}

// PendingSlots returns every slot not yet persisted, ordered by start time.
func PendingSlots(ranges []Range) []Slot {
	pending := make([]Slot, 0)
	for _, r := range ranges {
		for _, slot := range r.Slots {
			if slot.Persisted() {
				continue
			}
			pending = append(pending, slot)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Start.Before(pending[j].Start)
	})
	return pending
}
