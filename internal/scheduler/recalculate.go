package scheduler

import "time"

// Recalculate applies a new global policy to every mutable range of a day.
//
// Single and window ranges take the policy duration and are regenerated; scheduled
// ranges keep their persisted slot. Running it twice with the same inputs yields
// identical slots.
func (e *Engine) Recalculate(ranges []Range, day time.Time, policy Policy) []Range {
	if ranges == nil {
		return nil
	}
	out := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Kind == RangeKindScheduled {
			out = append(out, r.clone())
			continue
		}
		r.DurationMinutes = policy.DurationMinutes
		out = append(out, e.Generate(r, day, policy))
	}
	return out
}
