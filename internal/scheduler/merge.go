package scheduler

// MergeConflicts combines batch-internal conflicts with conflicts reported by the
// booking store. external is keyed by IntervalKey; an external entry always replaces
// the batch-internal annotation of the matching slot.
func (e *Engine) MergeConflicts(ranges []Range, batch map[SlotKey]string, external map[string]Annotation) map[SlotKey]Annotation {
	merged := make(map[SlotKey]Annotation, len(batch))
	for key, display := range batch {
		merged[key] = Annotation{Kind: ConflictBatchInternal, DisplayTime: display}
	}
	if len(external) == 0 {
		return merged
	}

	for _, r := range ranges {
		for idx, slot := range r.Slots {
			annotation, ok := external[IntervalKey(slot.Start, slot.End)]
			if !ok {
				continue
			}
			merged[SlotKey{RangeID: r.ID, Index: idx}] = annotation
		}
	}
	return merged
}

// Annotate runs detection and merging in one step.
func (e *Engine) Annotate(ranges []Range, external map[string]Annotation) map[SlotKey]Annotation {
	return e.MergeConflicts(ranges, e.DetectConflicts(ranges), external)
}
