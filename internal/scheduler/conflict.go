package scheduler

import "time"

type slotRecord struct {
	key         SlotKey
	rangeID     string
	start       time.Time
	end         time.Time
	displayTime string
}

// DetectConflicts flags overlapping slots that belong to different ranges.
//
// Slots are visited in range order, then slot order. For every overlapping pair only
// the later visited slot is flagged, carrying the earlier slot's display time. The
// first reference recorded for a key wins. Slots with unusable bounds are skipped.
func (e *Engine) DetectConflicts(ranges []Range) map[SlotKey]string {
	records := e.flatten(ranges)
	conflicts := make(map[SlotKey]string)

	for i := 0; i < len(records); i++ {
		earlier := records[i]
		for j := i + 1; j < len(records); j++ {
			later := records[j]
			if earlier.rangeID == later.rangeID {
				continue
			}
			if !Overlaps(earlier.start, earlier.end, later.start, later.end) {
				continue
			}
			if _, marked := conflicts[later.key]; marked {
				continue
			}
			conflicts[later.key] = earlier.displayTime
		}
	}

	return conflicts
}

func (e *Engine) flatten(ranges []Range) []slotRecord {
	records := make([]slotRecord, 0, len(ranges))
	for _, r := range ranges {
		for idx, slot := range r.Slots {
			if slot.Start.IsZero() || slot.End.IsZero() || !slot.End.After(slot.Start) {
				continue
			}
			records = append(records, slotRecord{
				key:         SlotKey{RangeID: r.ID, Index: idx},
				rangeID:     r.ID,
				start:       slot.Start,
				end:         slot.End,
				displayTime: e.FormatRange(slot.Start, slot.End),
			})
		}
	}
	return records
}

// Overlaps reports whether half-open intervals [aStart,aEnd) and [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
