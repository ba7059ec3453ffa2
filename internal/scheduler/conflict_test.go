package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overlappingPair(t *testing.T, engine *Engine) []Range {
	t.Helper()
	day := testDay()
	policy := Policy{DurationMinutes: 30}
	return []Range{
		engine.NewSingle("r1", at(t, day, "10:00"), day, policy, ""),
		engine.NewSingle("r2", at(t, day, "10:15"), day, policy, ""),
	}
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	t.Run("later slot is flagged with the earlier slot as reference", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()

		conflicts := engine.DetectConflicts(overlappingPair(t, engine))

		assert.Equal(t, map[SlotKey]string{{RangeID: "r2", Index: 0}: "10:00 - 10:30"}, conflicts)
	})

	t.Run("touching slots do not overlap", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		day := testDay()
		policy := Policy{DurationMinutes: 30}
		ranges := []Range{
			engine.NewSingle("r1", at(t, day, "10:00"), day, policy, ""),
			engine.NewSingle("r2", at(t, day, "10:30"), day, policy, ""),
		}

		assert.Empty(t, engine.DetectConflicts(ranges))
	})

	t.Run("slots of the same range are never compared", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		day := testDay()
		r := Range{
			ID:   "manual",
			Kind: RangeKindWindow,
			Slots: []Slot{
				{Start: *at(t, day, "09:00"), End: *at(t, day, "10:00")},
				{Start: *at(t, day, "09:30"), End: *at(t, day, "10:30")},
			},
		}

		assert.Empty(t, engine.DetectConflicts([]Range{r}))
	})

	t.Run("first detected reference wins", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		day := testDay()
		policy := Policy{DurationMinutes: 60}
		ranges := []Range{
			engine.NewSingle("r1", at(t, day, "09:00"), day, policy, ""),
			engine.NewSingle("r2", at(t, day, "09:30"), day, policy, ""),
			engine.NewSingle("r3", at(t, day, "09:45"), day, policy, ""),
		}

		conflicts := engine.DetectConflicts(ranges)

		assert.Equal(t, "09:00 - 10:00", conflicts[SlotKey{RangeID: "r2", Index: 0}])
		assert.Equal(t, "09:00 - 10:00", conflicts[SlotKey{RangeID: "r3", Index: 0}])
		assert.NotContains(t, conflicts, SlotKey{RangeID: "r1", Index: 0})
	})

	t.Run("malformed slots are skipped without aborting detection", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		day := testDay()
		ranges := overlappingPair(t, engine)
		ranges = append([]Range{{
			ID:   "broken",
			Kind: RangeKindSingle,
			Slots: []Slot{
				{Start: time.Time{}, End: *at(t, day, "23:00")},
				{Start: *at(t, day, "12:00"), End: *at(t, day, "11:00")},
			},
		}}, ranges...)

		conflicts := engine.DetectConflicts(ranges)

		assert.Len(t, conflicts, 1)
		assert.Contains(t, conflicts, SlotKey{RangeID: "r2", Index: 0})
	})

	t.Run("overlap flags exactly one side", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		day := testDay()
		ranges := []Range{
			engine.NewWindow("w1", at(t, day, "09:00"), at(t, day, "12:00"), day, Policy{DurationMinutes: 30}, ""),
			engine.NewWindow("w2", at(t, day, "09:10"), at(t, day, "12:00"), day, Policy{DurationMinutes: 30, BreakMinutes: 20}, ""),
		}

		conflicts := engine.DetectConflicts(ranges)
		require.NotEmpty(t, conflicts)
		for key := range conflicts {
			assert.Equal(t, "w2", key.RangeID)
		}
	})
}

func TestMergeConflicts(t *testing.T) {
	t.Parallel()

	t.Run("batch conflicts are tagged batch internal", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		ranges := overlappingPair(t, engine)

		merged := engine.Annotate(ranges, nil)

		assert.Equal(t, map[SlotKey]Annotation{
			{RangeID: "r2", Index: 0}: {Kind: ConflictBatchInternal, DisplayTime: "10:00 - 10:30"},
		}, merged)
	})

	t.Run("server conflict overrides batch internal", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		ranges := overlappingPair(t, engine)
		second := ranges[1].Slots[0]
		external := map[string]Annotation{
			IntervalKey(second.Start, second.End): {Kind: ConflictBookedElsewhere, DisplayTime: "10:15 - 10:45"},
		}

		merged := engine.Annotate(ranges, external)

		require.Len(t, merged, 1)
		assert.Equal(t, Annotation{Kind: ConflictBookedElsewhere, DisplayTime: "10:15 - 10:45"}, merged[SlotKey{RangeID: "r2", Index: 0}])
	})

	t.Run("server conflict on an otherwise clean slot", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		ranges := overlappingPair(t, engine)
		first := ranges[0].Slots[0]
		external := map[string]Annotation{
			IntervalKey(first.Start, first.End): {Kind: ConflictSameProcessBooked},
		}

		merged := engine.Annotate(ranges, external)

		assert.Equal(t, ConflictSameProcessBooked, merged[SlotKey{RangeID: "r1", Index: 0}].Kind)
		assert.Equal(t, ConflictBatchInternal, merged[SlotKey{RangeID: "r2", Index: 0}].Kind)
	})

	t.Run("unmatched external keys are ignored", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine()
		ranges := overlappingPair(t, engine)
		day := testDay()
		external := map[string]Annotation{
			IntervalKey(*at(t, day, "15:00"), *at(t, day, "15:30")): {Kind: ConflictBookedElsewhere},
		}

		merged := engine.Annotate(ranges, external)

		assert.Len(t, merged, 1)
	})
}
