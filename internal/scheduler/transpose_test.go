package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecalculate(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	day := testDay()
	initial := Policy{DurationMinutes: 30}
	booked := Slot{ID: "booked-1", Start: *at(t, day, "08:00"), End: *at(t, day, "08:20")}

	ranges := []Range{
		engine.NewScheduled(booked),
		engine.NewSingle("s", at(t, day, "14:00"), day, initial, ""),
		engine.NewWindow("w", at(t, day, "09:00"), at(t, day, "10:00"), day, initial, ""),
	}

	updated := Policy{DurationMinutes: 20, BreakMinutes: 10}
	first := engine.Recalculate(ranges, day, updated)
	second := engine.Recalculate(first, day, updated)

	assert.Equal(t, first, second, "recalculation must be idempotent")

	assert.Equal(t, ranges[0], first[0], "scheduled ranges are untouched")
	assert.Equal(t, []string{"14:00 - 14:20"}, clocks(first[1].Slots))
	assert.Equal(t, "14:20", FormatClock(*first[1].EndTime, cet))
	assert.Equal(t, []string{"09:00 - 09:20", "09:30 - 09:50"}, clocks(first[2].Slots))
	assert.Equal(t, "10:00", FormatClock(*first[2].EndTime, cet), "window bounds stay fixed")

	assert.Equal(t, []string{"09:00 - 09:30", "09:30 - 10:00"}, clocks(ranges[2].Slots), "input is not mutated")
}

func TestTranspose(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	day := testDay()
	target := day.AddDate(0, 0, 5)
	policy := Policy{DurationMinutes: 30, BreakMinutes: 10}

	ranges := []Range{
		engine.NewScheduled(Slot{ID: "booked-1", Start: *at(t, day, "08:00"), End: *at(t, day, "08:45"), Location: "Room 0.01"}),
		engine.NewSingle("s", at(t, day, "14:00"), day, policy, "https://meet.google.com/xyz"),
		engine.NewWindow("w", at(t, day, "09:00"), at(t, day, "10:30"), day, policy, "Room 1"),
		engine.NewSingle("empty", nil, day, policy, ""),
	}

	moved := engine.Transpose(ranges, target)
	require.Len(t, moved, len(ranges))

	ids := map[string]struct{}{}
	for i, r := range moved {
		assert.NotEqual(t, ranges[i].ID, r.ID)
		ids[r.ID] = struct{}{}
		require.Len(t, r.Slots, len(ranges[i].Slots))
		for j, slot := range r.Slots {
			assert.Equal(t, target.Day(), slot.Start.Day())
			assert.Equal(t, target.Day(), slot.End.Day())
			assert.Equal(t, FormatRange(ranges[i].Slots[j].Start, ranges[i].Slots[j].End, cet), FormatRange(slot.Start, slot.End, cet))
			assert.Empty(t, slot.ID)
		}
		assert.Equal(t, ranges[i].Location, r.Location)
		assert.Equal(t, ranges[i].DurationMinutes, r.DurationMinutes)
	}
	assert.Len(t, ids, len(ranges), "every clone receives a fresh id")

	assert.Equal(t, RangeKindSingle, moved[0].Kind, "scheduled ranges become single ranges")
	assert.Equal(t, RangeKindSingle, moved[1].Kind)
	assert.Equal(t, RangeKindWindow, moved[2].Kind)
	assert.Equal(t, "https://meet.google.com/xyz", moved[1].Slots[0].StreamLink)
	assert.Nil(t, moved[3].StartTime)
	assert.Empty(t, moved[3].Slots)

	back := engine.Transpose(moved, day)
	for i, r := range back {
		if ranges[i].StartTime == nil {
			assert.Nil(t, r.StartTime)
			continue
		}
		assert.True(t, ranges[i].StartTime.Equal(*r.StartTime), "range %d start", i)
		assert.True(t, ranges[i].EndTime.Equal(*r.EndTime), "range %d end", i)
	}
}

func TestTranspose_SlotCrossingMidnightKeepsDuration(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	day := testDay()
	target := day.AddDate(0, 0, 2)
	policy := Policy{DurationMinutes: 60}

	late := engine.NewSingle("late", at(t, day, "23:30"), day, policy, "")
	booked := engine.NewScheduled(Slot{ID: "booked-1", Start: *at(t, day, "23:00"), End: at(t, day, "23:00").Add(90 * time.Minute)})

	moved := engine.Transpose([]Range{late, booked}, target)
	require.Len(t, moved, 2)

	for _, r := range moved {
		require.Len(t, r.Slots, 1)
		slot := r.Slots[0]
		assert.True(t, slot.End.After(slot.Start), "range %s slot must end after it starts", r.ID)
		assert.True(t, r.EndTime.After(*r.StartTime), "range %s bounds must stay ordered", r.ID)
		assert.Equal(t, target.Day(), slot.Start.Day())
		assert.Equal(t, target.AddDate(0, 0, 1).Day(), slot.End.Day())
	}
	assert.Equal(t, 60*time.Minute, moved[0].Slots[0].End.Sub(moved[0].Slots[0].Start))
	assert.Equal(t, 90*time.Minute, moved[1].Slots[0].End.Sub(moved[1].Slots[0].Start))

	onTarget := engine.NewSingle("late-target", at(t, target, "23:45"), target, Policy{DurationMinutes: 30}, "")
	conflicts := engine.DetectConflicts([]Range{moved[0], onTarget})
	assert.Equal(t, map[SlotKey]string{{RangeID: "late-target", Index: 0}: "23:30 - 00:30"}, conflicts)
}

func TestPendingSlots(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	day := testDay()
	policy := Policy{DurationMinutes: 30}
	ranges := []Range{
		engine.NewSingle("late", at(t, day, "15:00"), day, policy, ""),
		engine.NewScheduled(Slot{ID: "booked", Start: *at(t, day, "08:00"), End: *at(t, day, "08:30")}),
		engine.NewWindow("w", at(t, day, "09:00"), at(t, day, "10:00"), day, policy, ""),
	}

	pending := PendingSlots(ranges)

	assert.Equal(t, []string{"09:00 - 09:30", "09:30 - 10:00", "15:00 - 15:30"}, clocks(pending))
}
