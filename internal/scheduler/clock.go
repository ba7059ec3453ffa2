package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const clockLayout = "15:04"

// ParseClock anchors an "HH:MM" wall-clock value onto day in loc.
// It returns false when text is blank or not a valid time of day.
func ParseClock(text string, day time.Time, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	hourPart, minutePart, ok := strings.Cut(text, ":")
	if !ok || len(minutePart) != 2 || len(hourPart) == 0 || len(hourPart) > 2 {
		return time.Time{}, false
	}
	if !allDigits(hourPart) || !allDigits(minutePart) {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	loc = locationOrLocal(loc)
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), true
}

// FormatClock renders t as "HH:MM" in loc.
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(locationOrLocal(loc)).Format(clockLayout)
}

// FormatRange renders an interval as "HH:MM - HH:MM".
func FormatRange(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s - %s", FormatClock(start, loc), FormatClock(end, loc))
}

// Reanchor keeps the wall-clock time of t but moves it onto the calendar date of day.
func Reanchor(t, day time.Time, loc *time.Location) time.Time {
	loc = locationOrLocal(loc)
	y, m, d := day.In(loc).Date()
	local := t.In(loc)
	return time.Date(y, m, d, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	loc = locationOrLocal(loc)
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// IntervalKey builds the ISO-normalised key used to match slots against
// externally reported conflicts.
func IntervalKey(start, end time.Time) string {
	const layout = "2006-01-02T15:04:05.000Z07:00"
	return start.UTC().Format(layout) + "/" + end.UTC().Format(layout)
}

func locationOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func allDigits(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
