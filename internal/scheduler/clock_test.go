package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.June, 2, 18, 30, 0, 0, cet)

	got, ok := ParseClock(" 9:05 ", day, cet)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, time.June, 2, 9, 5, 0, 0, cet), got)

	for _, invalid := range []string{"", "  ", "24:00", "12:60", "12", "12:5", "ab:cd", "123:00", "12:00:00", "+9:30", "-0:15", "9:+5", " 1:0x"} {
		_, ok := ParseClock(invalid, day, cet)
		assert.False(t, ok, "expected %q to be rejected", invalid)
	}
}

func TestReanchorKeepsWallClock(t *testing.T) {
	t.Parallel()

	source := time.Date(2025, time.June, 2, 13, 45, 0, 0, cet)
	target := time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC)

	got := Reanchor(source, target, cet)

	assert.Equal(t, time.Date(2025, time.December, 24, 13, 45, 0, 0, cet), got)
	assert.Equal(t, "13:45", FormatClock(got, cet))
}

func TestIntervalKeyNormalisesZones(t *testing.T) {
	t.Parallel()

	local := time.Date(2025, time.June, 2, 10, 0, 0, 0, cet)
	utc := local.UTC()

	assert.Equal(t, IntervalKey(local, local.Add(time.Hour)), IntervalKey(utc, utc.Add(time.Hour)))
	assert.Equal(t, "2025-06-02T09:00:00.000Z/2025-06-02T10:00:00.000Z", IntervalKey(local, local.Add(time.Hour)))
}

func TestClassifier_IsVirtual(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier("conf.tum.de")

	tests := []struct {
		location string
		want     bool
	}{
		{"", false},
		{"   ", false},
		{"Room 01.09.014", false},
		{"Boltzmannstr. 3, Garching", false},
		{"https://tum-conf.zoom.us/j/99999", true},
		{"HTTP://Example.ORG/meeting", true},
		{"example.org", true},
		{"Join via meet.google.com/abc-defg-hij please", true},
		{"Teams: teams.microsoft.com/l/meetup-join/1", true},
		{"see conf.tum.de room 4", true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, classifier.IsVirtual(tc.location), "location %q", tc.location)
	}

	assert.Empty(t, classifier.StreamLink("Room 1"))
	assert.Equal(t, "example.org", classifier.StreamLink("example.org"))

	var unset *Classifier
	assert.True(t, unset.IsVirtual("https://zoom.us/j/1"))
}
