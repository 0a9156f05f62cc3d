package eventslots_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/acro-planner/backend/internal/eventslots"
)

var noon = time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

func TestValidInterval(t *testing.T) {
	c := qt.New(t)

	c.Assert(eventslots.ValidInterval(noon, noon.Add(time.Hour)), qt.IsTrue)
	c.Assert(eventslots.ValidInterval(noon, noon), qt.IsFalse)
	c.Assert(eventslots.ValidInterval(noon.Add(time.Hour), noon), qt.IsFalse)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{
			name:   "identical intervals",
			aStart: noon, aEnd: noon.Add(time.Hour),
			bStart: noon, bEnd: noon.Add(time.Hour),
			expected: true,
		},
		{
			name:   "partial overlap",
			aStart: noon, aEnd: noon.Add(time.Hour),
			bStart: noon.Add(30 * time.Minute), bEnd: noon.Add(90 * time.Minute),
			expected: true,
		},
		{
			name:   "containment",
			aStart: noon, aEnd: noon.Add(2 * time.Hour),
			bStart: noon.Add(30 * time.Minute), bEnd: noon.Add(time.Hour),
			expected: true,
		},
		{
			name:   "back to back",
			aStart: noon, aEnd: noon.Add(time.Hour),
			bStart: noon.Add(time.Hour), bEnd: noon.Add(2 * time.Hour),
			expected: false,
		},
		{
			name:   "disjoint",
			aStart: noon, aEnd: noon.Add(time.Hour),
			bStart: noon.Add(3 * time.Hour), bEnd: noon.Add(4 * time.Hour),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(eventslots.Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd), qt.Equals, tt.expected)
			// Overlap is symmetric.
			c.Assert(eventslots.Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), qt.Equals, tt.expected)
		})
	}
}

func TestDayNumber(t *testing.T) {
	start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		start    *time.Time
		slot     time.Time
		expected int
	}{
		{
			name:     "no convention start",
			start:    nil,
			slot:     noon,
			expected: 1,
		},
		{
			name:     "first day",
			start:    &start,
			slot:     time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "third day",
			start:    &start,
			slot:     time.Date(2026, 7, 12, 22, 0, 0, 0, time.UTC),
			expected: 3,
		},
		{
			name:     "slot before the convention",
			start:    &start,
			slot:     time.Date(2026, 7, 8, 10, 0, 0, 0, time.UTC),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(eventslots.DayNumber(tt.start, tt.slot), qt.Equals, tt.expected)
		})
	}
}
