package events_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/acro-planner/backend/internal/events"
	"github.com/acro-planner/backend/internal/models"
)

func set(ids ...string) map[string]bool {
	m := map[string]bool{}
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestCovers(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		provided map[string]bool
		expected bool
	}{
		{
			name:     "no prerequisites",
			required: nil,
			provided: set(),
			expected: true,
		},
		{
			name:     "exact coverage",
			required: []string{"a", "b"},
			provided: set("a", "b"),
			expected: true,
		},
		{
			name:     "superset coverage",
			required: []string{"a"},
			provided: set("a", "b", "c"),
			expected: true,
		},
		{
			name:     "one missing",
			required: []string{"a", "b"},
			provided: set("a"),
			expected: false,
		},
		{
			name:     "empty provided",
			required: []string{"a"},
			provided: set(),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(events.Covers(tt.required, tt.provided), qt.Equals, tt.expected)
		})
	}
}

func testEvents() []models.Event {
	return []models.Event{
		{ID: "ev1", Name: "Intro Flow", PrerequisiteIDs: []string{}},
		{ID: "ev2", Name: "Washing Machines", PrerequisiteIDs: []string{"base"}},
		{ID: "ev3", Name: "Whips", PrerequisiteIDs: []string{"base", "handstand"}},
	}
}

func testSlots() map[string][]models.EventSlot {
	day1 := time.Date(2026, 7, 10, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 7, 11, 10, 0, 0, 0, time.UTC)
	return map[string][]models.EventSlot{
		"ev1": {{ID: "s1", LocationID: "main-hall", StartTime: day1, EndTime: day1.Add(time.Hour)}},
		"ev2": {{ID: "s2", LocationID: "studio", StartTime: day2, EndTime: day2.Add(time.Hour)}},
	}
}

func TestApplyCapabilityFilter(t *testing.T) {
	c := qt.New(t)

	f := events.Filter{
		Provided:             set("base"),
		FilterByCapabilities: true,
	}
	got := events.Apply(testEvents(), testSlots(), f)

	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0].ID, qt.Equals, "ev1")
	c.Assert(got[1].ID, qt.Equals, "ev2")
}

func TestApplyPartialMode(t *testing.T) {
	c := qt.New(t)

	f := events.Filter{
		Provided:             set("base"),
		FilterByCapabilities: true,
		Partial:              true,
	}
	got := events.Apply(testEvents(), testSlots(), f)

	c.Assert(got, qt.HasLen, 3)
	c.Assert(*got[0].FullyQualified, qt.IsTrue)
	c.Assert(*got[1].FullyQualified, qt.IsTrue)
	c.Assert(*got[2].FullyQualified, qt.IsFalse)
}

func TestApplyLocationFilter(t *testing.T) {
	c := qt.New(t)

	got := events.Apply(testEvents(), testSlots(), events.Filter{LocationID: "studio"})

	// ev3 has no slots, so it cannot match a location filter.
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].ID, qt.Equals, "ev2")
}

func TestApplyDateRange(t *testing.T) {
	c := qt.New(t)

	from := time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)
	got := events.Apply(testEvents(), testSlots(), events.Filter{From: &from})
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].ID, qt.Equals, "ev2")

	// A slot ending exactly at From does not match: intervals are half-open.
	boundary := testSlots()["ev1"][0].EndTime
	got = events.Apply(testEvents()[:1], testSlots(), events.Filter{From: &boundary})
	c.Assert(got, qt.HasLen, 0)

	to := time.Date(2026, 7, 10, 23, 0, 0, 0, time.UTC)
	got = events.Apply(testEvents(), testSlots(), events.Filter{To: &to})
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].ID, qt.Equals, "ev1")
}

func TestApplyCombinedFilters(t *testing.T) {
	c := qt.New(t)

	from := time.Date(2026, 7, 11, 0, 0, 0, 0, time.UTC)
	f := events.Filter{
		Provided:             set("base"),
		FilterByCapabilities: true,
		LocationID:           "studio",
		From:                 &from,
	}
	got := events.Apply(testEvents(), testSlots(), f)

	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].ID, qt.Equals, "ev2")
}

func TestPaginate(t *testing.T) {
	list := []models.Event{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}

	tests := []struct {
		name     string
		page     int
		perPage  int
		expected []string
	}{
		{
			name:     "disabled",
			page:     1,
			perPage:  0,
			expected: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:     "first page",
			page:     1,
			perPage:  2,
			expected: []string{"a", "b"},
		},
		{
			name:     "last partial page",
			page:     3,
			perPage:  2,
			expected: []string{"e"},
		},
		{
			name:     "past the end",
			page:     4,
			perPage:  2,
			expected: []string{},
		},
		{
			name:     "page clamped to one",
			page:     0,
			perPage:  3,
			expected: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			got := events.Paginate(list, tt.page, tt.perPage)
			ids := make([]string, 0, len(got))
			for _, ev := range got {
				ids = append(ids, ev.ID)
			}
			c.Assert(ids, qt.DeepEquals, tt.expected)
		})
	}
}
