package capabilities_test

import (
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/acro-planner/backend/internal/capabilities"
)

func TestWouldCreateCycle(t *testing.T) {
	// handstand -> l-base -> base (child -> parent chains)
	parents := map[string][]string{
		"handstand": {"l-base"},
		"l-base":    {"base"},
		"base":      {},
		"whip":      {"handstand", "base"},
		"icarian":   {},
	}

	tests := []struct {
		name     string
		child    string
		parent   string
		expected bool
	}{
		{
			name:     "self link",
			child:    "base",
			parent:   "base",
			expected: true,
		},
		{
			name:     "direct back-edge",
			child:    "l-base",
			parent:   "handstand",
			expected: true,
		},
		{
			name:     "transitive back-edge",
			child:    "base",
			parent:   "whip",
			expected: true,
		},
		{
			name:     "new forward link",
			child:    "whip",
			parent:   "l-base",
			expected: false,
		},
		{
			name:     "link between unrelated nodes",
			child:    "icarian",
			parent:   "whip",
			expected: false,
		},
		{
			name:     "parent unknown to the graph",
			child:    "handstand",
			parent:   "standing-acro",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(capabilities.WouldCreateCycle(tt.child, tt.parent, parents), qt.Equals, tt.expected)
		})
	}
}

func TestTransitive(t *testing.T) {
	c := qt.New(t)

	parents := map[string][]string{
		"whip":      {"handstand", "base"},
		"handstand": {"l-base"},
		"l-base":    {"base"},
		"base":      {},
	}

	got := capabilities.Transitive("whip", parents)
	sort.Strings(got)
	c.Assert(got, qt.DeepEquals, []string{"base", "handstand", "l-base"})

	c.Assert(capabilities.Transitive("base", parents), qt.HasLen, 0)
	c.Assert(capabilities.Transitive("unknown", parents), qt.HasLen, 0)
}

func TestTransitiveToleratesExistingCycle(t *testing.T) {
	c := qt.New(t)

	// Defensive: traversal must terminate even on a corrupted graph.
	parents := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	got := capabilities.Transitive("a", parents)
	c.Assert(got, qt.DeepEquals, []string{"b"})
}
