package utils_test

import (
	"sort"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/acro-planner/backend/pkg/utils"
)

func TestNewID(t *testing.T) {
	c := qt.New(t)

	id := utils.NewID()
	c.Assert(id, qt.HasLen, 26)
	c.Assert(utils.IsValidID(id), qt.IsTrue)
}

func TestNewIDUniqueAndSortable(t *testing.T) {
	c := qt.New(t)

	ids := make([]string, 100)
	seen := map[string]bool{}
	for i := range ids {
		ids[i] = utils.NewID()
		c.Assert(seen[ids[i]], qt.IsFalse)
		seen[ids[i]] = true
	}

	// Monotonic entropy keeps generation order and lexical order aligned.
	c.Assert(sort.StringsAreSorted(ids), qt.IsTrue)
}

func TestIsValidID(t *testing.T) {
	c := qt.New(t)

	c.Assert(utils.IsValidID(""), qt.IsFalse)
	c.Assert(utils.IsValidID("not-a-ulid"), qt.IsFalse)
	c.Assert(utils.IsValidID("01ARZ3NDEKTSV4RRFFQ69G5FAV"), qt.IsTrue)
}

func TestPasswordHashing(t *testing.T) {
	c := qt.New(t)

	hash, err := utils.HashPassword("hunter2")
	c.Assert(err, qt.IsNil)
	c.Assert(hash, qt.Not(qt.Equals), "hunter2")

	c.Assert(utils.CheckPassword("hunter2", hash), qt.IsTrue)
	c.Assert(utils.CheckPassword("wrong", hash), qt.IsFalse)
	c.Assert(utils.CheckPassword("hunter2", "not-a-hash"), qt.IsFalse)
}

func TestHashPasswordTooLong(t *testing.T) {
	c := qt.New(t)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err := utils.HashPassword(string(long))
	c.Assert(err, qt.ErrorIs, utils.ErrPasswordTooLong)
}
