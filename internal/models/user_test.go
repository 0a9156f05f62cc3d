package models_test

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/acro-planner/backend/internal/models"
)

func TestValidRole(t *testing.T) {
	c := qt.New(t)

	c.Assert(models.ValidRole("attendee"), qt.IsTrue)
	c.Assert(models.ValidRole("host"), qt.IsTrue)
	c.Assert(models.ValidRole("admin"), qt.IsTrue)
	c.Assert(models.ValidRole("superuser"), qt.IsFalse)
	c.Assert(models.ValidRole(""), qt.IsFalse)
}

func TestValidCommitmentLevel(t *testing.T) {
	c := qt.New(t)

	c.Assert(models.ValidCommitmentLevel("interested"), qt.IsTrue)
	c.Assert(models.ValidCommitmentLevel("maybe"), qt.IsTrue)
	c.Assert(models.ValidCommitmentLevel("committed"), qt.IsTrue)
	c.Assert(models.ValidCommitmentLevel("definitely"), qt.IsFalse)
	c.Assert(models.ValidCommitmentLevel(""), qt.IsFalse)
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	c := qt.New(t)

	u := models.User{
		ID:           "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Email:        "flyer@example.com",
		PasswordHash: "$2a$10$secret",
	}
	raw, err := json.Marshal(u)
	c.Assert(err, qt.IsNil)
	c.Assert(string(raw), qt.Not(qt.Contains), "secret")
}
