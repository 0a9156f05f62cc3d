package hosts_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/hosts"
	"github.com/acro-planner/backend/internal/middleware"
)

// newAvailabilityRouter wires SetAvailability behind a stub session for the
// given caller. Requests that pass the ownership guard would touch the
// repository, so tests here stay on the guarded paths.
func newAvailabilityRouter(callerID, callerRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := hosts.NewHandler(nil, nil, nil, zap.NewNop())
	r := gin.New()
	r.PUT("/hosts/:userID/availability", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, callerID)
		c.Set(middleware.ContextUserRole, callerRole)
	}, h.SetAvailability)
	return r
}

func TestSetAvailabilityOwnership(t *testing.T) {
	t.Run("another host's availability is forbidden", func(t *testing.T) {
		c := qt.New(t)

		router := newAvailabilityRouter("caller", "host")
		req := httptest.NewRequest(http.MethodPut, "/hosts/someone-else/availability",
			strings.NewReader(`{"event_slot_ids":["s1"]}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusForbidden)
	})

	t.Run("malformed body is rejected before persistence", func(t *testing.T) {
		c := qt.New(t)

		router := newAvailabilityRouter("caller", "host")
		req := httptest.NewRequest(http.MethodPut, "/hosts/caller/availability",
			strings.NewReader(`{"event_slot_ids": "not-a-list"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusUnprocessableEntity)
	})
}
