package users_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/users"
)

func TestDemoteAdminSelf(t *testing.T) {
	c := qt.New(t)

	// The self-demotion guard fires before any persistence, so no repository
	// is needed: an admin targeting themselves is refused outright.
	gin.SetMode(gin.TestMode)
	h := users.NewHandler(nil, zap.NewNop())
	r := gin.New()
	r.POST("/users/:id/demote-admin", func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserID, "admin-1")
		ctx.Set(middleware.ContextUserRole, "admin")
	}, h.DemoteAdmin)

	req := httptest.NewRequest(http.MethodPost, "/users/admin-1/demote-admin", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	c.Assert(w.Code, qt.Equals, http.StatusForbidden)
	c.Assert(w.Body.String(), qt.Contains, "cannot demote themselves")
}
