package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acro-planner/backend/config"
	"github.com/acro-planner/backend/internal/auth"
	"github.com/acro-planner/backend/internal/middleware"
	"github.com/acro-planner/backend/internal/models"
)

// roleStore is an in-memory RoleSource.
type roleStore map[string]models.Role

func (s roleStore) RoleByID(_ context.Context, userID string) (models.Role, bool, error) {
	role, ok := s[userID]
	return role, ok, nil
}

func newSessions() *auth.SessionService {
	return auth.NewSessionService(config.SessionConfig{
		Secret:      "test-secret",
		ExpireHours: 1,
		CookieName:  "acro_session",
	})
}

func newRouter(sessions *auth.SessionService, roles roleStore, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.Session(sessions, roles, zap.NewNop())}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(middleware.ContextUserID),
			"role":    c.GetString(middleware.ContextUserRole),
		})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestSessionMiddleware(t *testing.T) {
	sessions := newSessions()
	roles := roleStore{"u1": models.RoleAttendee, "u2": models.RoleHost}
	router := newRouter(sessions, roles)

	t.Run("valid bearer token", func(t *testing.T) {
		c := qt.New(t)

		token, err := sessions.Generate("u1", "a@b.c", "attendee")
		c.Assert(err, qt.IsNil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusOK)
		c.Assert(w.Body.String(), qt.Contains, `"user_id":"u1"`)
	})

	t.Run("valid cookie", func(t *testing.T) {
		c := qt.New(t)

		token, err := sessions.Generate("u2", "b@b.c", "host")
		c.Assert(err, qt.IsNil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "acro_session", Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusOK)
		c.Assert(w.Body.String(), qt.Contains, `"role":"host"`)
	})

	t.Run("missing session", func(t *testing.T) {
		c := qt.New(t)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		c := qt.New(t)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	})

	t.Run("token for a user that no longer exists", func(t *testing.T) {
		c := qt.New(t)

		token, err := sessions.Generate("gone", "x@b.c", "attendee")
		c.Assert(err, qt.IsNil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusUnauthorized)
	})

	t.Run("role comes from the store, not the token claim", func(t *testing.T) {
		c := qt.New(t)

		// u1 is an attendee; a token claiming admin must not grant it.
		token, err := sessions.Generate("u1", "a@b.c", "admin")
		c.Assert(err, qt.IsNil)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusOK)
		c.Assert(w.Body.String(), qt.Contains, `"role":"attendee"`)
	})
}

func TestRequireRole(t *testing.T) {
	sessions := newSessions()
	roles := roleStore{
		"admin-user":    models.RoleAdmin,
		"host-user":     models.RoleHost,
		"attendee-user": models.RoleAttendee,
	}
	router := newRouter(sessions, roles, middleware.RequireRole("host", "admin"))

	do := func(userID string) *httptest.ResponseRecorder {
		token, _ := sessions.Generate(userID, "a@b.c", string(roles[userID]))
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		userID   string
		expected int
	}{
		{userID: "admin-user", expected: http.StatusOK},
		{userID: "host-user", expected: http.StatusOK},
		{userID: "attendee-user", expected: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(do(tt.userID).Code, qt.Equals, tt.expected)
		})
	}

	t.Run("demotion takes effect before the token expires", func(t *testing.T) {
		c := qt.New(t)

		token, err := sessions.Generate("demoted", "d@b.c", "admin")
		c.Assert(err, qt.IsNil)
		roles["demoted"] = models.RoleAttendee

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		c.Assert(w.Code, qt.Equals, http.StatusForbidden)
	})
}
