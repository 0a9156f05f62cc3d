package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gin-gonic/gin"

	"github.com/acro-planner/backend/config"
	"github.com/acro-planner/backend/internal/auth"
)

func newService() *auth.SessionService {
	return auth.NewSessionService(config.SessionConfig{
		Secret:      "test-secret",
		ExpireHours: 1,
		CookieName:  "acro_session",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	c := qt.New(t)
	svc := newService()

	token, err := svc.Generate("01ARZ3NDEKTSV4RRFFQ69G5FAV", "flyer@example.com", "attendee")
	c.Assert(err, qt.IsNil)
	c.Assert(token, qt.Not(qt.Equals), "")

	claims, err := svc.Validate(token)
	c.Assert(err, qt.IsNil)
	c.Assert(claims.UserID, qt.Equals, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	c.Assert(claims.Email, qt.Equals, "flyer@example.com")
	c.Assert(claims.Role, qt.Equals, "attendee")
}

func TestValidateRejectsGarbage(t *testing.T) {
	c := qt.New(t)
	svc := newService()

	_, err := svc.Validate("not-a-token")
	c.Assert(err, qt.Equals, auth.ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	c := qt.New(t)

	token, err := newService().Generate("u1", "a@b.c", "host")
	c.Assert(err, qt.IsNil)

	other := auth.NewSessionService(config.SessionConfig{
		Secret:      "different-secret",
		ExpireHours: 1,
		CookieName:  "acro_session",
	})
	_, err = other.Validate(token)
	c.Assert(err, qt.Equals, auth.ErrInvalidToken)
}

func ginContext(req *http.Request) *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = req
	return ctx
}

func TestTokenFromRequest(t *testing.T) {
	svc := newService()

	t.Run("cookie wins", func(t *testing.T) {
		c := qt.New(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "acro_session", Value: "cookie-token"})
		req.Header.Set("Authorization", "Bearer header-token")
		c.Assert(svc.TokenFromRequest(ginContext(req)), qt.Equals, "cookie-token")
	})

	t.Run("bearer fallback", func(t *testing.T) {
		c := qt.New(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		c.Assert(svc.TokenFromRequest(ginContext(req)), qt.Equals, "header-token")
	})

	t.Run("malformed header", func(t *testing.T) {
		c := qt.New(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "header-token")
		c.Assert(svc.TokenFromRequest(ginContext(req)), qt.Equals, "")
	})

	t.Run("nothing supplied", func(t *testing.T) {
		c := qt.New(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c.Assert(svc.TokenFromRequest(ginContext(req)), qt.Equals, "")
	})
}
