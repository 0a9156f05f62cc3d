package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/acro-planner/backend/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds session token claims including user ID and role.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionService issues and validates signed session tokens and manages the
// session cookie. Tokens are also accepted via Authorization: Bearer for the
// mobile clients.
type SessionService struct {
	secret       []byte
	expireHours  int
	cookieName   string
	cookieDomain string
	cookieSecure bool
}

// NewSessionService creates a session service from config.
func NewSessionService(cfg config.SessionConfig) *SessionService {
	return &SessionService{
		secret:       []byte(cfg.Secret),
		expireHours:  cfg.ExpireHours,
		cookieName:   cfg.CookieName,
		cookieDomain: cfg.CookieDomain,
		cookieSecure: cfg.CookieSecure,
	}
}

// Generate creates a new session token for the user.
func (s *SessionService) Generate(userID, email, role string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a session token, returning claims or error.
func (s *SessionService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromRequest extracts the session token from the cookie or the Authorization header.
func (s *SessionService) TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(s.cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// SetCookie writes the session cookie (HttpOnly, SameSite=Lax).
func (s *SessionService) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, token, s.expireHours*3600, "/", s.cookieDomain, s.cookieSecure, true)
}

// ClearCookie expires the session cookie.
func (s *SessionService) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", s.cookieDomain, s.cookieSecure, true)
}
