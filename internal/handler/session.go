package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/auth-core/internal/domain"
)

// SessionCookie describes how the session token is carried in a cookie
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set issues the session cookie
func (s SessionCookie) Set(c *gin.Context, session *domain.Session, now time.Time) {
	maxAge := int(session.ExpiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, session.Token, maxAge, "/", "", s.Secure, true)
}

// Clear removes the session cookie
func (s SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

// token returns the session token from the Authorization header or,
// failing that, the session cookie
func (s SessionCookie) token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	token, err := c.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return token
}
