package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/auth-core/internal/domain"
	"github.com/prperemyshlev/auth-core/internal/dto"
	"github.com/prperemyshlev/auth-core/internal/service"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxClaims = "claims"
)

// SessionMiddleware admits requests carrying a valid session and answers
// everything else with 401 JSON
func SessionMiddleware(authService service.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, authService, cookie) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid or expired session",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectMiddleware admits requests carrying a valid session and
// redirects everything else to loginPath
func RedirectMiddleware(authService service.AuthService, cookie SessionCookie, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, authService, cookie) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService service.AuthService, cookie SessionCookie) bool {
	token := cookie.token(c)
	if token == "" {
		return false
	}

	claims, err := authService.ValidateSession(c.Request.Context(), token)
	if err != nil {
		return false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxClaims, claims)
	return true
}

func sessionClaims(c *gin.Context) (*domain.SessionClaims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*domain.SessionClaims)
	return claims, ok
}
