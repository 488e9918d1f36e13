package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const KeySecToken = "auth_token"

type CookieOptions struct {
	// Secure marks the cookie https only, enabled in release mode.
	Secure bool
	Domain string
}

func WriteTokenCookie(c *gin.Context, token *Token, opts CookieOptions) {
	maxAge := int(token.ExpiresAt.Sub(token.IssuedAt) / time.Second)
	if maxAge <= 0 {
		maxAge = int(DefaultTokenTTL / time.Second)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(KeySecToken, token.Value, maxAge, "/", opts.Domain, opts.Secure, true)
}

func ClearTokenCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(KeySecToken, "", -1, "/", opts.Domain, opts.Secure, true)
}

// TokenFromRequest reads the session cookie, falling back to a bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(KeySecToken); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
