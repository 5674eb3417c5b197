// Package cookie manages the refresh token cookie.
package cookie

import (
	"net/http"
	"strings"
	"time"
)

// RefreshTokenName is the cookie carrying the refresh token.
const RefreshTokenName = "refreshToken"

// Manager writes the refresh token cookie. The cookie is always HttpOnly.
type Manager struct {
	domain   string
	secure   bool
	sameSite http.SameSite
}

// NewManager creates a Manager. sameSite is one of "strict", "lax" or "none";
// anything else selects strict.
func NewManager(domain string, secure bool, sameSite string) *Manager {
	ss := http.SameSiteStrictMode
	switch strings.ToLower(sameSite) {
	case "lax":
		ss = http.SameSiteLaxMode
	case "none":
		ss = http.SameSiteNoneMode
	}
	return &Manager{domain: domain, secure: secure, sameSite: ss}
}

// SetRefreshToken stores token for ttl.
func (m *Manager) SetRefreshToken(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenName,
		Value:    token,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
}

// ClearRefreshToken expires the cookie on the client.
func (m *Manager) ClearRefreshToken(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenName,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
}

// RefreshToken returns the refresh token sent with r, or "".
func RefreshToken(r *http.Request) string {
	c, err := r.Cookie(RefreshTokenName)
	if err != nil {
		return ""
	}
	return c.Value
}
