// Package session persists the authenticated identity in a client-side
// cookie. The encoding is reversible base64 JSON on purpose: the cookie is a
// UX convenience store that lets the browser keep its identity across
// reloads, NOT a security boundary. Nothing server-side trusts it beyond
// selecting which account record to follow; tampering with it buys access to
// nothing the directory would not hand out anyway.
package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cartelhax/portal/internal/core/domain"
)

// CookieName is the session cookie's name.
const CookieName = "cartelhax_session"

// TTL is the absolute session lifetime, independent of activity.
const TTL = 24 * time.Hour

// Encode serializes an identity to the cookie wire format. Roles are
// normalized before encoding so the cookie never carries denormalized values.
func Encode(identity domain.Identity) string {
	normalized := identity.Normalize()
	raw, err := json.Marshal(normalized)
	if err != nil {
		// Identity is a plain struct of strings; Marshal cannot fail on it.
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode reverses Encode. It returns nil on any malformed value — a corrupt
// or foreign cookie is treated as an absent session, never as an error.
func Decode(value string) *domain.Identity {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil
	}
	// Re-normalize defensively: the built-in role list may have changed
	// since the cookie was issued.
	normalized := identity.Normalize()
	return &normalized
}

// Set writes the session cookie: root path, 24h absolute expiry, SameSite
// Lax so it is never sent on cross-site requests.
func Set(w http.ResponseWriter, identity domain.Identity) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    Encode(identity),
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Get extracts the identity from the request's session cookie, or nil when
// the cookie is absent or undecodable.
func Get(r *http.Request) *domain.Identity {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return Decode(cookie.Value)
}

// Clear expires the session cookie immediately.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}
