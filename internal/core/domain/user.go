package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Account models a registered member. Accounts are keyed by the normalized
// username; the email owns a secondary unique index (see EmailIndex).
//
// Roles carries the authoritative role set. Role is the legacy single-role
// field kept for older readers: writers must keep both in step, readers
// prefer Roles when present and fall back to deriving it from Role.
type Account struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// EffectiveRoles returns the normalized role set of the account, deriving it
// from the legacy single-role field only when the list is absent. A present
// empty list is authoritative: an account stripped of every role stays
// role-less even though the legacy field still carries a value for older
// readers.
func (a *Account) EffectiveRoles() []string {
	if a.Roles != nil {
		return NormalizeRoles(a.Roles)
	}
	if strings.TrimSpace(a.Role) == "" {
		return []string{RoleOrder[0]}
	}
	return []string{NormalizeRole(a.Role)}
}

// EmailIndex is the record stored under emails/<email key>. It exists only to
// make emails unique and to point back at the owning account.
type EmailIndex struct {
	Username    string    `json:"username"`
	UsernameKey string    `json:"username_key"`
	CreatedAt   time.Time `json:"created_at"`
}

var userKeyStrip = regexp.MustCompile(`[^a-z0-9]+`)

// UserKey derives the directory key for a username: lowercased, diacritics
// folded away, runs of non-alphanumeric characters collapsed to a single
// dash, leading and trailing dashes stripped. "Juan Pérez" and "juan-perez"
// collide on purpose.
func UserKey(username string) string {
	folded := stripMarks(strings.ToLower(username))
	key := userKeyStrip.ReplaceAllString(folded, "-")
	return strings.Trim(key, "-")
}

// stripMarks decomposes accented characters and drops the combining marks.
func stripMarks(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// EmailKey derives the directory key for an email: unpadded base64url of the
// lowercased address, so arbitrary addresses become safe path segments.
func EmailKey(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return base64.RawURLEncoding.EncodeToString([]byte(normalized))
}

// HashPassword digests a password to lowercase hex SHA-256.
//
// This matches the scheme the portal has always stored; it is a plain
// one-way digest, not a tuned password KDF, and is kept for compatibility
// with existing account records rather than endorsed as a design.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
