package domain

// Identity is the client-held record of the authenticated member: what the
// session cookie carries and what the listing filters against. It is a UX
// convenience snapshot, not a server-authoritative credential.
type Identity struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Roles    []string `json:"roles,omitempty"`
	UserKey  string   `json:"userKey"`
}

// Normalize re-derives the role fields defensively. Cookies outlive role
// list changes, so both the legacy single role and the set are normalized on
// every read; the set wins when present.
func (i Identity) Normalize() Identity {
	if len(i.Roles) > 0 {
		i.Roles = NormalizeRoles(i.Roles)
	} else if i.Role != "" {
		i.Roles = []string{NormalizeRole(i.Role)}
	}
	if len(i.Roles) > 0 {
		i.Role = i.Roles[0]
	} else {
		i.Role = RoleOrder[0]
	}
	if i.UserKey == "" {
		i.UserKey = UserKey(i.Username)
	}
	return i
}

// IdentityFromAccount builds the session identity for an account.
func IdentityFromAccount(key string, a *Account) Identity {
	return Identity{
		Username: a.Username,
		Email:    a.Email,
		Roles:    a.EffectiveRoles(),
		UserKey:  key,
	}.Normalize()
}
