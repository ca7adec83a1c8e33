package domain

import (
	"strings"
	"time"
)

// Built-in roles in ascending privilege order. The index inside RoleOrder is
// the only ranking signal: RoleMember is the default, RoleDiamond is the
// administrative threshold.
const (
	RoleMember  = "member"
	RolePremium = "premium"
	RoleVIP     = "vip"
	RoleDiamond = "diamond"
)

// RoleOrder is the canonical built-in role hierarchy.
var RoleOrder = []string{RoleMember, RolePremium, RoleVIP, RoleDiamond}

// AdminMinRole is the lowest built-in role allowed to administer the portal.
const AdminMinRole = RoleDiamond

// RankUnranked marks a role that has no position in RoleOrder: custom roles
// and unknown values. Unranked gates are satisfied by exact match only.
const RankUnranked = -1

// NormalizeRole trims and lowercases a free-form role value. Empty input
// yields the lowest built-in role. Unrecognised values are preserved verbatim
// so that custom roles survive normalization.
func NormalizeRole(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return RoleOrder[0]
	}
	return normalized
}

// NormalizeRoles normalizes every value and de-duplicates preserving
// first-seen order. Empty input yields an empty set, not [member]: a set with
// zero roles is meaningful (it satisfies no gate at all).
func NormalizeRoles(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		role := NormalizeRole(v)
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

// RoleRank returns the index of a built-in role inside RoleOrder, or
// RankUnranked for custom and unknown values.
func RoleRank(role string) int {
	normalized := NormalizeRole(role)
	for i, r := range RoleOrder {
		if r == normalized {
			return i
		}
	}
	return RankUnranked
}

// CanAccess reports whether a set of held roles satisfies a minimum-role gate.
//
// Ranked gate: any held role that is itself ranked and ranks at or above the
// gate passes. Unranked gate (custom role): only an exact match passes; no
// built-in role, however high, satisfies a custom gate.
//
// An empty role set holds no ranked role and therefore satisfies nothing,
// including a gate at the lowest built-in rank.
func CanAccess(userRoles []string, minRole string) bool {
	gate := NormalizeRole(minRole)
	gateRank := RoleRank(gate)

	for _, held := range NormalizeRoles(userRoles) {
		if gateRank == RankUnranked {
			if held == gate {
				return true
			}
			continue
		}
		if rank := RoleRank(held); rank != RankUnranked && rank >= gateRank {
			return true
		}
	}
	return false
}

// IsAdmin reports whether any held role meets the administrative threshold.
func IsAdmin(userRoles []string) bool {
	return CanAccess(userRoles, AdminMinRole)
}

// CustomRole is an admin-defined, unordered privilege tag. Its Value is
// normalized and must never collide with a built-in role value; access to a
// resource gated on a custom role requires holding exactly that value.
type CustomRole struct {
	Value     string    `json:"value"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsBuiltinRole reports whether value (after normalization) is one of the
// built-in roles.
func IsBuiltinRole(value string) bool {
	return RoleRank(value) != RankUnranked
}

// ResolveRole maps a stored role value onto the set of known roles: built-in
// values and known custom values pass through, anything else falls back to
// the lowest built-in role. Used on end-user-facing reads so that a deleted
// or mistyped role degrades to least privilege instead of no access.
func ResolveRole(value string, known map[string]CustomRole) string {
	role := NormalizeRole(value)
	if IsBuiltinRole(role) {
		return role
	}
	if _, ok := known[role]; ok {
		return role
	}
	return RoleOrder[0]
}
