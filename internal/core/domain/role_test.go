package domain

import (
	"reflect"
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	if got := NormalizeRole("  VIP "); got != "vip" {
		t.Fatalf("expected vip, got %q", got)
	}
	if got := NormalizeRole(""); got != RoleMember {
		t.Fatalf("empty role should default to %s, got %q", RoleMember, got)
	}
	// Unrecognised values survive normalization so custom roles keep working.
	if got := NormalizeRole("Founders"); got != "founders" {
		t.Fatalf("custom value should be preserved, got %q", got)
	}
}

func TestNormalizeRoles_DedupesPreservingOrder(t *testing.T) {
	got := NormalizeRoles([]string{"vip", "VIP", " vip ", "member"})
	want := []string{"vip", "member"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNormalizeRoles_Idempotent(t *testing.T) {
	input := []string{" Premium", "vip", "premium", ""}
	once := NormalizeRoles(input)
	twice := NormalizeRoles(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalize not idempotent: %v vs %v", once, twice)
	}
}

func TestNormalizeRoles_Empty(t *testing.T) {
	if got := NormalizeRoles(nil); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
	if got := NormalizeRoles([]string{"", "  "}); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestRoleRank(t *testing.T) {
	for i, role := range RoleOrder {
		if got := RoleRank(role); got != i {
			t.Fatalf("rank of %s: expected %d, got %d", role, i, got)
		}
	}
	if got := RoleRank("founders"); got != RankUnranked {
		t.Fatalf("custom role should be unranked, got %d", got)
	}
}

func TestCanAccess_BuiltinOrdering(t *testing.T) {
	// For every pair of built-in roles: a lower role never satisfies a
	// higher gate, a higher role always satisfies a lower gate.
	for i, held := range RoleOrder {
		for j, gate := range RoleOrder {
			got := CanAccess([]string{held}, gate)
			want := i >= j
			if got != want {
				t.Fatalf("holding %s against gate %s: expected %v, got %v", held, gate, want, got)
			}
		}
	}
}

func TestCanAccess_AnyRoleInSetCounts(t *testing.T) {
	roles := []string{"member", "diamond"}
	if !CanAccess(roles, RoleVIP) {
		t.Fatalf("diamond in set should satisfy vip gate")
	}
}

func TestCanAccess_CustomGateRequiresExactMatch(t *testing.T) {
	if CanAccess([]string{RoleDiamond}, "founders") {
		t.Fatalf("built-in role must not satisfy a custom gate")
	}
	if !CanAccess([]string{"founders"}, "founders") {
		t.Fatalf("exact custom role must satisfy its own gate")
	}
	if !CanAccess([]string{"member", "founders"}, "Founders") {
		t.Fatalf("custom gate should match after normalization")
	}
}

func TestCanAccess_EmptyRoleSet(t *testing.T) {
	// An empty set holds no ranked role: it satisfies nothing, not even the
	// lowest built-in gate.
	if CanAccess(nil, RoleMember) {
		t.Fatalf("empty role set must not satisfy the member gate")
	}
	if CanAccess([]string{}, "founders") {
		t.Fatalf("empty role set must not satisfy a custom gate")
	}
}

func TestCanAccess_CustomRoleNeverRanks(t *testing.T) {
	// A custom role grants nothing against ranked gates.
	if CanAccess([]string{"founders"}, RoleMember) {
		t.Fatalf("custom role must not satisfy a ranked gate")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin([]string{RoleDiamond}) {
		t.Fatalf("diamond should be admin")
	}
	if IsAdmin([]string{RoleVIP}) {
		t.Fatalf("vip should not be admin")
	}
	if IsAdmin(nil) {
		t.Fatalf("empty set should not be admin")
	}
}

func TestResolveRole(t *testing.T) {
	known := map[string]CustomRole{
		"founders": {Value: "founders", Name: "Founders"},
	}
	if got := ResolveRole("VIP", known); got != "vip" {
		t.Fatalf("built-in should pass through, got %q", got)
	}
	if got := ResolveRole("founders", known); got != "founders" {
		t.Fatalf("known custom role should pass through, got %q", got)
	}
	// A value matching neither falls back to least privilege, not no access.
	if got := ResolveRole("deleted-role", known); got != RoleMember {
		t.Fatalf("unknown value should fall back to %s, got %q", RoleMember, got)
	}
}
