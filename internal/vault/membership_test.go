package vault

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dukerupert/lockholes/internal/model"
)

func testVaultWith(accountIDs ...string) model.Vault {
	v := model.EmptyVault()
	for _, id := range accountIDs {
		v.Accounts = append(v.Accounts, model.Account{
			ID: id, Login: id + "@example.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1,
		})
	}
	return v
}

func mustCreateGroup(t *testing.T, v model.Vault, name, adminID, groupID string) model.Vault {
	t.Helper()
	out, err := CreateGroup(v, name, "", adminID, 1000, func() string { return groupID })
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return out
}

func assertInvariants(t *testing.T, v model.Vault) {
	t.Helper()
	assigned := make(map[string]string)
	for _, g := range v.Groups {
		admins := 0
		for _, m := range g.Members {
			if m.Role == model.RoleAdmin {
				admins++
			}
			if prev, ok := assigned[m.AccountID]; ok {
				t.Errorf("account %s belongs to both %s and %s", m.AccountID, prev, g.ID)
			}
			assigned[m.AccountID] = g.ID
		}
		if admins > 1 {
			t.Errorf("group %s has %d admins", g.ID, admins)
		}
	}
}

func TestCreateGroupValidation(t *testing.T) {
	v := testVaultWith("acc-1")

	cases := []struct {
		name    string
		group   string
		adminID string
	}{
		{"empty name", "", "acc-1"},
		{"empty admin", "Fam", ""},
		{"unknown admin", "Fam", "acc-404"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateGroup(v, tc.group, "", tc.adminID, 1000, func() string { return "grp-1" })
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCreateGroupSetsSoleAdmin(t *testing.T) {
	v := testVaultWith("acc-1")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	g := v.Group("grp-1")
	if g == nil {
		t.Fatal("group not found")
	}
	if len(g.Members) != 1 {
		t.Fatalf("members = %d, want 1", len(g.Members))
	}
	if g.Members[0].AccountID != "acc-1" || g.Members[0].Role != model.RoleAdmin {
		t.Errorf("member = %+v", g.Members[0])
	}
	assertInvariants(t, v)
}

func TestCreateGroupPullsAdminFromOtherGroup(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "First", "acc-1", "grp-1")
	v = mustCreateGroup(t, v, "Second", "acc-1", "grp-2")

	if v.Group("grp-1").HasMember("acc-1") {
		t.Error("acc-1 still member of grp-1")
	}
	if got := v.Group("grp-2").Admin(); got == nil || got.AccountID != "acc-1" {
		t.Errorf("grp-2 admin = %+v", got)
	}
	assertInvariants(t, v)
}

func TestAssignAdminReplacesPriorAdmin(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	v, err := AssignAdmin(v, "grp-1", "acc-2", 2000)
	if err != nil {
		t.Fatalf("assign admin: %v", err)
	}

	g := v.Group("grp-1")
	if got := g.Admin(); got == nil || got.AccountID != "acc-2" {
		t.Errorf("admin = %+v, want acc-2", got)
	}
	// The prior admin is dropped from the member list entirely.
	if g.HasMember("acc-1") {
		t.Error("previous admin still in member list")
	}
	assertInvariants(t, v)
}

func TestAssignAdminIdempotent(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	once, err := AssignAdmin(v, "grp-1", "acc-2", 2000)
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	twice, err := AssignAdmin(once, "grp-1", "acc-2", 2000)
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}

	if !reflect.DeepEqual(once.Group("grp-1"), twice.Group("grp-1")) {
		t.Errorf("assignAdmin not idempotent:\nonce:  %+v\ntwice: %+v",
			once.Group("grp-1"), twice.Group("grp-1"))
	}
}

func TestAssignAdminMovesMemberAcrossGroups(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2", "acc-3")
	v = mustCreateGroup(t, v, "G1", "acc-1", "grp-1")
	v = mustCreateGroup(t, v, "G2", "acc-2", "grp-2")

	v, err := AddMember(v, "grp-1", "acc-3", 2000)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	// Promoting acc-3 to admin of G2 removes it from G1.
	v, err = AssignAdmin(v, "grp-2", "acc-3", 3000)
	if err != nil {
		t.Fatalf("assign admin: %v", err)
	}

	if v.Group("grp-1").HasMember("acc-3") {
		t.Error("acc-3 still member of grp-1")
	}
	if got := v.Group("grp-2").Admin(); got == nil || got.AccountID != "acc-3" {
		t.Errorf("grp-2 admin = %+v, want acc-3", got)
	}
	assertInvariants(t, v)
}

func TestAssignAdminUnknownRefs(t *testing.T) {
	v := testVaultWith("acc-1")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	var ve *ValidationError
	if _, err := AssignAdmin(v, "grp-1", "acc-404", 2000); !errors.As(err, &ve) {
		t.Errorf("unknown account: err = %v, want ValidationError", err)
	}
	if _, err := AssignAdmin(v, "grp-404", "acc-1", 2000); !errors.As(err, &ve) {
		t.Errorf("unknown group: err = %v, want ValidationError", err)
	}
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	// Build a group with no admin by deleting its admin account.
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")
	v = RemoveAccountEverywhere(v, "acc-1", 2000)

	_, err := AddMember(v, "grp-1", "acc-2", 3000)
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Errorf("err = %v, want PreconditionError", err)
	}
}

func TestAddMemberRejectsAdminSelfReference(t *testing.T) {
	v := testVaultWith("acc-1")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	_, err := AddMember(v, "grp-1", "acc-1", 2000)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestAddMemberMovesAccountBetweenGroups(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2", "acc-3")
	v = mustCreateGroup(t, v, "G1", "acc-1", "grp-1")
	v = mustCreateGroup(t, v, "G2", "acc-2", "grp-2")

	v, err := AddMember(v, "grp-1", "acc-3", 2000)
	if err != nil {
		t.Fatalf("add to grp-1: %v", err)
	}
	v, err = AddMember(v, "grp-2", "acc-3", 3000)
	if err != nil {
		t.Fatalf("add to grp-2: %v", err)
	}

	if v.Group("grp-1").HasMember("acc-3") {
		t.Error("acc-3 still in grp-1")
	}
	if !v.Group("grp-2").HasMember("acc-3") {
		t.Error("acc-3 not in grp-2")
	}
	assertInvariants(t, v)
}

func TestRemoveMemberRejectsAdmin(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")
	before := v.Group("grp-1")

	_, err := RemoveMember(v, "grp-1", "acc-1", 2000)
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PreconditionError", err)
	}
	if !reflect.DeepEqual(before, v.Group("grp-1")) {
		t.Error("group changed despite rejected removal")
	}
}

func TestRemoveMemberRemovesPlainMember(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")
	v, _ = AddMember(v, "grp-1", "acc-2", 2000)

	v, err := RemoveMember(v, "grp-1", "acc-2", 3000)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if v.Group("grp-1").HasMember("acc-2") {
		t.Error("member still present")
	}
	if len(v.Group("grp-1").Members) != 1 {
		t.Errorf("members = %d, want 1", len(v.Group("grp-1").Members))
	}
}

func TestRemoveMemberNoopForNonMember(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	out, err := RemoveMember(v, "grp-1", "acc-2", 9999)
	if err != nil {
		t.Fatalf("remove non-member: %v", err)
	}
	if !reflect.DeepEqual(v, out) {
		t.Error("snapshot changed for a no-op removal")
	}
}

func TestRemoveAccountEverywhereStripsAdmin(t *testing.T) {
	// Deleting an account that is admin of G leaves G with zero members.
	v := testVaultWith("acc-1")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	v = RemoveAccountEverywhere(v, "acc-1", 2000)
	g := v.Group("grp-1")
	if g == nil {
		t.Fatal("group deleted; only membership should be removed")
	}
	if len(g.Members) != 0 {
		t.Errorf("members = %d, want 0", len(g.Members))
	}
	if g.Admin() != nil {
		t.Error("expected no admin")
	}
	if g.UpdatedAt != 2000 {
		t.Errorf("updatedAt = %d, want refresh to 2000", g.UpdatedAt)
	}
}

func TestRemoveAccountEverywhereLeavesOtherGroupsUntouched(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "G1", "acc-1", "grp-1")
	v = mustCreateGroup(t, v, "G2", "acc-2", "grp-2")

	out := RemoveAccountEverywhere(v, "acc-1", 5000)
	if got := out.Group("grp-2").UpdatedAt; got != 1000 {
		t.Errorf("unaffected group updatedAt = %d, want 1000", got)
	}
}

func TestDeleteGroupLeavesAccounts(t *testing.T) {
	v := testVaultWith("acc-1", "acc-2")
	v = mustCreateGroup(t, v, "Fam", "acc-1", "grp-1")

	v, err := DeleteGroup(v, "grp-1")
	if err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if v.Group("grp-1") != nil {
		t.Error("group still present")
	}
	if len(v.Accounts) != 2 {
		t.Errorf("accounts = %d, want 2", len(v.Accounts))
	}
}

func TestDeleteGroupUnknown(t *testing.T) {
	v := testVaultWith("acc-1")
	_, err := DeleteGroup(v, "grp-404")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestUpdateGroupRename(t *testing.T) {
	v := testVaultWith("acc-1")
	v = mustCreateGroup(t, v, "Old", "acc-1", "grp-1")

	v, err := UpdateGroup(v, "grp-1", "New", "a note", 2000)
	if err != nil {
		t.Fatalf("update group: %v", err)
	}
	g := v.Group("grp-1")
	if g.Name != "New" || g.Note != "a note" {
		t.Errorf("group = %+v", g)
	}
	if g.UpdatedAt != 2000 {
		t.Errorf("updatedAt = %d, want 2000", g.UpdatedAt)
	}

	if _, err := UpdateGroup(v, "grp-1", "  ", "", 3000); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestMemberListCanonicalOrder(t *testing.T) {
	v := testVaultWith("acc-c", "acc-a", "acc-b")
	v = mustCreateGroup(t, v, "Fam", "acc-b", "grp-1")
	v, _ = AddMember(v, "grp-1", "acc-c", 2000)
	v, _ = AddMember(v, "grp-1", "acc-a", 3000)

	members := v.Group("grp-1").Members
	want := []string{"acc-b", "acc-a", "acc-c"} // admin first, then lexical
	for i, id := range want {
		if members[i].AccountID != id {
			t.Fatalf("members[%d] = %s, want %s (full list: %+v)", i, members[i].AccountID, id, members)
		}
	}
}
