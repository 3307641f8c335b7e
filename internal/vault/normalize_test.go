package vault

import (
	"reflect"
	"testing"

	"github.com/dukerupert/lockholes/internal/model"
)

func TestNormalizeSortsAccountsByLogin(t *testing.T) {
	v := model.Vault{
		Version: model.VaultVersion,
		Accounts: []model.Account{
			{ID: "acc-1", Login: "zoe@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
			{ID: "acc-2", Login: "Bob@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
			{ID: "acc-3", Login: "alice@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
		},
	}

	out := Normalize(v)
	got := []string{out.Accounts[0].Login, out.Accounts[1].Login, out.Accounts[2].Login}
	want := []string{"alice@x.com", "Bob@x.com", "zoe@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestNormalizeDropsEmptyLogins(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-1", Login: "  ", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
			{ID: "acc-2", Login: "a@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
		},
	}
	out := Normalize(v)
	if len(out.Accounts) != 1 || out.Accounts[0].ID != "acc-2" {
		t.Errorf("accounts = %+v", out.Accounts)
	}
}

func TestNormalizeDedupesByLoginKeepingNewest(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-old", Login: "a@x.com", Password: "old", CreatedAt: 1, UpdatedAt: 100},
			{ID: "acc-new", Login: "A@X.com", Password: "new", CreatedAt: 2, UpdatedAt: 200},
		},
	}
	out := Normalize(v)
	if len(out.Accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(out.Accounts))
	}
	if out.Accounts[0].ID != "acc-new" || out.Accounts[0].Password != "new" {
		t.Errorf("kept = %+v, want the most recently updated", out.Accounts[0])
	}
}

func TestNormalizeBackfillsIDAndTimestamps(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{{Login: "a@x.com", Password: "pw"}},
	}
	out := Normalize(v)
	a := out.Accounts[0]
	if a.ID == "" {
		t.Error("expected backfilled id")
	}
	if a.CreatedAt <= 0 || a.UpdatedAt <= 0 {
		t.Errorf("timestamps = %d/%d, want backfilled", a.CreatedAt, a.UpdatedAt)
	}
}

func TestNormalizeTrimsFields(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{{
			ID: "acc-1", Login: " a@x.com ", Password: " pw ",
			Note: "  note  ", CreatedAt: 1, UpdatedAt: 1,
		}},
	}
	out := Normalize(v)
	a := out.Accounts[0]
	if a.Login != "a@x.com" || a.Password != "pw" || a.Note != "note" {
		t.Errorf("account = %+v", a)
	}
}

func TestNormalizeCollapsesRoleSpellings(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-1", Login: "a@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
			{ID: "acc-2", Login: "b@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
		},
		Groups: []model.FamilyGroup{{
			ID: "grp-1", Name: "Fam", CreatedAt: 1, UpdatedAt: 1,
			Members: []model.Member{
				{AccountID: "acc-1", Role: "Owner"},
				{AccountID: "acc-2", Role: "viewer"},
			},
		}},
	}
	out := Normalize(v)
	members := out.Groups[0].Members
	if members[0].AccountID != "acc-1" || members[0].Role != model.RoleAdmin {
		t.Errorf("members[0] = %+v, want acc-1 as admin", members[0])
	}
	if members[1].Role != model.RoleMember {
		t.Errorf("members[1] = %+v, want member", members[1])
	}
}

func TestNormalizeKeepsSingleAdmin(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-1", Login: "a@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
			{ID: "acc-2", Login: "b@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
		},
		Groups: []model.FamilyGroup{{
			ID: "grp-1", Name: "Fam", CreatedAt: 1, UpdatedAt: 1,
			Members: []model.Member{
				{AccountID: "acc-1", Role: model.RoleAdmin},
				{AccountID: "acc-2", Role: model.RoleAdmin},
			},
		}},
	}
	out := Normalize(v)
	admins := 0
	for _, m := range out.Groups[0].Members {
		if m.Role == model.RoleAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Errorf("admins = %d, want 1", admins)
	}
	if out.Groups[0].Members[0].AccountID != "acc-1" {
		t.Errorf("first listed admin should win, got %+v", out.Groups[0].Members)
	}
}

func TestNormalizeEnforcesGlobalExclusivity(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-1", Login: "a@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
		},
		Groups: []model.FamilyGroup{
			{ID: "grp-1", Name: "A", CreatedAt: 1, UpdatedAt: 1,
				Members: []model.Member{{AccountID: "acc-1", Role: model.RoleAdmin}}},
			{ID: "grp-2", Name: "B", CreatedAt: 1, UpdatedAt: 1,
				Members: []model.Member{{AccountID: "acc-1", Role: model.RoleMember}}},
		},
	}
	out := Normalize(v)
	if !out.Groups[0].HasMember("acc-1") {
		t.Error("first group lost the membership")
	}
	if out.Groups[1].HasMember("acc-1") {
		t.Error("account assigned to two groups")
	}
}

func TestNormalizeDropsUnknownMemberRefs(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-1", Login: "a@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
		},
		Groups: []model.FamilyGroup{{
			ID: "grp-1", Name: "Fam", CreatedAt: 1, UpdatedAt: 1,
			Members: []model.Member{
				{AccountID: "acc-1", Role: model.RoleAdmin},
				{AccountID: "acc-gone", Role: model.RoleMember},
			},
		}},
	}
	out := Normalize(v)
	if len(out.Groups[0].Members) != 1 {
		t.Errorf("members = %+v, want dangling ref dropped", out.Groups[0].Members)
	}
}

func TestNormalizeSortsGroupsByName(t *testing.T) {
	v := model.Vault{
		Groups: []model.FamilyGroup{
			{ID: "grp-1", Name: "zeta", CreatedAt: 1, UpdatedAt: 1},
			{ID: "grp-2", Name: "Alpha", CreatedAt: 1, UpdatedAt: 1},
		},
	}
	out := Normalize(v)
	if out.Groups[0].Name != "Alpha" || out.Groups[1].Name != "zeta" {
		t.Errorf("order = %q, %q", out.Groups[0].Name, out.Groups[1].Name)
	}
}

func TestNormalizeNamesUnnamedGroups(t *testing.T) {
	v := model.Vault{
		Groups: []model.FamilyGroup{{ID: "grp-1", Name: "  ", CreatedAt: 1, UpdatedAt: 1}},
	}
	out := Normalize(v)
	if out.Groups[0].Name == "" {
		t.Error("expected a placeholder name")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	v := model.Vault{
		Accounts: []model.Account{
			{ID: "acc-2", Login: "B@x.com ", Password: "pw", CreatedAt: 1, UpdatedAt: 5},
			{ID: "acc-1", Login: "a@x.com", Password: "pw", CreatedAt: 1, UpdatedAt: 1},
			{ID: "acc-3", Login: "b@X.com", Password: "pw2", CreatedAt: 2, UpdatedAt: 9},
		},
		Groups: []model.FamilyGroup{{
			ID: "grp-1", Name: "Fam", CreatedAt: 1, UpdatedAt: 1,
			Members: []model.Member{
				{AccountID: "acc-1", Role: "owner"},
				{AccountID: "acc-3", Role: model.RoleMember},
			},
		}},
	}

	once := Normalize(v)
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalize not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestNormalizeSetsVersion(t *testing.T) {
	out := Normalize(model.Vault{})
	if out.Version != model.VaultVersion {
		t.Errorf("version = %d, want %d", out.Version, model.VaultVersion)
	}
}
