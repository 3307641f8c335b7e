package vault

import (
	"strings"

	"github.com/dukerupert/lockholes/internal/model"
)

// Membership transitions. Each function is pure: it takes a snapshot and
// returns a new one, sharing unaffected groups with the input so callers
// can detect change cheaply. The invariants enforced here:
//
//   - a group has at most one admin member
//   - an account belongs to at most one group across the whole snapshot
//
// After every transition the affected group's member list is re-sorted
// into canonical order and its updatedAt refreshed.

// CreateGroup creates a new group whose sole member is the given admin
// account. The admin is first removed from whatever group currently
// holds it.
func CreateGroup(v model.Vault, name, note, adminAccountID string, now int64, newID func() string) (model.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return v, validationf("name", "group name is required")
	}
	adminAccountID = strings.TrimSpace(adminAccountID)
	if adminAccountID == "" {
		return v, validationf("adminAccountId", "admin account is required")
	}
	if v.Account(adminAccountID) == nil {
		return v, validationf("adminAccountId", "unknown account %q", adminAccountID)
	}

	out := removeFromAllGroups(v, adminAccountID, now)
	groups := make([]model.FamilyGroup, len(out.Groups), len(out.Groups)+1)
	copy(groups, out.Groups)
	out.Groups = append(groups, model.FamilyGroup{
		ID:        newID(),
		Name:      name,
		Note:      strings.TrimSpace(note),
		Members:   []model.Member{{AccountID: adminAccountID, Role: model.RoleAdmin}},
		CreatedAt: now,
		UpdatedAt: now,
	})
	return out, nil
}

// UpdateGroup renames a group and replaces its note.
func UpdateGroup(v model.Vault, groupID, name, note string, now int64) (model.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return v, validationf("name", "group name is required")
	}
	gi := groupIndex(v, groupID)
	if gi < 0 {
		return v, validationf("groupId", "unknown group %q", groupID)
	}

	out := v
	out.Groups = make([]model.FamilyGroup, len(v.Groups))
	copy(out.Groups, v.Groups)
	g := out.Groups[gi]
	g.Name = name
	g.Note = strings.TrimSpace(note)
	g.UpdatedAt = now
	out.Groups[gi] = g
	return out, nil
}

// AssignAdmin makes the account the sole admin of the target group. The
// account is removed from every other group first; a prior admin of the
// target group is dropped from the member list entirely, not demoted.
// Assigning the current admin again is a no-op apart from the updatedAt
// refresh, so the call is idempotent.
func AssignAdmin(v model.Vault, groupID, accountID string, now int64) (model.Vault, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return v, validationf("accountId", "account is required")
	}
	if v.Account(accountID) == nil {
		return v, validationf("accountId", "unknown account %q", accountID)
	}
	if groupIndex(v, groupID) < 0 {
		return v, validationf("groupId", "unknown group %q", groupID)
	}

	out := removeFromAllGroups(v, accountID, now)
	gi := groupIndex(out, groupID)
	g := out.Groups[gi]

	members := make([]model.Member, 0, len(g.Members)+1)
	for _, m := range g.Members {
		if m.Role == model.RoleAdmin {
			continue
		}
		members = append(members, m)
	}
	members = append(members, model.Member{AccountID: accountID, Role: model.RoleAdmin})

	g.Members = sortMembers(members)
	g.UpdatedAt = now
	out.Groups[gi] = g
	return out, nil
}

// AddMember adds the account to the group as a plain member, removing it
// from any other group first. The group must already have an admin, and
// the admin cannot be added as a plain member of its own group.
func AddMember(v model.Vault, groupID, accountID string, now int64) (model.Vault, error) {
	gi := groupIndex(v, groupID)
	if gi < 0 {
		return v, validationf("groupId", "unknown group %q", groupID)
	}
	admin := v.Groups[gi].Admin()
	if admin == nil {
		return v, preconditionf("group %q has no admin; assign one before adding members", v.Groups[gi].Name)
	}

	accountID = strings.TrimSpace(accountID)
	if accountID == "" || v.Account(accountID) == nil {
		return v, validationf("accountId", "unknown account %q", accountID)
	}
	if accountID == admin.AccountID {
		return v, validationf("accountId", "account is already the group admin")
	}

	out := removeFromAllGroups(v, accountID, now)
	gi = groupIndex(out, groupID)
	g := out.Groups[gi]

	members := make([]model.Member, len(g.Members), len(g.Members)+1)
	copy(members, g.Members)
	members = append(members, model.Member{AccountID: accountID, Role: model.RoleMember})

	g.Members = sortMembers(members)
	g.UpdatedAt = now
	out.Groups[gi] = g
	return out, nil
}

// RemoveMember removes a non-admin member from the group. Removing the
// admin is rejected: callers must AssignAdmin a replacement first. If the
// account is not a member the snapshot is returned unchanged.
func RemoveMember(v model.Vault, groupID, accountID string, now int64) (model.Vault, error) {
	gi := groupIndex(v, groupID)
	if gi < 0 {
		return v, validationf("groupId", "unknown group %q", groupID)
	}
	g := v.Groups[gi]

	if admin := g.Admin(); admin != nil && admin.AccountID == accountID {
		return v, preconditionf("the group admin cannot be removed; assign a new admin first")
	}
	if !g.HasMember(accountID) {
		return v, nil
	}

	members := make([]model.Member, 0, len(g.Members)-1)
	for _, m := range g.Members {
		if m.AccountID == accountID {
			continue
		}
		members = append(members, m)
	}

	out := v
	out.Groups = make([]model.FamilyGroup, len(v.Groups))
	copy(out.Groups, v.Groups)
	g.Members = sortMembers(members)
	g.UpdatedAt = now
	out.Groups[gi] = g
	return out, nil
}

// RemoveAccountEverywhere strips every membership referencing the
// account, regardless of role. It runs when an account is deleted and is
// the only path that removes an admin membership record.
func RemoveAccountEverywhere(v model.Vault, accountID string, now int64) model.Vault {
	return removeFromAllGroups(v, accountID, now)
}

// DeleteGroup removes the group and all its membership records. Accounts
// are unaffected.
func DeleteGroup(v model.Vault, groupID string) (model.Vault, error) {
	gi := groupIndex(v, groupID)
	if gi < 0 {
		return v, validationf("groupId", "unknown group %q", groupID)
	}

	out := v
	out.Groups = make([]model.FamilyGroup, 0, len(v.Groups)-1)
	out.Groups = append(out.Groups, v.Groups[:gi]...)
	out.Groups = append(out.Groups, v.Groups[gi+1:]...)
	return out, nil
}

// removeFromAllGroups returns a snapshot with the account stripped from
// every member list. Groups that did not contain the account are carried
// over untouched.
func removeFromAllGroups(v model.Vault, accountID string, now int64) model.Vault {
	out := v
	out.Groups = make([]model.FamilyGroup, len(v.Groups))
	copy(out.Groups, v.Groups)

	for i, g := range out.Groups {
		if !g.HasMember(accountID) {
			continue
		}
		members := make([]model.Member, 0, len(g.Members)-1)
		for _, m := range g.Members {
			if m.AccountID == accountID {
				continue
			}
			members = append(members, m)
		}
		g.Members = sortMembers(members)
		g.UpdatedAt = now
		out.Groups[i] = g
	}
	return out
}

func groupIndex(v model.Vault, groupID string) int {
	for i := range v.Groups {
		if v.Groups[i].ID == groupID {
			return i
		}
	}
	return -1
}
