package vault

import (
	"sort"
	"strings"

	"github.com/dukerupert/lockholes/internal/model"
)

// Normalize returns the canonical form of a snapshot. It is applied by
// the persistence collaborator before writing, so that persisted
// snapshots are stable and comparable:
//
//   - account fields are trimmed; accounts without a login are dropped;
//     duplicate logins (case-insensitive) keep the most recently updated
//     record; accounts sort by lowercased login
//   - group members referencing unknown accounts are dropped, roles are
//     collapsed onto the closed admin/member set, at most one admin
//     survives per group, and an account belongs to at most one group
//     across the whole snapshot; member lists sort admin-first then by
//     account id; groups sort by lowercased name
//
// Missing ids and timestamps (from hand-edited or legacy snapshots) are
// backfilled.
func Normalize(v model.Vault) model.Vault {
	now := Now()
	out := model.Vault{Version: model.VaultVersion}

	accounts := make([]model.Account, len(v.Accounts))
	copy(accounts, v.Accounts)

	// Most recently updated first, so the dedupe below keeps it.
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].UpdatedAt > accounts[j].UpdatedAt
	})

	seenLogins := make(map[string]bool)
	out.Accounts = make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		a.Login = strings.TrimSpace(a.Login)
		a.Password = strings.TrimSpace(a.Password)
		a.RecoveryEmail = strings.TrimSpace(a.RecoveryEmail)
		a.Phone = strings.TrimSpace(a.Phone)
		a.AuthenticatorToken = strings.TrimSpace(a.AuthenticatorToken)
		a.AppPassword = strings.TrimSpace(a.AppPassword)
		a.AuthenticatorURL = strings.TrimSpace(a.AuthenticatorURL)
		a.MessagesURL = strings.TrimSpace(a.MessagesURL)
		a.Note = strings.TrimSpace(a.Note)

		if a.Login == "" {
			continue
		}
		if strings.TrimSpace(a.ID) == "" {
			a.ID = NewID("acc")
		}
		if a.CreatedAt <= 0 {
			a.CreatedAt = now
		}
		if a.UpdatedAt <= 0 {
			a.UpdatedAt = now
		}

		key := LoginKey(a.Login)
		if seenLogins[key] {
			continue
		}
		seenLogins[key] = true
		out.Accounts = append(out.Accounts, a)
	}

	sort.SliceStable(out.Accounts, func(i, j int) bool {
		return strings.ToLower(out.Accounts[i].Login) < strings.ToLower(out.Accounts[j].Login)
	})

	knownIDs := make(map[string]bool, len(out.Accounts))
	for _, a := range out.Accounts {
		knownIDs[a.ID] = true
	}

	assigned := make(map[string]bool)
	out.Groups = make([]model.FamilyGroup, 0, len(v.Groups))
	for _, g := range v.Groups {
		if strings.TrimSpace(g.ID) == "" {
			g.ID = NewID("grp")
		}
		g.Name = strings.TrimSpace(g.Name)
		g.Note = strings.TrimSpace(g.Note)
		if g.Name == "" {
			g.Name = "Unnamed family group"
		}
		if g.CreatedAt <= 0 {
			g.CreatedAt = now
		}
		if g.UpdatedAt <= 0 {
			g.UpdatedAt = now
		}

		seenMembers := make(map[string]bool)
		members := make([]model.Member, 0, len(g.Members))
		for _, m := range g.Members {
			m.AccountID = strings.TrimSpace(m.AccountID)
			m.Role = model.ParseRole(string(m.Role))

			if m.AccountID == "" || !knownIDs[m.AccountID] {
				continue
			}
			if seenMembers[m.AccountID] || assigned[m.AccountID] {
				continue
			}
			seenMembers[m.AccountID] = true
			members = append(members, m)
		}

		hasAdmin := false
		kept := members[:0]
		for _, m := range members {
			if m.Role == model.RoleAdmin {
				if hasAdmin {
					continue
				}
				hasAdmin = true
			}
			assigned[m.AccountID] = true
			kept = append(kept, m)
		}
		g.Members = sortMembers(kept)

		out.Groups = append(out.Groups, g)
	}

	sort.SliceStable(out.Groups, func(i, j int) bool {
		return strings.ToLower(out.Groups[i].Name) < strings.ToLower(out.Groups[j].Name)
	})

	return out
}

// sortMembers puts the member list in canonical order: admin first, then
// ascending account id. The order is a storage canonicalization, not a
// semantic constraint.
func sortMembers(members []model.Member) []model.Member {
	sort.SliceStable(members, func(i, j int) bool {
		if (members[i].Role == model.RoleAdmin) != (members[j].Role == model.RoleAdmin) {
			return members[i].Role == model.RoleAdmin
		}
		return members[i].AccountID < members[j].AccountID
	})
	return members
}

// LoginKey normalizes a login for matching: trimmed and lowercased.
// The stored login keeps its original casing.
func LoginKey(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
