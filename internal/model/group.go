package model

import "strings"

// Role tags a group membership. A group has at most one RoleAdmin member.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole maps a raw role string onto the closed Role set. Legacy
// spellings from older snapshots (owner, manager, adult, child, ...)
// collapse onto the two supported roles; anything unrecognized is a
// plain member.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "manager", "owner":
		return RoleAdmin
	default:
		return RoleMember
	}
}

// Member ties an account to a group with a role.
type Member struct {
	AccountID string `json:"accountId"`
	Role      Role   `json:"role"`
}

// FamilyGroup is a named collection of accounts with role-tagged
// membership. The member list is kept in canonical order: admin first,
// then remaining members ascending by account id.
type FamilyGroup struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Note      string   `json:"note"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// Admin returns the group's admin member, or nil if the group has none.
func (g *FamilyGroup) Admin() *Member {
	for i := range g.Members {
		if g.Members[i].Role == RoleAdmin {
			return &g.Members[i]
		}
	}
	return nil
}

// HasMember reports whether accountID appears in the member list,
// regardless of role.
func (g *FamilyGroup) HasMember(accountID string) bool {
	for _, m := range g.Members {
		if m.AccountID == accountID {
			return true
		}
	}
	return false
}
