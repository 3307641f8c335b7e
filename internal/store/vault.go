package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/lockholes/internal/model"
	"github.com/dukerupert/lockholes/internal/vault"
)

// VaultStore persists whole vault snapshots in SQLite. It implements
// vault.Persister: Save replaces every row inside one transaction (no
// partial writes) and returns the canonical stored form, which callers
// adopt as the new truth.
type VaultStore struct {
	db *sql.DB
}

func NewVaultStore(db *sql.DB) *VaultStore {
	return &VaultStore{db: db}
}

// Load reassembles the persisted snapshot, or returns the empty default
// if nothing has been stored yet.
func (s *VaultStore) Load() (model.Vault, error) {
	v := model.EmptyVault()

	rows, err := s.db.Query(
		`SELECT id, login, password, recovery_email, phone, authenticator_token,
		        app_password, authenticator_url, messages_url, note, created_at, updated_at
		 FROM accounts ORDER BY login COLLATE NOCASE`,
	)
	if err != nil {
		return model.Vault{}, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Login, &a.Password, &a.RecoveryEmail, &a.Phone,
			&a.AuthenticatorToken, &a.AppPassword, &a.AuthenticatorURL, &a.MessagesURL,
			&a.Note, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return model.Vault{}, fmt.Errorf("scan account: %w", err)
		}
		v.Accounts = append(v.Accounts, a)
	}
	if err := rows.Err(); err != nil {
		return model.Vault{}, fmt.Errorf("iterate accounts: %w", err)
	}

	groupRows, err := s.db.Query(
		`SELECT id, name, note, created_at, updated_at
		 FROM family_groups ORDER BY name COLLATE NOCASE`,
	)
	if err != nil {
		return model.Vault{}, fmt.Errorf("query groups: %w", err)
	}
	defer groupRows.Close()

	for groupRows.Next() {
		var g model.FamilyGroup
		if err := groupRows.Scan(&g.ID, &g.Name, &g.Note, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return model.Vault{}, fmt.Errorf("scan group: %w", err)
		}
		g.Members = []model.Member{}
		v.Groups = append(v.Groups, g)
	}
	if err := groupRows.Err(); err != nil {
		return model.Vault{}, fmt.Errorf("iterate groups: %w", err)
	}

	for i := range v.Groups {
		members, err := s.loadMembers(v.Groups[i].ID)
		if err != nil {
			return model.Vault{}, err
		}
		v.Groups[i].Members = members
	}

	return v, nil
}

func (s *VaultStore) loadMembers(groupID string) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT account_id, role FROM family_group_members
		 WHERE group_id = ?
		 ORDER BY CASE role WHEN 'admin' THEN 0 ELSE 1 END, account_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("query members of %s: %w", groupID, err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		var role string
		if err := rows.Scan(&m.AccountID, &role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = model.ParseRole(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// Save normalizes the snapshot, replaces all rows in one transaction,
// and returns the canonical form that was stored.
func (s *VaultStore) Save(v model.Vault) (model.Vault, error) {
	canonical := vault.Normalize(v)

	tx, err := s.db.Begin()
	if err != nil {
		return model.Vault{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"family_group_members", "family_groups", "accounts"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return model.Vault{}, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	accStmt, err := tx.Prepare(
		`INSERT INTO accounts (id, login, password, recovery_email, phone, authenticator_token,
		                       app_password, authenticator_url, messages_url, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return model.Vault{}, fmt.Errorf("prepare account insert: %w", err)
	}
	defer accStmt.Close()

	for _, a := range canonical.Accounts {
		if _, err := accStmt.Exec(a.ID, a.Login, a.Password, a.RecoveryEmail, a.Phone,
			a.AuthenticatorToken, a.AppPassword, a.AuthenticatorURL, a.MessagesURL,
			a.Note, a.CreatedAt, a.UpdatedAt); err != nil {
			return model.Vault{}, fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}

	grpStmt, err := tx.Prepare(
		`INSERT INTO family_groups (id, name, note, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return model.Vault{}, fmt.Errorf("prepare group insert: %w", err)
	}
	defer grpStmt.Close()

	memStmt, err := tx.Prepare(
		`INSERT INTO family_group_members (group_id, account_id, role) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return model.Vault{}, fmt.Errorf("prepare member insert: %w", err)
	}
	defer memStmt.Close()

	for _, g := range canonical.Groups {
		if _, err := grpStmt.Exec(g.ID, g.Name, g.Note, g.CreatedAt, g.UpdatedAt); err != nil {
			return model.Vault{}, fmt.Errorf("insert group %s: %w", g.ID, err)
		}
		for _, m := range g.Members {
			if _, err := memStmt.Exec(g.ID, m.AccountID, string(m.Role)); err != nil {
				return model.Vault{}, fmt.Errorf("insert member %s of %s: %w", m.AccountID, g.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Vault{}, fmt.Errorf("commit snapshot: %w", err)
	}

	return canonical, nil
}
