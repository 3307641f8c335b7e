package vault

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/lockholes/internal/model"
)

// Persister is the external persistence collaborator. Save returns the
// canonical stored form (the collaborator may normalize, e.g. re-sort);
// the manager adopts the returned value, not the value it sent.
type Persister interface {
	Load() (model.Vault, error)
	Save(model.Vault) (model.Vault, error)
}

// ImportResult is the outcome of a bulk text import.
type ImportResult struct {
	Imported int         `json:"imported"`
	Created  int         `json:"created"`
	Updated  int         `json:"updated"`
	Skipped  int         `json:"skipped"`
	Data     model.Vault `json:"data"`
}

// Manager is the store facade. It exclusively owns the canonical
// in-memory snapshot, assigns identities and timestamps, serializes
// mutations, and commits every candidate snapshot through the persister
// before adopting it. A failed save leaves the prior snapshot
// authoritative.
type Manager struct {
	mu        sync.Mutex
	persister Persister
	current   model.Vault
	logger    *slog.Logger

	// Overridable for deterministic tests.
	now   func() int64
	newID func(prefix string) string
}

// NewManager loads the persisted snapshot (or the empty default) and
// returns a ready manager.
func NewManager(p Persister, logger *slog.Logger) (*Manager, error) {
	v, err := p.Load()
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return &Manager{
		persister: p,
		current:   v,
		logger:    logger,
		now:       Now,
		newID:     NewID,
	}, nil
}

// Data returns a copy of the current snapshot.
func (m *Manager) Data() model.Vault {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// CreateAccount validates the draft, assigns identity and timestamps,
// and persists the new snapshot. The login must not collide with an
// existing account (case-insensitive).
func (m *Manager) CreateAccount(d model.AccountDraft) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateDraft(d); err != nil {
		return model.Account{}, err
	}
	if m.findByLogin(d.Login) != nil {
		return model.Account{}, validationf("login", "an account with login %q already exists", strings.TrimSpace(d.Login))
	}

	now := m.now()
	a := accountFromDraft(d)
	a.ID = m.newID("acc")
	a.CreatedAt = now
	a.UpdatedAt = now

	candidate := m.current
	accounts := make([]model.Account, len(candidate.Accounts), len(candidate.Accounts)+1)
	copy(accounts, candidate.Accounts)
	candidate.Accounts = append(accounts, a)

	saved, err := m.commit(candidate, "create account")
	if err != nil {
		return model.Account{}, err
	}
	if got := saved.Account(a.ID); got != nil {
		a = *got
	}
	m.logger.Info("account created", "id", a.ID)
	return a, nil
}

// UpdateAccount replaces the mutable fields of an existing account.
// Identity and createdAt are untouched; updatedAt is refreshed.
func (m *Manager) UpdateAccount(id string, d model.AccountDraft) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.current.Account(id)
	if existing == nil {
		return model.Account{}, validationf("id", "unknown account %q", id)
	}
	if err := validateDraft(d); err != nil {
		return model.Account{}, err
	}
	if other := m.findByLogin(d.Login); other != nil && other.ID != id {
		return model.Account{}, validationf("login", "an account with login %q already exists", strings.TrimSpace(d.Login))
	}

	a := accountFromDraft(d)
	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = m.now()

	candidate := m.current
	candidate.Accounts = make([]model.Account, len(m.current.Accounts))
	copy(candidate.Accounts, m.current.Accounts)
	for i := range candidate.Accounts {
		if candidate.Accounts[i].ID == id {
			candidate.Accounts[i] = a
			break
		}
	}

	saved, err := m.commit(candidate, "update account")
	if err != nil {
		return model.Account{}, err
	}
	if got := saved.Account(id); got != nil {
		a = *got
	}
	return a, nil
}

// DeleteAccount removes the account and strips its memberships from
// every group. This is the only path that can remove an admin
// membership record.
func (m *Manager) DeleteAccount(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Account(id) == nil {
		return validationf("id", "unknown account %q", id)
	}

	candidate := RemoveAccountEverywhere(m.current, id, m.now())
	accounts := make([]model.Account, 0, len(candidate.Accounts)-1)
	for _, a := range candidate.Accounts {
		if a.ID == id {
			continue
		}
		accounts = append(accounts, a)
	}
	candidate.Accounts = accounts

	if _, err := m.commit(candidate, "delete account"); err != nil {
		return err
	}
	m.logger.Info("account deleted", "id", id)
	return nil
}

// ImportAccounts parses raw pasted text, reconciles the candidates into
// the account collection, and persists the result in one step.
func (m *Manager) ImportAccounts(raw string) (ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates, skipped := ParseRecords(raw)
	if len(candidates) == 0 {
		return ImportResult{Skipped: skipped, Data: m.current.Clone()}, nil
	}

	accounts, res := Reconcile(m.current.Accounts, candidates, m.now(), func() string { return m.newID("acc") })
	candidate := m.current
	candidate.Accounts = accounts

	saved, err := m.commit(candidate, "import accounts")
	if err != nil {
		return ImportResult{}, err
	}

	m.logger.Info("import finished",
		"imported", res.Imported, "created", res.Created, "updated", res.Updated, "skipped", skipped)
	return ImportResult{
		Imported: res.Imported,
		Created:  res.Created,
		Updated:  res.Updated,
		Skipped:  skipped,
		Data:     saved.Clone(),
	}, nil
}

// CreateGroup creates a group with the given admin account as its sole
// member.
func (m *Manager) CreateGroup(name, note, adminAccountID string) (model.FamilyGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id string
	candidate, err := CreateGroup(m.current, name, note, adminAccountID, m.now(), func() string {
		id = m.newID("grp")
		return id
	})
	if err != nil {
		return model.FamilyGroup{}, err
	}

	saved, err := m.commit(candidate, "create group")
	if err != nil {
		return model.FamilyGroup{}, err
	}
	if g := saved.Group(id); g != nil {
		return *g, nil
	}
	return model.FamilyGroup{}, fmt.Errorf("group %q missing after save", id)
}

// UpdateGroup renames a group and replaces its note.
func (m *Manager) UpdateGroup(groupID, name, note string) (model.FamilyGroup, error) {
	return m.groupOp(groupID, "update group", func(v model.Vault, now int64) (model.Vault, error) {
		return UpdateGroup(v, groupID, name, note, now)
	})
}

// AssignAdmin makes the account the sole admin of the group.
func (m *Manager) AssignAdmin(groupID, accountID string) (model.FamilyGroup, error) {
	return m.groupOp(groupID, "assign admin", func(v model.Vault, now int64) (model.Vault, error) {
		return AssignAdmin(v, groupID, accountID, now)
	})
}

// AddMember adds the account to the group as a plain member.
func (m *Manager) AddMember(groupID, accountID string) (model.FamilyGroup, error) {
	return m.groupOp(groupID, "add member", func(v model.Vault, now int64) (model.Vault, error) {
		return AddMember(v, groupID, accountID, now)
	})
}

// RemoveMember removes a non-admin member from the group.
func (m *Manager) RemoveMember(groupID, accountID string) (model.FamilyGroup, error) {
	return m.groupOp(groupID, "remove member", func(v model.Vault, now int64) (model.Vault, error) {
		return RemoveMember(v, groupID, accountID, now)
	})
}

// DeleteGroup removes the group and all its membership records.
func (m *Manager) DeleteGroup(groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate, err := DeleteGroup(m.current, groupID)
	if err != nil {
		return err
	}
	if _, err := m.commit(candidate, "delete group"); err != nil {
		return err
	}
	m.logger.Info("group deleted", "id", groupID)
	return nil
}

func (m *Manager) groupOp(groupID, op string, fn func(model.Vault, int64) (model.Vault, error)) (model.FamilyGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate, err := fn(m.current, m.now())
	if err != nil {
		return model.FamilyGroup{}, err
	}
	saved, err := m.commit(candidate, op)
	if err != nil {
		return model.FamilyGroup{}, err
	}
	if g := saved.Group(groupID); g != nil {
		return *g, nil
	}
	return model.FamilyGroup{}, fmt.Errorf("group %q missing after save", groupID)
}

// commit persists a candidate snapshot and adopts the collaborator's
// canonical return value. On failure the candidate is discarded and the
// prior snapshot stays authoritative. Callers must hold m.mu.
func (m *Manager) commit(candidate model.Vault, op string) (model.Vault, error) {
	saved, err := m.persister.Save(candidate)
	if err != nil {
		m.logger.Warn("save failed, keeping previous snapshot", "op", op, "error", err)
		return model.Vault{}, &PersistenceError{Op: op, Err: err}
	}
	m.current = saved
	return saved, nil
}

func (m *Manager) findByLogin(login string) *model.Account {
	key := LoginKey(login)
	for i := range m.current.Accounts {
		if LoginKey(m.current.Accounts[i].Login) == key {
			return &m.current.Accounts[i]
		}
	}
	return nil
}

func validateDraft(d model.AccountDraft) error {
	if strings.TrimSpace(d.Login) == "" {
		return validationf("login", "login is required")
	}
	if strings.TrimSpace(d.Password) == "" {
		return validationf("password", "password is required")
	}
	return nil
}

func accountFromDraft(d model.AccountDraft) model.Account {
	return model.Account{
		Login:              strings.TrimSpace(d.Login),
		Password:           strings.TrimSpace(d.Password),
		RecoveryEmail:      strings.TrimSpace(d.RecoveryEmail),
		Phone:              strings.TrimSpace(d.Phone),
		AuthenticatorToken: strings.TrimSpace(d.AuthenticatorToken),
		AppPassword:        strings.TrimSpace(d.AppPassword),
		AuthenticatorURL:   strings.TrimSpace(d.AuthenticatorURL),
		MessagesURL:        strings.TrimSpace(d.MessagesURL),
		Note:               strings.TrimSpace(d.Note),
	}
}
