package model

// VaultVersion is the current snapshot schema version, reserved for
// future migration.
const VaultVersion = 1

// Vault is the root aggregate: a versioned snapshot of all accounts and
// family groups. It is the sole unit of persistence; mutations produce a
// complete new snapshot rather than partial writes.
type Vault struct {
	Version  int           `json:"version"`
	Accounts []Account     `json:"accounts"`
	Groups   []FamilyGroup `json:"groups"`
}

// EmptyVault returns the default snapshot used when nothing has been
// persisted yet.
func EmptyVault() Vault {
	return Vault{Version: VaultVersion, Accounts: []Account{}, Groups: []FamilyGroup{}}
}

// Clone returns a deep copy of the vault. Callers hand copies across the
// facade boundary so the canonical snapshot is never aliased.
func (v Vault) Clone() Vault {
	out := Vault{Version: v.Version}
	out.Accounts = make([]Account, len(v.Accounts))
	copy(out.Accounts, v.Accounts)
	out.Groups = make([]FamilyGroup, len(v.Groups))
	for i, g := range v.Groups {
		cg := g
		cg.Members = make([]Member, len(g.Members))
		copy(cg.Members, g.Members)
		out.Groups[i] = cg
	}
	return out
}

// Account returns the account with the given id, or nil.
func (v *Vault) Account(id string) *Account {
	for i := range v.Accounts {
		if v.Accounts[i].ID == id {
			return &v.Accounts[i]
		}
	}
	return nil
}

// Group returns the group with the given id, or nil.
func (v *Vault) Group(id string) *FamilyGroup {
	for i := range v.Groups {
		if v.Groups[i].ID == id {
			return &v.Groups[i]
		}
	}
	return nil
}
