package vault

import (
	"strings"

	"github.com/dukerupert/lockholes/internal/model"
)

// ReconcileResult reports merge counts for user-facing import summaries.
// Imported = Created + Updated; Skipped counts malformed input records.
type ReconcileResult struct {
	Imported int `json:"imported"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Reconcile merges parsed candidates into the existing account
// collection, deduplicating by normalized login. Matching accounts are
// updated: a field is overwritten only when the candidate supplies a
// non-empty value, otherwise the existing value is preserved. Candidates
// with no match become new accounts with freshly generated identities.
// Candidates later in the batch win over earlier ones with the same
// login, by way of the same update rule applied sequentially.
//
// Groups are untouched; new accounts start unassigned.
func Reconcile(existing []model.Account, candidates []Candidate, now int64, newID func() string) ([]model.Account, ReconcileResult) {
	accounts := make([]model.Account, len(existing))
	copy(accounts, existing)

	byLogin := make(map[string]int, len(accounts))
	for i, a := range accounts {
		byLogin[LoginKey(a.Login)] = i
	}

	var res ReconcileResult
	for _, c := range candidates {
		key := LoginKey(c.Login)
		if i, ok := byLogin[key]; ok {
			accounts[i] = applyCandidate(accounts[i], c, now)
			res.Updated++
		} else {
			a := model.Account{
				ID:                 newID(),
				Login:              strings.TrimSpace(c.Login),
				Password:           strings.TrimSpace(c.Password),
				AuthenticatorToken: strings.TrimSpace(c.AuthenticatorToken),
				AppPassword:        strings.TrimSpace(c.AppPassword),
				AuthenticatorURL:   strings.TrimSpace(c.AuthenticatorURL),
				MessagesURL:        strings.TrimSpace(c.MessagesURL),
				Note:               strings.TrimSpace(c.Extra),
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			byLogin[key] = len(accounts)
			accounts = append(accounts, a)
			res.Created++
		}
	}
	res.Imported = res.Created + res.Updated

	return accounts, res
}

// applyCandidate overlays non-empty candidate fields onto an existing
// account. Identity and createdAt are untouched; updatedAt is refreshed.
// Extra text is folded into the note unless the note already contains it.
func applyCandidate(a model.Account, c Candidate, now int64) model.Account {
	a.Login = strings.TrimSpace(c.Login)
	if v := strings.TrimSpace(c.Password); v != "" {
		a.Password = v
	}
	if v := strings.TrimSpace(c.AuthenticatorToken); v != "" {
		a.AuthenticatorToken = v
	}
	if v := strings.TrimSpace(c.AppPassword); v != "" {
		a.AppPassword = v
	}
	if v := strings.TrimSpace(c.AuthenticatorURL); v != "" {
		a.AuthenticatorURL = v
	}
	if v := strings.TrimSpace(c.MessagesURL); v != "" {
		a.MessagesURL = v
	}
	if extra := strings.TrimSpace(c.Extra); extra != "" {
		switch {
		case strings.TrimSpace(a.Note) == "":
			a.Note = extra
		case !strings.Contains(a.Note, extra):
			a.Note = strings.TrimSpace(a.Note) + "\n" + extra
		}
	}
	a.UpdatedAt = now
	return a
}
