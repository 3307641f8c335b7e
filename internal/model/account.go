package model

// Account is a stored credential record. Login is the business key and is
// matched case-insensitively; ID is opaque and immutable once assigned.
// Timestamps are unix milliseconds, matching the persisted snapshot format.
type Account struct {
	ID                 string `json:"id"`
	Login              string `json:"login"`
	Password           string `json:"password"`
	RecoveryEmail      string `json:"recoveryEmail"`
	Phone              string `json:"phone"`
	AuthenticatorToken string `json:"authenticatorToken"`
	AppPassword        string `json:"appPassword"`
	AuthenticatorURL   string `json:"authenticatorUrl"`
	MessagesURL        string `json:"messagesUrl"`
	Note               string `json:"note"`
	CreatedAt          int64  `json:"createdAt"`
	UpdatedAt          int64  `json:"updatedAt"`
}

// AccountDraft carries user-supplied account fields before identity and
// timestamps are assigned.
type AccountDraft struct {
	Login              string `json:"login"`
	Password           string `json:"password"`
	RecoveryEmail      string `json:"recoveryEmail"`
	Phone              string `json:"phone"`
	AuthenticatorToken string `json:"authenticatorToken"`
	AppPassword        string `json:"appPassword"`
	AuthenticatorURL   string `json:"authenticatorUrl"`
	MessagesURL        string `json:"messagesUrl"`
	Note               string `json:"note"`
}
