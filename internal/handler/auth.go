package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/lockholes/internal/middleware"
	"github.com/dukerupert/lockholes/internal/store"
)

// AuthHandler implements the master-passphrase gate: the passphrase is
// set once on first run, stored as a bcrypt hash, and unlocking issues a
// session cookie.
type AuthHandler struct {
	settings *store.SettingsStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(settings *store.SettingsStore, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{settings: settings, sessions: sessions, logger: logger}
}

// Status reports whether a passphrase has been set and whether the
// request carries a valid session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	hash, err := h.settings.Get(store.SettingMasterHash)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read settings"})
		return
	}

	authenticated := false
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessions.GetByToken(cookie.Value); err == nil && sess != nil {
			authenticated = true
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"initialized":   hash != "",
		"authenticated": authenticated,
	})
}

// Setup sets the master passphrase on first run. Once set it can only be
// changed through Change, which requires the current passphrase.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	existing, err := h.settings.Get(store.SettingMasterHash)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read settings"})
		return
	}
	if existing != "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "passphrase already set"})
		return
	}

	passphrase, ok := h.decodePassphrase(w, r, "passphrase")
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to hash passphrase"})
		return
	}
	if err := h.settings.Set(store.SettingMasterHash, string(hash)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save passphrase"})
		return
	}

	h.logger.Info("master passphrase set")
	h.issueSession(w)
}

// Login verifies the passphrase and issues a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	hash, err := h.settings.Get(store.SettingMasterHash)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read settings"})
		return
	}
	if hash == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no passphrase set; call setup first"})
		return
	}

	passphrase, ok := h.decodePassphrase(w, r, "passphrase")
	if !ok {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect passphrase"})
		return
	}

	h.issueSession(w)
}

// Change replaces the master passphrase, requiring the current one.
func (h *AuthHandler) Change(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		New     string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.New == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "new passphrase is required"})
		return
	}

	hash, err := h.settings.Get(store.SettingMasterHash)
	if err != nil || hash == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no passphrase set"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Current)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect passphrase"})
		return
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.New), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to hash passphrase"})
		return
	}
	if err := h.settings.Set(store.SettingMasterHash, string(newHash)); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save passphrase"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "passphrase changed"})
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Warn("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) decodePassphrase(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return "", false
	}
	passphrase := req[field]
	if passphrase == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " is required"})
		return "", false
	}
	return passphrase, true
}

func (h *AuthHandler) issueSession(w http.ResponseWriter) {
	sess, err := h.sessions.Create()
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}
