package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lockholes/internal/model"
	"github.com/dukerupert/lockholes/internal/vault"
	ws "github.com/dukerupert/lockholes/internal/websocket"
)

type AccountHandler struct {
	manager *vault.Manager
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewAccountHandler(m *vault.Manager, hub *ws.Hub, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{manager: m, hub: hub, logger: logger}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.AccountDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	account, err := h.manager.CreateAccount(draft)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("account", "created", account.ID, nil))
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var draft model.AccountDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	account, err := h.manager.UpdateAccount(id, draft)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("account", "updated", account.ID, nil))
	writeJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.manager.DeleteAccount(id); err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("account", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
