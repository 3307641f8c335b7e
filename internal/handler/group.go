package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lockholes/internal/vault"
	ws "github.com/dukerupert/lockholes/internal/websocket"
)

type GroupHandler struct {
	manager *vault.Manager
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewGroupHandler(m *vault.Manager, hub *ws.Hub, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{manager: m, hub: hub, logger: logger}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		Note           string `json:"note"`
		AdminAccountID string `json:"adminAccountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	group, err := h.manager.CreateGroup(req.Name, req.Note, req.AdminAccountID)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("group", "created", group.ID, nil))
	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Name string `json:"name"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	group, err := h.manager.UpdateGroup(id, req.Name, req.Note)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("group", "updated", group.ID, nil))
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.manager.DeleteGroup(id); err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("group", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// AssignAdmin replaces the group's admin with the given account. The
// account is pulled out of any other group it belongs to.
func (h *GroupHandler) AssignAdmin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		AccountID string `json:"accountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	group, err := h.manager.AssignAdmin(id, req.AccountID)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("group", "updated", group.ID, nil))
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		AccountID string `json:"accountId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	group, err := h.manager.AddMember(id, req.AccountID)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("group", "updated", group.ID, nil))
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	accountID := r.PathValue("account_id")

	group, err := h.manager.RemoveMember(id, accountID)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("group", "updated", group.ID, nil))
	writeJSON(w, http.StatusOK, group)
}
