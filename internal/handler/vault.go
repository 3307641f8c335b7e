package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/lockholes/internal/vault"
)

// VaultHandler serves the whole snapshot. The UI loads it once and
// re-fetches on websocket notifications.
type VaultHandler struct {
	manager *vault.Manager
	logger  *slog.Logger
}

func NewVaultHandler(m *vault.Manager, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{manager: m, logger: logger}
}

func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Data())
}
