package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/lockholes/internal/vault"
	ws "github.com/dukerupert/lockholes/internal/websocket"
)

type ImportHandler struct {
	manager *vault.Manager
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewImportHandler(m *vault.Manager, hub *ws.Hub, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{manager: m, hub: hub, logger: logger}
}

// Import accepts raw pasted text, merges the parsed records into the
// vault, and returns the counters plus the resulting snapshot.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Raw) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "raw text is required"})
		return
	}

	result, err := h.manager.ImportAccounts(req.Raw)
	if err != nil {
		writeVaultError(w, h.logger, err)
		return
	}

	if result.Imported > 0 {
		h.hub.Broadcast(ws.NewMessage("vault", "imported", "", map[string]any{
			"imported": result.Imported,
			"created":  result.Created,
			"updated":  result.Updated,
		}))
	}
	writeJSON(w, http.StatusOK, result)
}
