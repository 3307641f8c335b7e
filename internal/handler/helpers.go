package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lockholes/internal/vault"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeVaultError maps the domain error taxonomy onto HTTP statuses:
// rejected input is 400, operations not allowed in the current state are
// 409, and persistence failures are 502 (the in-memory vault has already
// reverted to last known good).
func writeVaultError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		ve  *vault.ValidationError
		pe  *vault.PreconditionError
		pse *vault.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusConflict, map[string]string{"error": pe.Error()})
	case errors.As(err, &pse):
		logger.Error("persistence failure", "op", pse.Op, "error", pse.Err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to persist changes; previous state kept"})
	default:
		logger.Error("unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
