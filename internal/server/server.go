package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/lockholes/internal/backup"
	"github.com/dukerupert/lockholes/internal/handler"
	"github.com/dukerupert/lockholes/internal/middleware"
	"github.com/dukerupert/lockholes/internal/store"
	"github.com/dukerupert/lockholes/internal/vault"
	ws "github.com/dukerupert/lockholes/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	vaultH        *handler.VaultHandler
	accountH      *handler.AccountHandler
	groupH        *handler.GroupHandler
	importH       *handler.ImportHandler
	authH         *handler.AuthHandler
	backupH       *handler.BackupHandler
	sessionStore  *store.SessionStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, manager *vault.Manager, backupCfg backup.S3Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	settingsStore := store.NewSettingsStore(db)
	sessionStore := store.NewSessionStore(db)

	backupMgr := backup.NewManager(backupCfg, manager.Data, settingsStore, func(s backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(s.State),
			Extra: map[string]any{
				"in_progress": s.InProgress,
				"error":       s.Error,
			},
		})
	}, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		vaultH:        handler.NewVaultHandler(manager, logger.With("component", "vault")),
		accountH:      handler.NewAccountHandler(manager, hub, logger.With("component", "account")),
		groupH:        handler.NewGroupHandler(manager, hub, logger.With("component", "group")),
		importH:       handler.NewImportHandler(manager, hub, logger.With("component", "import")),
		authH:         handler.NewAuthHandler(settingsStore, sessionStore, logger.With("component", "auth")),
		backupH:       handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		sessionStore:  sessionStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no session required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /api/auth/status", s.authH.Status)
	outerMux.HandleFunc("POST /api/auth/setup", s.rateLimitedHandler(s.authH.Setup))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("PUT /api/auth/passphrase", s.authH.Change)

	// Whole-snapshot read
	mux.HandleFunc("GET /api/vault", s.vaultH.Get)

	// Account routes
	mux.HandleFunc("POST /api/accounts", s.accountH.Create)
	mux.HandleFunc("PUT /api/accounts/{id}", s.accountH.Update)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.accountH.Delete)

	// Bulk import
	mux.HandleFunc("POST /api/import", s.importH.Import)

	// Family group routes
	mux.HandleFunc("POST /api/groups", s.groupH.Create)
	mux.HandleFunc("PUT /api/groups/{id}", s.groupH.Update)
	mux.HandleFunc("DELETE /api/groups/{id}", s.groupH.Delete)
	mux.HandleFunc("PUT /api/groups/{id}/admin", s.groupH.AssignAdmin)
	mux.HandleFunc("POST /api/groups/{id}/members", s.groupH.AddMember)
	mux.HandleFunc("DELETE /api/groups/{id}/members/{account_id}", s.groupH.RemoveMember)

	// Backup routes
	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backup/run", s.backupH.RunNow)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
