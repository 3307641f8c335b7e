package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/lockholes/internal/auth"
	"github.com/dukerupert/lockholes/internal/store"
)

// SessionCookieName is the cookie carrying the vault session token.
const SessionCookieName = "lockholes_session"

// RequireAuth validates the session cookie and attaches the session to
// the request context. Unauthenticated requests get a JSON 401; the API
// has no HTML login page to redirect to.
func RequireAuth(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				SessionID: sess.ID,
				Token:     sess.Token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
