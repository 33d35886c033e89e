package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/store"
)

// SessionCookieName is the cookie the login endpoint sets for browser clients.
const SessionCookieName = "shoplist_session"

// RequireAuth resolves the session token from an Authorization bearer header or the session
// cookie and populates AuthContext. Requests without a live session get a JSON 401.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessionStore.GetByToken(r.Context(), token)
			if err != nil || sess == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
				Token:     sess.Token,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken returns the credential presented with r, preferring the bearer header.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
