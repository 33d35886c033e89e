package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/middleware"
	"github.com/dukerupert/shoplist/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, sessionStore: ss, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges email and password for a session token, returned in the body and as a cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	emailAddr := strings.TrimSpace(strings.ToLower(req.Email))
	if emailAddr == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), emailAddr)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// Same response for unknown users and wrong passwords to prevent user enumeration
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
		return
	}

	sess, err := h.sessionStore.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
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
	h.logger.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, UserID: user.ID, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok && ac.Token != "" {
		if err := h.sessionStore.Delete(r.Context(), ac.Token); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the user the session belongs to.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"userId": auth.UserID(r.Context())})
}
