package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/store"
)

func setupMiddlewareDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createSession(t *testing.T, db *sql.DB) (int64, string) {
	t.Helper()
	ctx := context.Background()
	u, err := store.NewUserStore(db).Create(ctx, "alice@example.com", "Alice", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := store.NewSessionStore(db).Create(ctx, u.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return u.ID, sess.Token
}

func TestRequireAuthNoCredential(t *testing.T) {
	db := setupMiddlewareDB(t)

	handler := RequireAuth(store.NewSessionStore(db))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	db := setupMiddlewareDB(t)

	handler := RequireAuth(store.NewSessionStore(db))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	db := setupMiddlewareDB(t)
	userID, token := createSession(t, db)

	tests := []struct {
		name  string
		apply func(*http.Request)
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAC auth.AuthContext
			handler := RequireAuth(store.NewSessionStore(db))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ac, ok := auth.FromContext(r.Context())
				if !ok {
					t.Fatal("expected AuthContext in request context")
				}
				gotAC = ac
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			tt.apply(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if gotAC.UserID != userID {
				t.Errorf("UserID = %d, want %d", gotAC.UserID, userID)
			}
			if gotAC.Token != token {
				t.Errorf("Token = %q, want %q", gotAC.Token, token)
			}
		})
	}
}

func TestUserKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := UserKey(req); got != "ip:10.0.0.1" {
		t.Errorf("UserKey = %q, want ip:10.0.0.1", got)
	}

	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 42}))
	if got := UserKey(req); got != "user:42" {
		t.Errorf("UserKey = %q, want user:42", got)
	}
}
