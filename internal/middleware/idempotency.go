package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/store"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

// bodyRecorder captures the status and body written through it.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// keyLocks serializes requests that share an idempotency key.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Idempotency replays the stored response when an authenticated mutating request repeats an
// Idempotency-Key. Replays carry the Idempotent-Replayed header. Server errors are not recorded
// so the client can retry them. Reusing a key for a different method or path is rejected.
func Idempotency(records *store.IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	locks := &keyLocks{locks: make(map[string]*keyLock)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			userID := auth.UserID(r.Context())
			if key == "" || userID == 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 255 {
				writeError(w, http.StatusBadRequest, "idempotency key too long")
				return
			}

			unlock := locks.lock(strconv.FormatInt(userID, 10) + ":" + key)
			defer unlock()

			rec, err := records.Get(r.Context(), userID, key, time.Now())
			if err != nil {
				logger.Error("get idempotency record", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if rec != nil {
				if rec.Method != r.Method || rec.Path != r.URL.Path {
					writeError(w, http.StatusUnprocessableEntity, "idempotency key was used for a different request")
					return
				}
				logger.Debug("replaying response", "user_id", userID, "key", key, "status", rec.Status)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(ReplayedHeader, "true")
				w.WriteHeader(rec.Status)
				w.Write(rec.Body)
				return
			}

			br := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(br, r)
			if br.status >= 500 {
				return
			}

			now := time.Now()
			// Record even if the client went away; its retry must see this outcome.
			err = records.Save(context.WithoutCancel(r.Context()), &store.IdempotencyRecord{
				UserID:    userID,
				Key:       key,
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    br.status,
				Body:      br.body.Bytes(),
				CreatedAt: now,
			})
			if err != nil {
				logger.Error("save idempotency record", "error", err)
			}
		})
	}
}
