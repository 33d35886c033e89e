package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// IdempotencyTTL is how long a recorded response can be replayed.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRecord is the stored outcome of a mutating request sent with an Idempotency-Key.
type IdempotencyRecord struct {
	UserID    int64
	Key       string
	Method    string
	Path      string
	Status    int
	Body      []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IdempotencyStore struct {
	db *sql.DB
}

func NewIdempotencyStore(db *sql.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

const idempotencyCols = `user_id, idem_key, method, path, status, body, created_at, expires_at`

// Get returns the unexpired record for (userID, key), or nil.
func (s *IdempotencyStore) Get(ctx context.Context, userID int64, key string, now time.Time) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT `+idempotencyCols+` FROM idempotency_keys WHERE user_id = ? AND idem_key = ? AND expires_at > ?`,
		userID, key, toMillis(now),
	).Scan(&rec.UserID, &rec.Key, &rec.Method, &rec.Path, &rec.Status, &rec.Body, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.ExpiresAt = fromMillis(expiresAt)
	return &rec, nil
}

// Save records rec unless a live record for the same key exists; the first response wins.
func (s *IdempotencyStore) Save(ctx context.Context, rec *IdempotencyRecord) error {
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = rec.CreatedAt.Add(IdempotencyTTL)
	}
	body := rec.Body
	if body == nil {
		body = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO idempotency_keys (`+idempotencyCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, idem_key) DO UPDATE SET
		   method = excluded.method, path = excluded.path, status = excluded.status, body = excluded.body,
		   created_at = excluded.created_at, expires_at = excluded.expires_at
		 WHERE idempotency_keys.expires_at <= excluded.created_at`,
		rec.UserID, rec.Key, rec.Method, rec.Path, int64(rec.Status), body, toMillis(rec.CreatedAt), toMillis(rec.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired idempotency keys: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
