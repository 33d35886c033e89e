package store

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestIdempotencyFirstResponseWins(t *testing.T) {
	s := NewIdempotencyStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	first := &IdempotencyRecord{UserID: 1, Key: "k1", Method: http.MethodPost, Path: "/api/lists/1/items", Status: 201, Body: []byte(`{"id":1}`), CreatedAt: now}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := &IdempotencyRecord{UserID: 1, Key: "k1", Method: http.MethodPost, Path: "/api/lists/1/items", Status: 500, Body: []byte(`{}`), CreatedAt: now}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.Get(ctx, 1, "k1", now)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Status != 201 || string(got.Body) != `{"id":1}` {
		t.Errorf("got status %d body %s, want first response", got.Status, got.Body)
	}

	other, _ := s.Get(ctx, 2, "k1", now)
	if other != nil {
		t.Error("keys must be scoped per user")
	}

	expired, _ := s.Get(ctx, 1, "k1", now.Add(25*time.Hour))
	if expired != nil {
		t.Error("expected record to expire after 24h")
	}
	n, err := s.DeleteExpired(ctx, now.Add(25*time.Hour))
	if err != nil || n != 1 {
		t.Errorf("delete expired: n=%d err=%v", n, err)
	}
}
