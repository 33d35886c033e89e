// Package syncclient keeps a local replica of one shopping list in step with the server.
// Local edits show up immediately, survive restarts and connectivity loss in a durable
// queue, and are replayed in order once the server is reachable again.
package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/shoplist/internal/model"
	hub "github.com/dukerupert/shoplist/internal/websocket"
)

// maxRetries is how many failed replays a queued operation survives.
const maxRetries = 3

type Agent struct {
	api    API
	store  *LocalStore
	listID int64
	logger *slog.Logger

	drainMu sync.Mutex

	mu          sync.Mutex
	online      bool
	base        model.List
	lastApplied time.Time
	pending     []*QueueEntry
	inflight    int
	deferred    time.Time
	unsynced    int
}

// NewAgent restores the list's snapshot and queue from store. Operations found in the queue
// are treated as awaiting replay. The agent starts online.
func NewAgent(api API, store *LocalStore, listID int64, logger *slog.Logger) (*Agent, error) {
	a := &Agent{
		api:    api,
		store:  store,
		listID: listID,
		logger: logger.With("component", "sync", "list_id", listID),
		online: true,
		base:   model.List{ID: listID},
	}

	snap, err := store.Snapshot(listID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		a.base = snap.List
		a.lastApplied = snap.LastApplied
		a.unsynced = snap.Unsynced
	}

	entries, err := store.Entries(listID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		e := entries[i]
		e.Queued = true
		a.pending = append(a.pending, &e)
	}
	if len(a.pending) > 0 {
		a.logger.Info("restored queued operations", "count", len(a.pending))
	}
	return a, nil
}

func (a *Agent) ListID() int64 { return a.listID }

// Confirmed returns the last list state acknowledged by the server.
func (a *Agent) Confirmed() model.List {
	a.mu.Lock()
	defer a.mu.Unlock()
	l := a.base
	l.Items = slices.Clone(a.base.Items)
	l.Recipes = slices.Clone(a.base.Recipes)
	l.SharedWith = slices.Clone(a.base.SharedWith)
	return l
}

// View returns the items as the user should see them: the confirmed state with every
// unacknowledged operation applied on top.
func (a *Agent) View() []Tracked[model.Item] {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := slices.Clone(a.base.Items)
	for _, e := range a.pending {
		items = applyLocal(items, e.Op)
	}

	out := make([]Tracked[model.Item], 0, len(items))
	for _, it := range items {
		state := Clean
		for _, e := range a.pending {
			if !e.Op.touches(it.ID) {
				continue
			}
			if e.Retries > 0 {
				state = Failed
			} else if state == Clean {
				state = Pending
			}
		}
		out = append(out, Tracked[model.Item]{Value: it, State: state})
	}
	return out
}

func (a *Agent) LastApplied() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastApplied
}

// Pending returns the number of operations the server has not acknowledged.
func (a *Agent) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Unsynced counts operations dropped after exhausting their replays.
func (a *Agent) Unsynced() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unsynced
}

// Eligible reports whether userID should hold a push channel for the list: members always,
// owners only once someone joined.
func (a *Agent) Eligible(userID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.base.Owner == userID {
		return len(a.base.SharedWith) > 0
	}
	return slices.Contains(a.base.SharedWith, userID)
}

// Do applies op locally and sends it. A business rejection or cancellation rolls the local
// change back and is returned. Connectivity failures keep the change and queue it.
// While an earlier operation is unacknowledged, op is queued behind it.
func (a *Agent) Do(ctx context.Context, op Operation) error {
	op.ListID = a.listID
	if op.CorrelationID == "" {
		op.CorrelationID = uuid.NewString()
	}
	if op.Kind == OpCreate && op.ItemID == "" {
		op.ItemID = uuid.NewString()
	}

	a.mu.Lock()
	live := a.online && len(a.pending) == 0
	online := a.online
	entry := &QueueEntry{
		CorrelationID: op.CorrelationID,
		ListID:        a.listID,
		Op:            op,
		Queued:        !live,
	}
	if err := a.store.Enqueue(entry); err != nil {
		a.mu.Unlock()
		return err
	}
	a.pending = append(a.pending, entry)
	if live {
		a.inflight++
	}
	a.mu.Unlock()

	if !live {
		a.logger.Info("operation queued", "kind", op.Kind, "correlation_id", op.CorrelationID)
		if online {
			if err := a.Drain(ctx); err != nil {
				a.logger.Warn("drain queue", "error", err)
			}
		}
		return nil
	}

	l, err := a.api.Apply(ctx, op)
	settled := true
	switch {
	case err == nil:
		a.confirm(entry, l)
	case errors.Is(err, ErrTransient):
		a.requeue(entry)
		a.logger.Warn("operation queued after failure", "kind", op.Kind, "correlation_id", op.CorrelationID, "error", err)
		settled, err = false, nil
	default:
		a.rollback(entry)
		a.logger.Info("operation rolled back", "kind", op.Kind, "correlation_id", op.CorrelationID, "error", err)
	}
	a.finish(ctx)

	// Operations queued behind this one go out now that it settled.
	if settled && ctx.Err() == nil {
		a.mu.Lock()
		more := a.online && a.hasQueued()
		a.mu.Unlock()
		if more {
			if derr := a.Drain(ctx); derr != nil {
				a.logger.Warn("drain queue", "error", derr)
			}
		}
	}
	return err
}

// SetOnline records connectivity. Going online drains the queue.
func (a *Agent) SetOnline(ctx context.Context, online bool) error {
	a.mu.Lock()
	a.online = online
	a.mu.Unlock()
	if !online {
		return nil
	}
	return a.Drain(ctx)
}

// Drain replays queued operations in enqueue order. A failed replay stops the drain and is
// returned, so each drain counts at most one failure against an operation. An operation that
// has failed maxRetries times is dropped and counted by Unsynced; when it was rejected rather
// than cut off, the drain goes on with the next one. Drain stops at an operation still in
// flight; that operation's sender resumes the drain once it settles.
func (a *Agent) Drain(ctx context.Context) error {
	a.drainMu.Lock()
	defer a.drainMu.Unlock()

	for {
		a.mu.Lock()
		if !a.online {
			a.mu.Unlock()
			return nil
		}
		entry := a.nextQueued()
		if entry == nil {
			a.mu.Unlock()
			return nil
		}
		a.inflight++
		a.mu.Unlock()

		l, err := a.api.Apply(ctx, entry.Op)
		if err == nil {
			a.confirm(entry, l)
			a.finish(ctx)
			continue
		}
		if ctx.Err() != nil {
			a.finish(ctx)
			return ctx.Err()
		}

		evicted := a.fail(entry, err)
		a.finish(ctx)
		if !evicted || errors.Is(err, ErrTransient) {
			return err
		}
	}
}

// Sync drains the queue and reloads the list.
func (a *Agent) Sync(ctx context.Context) error {
	if err := a.Drain(ctx); err != nil {
		return fmt.Errorf("drain queue: %w", err)
	}
	return a.Refresh(ctx)
}

// HandlePush consumes a change notification. Notifications no newer than the applied state
// are ignored. While operations are in flight only the freshest timestamp is remembered and
// the list is reloaded once they settle.
func (a *Agent) HandlePush(ctx context.Context, ev hub.Event) error {
	a.mu.Lock()
	if !ev.UpdatedAt.After(a.lastApplied) {
		a.mu.Unlock()
		a.logger.Debug("stale push ignored", "updated_at", ev.UpdatedAt)
		return nil
	}
	if a.inflight > 0 {
		if ev.UpdatedAt.After(a.deferred) {
			a.deferred = ev.UpdatedAt
		}
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()
	return a.Refresh(ctx)
}

// Refresh reloads the list from the server and adopts it if it is newer than what the
// agent holds.
func (a *Agent) Refresh(ctx context.Context) error {
	l, err := a.api.ReadList(ctx, a.listID)
	if err != nil {
		return fmt.Errorf("refresh list: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight > 0 {
		if l.UpdatedAt.After(a.deferred) {
			a.deferred = l.UpdatedAt
		}
		return nil
	}
	a.adopt(l)
	return nil
}

func (a *Agent) hasQueued() bool {
	return slices.ContainsFunc(a.pending, func(e *QueueEntry) bool { return e.Queued })
}

// nextQueued returns the oldest pending entry if it waits for replay. Callers hold a.mu.
func (a *Agent) nextQueued() *QueueEntry {
	if len(a.pending) == 0 || !a.pending[0].Queued {
		return nil
	}
	return a.pending[0]
}

func (a *Agent) removePending(entry *QueueEntry) {
	a.pending = slices.DeleteFunc(a.pending, func(e *QueueEntry) bool { return e == entry })
	if err := a.store.RemoveEntry(entry); err != nil {
		a.logger.Error("remove queue entry", "error", err)
	}
}

func (a *Agent) confirm(entry *QueueEntry, l *model.List) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removePending(entry)
	a.adopt(l)
}

func (a *Agent) rollback(entry *QueueEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removePending(entry)
}

func (a *Agent) requeue(entry *QueueEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry.Queued = true
	if err := a.store.UpdateEntry(entry); err != nil {
		a.logger.Error("requeue operation", "error", err)
	}
}

// fail records a failed replay and reports whether the entry was dropped.
func (a *Agent) fail(entry *QueueEntry, cause error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry.Retries++
	if entry.Retries < maxRetries {
		if err := a.store.UpdateEntry(entry); err != nil {
			a.logger.Error("update queue entry", "error", err)
		}
		a.logger.Warn("replay failed", "kind", entry.Op.Kind, "correlation_id", entry.CorrelationID, "retries", entry.Retries, "error", cause)
		return false
	}

	a.removePending(entry)
	a.unsynced++
	a.persist()
	a.logger.Error("operation dropped", "kind", entry.Op.Kind, "correlation_id", entry.CorrelationID, "error", cause)
	return true
}

// finish closes an attempt and reloads the list if a push was deferred past the state the
// agent now holds.
func (a *Agent) finish(ctx context.Context) {
	a.mu.Lock()
	a.inflight--
	refresh := a.inflight == 0 && a.deferred.After(a.lastApplied)
	if a.inflight == 0 {
		a.deferred = time.Time{}
	}
	a.mu.Unlock()

	if refresh {
		if err := a.Refresh(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("apply deferred push", "error", err)
		}
	}
}

// adopt replaces the confirmed state with l unless the agent already holds a newer one.
// Callers hold a.mu.
func (a *Agent) adopt(l *model.List) {
	if l == nil || l.UpdatedAt.Before(a.lastApplied) {
		return
	}
	a.base = *l
	a.lastApplied = l.UpdatedAt
	a.persist()
}

func (a *Agent) persist() {
	snap := &Snapshot{ListID: a.listID, List: a.base, LastApplied: a.lastApplied, Unsynced: a.unsynced}
	if err := a.store.SaveSnapshot(snap); err != nil {
		a.logger.Error("save snapshot", "error", err)
	}
}
