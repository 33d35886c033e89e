package syncclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/json"
	"github.com/asdine/storm/v3/q"

	"github.com/dukerupert/shoplist/internal/model"
)

// Snapshot is the last server-confirmed state of a list.
type Snapshot struct {
	ListID      int64      `storm:"id"`
	List        model.List `json:"list"`
	LastApplied time.Time  `json:"lastApplied"`
	Unsynced    int        `json:"unsynced"`
}

// QueueEntry is a durable record of an operation the server has not confirmed yet.
// Entries are replayed in ID order.
type QueueEntry struct {
	ID            int       `storm:"id,increment"`
	CorrelationID string    `storm:"unique"`
	ListID        int64     `storm:"index"`
	Op            Operation `json:"op"`
	// Queued is set once the entry waits for replay rather than a live attempt.
	Queued    bool      `json:"queued"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"createdAt"`
}

// LocalStore persists snapshots and the operation queue in a bolt file.
type LocalStore struct {
	db *storm.DB
}

// OpenLocalStore opens (or creates) the cache file at path.
func OpenLocalStore(path string) (*LocalStore, error) {
	db, err := storm.Open(path, storm.Codec(json.Codec))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.Init(&Snapshot{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot index: %w", err)
	}
	if err := db.Init(&QueueEntry{}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init queue index: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Snapshot returns the stored snapshot of the list, or nil.
func (s *LocalStore) Snapshot(listID int64) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.One("ListID", listID, &snap)
	if errors.Is(err, storm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &snap, nil
}

func (s *LocalStore) SaveSnapshot(snap *Snapshot) error {
	if err := s.db.Save(snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Enqueue stores e and assigns its ID.
func (s *LocalStore) Enqueue(e *QueueEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if err := s.db.Save(e); err != nil {
		return fmt.Errorf("enqueue %s: %w", e.CorrelationID, err)
	}
	return nil
}

func (s *LocalStore) UpdateEntry(e *QueueEntry) error {
	if err := s.db.Save(e); err != nil {
		return fmt.Errorf("update queue entry %d: %w", e.ID, err)
	}
	return nil
}

func (s *LocalStore) RemoveEntry(e *QueueEntry) error {
	err := s.db.DeleteStruct(e)
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return fmt.Errorf("remove queue entry %d: %w", e.ID, err)
	}
	return nil
}

// Entries returns the list's queue in enqueue order.
func (s *LocalStore) Entries(listID int64) ([]QueueEntry, error) {
	var entries []QueueEntry
	err := s.db.Select(q.Eq("ListID", listID)).OrderBy("ID").Find(&entries)
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return entries, nil
}
