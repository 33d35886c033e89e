package syncclient

// SyncState tells whether a value shown to the user is confirmed by the server.
type SyncState int

const (
	Clean SyncState = iota
	// Pending values carry a local change not yet acknowledged.
	Pending
	// Failed values carry a local change whose delivery failed at least once and is queued
	// for another attempt.
	Failed
)

func (s SyncState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	}
	return "clean"
}

// Tracked pairs a value with its sync state. Sync bookkeeping lives here, never in the
// domain value itself.
type Tracked[T any] struct {
	Value T
	State SyncState
}
