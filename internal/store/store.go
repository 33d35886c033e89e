package store

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrConflict is returned by ListStore.Save when the list changed since it was read.
	ErrConflict = errors.New("list was modified concurrently")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

type scanner interface{ Scan(...any) error }

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nextUpdate returns a timestamp strictly after prev, at ms precision.
func nextUpdate(now time.Time, prev int64) int64 {
	ms := toMillis(now)
	if ms <= prev {
		ms = prev + 1
	}
	return ms
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
