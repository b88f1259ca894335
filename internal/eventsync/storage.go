package eventsync

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by LoadSnapshot when no event log has been
// persisted yet.
var ErrNoSnapshot = errors.New("no event log snapshot found")

// LogStorage persists the bounded event log between sessions. The
// synchronizer is the sole owner of this data; no other component reads or
// writes it.
type LogStorage interface {
	// LoadSnapshot returns the persisted event log, or ErrNoSnapshot when
	// none exists.
	LoadSnapshot(ctx context.Context) (Snapshot, error)

	// SaveSnapshot replaces the persisted event log wholesale. The write must
	// be atomic from the caller's perspective: a crash mid-save leaves either
	// the old or the new snapshot, never a torn one.
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error

	// ClearSnapshot removes the persisted event log entirely. Clearing an
	// absent snapshot is not an error.
	ClearSnapshot(ctx context.Context) error
}
