package multisig

import (
	"context"
	"errors"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
)

// ErrMultisigUnsupported is returned when the connected chain has no multisig
// storage namespace at all. This is semantically different from an empty
// result: empty means no pending work, unsupported means the chain cannot
// have any.
var ErrMultisigUnsupported = errors.New("chain has no multisig pallet")

// StorageEntry is one raw entry enumerated from the chain's multisig storage
// map. Account and CallHash are decomposed from the storage key; Value is the
// entry's SCALE-encoded value, or nil when the optional wrapper was absent
// (absent values are skipped by the reconciler, they are not errors).
type StorageEntry struct {
	Account  string
	CallHash string
	Value    []byte
}

// PendingSource is the chain-facing port of the reconciler.
type PendingSource interface {
	// PendingEntries enumerates every entry under the multisig storage
	// namespace, optionally filtered to one multisig account address. It
	// returns ErrMultisigUnsupported when the namespace does not exist.
	PendingEntries(ctx context.Context, filterAccount string) ([]StorageEntry, error)

	// BlockTime resolves the timestamp of the block at the given height.
	// ok is false when the chain does not record one.
	BlockTime(ctx context.Context, height uint64) (ts time.Time, ok bool, err error)

	// SS58Prefix reports the network prefix for rendering account IDs as
	// addresses, as announced by the connected chain. Rendered depositor and
	// approver addresses must match the chain's own address format, so the
	// prefix is read per fetch rather than fixed at construction.
	SS58Prefix() uint8
}

// OperationResolver resolves the call payload filed under a call hash (e.g.
// from the coordination backend) into a decoded operation. ok is false when
// no payload is available, in which case the approval is shown as Unknown.
type OperationResolver func(ctx context.Context, callHash string) (op callcodec.DecodedOperation, ok bool)
