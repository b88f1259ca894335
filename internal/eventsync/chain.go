package eventsync

import (
	"context"
	"time"
)

// Head is one new-block-header notification. Heights arrive in increasing
// order on a single subscription, but the synchronizer never relies on that
// being the only source of events: backfill and live results are merged by
// content identity, not arrival order.
type Head struct {
	Height uint64
	Hash   string
	Err    error // set when the subscription itself reported a failure
}

// ChainSource is the chain-facing port of the event synchronizer. The
// implementation reads through the live connection handle and must return an
// error (rather than blocking or panicking) when the connection has gone away
// between calls.
type ChainSource interface {
	// GenesisHash returns the identity of the connected chain.
	GenesisHash(ctx context.Context) (string, error)

	// LatestHeight returns the height of the newest known block.
	LatestHeight(ctx context.Context) (uint64, error)

	// BlockHash resolves the hash of the block at the given height.
	BlockHash(ctx context.Context, height uint64) (string, error)

	// LedgerEvents extracts the ledger-relevant events recorded in the block.
	// BlockNumber, BlockHash, Kind, and Payload are populated; ID and
	// Timestamp are assigned by the synchronizer.
	LedgerEvents(ctx context.Context, height uint64, blockHash string) ([]Event, error)

	// BlockTimestamp resolves the block's timestamp from its side channel.
	// ok is false when the chain does not record one for this block.
	BlockTimestamp(ctx context.Context, blockHash string) (ts time.Time, ok bool, err error)

	// SubscribeNewHeads streams new block headers until the context is
	// canceled or stop is called. The channel closes when the stream ends.
	SubscribeNewHeads(ctx context.Context) (heads <-chan Head, stop func(), err error)
}
