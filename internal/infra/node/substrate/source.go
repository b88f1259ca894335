package substrate

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/eventsync"
	"github.com/clad-sovereign/clad-dashboard/internal/multisig"
	"github.com/clad-sovereign/clad-dashboard/internal/nodeconn"
)

// ErrNotConnected is returned by every LiveSource read performed while no
// node connection is live.
var ErrNotConnected = errors.New("not connected to a node")

// LiveSource adapts the connection manager's current handle to the chain
// ports the core services consume. Every call re-resolves the handle, so a
// reconnect is picked up transparently and a dropped connection surfaces as
// ErrNotConnected instead of a stale read.
type LiveSource struct {
	nodes nodeconn.Service
}

var (
	_ eventsync.ChainSource  = (*LiveSource)(nil)
	_ multisig.PendingSource = (*LiveSource)(nil)
)

// NewLiveSource builds a source reading through the given connection manager.
func NewLiveSource(nodes nodeconn.Service) *LiveSource {
	return &LiveSource{nodes: nodes}
}

// node resolves the current connection.
func (s *LiveSource) node() (*Node, error) {
	handle := s.nodes.HandleOrNil()
	if handle == nil {
		return nil, ErrNotConnected
	}
	node, ok := handle.(*Node)
	if !ok {
		return nil, ErrNotConnected
	}
	return node, nil
}

// Profile returns the codec profile of the live connection, or nil when
// disconnected.
func (s *LiveSource) Profile() *callcodec.Profile {
	node, err := s.node()
	if err != nil {
		return nil
	}
	return node.Profile()
}

// SS58Prefix reports the address prefix of the live connection, falling back
// to the generic default when disconnected.
func (s *LiveSource) SS58Prefix() uint8 {
	if profile := s.Profile(); profile != nil {
		return profile.SS58Prefix
	}
	return callcodec.DefaultProfile().SS58Prefix
}

// Info returns the identity of the live connection.
func (s *LiveSource) Info() (ChainInfo, error) {
	node, err := s.node()
	if err != nil {
		return ChainInfo{}, err
	}
	return node.Info(), nil
}

func (s *LiveSource) GenesisHash(ctx context.Context) (string, error) {
	node, err := s.node()
	if err != nil {
		return "", err
	}
	return node.GenesisHash(), nil
}

func (s *LiveSource) LatestHeight(ctx context.Context) (uint64, error) {
	node, err := s.node()
	if err != nil {
		return 0, err
	}
	return node.LatestHeight(ctx)
}

func (s *LiveSource) BlockHash(ctx context.Context, height uint64) (string, error) {
	node, err := s.node()
	if err != nil {
		return "", err
	}
	return node.BlockHash(ctx, height)
}

func (s *LiveSource) LedgerEvents(ctx context.Context, height uint64, blockHash string) ([]eventsync.Event, error) {
	node, err := s.node()
	if err != nil {
		return nil, err
	}
	return node.LedgerEvents(ctx, height, blockHash)
}

func (s *LiveSource) BlockTimestamp(ctx context.Context, blockHash string) (time.Time, bool, error) {
	node, err := s.node()
	if err != nil {
		return time.Time{}, false, err
	}
	return node.BlockTimestamp(ctx, blockHash)
}

func (s *LiveSource) SubscribeNewHeads(ctx context.Context) (<-chan eventsync.Head, func(), error) {
	node, err := s.node()
	if err != nil {
		return nil, nil, err
	}
	return node.SubscribeNewHeads(ctx)
}

func (s *LiveSource) PendingEntries(ctx context.Context, filterAccount string) ([]multisig.StorageEntry, error) {
	node, err := s.node()
	if err != nil {
		return nil, err
	}
	return node.PendingEntries(ctx, filterAccount)
}

func (s *LiveSource) BlockTime(ctx context.Context, height uint64) (time.Time, bool, error) {
	node, err := s.node()
	if err != nil {
		return time.Time{}, false, err
	}
	return node.BlockTime(ctx, height)
}

// TokenBalance reads an account's ledger-token balance.
func (s *LiveSource) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	node, err := s.node()
	if err != nil {
		return nil, err
	}
	return node.TokenBalance(ctx, address)
}

// NativeBalance reads an account's free native-token balance.
func (s *LiveSource) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	node, err := s.node()
	if err != nil {
		return nil, err
	}
	return node.NativeBalance(ctx, address)
}
