// Package eventsync maintains the bounded, deduplicated ledger event log. It
// follows the node connection through an idle -> backfilling -> live state
// machine: on connect it reconciles the persisted snapshot with the most
// recent blocks, then tails new heads, merging everything by content identity
// so final state is independent of the order results arrive in.
package eventsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/connstate"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/logger"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/resilience/retry"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/x/chflow"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// State enumerates the synchronizer's phases.
type State int

const (
	// Idle: no usable connection; nothing is being synchronized.
	Idle State = iota

	// Backfilling: reconciling the persisted log with recent blocks.
	Backfilling

	// Live: tailing new block headers.
	Live
)

// String returns the lowercase display name of the state.
func (s State) String() string {
	switch s {
	case Backfilling:
		return "backfilling"
	case Live:
		return "live"
	default:
		return "idle"
	}
}

// defaultBackfillDepth is how many most-recent blocks are scanned on entry to
// the backfilling phase.
const defaultBackfillDepth = 50

// backfillWorkers bounds how many blocks are fetched concurrently during the
// backfilling phase, keeping the request pressure on the node flat no matter
// how deep the scan is.
const backfillWorkers = 8

// UpdateHandler observes every change to the in-memory event log. It is
// invoked inside the log's critical section; keep it fast.
type UpdateHandler func(ctx context.Context, events []Event)

// Service drives the event log's lifecycle.
type Service interface {
	// Start begins following the node connection state. It returns
	// ErrServiceAlreadyStarted on a second call. Call Close to stop.
	Start(ctx context.Context) error

	// Close cancels the active session and stops following the connection.
	// Safe to call even if the service was never started.
	Close()

	// State reports the current phase.
	State() State

	// Events returns a copy of the current in-memory event log,
	// newest-first.
	Events() []Event
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	chain   ChainSource
	storage LogStorage
	conn    *connstate.Cell

	backfillDepth uint64
	retentionCap  int
	retry         retry.Retry
	onUpdate      UpdateHandler

	stateMu sync.Mutex
	state   State

	// logMu serializes every event-log mutation and the snapshot persistence
	// that follows it, so overlapping block-processing tasks cannot lose
	// updates through interleaved last-write-wins saves.
	logMu   sync.Mutex
	genesis string
	events  []Event

	sessionMu     sync.Mutex
	sessionCancel context.CancelFunc
	sessionToken  *struct{}
}

var _ Service = (*service)(nil)

type config struct {
	backfillDepth uint64
	retentionCap  int
	retry         retry.Retry
	onUpdate      UpdateHandler
}

// Option configures the synchronizer.
type Option func(*config)

// WithBackfillDepth overrides how many recent blocks the backfill pass scans.
func WithBackfillDepth(depth uint64) Option {
	return func(c *config) {
		c.backfillDepth = depth
	}
}

// WithRetentionCap overrides the event log bound. Intended for tests.
func WithRetentionCap(cap int) Option {
	return func(c *config) {
		c.retentionCap = cap
	}
}

// WithRetry applies a retry policy to per-block fetches during backfill. By
// default nothing is retried; failures surface immediately and the block is
// skipped.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithUpdateHandler registers a callback observing every event-log change.
func WithUpdateHandler(f UpdateHandler) Option {
	return func(c *config) {
		c.onUpdate = f
	}
}

// New creates an event synchronizer bound to the given chain source, log
// storage, and node connection state cell.
func New(chain ChainSource, storage LogStorage, conn *connstate.Cell, opts ...Option) *service {
	cfg := config{
		backfillDepth: defaultBackfillDepth,
		retentionCap:  RetentionCap,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		chain:         chain,
		storage:       storage,
		conn:          conn,
		backfillDepth: cfg.backfillDepth,
		retentionCap:  cfg.retentionCap,
		retry:         cfg.retry,
		onUpdate:      cfg.onUpdate,
	}
}

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	unsubscribe := s.conn.Subscribe(func(status connstate.Status) {
		s.handleConnStatus(ctx, status)
	})

	s.closeFunc = func() {
		unsubscribe()
		s.stopSession()
		cancel()
	}
	s.isStarted = true
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.closeFunc = nil
	s.isStarted = false
}

func (s *service) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *service) Events() []Event {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *service) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// handleConnStatus starts a sync session when the connection comes up and
// tears it down on any other transition. Dangling listeners from a prior
// connection are fenced twice: the session context is canceled here, and
// applyEvents re-validates the session's genesis hash before accepting any
// async result.
func (s *service) handleConnStatus(ctx context.Context, status connstate.Status) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if status.State == connstate.Connected {
		if s.sessionCancel != nil {
			return
		}

		sessionCtx, cancel := context.WithCancel(ctx)
		token := &struct{}{}
		s.sessionCancel = cancel
		s.sessionToken = token
		go func() {
			defer s.clearSession(token)
			s.runSession(sessionCtx)
		}()
		return
	}

	if s.sessionCancel != nil {
		s.sessionCancel()
		s.sessionCancel = nil
		s.sessionToken = nil
		s.setState(Idle)
	}
}

func (s *service) stopSession() {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if s.sessionCancel != nil {
		s.sessionCancel()
		s.sessionCancel = nil
		s.sessionToken = nil
	}
	s.setState(Idle)
}

// clearSession releases the session slot, but only if it still belongs to the
// session identified by token. A session that ended after being replaced must
// not clear its successor's slot.
func (s *service) clearSession(token *struct{}) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if s.sessionToken == token {
		s.sessionCancel = nil
		s.sessionToken = nil
	}
}

// runSession executes one connected lifetime: validate persisted state
// against the chain's genesis, backfill recent blocks, then tail new heads.
func (s *service) runSession(ctx context.Context) {
	s.setState(Backfilling)

	genesis, err := s.chain.GenesisHash(ctx)
	if err != nil {
		logger.Error(ctx, "event sync could not resolve genesis hash", "error", err)
		s.setState(Idle)
		return
	}

	persisted := s.loadPersisted(ctx, genesis)

	s.logMu.Lock()
	s.genesis = genesis
	s.events = Merge(persisted, nil, s.retentionCap)
	s.logMu.Unlock()

	timestamps := newTimestampCache()
	s.backfill(ctx, genesis, timestamps)
	if ctx.Err() != nil {
		return
	}

	s.runLive(ctx, genesis, timestamps)
}

// loadPersisted returns the persisted event log when it belongs to the
// connected chain. A genesis mismatch wipes the stored snapshot wholesale so
// state from one chain can never leak into a session on another.
func (s *service) loadPersisted(ctx context.Context, genesis string) []Event {
	snapshot, err := s.storage.LoadSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			logger.Warn(ctx, "persisted event log unreadable, starting empty", "error", err)
		}
		return nil
	}

	if snapshot.GenesisHash != genesis {
		logger.Info(ctx, "persisted event log belongs to a different chain, wiping",
			"stored_genesis", snapshot.GenesisHash,
			"current_genesis", genesis,
		)
		if err := s.storage.ClearSnapshot(ctx); err != nil {
			logger.Warn(ctx, "failed to clear stale event log", "error", err)
		}
		return nil
	}

	return snapshot.Events
}

// backfill scans the most recent blocks in parallel, assigning event IDs and
// timestamps, and merges everything it finds into the log in one pass. A
// failure to even determine the chain head is reported but does not prevent
// falling through to the live phase.
func (s *service) backfill(ctx context.Context, genesis string, timestamps *timestampCache) {
	latest, err := s.chain.LatestHeight(ctx)
	if err != nil {
		logger.Warn(ctx, "backfill skipped: latest height unavailable", "error", err)
		s.applyEvents(ctx, genesis, nil)
		return
	}

	from := uint64(0)
	if latest >= s.backfillDepth {
		from = latest - s.backfillDepth + 1
	}

	var (
		wg        sync.WaitGroup
		heights   = make(chan uint64)
		collected []Event
		collectMu sync.Mutex
	)

	for i := 0; i < backfillWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for height := range heights {
				events, err := s.fetchBlockEvents(ctx, height, "", timestamps)
				if err != nil {
					logger.Warn(ctx, "block skipped during backfill", "height", height, "error", err)
					continue
				}

				collectMu.Lock()
				collected = append(collected, events...)
				collectMu.Unlock()
			}
		}()
	}

	for height := from; height <= latest; height++ {
		heights <- height
	}
	close(heights)
	wg.Wait()

	s.applyEvents(ctx, genesis, collected)
}

// runLive tails new block headers until the context is canceled or the
// stream ends. A single block's processing failure is logged and skipped; it
// never aborts the subscription.
func (s *service) runLive(ctx context.Context, genesis string, timestamps *timestampCache) {
	heads, stop, err := s.chain.SubscribeNewHeads(ctx)
	if err != nil {
		logger.Error(ctx, "event sync could not subscribe to new heads", "error", err)
		s.setState(Idle)
		return
	}
	defer stop()

	s.setState(Live)

	for {
		head, ok := chflow.Receive(ctx, heads)
		if !ok {
			if ctx.Err() == nil {
				logger.Warn(ctx, "new-head stream ended")
				s.setState(Idle)
			}
			return
		}

		if head.Err != nil {
			logger.Warn(ctx, "new-head notification failed, skipping", "error", head.Err)
			continue
		}

		events, err := s.fetchBlockEvents(ctx, head.Height, head.Hash, timestamps)
		if err != nil {
			logger.Warn(ctx, "block skipped during live sync", "height", head.Height, "error", err)
			continue
		}

		if len(events) > 0 {
			s.applyEvents(ctx, genesis, events)
		}
	}
}

// fetchBlockEvents extracts the ledger events of one block and finalizes
// them: content IDs are derived, and the block timestamp is resolved at most
// once per block hash via the shared cache. Blocks without ledger events do
// not touch the timestamp side channel at all.
func (s *service) fetchBlockEvents(ctx context.Context, height uint64, knownHash string, timestamps *timestampCache) ([]Event, error) {
	fetch := func() ([]Event, error) {
		hash := knownHash
		if hash == "" {
			var err error
			if hash, err = s.chain.BlockHash(ctx, height); err != nil {
				return nil, err
			}
		}

		events, err := s.chain.LedgerEvents(ctx, height, hash)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return nil, nil
		}

		ts := timestamps.resolve(ctx, hash, s.chain)

		for i := range events {
			events[i].ID = DeriveEventID(events[i].BlockHash, events[i].Kind, events[i].Payload)
			events[i].Timestamp = ts
		}
		return events, nil
	}

	if s.retry == nil {
		return fetch()
	}

	var events []Event
	errs := s.retry.Execute(ctx, func() error {
		var err error
		events, err = fetch()
		return err
	})
	if errs != nil {
		return nil, errors.Join(errs...)
	}
	return events, nil
}

// applyEvents merges newly observed events into the log and persists the
// result, all inside the single critical section that serializes event-log
// mutations. Results from a stale session (different genesis, or canceled
// context) are rejected.
func (s *service) applyEvents(ctx context.Context, genesis string, incoming []Event) {
	if ctx.Err() != nil {
		return
	}

	s.logMu.Lock()
	defer s.logMu.Unlock()

	if s.genesis != genesis {
		return
	}

	s.events = Merge(s.events, incoming, s.retentionCap)

	snapshot := Snapshot{
		GenesisHash: genesis,
		Events:      s.events,
		SavedAt:     time.Now().UTC(),
	}
	if err := s.storage.SaveSnapshot(ctx, snapshot); err != nil {
		logger.Error(ctx, "failed to persist event log snapshot", "error", err)
	}

	if s.onUpdate != nil {
		out := make([]Event, len(s.events))
		copy(out, s.events)
		s.onUpdate(ctx, out)
	}
}

// timestampCache deduplicates block timestamp lookups: each block hash is
// resolved at most once per session, shared across backfill and live tasks.
type timestampCache struct {
	mu      sync.Mutex
	entries map[string]*time.Time
}

func newTimestampCache() *timestampCache {
	return &timestampCache{entries: make(map[string]*time.Time)}
}

// resolve returns the cached timestamp for the block, fetching it on first
// use. Lookup failures are cached as nil: the timestamp is nullable and a
// block that failed once is not asked again within the session.
func (c *timestampCache) resolve(ctx context.Context, blockHash string, chain ChainSource) *time.Time {
	c.mu.Lock()
	if ts, ok := c.entries[blockHash]; ok {
		c.mu.Unlock()
		return ts
	}
	c.mu.Unlock()

	var ts *time.Time
	if when, ok, err := chain.BlockTimestamp(ctx, blockHash); err != nil {
		logger.Debug(ctx, "block timestamp unavailable", "block_hash", blockHash, "error", err)
	} else if ok {
		ts = &when
	}

	c.mu.Lock()
	if len(c.entries) > 4096 {
		c.entries = make(map[string]*time.Time)
	}
	c.entries[blockHash] = ts
	c.mu.Unlock()

	return ts
}
