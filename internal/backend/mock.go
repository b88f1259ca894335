package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/connstate"
)

// mock is an in-memory Store used when no coordination service is deployed.
// It returns the same classified errors the HTTP client does, so callers
// cannot distinguish the two implementations.
type mock struct {
	latency time.Duration
	state   *connstate.Cell

	mu       sync.Mutex
	calls    map[string]CallRecord
	accounts map[string]AccountRecord
	multisig *MultisigConfig
	now      func() time.Time
}

var _ Store = (*mock)(nil)

// MockOption configures the in-memory store.
type MockOption func(*mock)

// WithMockLatency adds a fixed delay to every operation, approximating a
// remote round trip.
func WithMockLatency(d time.Duration) MockOption {
	return func(m *mock) {
		m.latency = d
	}
}

// WithMockMultisig seeds the admin multisig configuration.
func WithMockMultisig(cfg MultisigConfig) MockOption {
	return func(m *mock) {
		m.multisig = &cfg
	}
}

// NewMock builds an in-memory Store. Without options it responds instantly
// and holds no data.
func NewMock(opts ...MockOption) Store {
	m := &mock{
		state:    connstate.New(),
		calls:    make(map[string]CallRecord),
		accounts: make(map[string]AccountRecord),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *mock) StateCell() *connstate.Cell {
	return m.state
}

func (m *mock) CheckHealth(ctx context.Context) error {
	m.state.Set(connstate.Connecting)
	if err := m.wait(ctx); err != nil {
		m.state.SetError(err)
		return err
	}
	m.state.Set(connstate.Connected)
	return nil
}

func (m *mock) ListCallRecords(ctx context.Context) ([]CallRecord, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CallRecord, 0, len(m.calls))
	for _, r := range m.calls {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mock) GetCallRecord(ctx context.Context, hash string) (CallRecord, error) {
	if err := m.wait(ctx); err != nil {
		return CallRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.calls[hash]
	if !ok {
		return CallRecord{}, &Error{Kind: FailureNotFound, Status: 404, Message: "call record not found"}
	}
	return r, nil
}

func (m *mock) CreateCallRecord(ctx context.Context, record CallRecord) (CallRecord, error) {
	if err := m.wait(ctx); err != nil {
		return CallRecord{}, err
	}
	if record.Hash == "" || record.Payload == "" {
		return CallRecord{}, &Error{Kind: FailureValidation, Status: 400, Message: "hash and payload are required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.calls[record.Hash]; exists {
		return CallRecord{}, &Error{Kind: FailureValidation, Status: 409, Message: "call record already exists"}
	}
	record.CreatedAt = m.now().UTC()
	m.calls[record.Hash] = record
	return record, nil
}

func (m *mock) ListAccounts(ctx context.Context) ([]AccountRecord, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]AccountRecord, 0, len(m.accounts))
	for _, r := range m.accounts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (m *mock) GetAccount(ctx context.Context, address string) (AccountRecord, error) {
	if err := m.wait(ctx); err != nil {
		return AccountRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.accounts[address]
	if !ok {
		return AccountRecord{}, &Error{Kind: FailureNotFound, Status: 404, Message: "account not found"}
	}
	return r, nil
}

func (m *mock) CreateAccount(ctx context.Context, record AccountRecord) (AccountRecord, error) {
	if err := m.wait(ctx); err != nil {
		return AccountRecord{}, err
	}
	if record.Address == "" {
		return AccountRecord{}, &Error{Kind: FailureValidation, Status: 400, Message: "address is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[record.Address]; exists {
		return AccountRecord{}, &Error{Kind: FailureValidation, Status: 409, Message: "account already exists"}
	}
	now := m.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	m.accounts[record.Address] = record
	return record, nil
}

func (m *mock) UpdateAccount(ctx context.Context, record AccountRecord) (AccountRecord, error) {
	if err := m.wait(ctx); err != nil {
		return AccountRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[record.Address]
	if !ok {
		return AccountRecord{}, &Error{Kind: FailureNotFound, Status: 404, Message: "account not found"}
	}
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = m.now().UTC()
	m.accounts[record.Address] = record
	return record, nil
}

func (m *mock) AdminMultisig(ctx context.Context) (MultisigConfig, error) {
	if err := m.wait(ctx); err != nil {
		return MultisigConfig{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.multisig == nil {
		return MultisigConfig{}, &Error{Kind: FailureNotFound, Status: 404, Message: "multisig configuration not set"}
	}
	return *m.multisig, nil
}

// wait simulates the configured latency, honoring cancellation with the same
// classification a real request would produce.
func (m *mock) wait(ctx context.Context) error {
	if m.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return classifyTransportError(err)
		}
		return nil
	}

	timer := time.NewTimer(m.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return classifyTransportError(ctx.Err())
	}
}
