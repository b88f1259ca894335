package nodeconn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/connstate"
)

type fakeHandle struct {
	genesis string

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newFakeHandle(genesis string) *fakeHandle {
	return &fakeHandle{genesis: genesis, done: make(chan struct{})}
}

func (h *fakeHandle) GenesisHash() string { return h.genesis }

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	return nil
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type fakeDialer struct {
	mu    sync.Mutex
	dials int
	err   error

	// gate, when set, blocks every dial until released.
	gate chan struct{}

	lastHandle *fakeHandle
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (Handle, error) {
	d.mu.Lock()
	d.dials++
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	d.lastHandle = newFakeHandle("0xgenesis")
	return d.lastHandle, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func TestConnect(t *testing.T) {
	t.Run("should connect and broadcast the connected state", func(t *testing.T) {
		svc := New(&fakeDialer{})

		handle, err := svc.Connect(t.Context(), "ws://node")
		require.NoError(t, err)
		require.NotNil(t, handle)

		assert.Equal(t, connstate.Connected, svc.StateCell().Current().State)
		assert.Equal(t, "ws://node", svc.Endpoint())
		assert.Same(t, handle, svc.HandleOrNil())
	})

	t.Run("should share a single dial between concurrent callers", func(t *testing.T) {
		dialer := &fakeDialer{gate: make(chan struct{})}
		svc := New(dialer)

		type result struct {
			handle Handle
			err    error
		}
		results := make(chan result, 2)
		for i := 0; i < 2; i++ {
			go func() {
				handle, err := svc.Connect(t.Context(), "ws://node")
				results <- result{handle, err}
			}()
		}

		require.Eventually(t, func() bool {
			return dialer.dialCount() == 1
		}, time.Second, 5*time.Millisecond)
		close(dialer.gate)

		first := <-results
		second := <-results
		require.NoError(t, first.err)
		require.NoError(t, second.err)
		assert.Same(t, first.handle, second.handle)
		assert.Equal(t, 1, dialer.dialCount())
	})

	t.Run("should return the live handle for a repeat connect to the same endpoint", func(t *testing.T) {
		dialer := &fakeDialer{}
		svc := New(dialer)

		first, err := svc.Connect(t.Context(), "ws://node")
		require.NoError(t, err)
		second, err := svc.Connect(t.Context(), "ws://node")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, dialer.dialCount())
	})

	t.Run("should refuse a different endpoint while connected", func(t *testing.T) {
		svc := New(&fakeDialer{})

		_, err := svc.Connect(t.Context(), "ws://node-a")
		require.NoError(t, err)

		_, err = svc.Connect(t.Context(), "ws://node-b")
		assert.ErrorIs(t, err, ErrAlreadyConnected)
	})

	t.Run("should classify a dial failure and broadcast it", func(t *testing.T) {
		dialer := &fakeDialer{err: errors.New("connection refused")}
		svc := New(dialer)

		_, err := svc.Connect(t.Context(), "ws://node")

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, KindNetwork, connErr.Kind)

		status := svc.StateCell().Current()
		assert.Equal(t, connstate.Failed, status.State)
		assert.NotEmpty(t, status.Err)
		assert.Nil(t, svc.HandleOrNil())
	})

	t.Run("should allow a fresh connect after a failure", func(t *testing.T) {
		dialer := &fakeDialer{err: errors.New("connection refused")}
		svc := New(dialer)

		_, err := svc.Connect(t.Context(), "ws://node")
		require.Error(t, err)

		dialer.mu.Lock()
		dialer.err = nil
		dialer.mu.Unlock()

		handle, err := svc.Connect(t.Context(), "ws://node")
		require.NoError(t, err)
		assert.NotNil(t, handle)
	})

	t.Run("should time out the caller without aborting the shared attempt", func(t *testing.T) {
		dialer := &fakeDialer{gate: make(chan struct{})}
		svc := New(dialer)

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, err := svc.Connect(ctx, "ws://node")

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, KindTimeout, connErr.Kind)

		close(dialer.gate)
		require.Eventually(t, func() bool {
			return svc.HandleOrNil() != nil
		}, time.Second, 5*time.Millisecond)
	})
}

func TestDisconnect(t *testing.T) {
	t.Run("should close the handle and broadcast disconnected", func(t *testing.T) {
		dialer := &fakeDialer{}
		svc := New(dialer)

		_, err := svc.Connect(t.Context(), "ws://node")
		require.NoError(t, err)

		svc.Disconnect()

		assert.Nil(t, svc.HandleOrNil())
		assert.Empty(t, svc.Endpoint())
		assert.True(t, dialer.lastHandle.isClosed())
		assert.Equal(t, connstate.Disconnected, svc.StateCell().Current().State)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		svc := New(&fakeDialer{})

		svc.Disconnect()
		svc.Disconnect()

		assert.Equal(t, connstate.Disconnected, svc.StateCell().Current().State)
	})
}

func TestTransportLoss(t *testing.T) {
	t.Run("should clear the handle and broadcast an error", func(t *testing.T) {
		dialer := &fakeDialer{}
		svc := New(dialer)

		_, err := svc.Connect(t.Context(), "ws://node")
		require.NoError(t, err)

		_ = dialer.lastHandle.Close()

		require.Eventually(t, func() bool {
			return svc.HandleOrNil() == nil
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, connstate.Failed, svc.StateCell().Current().State)
	})
}

func TestTestConnection(t *testing.T) {
	t.Run("should probe without touching the shared state", func(t *testing.T) {
		dialer := &fakeDialer{}
		svc := New(dialer)

		err := svc.TestConnection(t.Context(), "ws://candidate", time.Second)
		require.NoError(t, err)

		assert.Equal(t, 1, dialer.dialCount())
		assert.True(t, dialer.lastHandle.isClosed())
		assert.Nil(t, svc.HandleOrNil())
		assert.Equal(t, connstate.Disconnected, svc.StateCell().Current().State)
	})

	t.Run("should classify an unreachable endpoint", func(t *testing.T) {
		dialer := &fakeDialer{err: errors.New("no route to host")}
		svc := New(dialer)

		err := svc.TestConnection(t.Context(), "ws://candidate", time.Second)

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, KindNetwork, connErr.Kind)
		assert.Equal(t, connstate.Disconnected, svc.StateCell().Current().State)
	})
}
