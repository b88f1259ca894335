// Package nodeconn owns the lifecycle of the single RPC connection to the
// chain node: connect, disconnect, state broadcast, and a side-effect-free
// probe for validating candidate endpoints. The live handle is a shared
// resource; only this package creates or destroys it.
package nodeconn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/connstate"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/logger"
)

// Service manages the node connection.
type Service interface {
	// Connect establishes a connection to the endpoint, or returns the live
	// handle when already connected to it. Concurrent calls while an attempt
	// is in flight await that attempt instead of starting a second one.
	// Connecting to a different endpoint while connected fails with
	// ErrAlreadyConnected; reconnection is an explicit Disconnect + Connect.
	Connect(ctx context.Context, endpoint string) (Handle, error)

	// Disconnect tears the connection down. Idempotent.
	Disconnect()

	// HandleOrNil returns the live handle only while connected, otherwise
	// nil. Callers treat nil as "not ready"; no error is thrown.
	HandleOrNil() Handle

	// StateCell exposes the observable connection state. Subscribers receive
	// the current status immediately and every transition afterwards.
	StateCell() *connstate.Cell

	// Endpoint returns the endpoint of the live or in-flight connection.
	Endpoint() string

	// TestConnection opens a throwaway transport-level connection to
	// validate reachability without touching the shared connection or its
	// broadcast state, cleaning up within the timeout regardless of outcome.
	TestConnection(ctx context.Context, endpoint string, timeout time.Duration) error
}

type service struct {
	dialer Dialer
	cell   *connstate.Cell

	mu       sync.Mutex
	handle   Handle
	endpoint string
	inflight *connectAttempt
}

// connectAttempt is a single-flight dial shared by concurrent Connect calls.
type connectAttempt struct {
	endpoint string
	done     chan struct{}
	handle   Handle
	err      error
}

var _ Service = (*service)(nil)

// New creates a connection manager over the given dialer.
func New(dialer Dialer) *service {
	return &service{
		dialer: dialer,
		cell:   connstate.New(),
	}
}

func (s *service) StateCell() *connstate.Cell {
	return s.cell
}

func (s *service) HandleOrNil() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *service) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

func (s *service) Connect(ctx context.Context, endpoint string) (Handle, error) {
	s.mu.Lock()

	if s.handle != nil {
		handle, current := s.handle, s.endpoint
		s.mu.Unlock()
		if current == endpoint {
			return handle, nil
		}
		return nil, ErrAlreadyConnected
	}

	if attempt := s.inflight; attempt != nil {
		s.mu.Unlock()
		return awaitAttempt(ctx, attempt)
	}

	attempt := &connectAttempt{endpoint: endpoint, done: make(chan struct{})}
	s.inflight = attempt
	s.endpoint = endpoint
	s.mu.Unlock()

	s.cell.Set(connstate.Connecting)
	// The dial is shared by every caller of the single flight, so it must
	// outlive the first caller's context.
	go s.dial(context.WithoutCancel(ctx), attempt)

	return awaitAttempt(ctx, attempt)
}

// dial performs the underlying connection attempt and publishes its outcome
// to every caller awaiting the single flight.
func (s *service) dial(ctx context.Context, attempt *connectAttempt) {
	handle, err := s.dialer.Dial(ctx, attempt.endpoint)

	s.mu.Lock()
	s.inflight = nil
	if err != nil {
		connErr := classifyDialError(err)
		attempt.err = connErr
		s.endpoint = ""
		s.mu.Unlock()

		s.cell.SetError(connErr)
		close(attempt.done)
		return
	}

	s.handle = handle
	attempt.handle = handle
	s.mu.Unlock()

	s.cell.Set(connstate.Connected)
	go s.watchTransportLoss(handle)
	close(attempt.done)
}

// awaitAttempt blocks until the shared attempt resolves or the caller's
// context ends. The attempt itself keeps running for the other callers.
func awaitAttempt(ctx context.Context, attempt *connectAttempt) (Handle, error) {
	select {
	case <-ctx.Done():
		return nil, &ConnectionError{Kind: KindTimeout, Err: ctx.Err()}
	case <-attempt.done:
		return attempt.handle, attempt.err
	}
}

// watchTransportLoss clears the shared handle when its transport drops out
// from under us, so state subscribers see the loss without polling.
func (s *service) watchTransportLoss(handle Handle) {
	<-handle.Done()

	s.mu.Lock()
	lost := s.handle == handle
	if lost {
		s.handle = nil
		s.endpoint = ""
	}
	s.mu.Unlock()

	if lost {
		logger.Warn(context.Background(), "node connection lost")
		s.cell.SetError(errors.New("connection to node lost"))
	}
}

func (s *service) Disconnect() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.endpoint = ""
	s.mu.Unlock()

	if handle != nil {
		if err := handle.Close(); err != nil {
			logger.Warn(context.Background(), "error closing node connection", "error", err)
		}
	}

	if s.cell.Current().State != connstate.Disconnected {
		s.cell.Set(connstate.Disconnected)
	}
}

func (s *service) TestConnection(ctx context.Context, endpoint string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handle, err := s.dialer.Dial(ctx, endpoint)
	if err != nil {
		return classifyDialError(err)
	}

	_ = handle.Close()
	return nil
}
