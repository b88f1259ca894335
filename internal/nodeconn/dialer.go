package nodeconn

import (
	"context"
	"errors"
	"fmt"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/transport/wsrpc"
)

// ErrAlreadyConnected is returned when Connect is called with a different
// endpoint while a connection is live. There is no implicit migration:
// callers must Disconnect first, and dependent components re-subscribe after
// the new Connect.
var ErrAlreadyConnected = errors.New("already connected to a different endpoint; disconnect first")

// ErrorKind classifies connection failures.
type ErrorKind string

const (
	// KindNetwork: the endpoint was unreachable or the transport failed.
	KindNetwork ErrorKind = "network"

	// KindTimeout: the attempt exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindMalformedEndpoint: the endpoint is not a valid node URL.
	KindMalformedEndpoint ErrorKind = "malformed_endpoint"

	// KindUnknown: an unclassified failure.
	KindUnknown ErrorKind = "unknown"
)

// ConnectionError is a classified connection failure with a human-readable
// message.
type ConnectionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s error: %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// classifyDialError wraps a raw dial failure in its ConnectionError category.
func classifyDialError(err error) *ConnectionError {
	switch {
	case errors.Is(err, wsrpc.ErrMalformedEndpoint):
		return &ConnectionError{Kind: KindMalformedEndpoint, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ConnectionError{Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &ConnectionError{Kind: KindUnknown, Err: err}
	default:
		return &ConnectionError{Kind: KindNetwork, Err: err}
	}
}

// Handle is a live, ready-to-use node connection. Only the connection
// manager creates or destroys handles; every other component borrows one
// through HandleOrNil and must tolerate it becoming nil at any suspension
// point.
type Handle interface {
	// GenesisHash identifies the connected chain. Components guard async
	// results against it so a stale connection can never mutate
	// current-session state.
	GenesisHash() string

	// Done is closed when the underlying transport is lost.
	Done() <-chan struct{}

	// Close tears the connection down.
	Close() error
}

// Dialer establishes node connections. The production implementation lives
// in the substrate infra package; tests substitute fakes.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Handle, error)
}
