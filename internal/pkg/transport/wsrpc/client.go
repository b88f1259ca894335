// Package wsrpc provides a JSON-RPC 2.0 client over a persistent WebSocket
// connection. On top of plain request/response calls it supports
// subscription-based methods, where the server pushes notifications tagged
// with a subscription identifier until the client unsubscribes.
//
// It is suitable for any JSON-RPC service exposing a pub/sub surface, such
// as Substrate-style chain nodes.
package wsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrProviderReturnedError indicates that the remote JSON-RPC server
	// returned an error response.
	ErrProviderReturnedError = errors.New("provider error")

	// ErrMalformedEndpoint indicates the endpoint is not a valid ws:// or
	// wss:// URL.
	ErrMalformedEndpoint = errors.New("malformed endpoint")

	// ErrConnClosed indicates the underlying connection is gone. In-flight
	// calls and open subscriptions fail with this error when the transport
	// drops.
	ErrConnClosed = errors.New("connection closed")
)

// subscriptionBufferSize bounds each subscription's notification channel.
// When the consumer lags behind, the oldest buffered notification is dropped.
const subscriptionBufferSize = 32

// request is a JSON-RPC 2.0 request envelope.
type request struct {
	JsonRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// message is the union of every frame the server may send: call responses
// carry ID and Result/Error, notifications carry Method and Params.
type message struct {
	JsonRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
	Method string          `json:"method"`
	Params *struct {
		Subscription json.RawMessage `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// err returns an error if the message includes a JSON-RPC error object,
// wrapping ErrProviderReturnedError with the remote code and message.
func (m message) err() error {
	if m.Error == nil {
		return nil
	}

	return fmt.Errorf("%w: [%d] - %s", ErrProviderReturnedError, m.Error.Code, m.Error.Message)
}

// Subscription represents one active server-side subscription. Notifications
// arrive on C until Unsubscribe is called or the connection drops, at which
// point C is closed.
type Subscription struct {
	// ID is the server-assigned subscription identifier.
	ID string

	// C delivers the raw result payload of each notification.
	C <-chan json.RawMessage

	conn              *Conn
	ch                chan json.RawMessage
	unsubscribeMethod string
	once              sync.Once
}

// Unsubscribe tells the server to stop the subscription and releases local
// routing state. It is idempotent; only the first call issues the RPC.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.conn.dropSubscription(s.ID)
		err = s.conn.Call(ctx, nil, s.unsubscribeMethod, s.ID)
	})
	return err
}

// Conn is a live WebSocket JSON-RPC connection. It is safe for concurrent
// use; writes are serialized and responses are correlated by request ID.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex // serializes frames onto the socket

	mu      sync.Mutex
	pending map[string]chan message
	subs    map[string]*Subscription

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// Dial opens a WebSocket connection to the given ws:// or wss:// endpoint and
// starts the read loop. The context bounds the handshake only.
func Dial(ctx context.Context, endpoint string) (*Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedEndpoint, endpoint)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	conn := &Conn{
		ws:      ws,
		pending: make(map[string]chan message),
		subs:    make(map[string]*Subscription),
		closed:  make(chan struct{}),
	}
	go conn.readLoop()

	return conn, nil
}

// Closed returns a channel that is closed once the connection is gone, for
// callers that need to observe transport loss.
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// Close tears the connection down. It is idempotent. All in-flight calls and
// open subscriptions fail with ErrConnClosed.
func (c *Conn) Close() error {
	c.shutdown(ErrConnClosed)
	return nil
}

// Call sends a JSON-RPC request and waits for the matching response, the
// context deadline, or connection loss. When result is non-nil, the response
// payload is unmarshaled into it.
func (c *Conn) Call(ctx context.Context, result any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}

	id := uuid.NewString()
	respCh := make(chan message, 1)

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return ErrConnClosed
	default:
	}
	c.pending[id] = respCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.write(request{JsonRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrConnClosed
	case resp := <-respCh:
		if err := resp.err(); err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		return json.Unmarshal(resp.Result, result)
	}
}

// Subscribe issues subscribeMethod, registers the returned subscription ID,
// and routes every notification whose subscription tag matches onto the
// returned Subscription's channel. unsubscribeMethod is stored for later use
// by Subscription.Unsubscribe.
func (c *Conn) Subscribe(ctx context.Context, subscribeMethod, unsubscribeMethod string, params ...any) (*Subscription, error) {
	var rawID json.RawMessage
	if err := c.Call(ctx, &rawID, subscribeMethod, params...); err != nil {
		return nil, err
	}

	id := normalizeSubscriptionID(rawID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty subscription id for %s", ErrProviderReturnedError, subscribeMethod)
	}

	ch := make(chan json.RawMessage, subscriptionBufferSize)
	sub := &Subscription{
		ID:                id,
		C:                 ch,
		ch:                ch,
		conn:              c,
		unsubscribeMethod: unsubscribeMethod,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return nil, ErrConnClosed
	default:
	}
	c.subs[id] = sub

	return sub, nil
}

// write serializes one frame onto the socket.
func (c *Conn) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteJSON(v); err != nil {
		c.shutdown(fmt.Errorf("%w: %v", ErrConnClosed, err))
		return ErrConnClosed
	}
	return nil
}

// readLoop pulls frames off the socket and routes them until the transport
// fails or Close is called.
func (c *Conn) readLoop() {
	for {
		var msg message
		if err := c.ws.ReadJSON(&msg); err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrConnClosed, err))
			return
		}

		switch {
		case msg.ID != "":
			c.mu.Lock()
			respCh, ok := c.pending[msg.ID]
			c.mu.Unlock()
			if ok {
				respCh <- msg
			}

		case msg.Params != nil:
			c.routeNotification(msg)
		}
	}
}

// routeNotification delivers a subscription notification, dropping the oldest
// buffered entry when the consumer has fallen a full buffer behind.
func (c *Conn) routeNotification(msg message) {
	id := normalizeSubscriptionID(msg.Params.Subscription)

	c.mu.Lock()
	sub, ok := c.subs[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	for {
		select {
		case sub.ch <- msg.Params.Result:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

// dropSubscription removes local routing state and closes the channel.
func (c *Conn) dropSubscription(id string) {
	c.mu.Lock()
	sub, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	c.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

// shutdown closes the socket once and fails everything that is still waiting.
func (c *Conn) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.closeErr = cause
		close(c.closed)
		_ = c.ws.Close()

		c.mu.Lock()
		subs := c.subs
		c.subs = make(map[string]*Subscription)
		c.mu.Unlock()

		for _, sub := range subs {
			close(sub.ch)
		}
	})
}

// normalizeSubscriptionID accepts the subscription identifier as either a
// JSON string or a number and renders it canonically as a string.
func normalizeSubscriptionID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
