package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/connstate"
	transporthttp "github.com/clad-sovereign/clad-dashboard/internal/pkg/transport/http"
)

type client struct {
	baseURL string
	http    *retryablehttp.Client
	state   *connstate.Cell
}

var _ Store = (*client)(nil)

// New builds an HTTP-backed Store talking to the coordination service at
// baseURL. Transport options are forwarded to the underlying client; with no
// options requests time out after 10 seconds and are never retried.
func New(baseURL string, opts ...transporthttp.Option) Store {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    transporthttp.NewClient(opts...),
		state:   connstate.New(),
	}
}

func (c *client) StateCell() *connstate.Cell {
	return c.state
}

func (c *client) CheckHealth(ctx context.Context) error {
	c.state.Set(connstate.Connecting)

	if _, err := doJSON[struct{}](ctx, c, stdhttp.MethodGet, "/health", nil); err != nil {
		c.state.SetError(err)
		return err
	}

	c.state.Set(connstate.Connected)
	return nil
}

func (c *client) ListCallRecords(ctx context.Context) ([]CallRecord, error) {
	return doJSON[[]CallRecord](ctx, c, stdhttp.MethodGet, "/call-records", nil)
}

func (c *client) GetCallRecord(ctx context.Context, hash string) (CallRecord, error) {
	return doJSON[CallRecord](ctx, c, stdhttp.MethodGet, "/call-records/"+url.PathEscape(hash), nil)
}

func (c *client) CreateCallRecord(ctx context.Context, record CallRecord) (CallRecord, error) {
	return doJSON[CallRecord](ctx, c, stdhttp.MethodPost, "/call-records", record)
}

func (c *client) ListAccounts(ctx context.Context) ([]AccountRecord, error) {
	return doJSON[[]AccountRecord](ctx, c, stdhttp.MethodGet, "/accounts", nil)
}

func (c *client) GetAccount(ctx context.Context, address string) (AccountRecord, error) {
	return doJSON[AccountRecord](ctx, c, stdhttp.MethodGet, "/accounts/"+url.PathEscape(address), nil)
}

func (c *client) CreateAccount(ctx context.Context, record AccountRecord) (AccountRecord, error) {
	return doJSON[AccountRecord](ctx, c, stdhttp.MethodPost, "/accounts", record)
}

func (c *client) UpdateAccount(ctx context.Context, record AccountRecord) (AccountRecord, error) {
	return doJSON[AccountRecord](ctx, c, stdhttp.MethodPut, "/accounts/"+url.PathEscape(record.Address), record)
}

func (c *client) AdminMultisig(ctx context.Context) (MultisigConfig, error) {
	return doJSON[MultisigConfig](ctx, c, stdhttp.MethodGet, "/admin/multisig", nil)
}

// doJSON issues one request and decodes the response envelope. Every failure
// path comes back as a *Error with a FailureKind, never a raw transport or
// decode error.
func doJSON[T any](ctx context.Context, c *client, method, path string, body any) (T, error) {
	var zero T

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, &Error{Kind: FailureValidation, Message: "encoding request body: " + err.Error()}
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return zero, &Error{Kind: FailureValidation, Message: "building request: " + err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return zero, classifyTransportError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return zero, classifyTransportError(err)
	}

	if res.StatusCode != stdhttp.StatusOK && res.StatusCode != stdhttp.StatusCreated {
		return zero, classifyStatus(res.StatusCode, envelopeMessage(raw))
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, &Error{Kind: FailureUnknown, Status: res.StatusCode, Message: "decoding response: " + err.Error()}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return zero, &Error{Kind: FailureServer, Status: res.StatusCode, Message: msg}
	}

	return env.Data, nil
}

func classifyStatus(status int, message string) *Error {
	kind := FailureUnknown
	switch {
	case status == stdhttp.StatusNotFound:
		kind = FailureNotFound
	case status >= 500:
		kind = FailureServer
	case status >= 400:
		kind = FailureValidation
	}
	if message == "" {
		message = stdhttp.StatusText(status)
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

func classifyTransportError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: FailureTimeout, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: FailureUnknown, Message: err.Error()}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: FailureTimeout, Message: err.Error()}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: FailureNetwork, Message: err.Error()}
	}

	return &Error{Kind: FailureNetwork, Message: err.Error()}
}

// envelopeMessage pulls the error string out of a failure envelope, if the
// body happens to carry one.
func envelopeMessage(raw []byte) string {
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Error
}
