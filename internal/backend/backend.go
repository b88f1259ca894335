// Package backend is the client of the coordination service: the remote
// store holding call payloads and account metadata that the dashboard reads
// alongside chain state. It exposes uniform request primitives with a
// failure taxonomy shared across the whole core, plus an independent health
// state machine: the node connection and the backend connection are two
// separate systems and their states are never conflated.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/connstate"
)

// FailureKind classifies backend request failures.
type FailureKind string

const (
	FailureNetwork    FailureKind = "network"
	FailureTimeout    FailureKind = "timeout"
	FailureServer     FailureKind = "server"
	FailureValidation FailureKind = "validation"
	FailureNotFound   FailureKind = "not_found"
	FailureUnknown    FailureKind = "unknown"
)

// Error is a classified backend failure. Every Store method returns one of
// these (wrapped) rather than letting transport errors leak through.
type Error struct {
	Kind    FailureKind
	Status  int // HTTP status when one was received, else zero
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s error: %s", e.Kind, e.Message)
}

// Role enumerates account roles known to the coordination service.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSigner   Role = "signer"
	RoleObserver Role = "observer"
)

// KYCStatus enumerates the KYC states an account can hold.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// CallRecord files a call payload under its content hash, together with its
// labels and provenance.
type CallRecord struct {
	Hash        string    `json:"hash"`
	Payload     string    `json:"payload"` // 0x-prefixed hex of the SCALE payload
	Pallet      string    `json:"pallet"`
	Call        string    `json:"call"`
	Creator     string    `json:"creator"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AccountRecord is the coordination service's metadata for one address.
type AccountRecord struct {
	Address     string     `json:"address"`
	DisplayName string     `json:"displayName"`
	Role        Role       `json:"role"`
	KYCStatus   KYCStatus  `json:"kycStatus"`
	KYCExpiry   *time.Time `json:"kycExpiry,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// MultisigConfig is the backend's record of the admin multisig account.
type MultisigConfig struct {
	Address     string   `json:"address"`
	Name        string   `json:"name"`
	Threshold   uint16   `json:"threshold"`
	Signatories []string `json:"signatories"`
}

// Store is the full backend surface the dashboard consumes. The HTTP client
// and the in-memory mock implement it identically: same success and failure
// shapes, so callers cannot tell them apart.
type Store interface {
	// CheckHealth probes the backend and drives the health state cell
	// through connecting -> connected/error.
	CheckHealth(ctx context.Context) error

	// StateCell exposes the backend's own connection state, independent of
	// the node connection.
	StateCell() *connstate.Cell

	ListCallRecords(ctx context.Context) ([]CallRecord, error)
	GetCallRecord(ctx context.Context, hash string) (CallRecord, error)
	CreateCallRecord(ctx context.Context, record CallRecord) (CallRecord, error)

	ListAccounts(ctx context.Context) ([]AccountRecord, error)
	GetAccount(ctx context.Context, address string) (AccountRecord, error)
	CreateAccount(ctx context.Context, record AccountRecord) (AccountRecord, error)
	UpdateAccount(ctx context.Context, record AccountRecord) (AccountRecord, error)

	AdminMultisig(ctx context.Context) (MultisigConfig, error)
}

// envelope is the backend's uniform response wrapper. A non-200 status or
// Success=false both classify as failures.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}
