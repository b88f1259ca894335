// Package multisig reconciles pending multi-signature call records from chain
// storage against a locally configured signatory registry, producing the
// display-ready pending-approval model. It is read-only: approving,
// executing, and cancelling happen elsewhere.
package multisig

import (
	"context"
	"sort"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/logger"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/types"
)

// Service exposes the reconciled pending-approval view.
type Service interface {
	// FetchPendingApprovals returns every outstanding multisig call, newest
	// proposal first. filterAccount narrows the result to one multisig
	// account when non-empty. It returns ErrMultisigUnsupported when the
	// chain has no multisig pallet.
	FetchPendingApprovals(ctx context.Context, filterAccount string) ([]PendingApproval, error)
}

type service struct {
	source   PendingSource
	registry *Registry

	resolveOp OperationResolver
}

var _ Service = (*service)(nil)

type config struct {
	resolveOp OperationResolver
}

// Option configures the reconciler.
type Option func(*config)

// WithOperationResolver wires a resolver for call payloads, typically backed
// by the coordination backend's call-record store. Without one, every
// approval's operation is Unknown.
func WithOperationResolver(f OperationResolver) Option {
	return func(c *config) {
		c.resolveOp = f
	}
}

// New creates a reconciler over the given chain source and local registry.
// A nil registry behaves like an empty one.
func New(source PendingSource, registry *Registry, opts ...Option) *service {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if registry == nil {
		registry = EmptyRegistry()
	}

	return &service{
		source:    source,
		registry:  registry,
		resolveOp: cfg.resolveOp,
	}
}

func (s *service) FetchPendingApprovals(ctx context.Context, filterAccount string) ([]PendingApproval, error) {
	entries, err := s.source.PendingEntries(ctx, filterAccount)
	if err != nil {
		return nil, err
	}

	// First pass: parse values, skipping absent and malformed entries, and
	// collect the distinct proposal heights to resolve each timestamp once.
	type parsedEntry struct {
		entry StorageEntry
		value entryValue
	}

	parsed := make([]parsedEntry, 0, len(entries))
	heights := types.NewSet[uint64]()

	for _, entry := range entries {
		if entry.Value == nil {
			continue
		}

		value, err := parseEntryValue(entry.Value)
		if err != nil {
			logger.Warn(ctx, "skipping unparseable multisig entry",
				"multisig_account", entry.Account,
				"call_hash", entry.CallHash,
				"error", err,
			)
			continue
		}

		parsed = append(parsed, parsedEntry{entry: entry, value: value})
		heights.Add(value.When.Height)
	}

	timestamps := s.resolveTimestamps(ctx, heights)

	// The prefix follows the connected chain, so addresses rendered here
	// match the multisig account and the registry's signatory addresses.
	prefix := s.source.SS58Prefix()

	approvals := make([]PendingApproval, 0, len(parsed))
	for _, pe := range parsed {
		approvals = append(approvals, s.buildApproval(ctx, pe.entry, pe.value, timestamps[pe.value.When.Height], prefix))
	}

	sort.Slice(approvals, func(i, j int) bool {
		a, b := approvals[i].ProposedAt, approvals[j].ProposedAt
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		if a.Index != b.Index {
			return a.Index > b.Index
		}
		return approvals[i].ID < approvals[j].ID
	})

	return approvals, nil
}

// resolveTimestamps fetches the timestamp of each referenced height exactly
// once. Failures leave the timestamp nil; the approval is still shown.
func (s *service) resolveTimestamps(ctx context.Context, heights types.Set[uint64]) map[uint64]*time.Time {
	out := make(map[uint64]*time.Time, heights.Len())
	for height := range heights {
		ts, ok, err := s.source.BlockTime(ctx, height)
		if err != nil {
			logger.Debug(ctx, "proposal timestamp unavailable", "height", height, "error", err)
			out[height] = nil
			continue
		}
		if ok {
			out[height] = &ts
		}
	}
	return out
}

// buildApproval joins one parsed storage entry against the registry, the
// resolved timestamp, and (when available) the decoded call payload.
func (s *service) buildApproval(ctx context.Context, entry StorageEntry, value entryValue, proposedTime *time.Time, ss58Prefix uint8) PendingApproval {
	approval := PendingApproval{
		ID:              ApprovalID(entry.Account, entry.CallHash),
		MultisigAccount: entry.Account,
		CallHash:        entry.CallHash,
		Deposit:         value.Deposit,
		Depositor:       renderAddress(ctx, value.Depositor, ss58Prefix),
		Approvals:       make([]string, 0, len(value.Approvals)),
		ProposedAt:      value.When,
		ProposedTime:    proposedTime,
		Operation: callcodec.DecodedOperation{
			Success:   true,
			Operation: callcodec.Operation{Kind: callcodec.KindUnknown},
			Summary:   "unknown call " + callcodec.TruncateAddress(entry.CallHash),
		},
	}

	for _, approver := range value.Approvals {
		approval.Approvals = append(approval.Approvals, renderAddress(ctx, approver, ss58Prefix))
	}

	if reg, ok := s.registry.Lookup(entry.Account); ok {
		approval.Threshold = reg.Threshold
		approval.Signatories = reg.Signatories
	}

	if s.resolveOp != nil {
		if op, ok := s.resolveOp(ctx, entry.CallHash); ok {
			approval.Operation = op
		}
	}

	return approval
}

func renderAddress(ctx context.Context, account callcodec.AccountID, ss58Prefix uint8) string {
	address, err := callcodec.EncodeAddress(account, ss58Prefix)
	if err != nil {
		logger.Warn(ctx, "could not render account address", "error", err)
		return ""
	}
	return address
}
