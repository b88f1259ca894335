package substrate

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/eventsync"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/logger"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/types"
)

// multisigPalletMarker is the SCALE encoding of the string "Multisig": the
// compact length prefix for eight bytes followed by the name itself. The
// metadata blob contains it exactly once per pallet section that exists.
var multisigPalletMarker = append([]byte{0x20}, []byte("Multisig")...)

// detectMultisigPallet fetches the runtime metadata blob and scans it for the
// multisig pallet's encoded name. Full metadata parsing is deliberately
// avoided; presence of the marker is enough to distinguish "no pending
// approvals" from "chain cannot have any".
func detectMultisigPallet(ctx context.Context, conn interface {
	Call(ctx context.Context, result any, method string, params ...any) error
}) (bool, error) {
	var metadataHex string
	if err := conn.Call(ctx, &metadataHex, "state_getMetadata"); err != nil {
		return false, fmt.Errorf("reading runtime metadata: %w", err)
	}

	raw, err := fromHex(metadataHex)
	if err != nil {
		return false, fmt.Errorf("decoding runtime metadata: %w", err)
	}

	return bytes.Contains(raw, multisigPalletMarker), nil
}

// header mirrors the fields of a chain header the dashboard reads.
type header struct {
	Number types.Hex `json:"number"`
}

// LatestHeight returns the height of the newest known block.
func (n *Node) LatestHeight(ctx context.Context) (uint64, error) {
	var h header
	if err := n.conn.Call(ctx, &h, "chain_getHeader"); err != nil {
		return 0, err
	}
	return h.Number.Uint64(), nil
}

// BlockHash resolves the hash of the block at the given height.
func (n *Node) BlockHash(ctx context.Context, height uint64) (string, error) {
	var hash *string
	if err := n.conn.Call(ctx, &hash, "chain_getBlockHash", height); err != nil {
		return "", err
	}
	if hash == nil || *hash == "" {
		return "", fmt.Errorf("no block at height %d", height)
	}
	return *hash, nil
}

// BlockTimestamp reads the timestamp pallet's storage at the given block. The
// value is the milliseconds-since-epoch moment the block author set.
func (n *Node) BlockTimestamp(ctx context.Context, blockHash string) (time.Time, bool, error) {
	raw, err := n.storageAt(ctx, storageKey("Timestamp", "Now"), blockHash)
	if err != nil {
		return time.Time{}, false, err
	}
	if raw == nil {
		return time.Time{}, false, nil
	}
	if len(raw) < 8 {
		return time.Time{}, false, fmt.Errorf("timestamp storage value too short: %d bytes", len(raw))
	}
	ms := binary.LittleEndian.Uint64(raw[:8])
	return time.UnixMilli(int64(ms)).UTC(), true, nil
}

// LedgerEvents reads the system event log at the given block and extracts the
// ledger pallet's events. Decoding is defensive: the first record that cannot
// be sized stops the walk, and whatever decoded cleanly up to that point is
// returned.
func (n *Node) LedgerEvents(ctx context.Context, height uint64, blockHash string) ([]eventsync.Event, error) {
	raw, err := n.storageAt(ctx, storageKey("System", "Events"), blockHash)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	events, decodeErr := decodeEventRecords(n.profile, raw, height, blockHash)
	if decodeErr != nil {
		logger.Warn(ctx, "stopped decoding event records mid-block",
			"height", height,
			"decoded", len(events),
			"error", decodeErr,
		)
	}
	return events, nil
}

// SubscribeNewHeads streams new block headers. Each notification carries the
// header but not its hash, so the hash is resolved with a follow-up call
// before the head is delivered.
func (n *Node) SubscribeNewHeads(ctx context.Context) (<-chan eventsync.Head, func(), error) {
	sub, err := n.conn.Subscribe(ctx, "chain_subscribeNewHeads", "chain_unsubscribeNewHeads")
	if err != nil {
		return nil, nil, err
	}

	heads := make(chan eventsync.Head)
	stopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := func() {
		cancel()
		unsubCtx, unsubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer unsubCancel()
		_ = sub.Unsubscribe(unsubCtx)
	}

	go func() {
		defer close(heads)
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCtx.Done():
				return
			case raw, ok := <-sub.C:
				if !ok {
					return
				}

				head := n.resolveHead(ctx, raw)
				select {
				case heads <- head:
				case <-ctx.Done():
					return
				case <-stopCtx.Done():
					return
				}
			}
		}
	}()

	return heads, stop, nil
}

// resolveHead parses one new-head notification and resolves its block hash.
func (n *Node) resolveHead(ctx context.Context, raw []byte) eventsync.Head {
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return eventsync.Head{Err: fmt.Errorf("parsing head notification: %w", err)}
	}

	height := h.Number.Uint64()
	hash, err := n.BlockHash(ctx, height)
	if err != nil {
		return eventsync.Head{Height: height, Err: err}
	}

	return eventsync.Head{Height: height, Hash: hash}
}

// storageAt reads one storage value at the given block. A nil slice with a
// nil error means the storage item is absent.
func (n *Node) storageAt(ctx context.Context, key []byte, blockHash string) ([]byte, error) {
	var value *string

	params := []any{toHex(key)}
	if blockHash != "" {
		params = append(params, blockHash)
	}
	if err := n.conn.Call(ctx, &value, "state_getStorage", params...); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return fromHex(*value)
}

var errUnknownEventShape = errors.New("unknown event shape")

// decodeEventRecords walks a SCALE-encoded Vec<EventRecord>, collecting the
// ledger pallet's events and skipping over the other records whose field
// layout is known. Records are laid out as phase, event, topics.
func decodeEventRecords(profile *callcodec.Profile, raw []byte, height uint64, blockHash string) ([]eventsync.Event, error) {
	r := callcodec.NewReader(raw)

	count, err := r.CompactUint64()
	if err != nil {
		return nil, err
	}

	ledger, ledgerKnown := profile.PalletByName(callcodec.LedgerPalletName)
	system, systemKnown := profile.PalletByName("System")
	balances, balancesKnown := profile.PalletByName("Balances")

	var out []eventsync.Event
	for i := uint64(0); i < count; i++ {
		if err := skipPhase(r); err != nil {
			return out, err
		}

		palletIdx, err := r.Byte()
		if err != nil {
			return out, err
		}
		variantIdx, err := r.Byte()
		if err != nil {
			return out, err
		}

		switch {
		case ledgerKnown && palletIdx == ledger.Index:
			ev, err := decodeLedgerEvent(r, profile, variantIdx)
			if err != nil {
				return out, err
			}
			ev.BlockNumber = height
			ev.BlockHash = blockHash
			out = append(out, ev)

		case systemKnown && palletIdx == system.Index:
			if err := skipSystemEvent(r, variantIdx); err != nil {
				return out, err
			}

		case balancesKnown && palletIdx == balances.Index:
			if err := skipBalancesEvent(r, variantIdx); err != nil {
				return out, err
			}

		default:
			return out, fmt.Errorf("%w: pallet index %d", errUnknownEventShape, palletIdx)
		}

		if err := skipTopics(r); err != nil {
			return out, err
		}
	}

	return out, nil
}

// skipPhase consumes the record's phase: ApplyExtrinsic carries an index,
// Finalization and Initialization carry nothing.
func skipPhase(r *callcodec.Reader) error {
	tag, err := r.Byte()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		_, err := r.Uint32()
		return err
	case 1, 2:
		return nil
	default:
		return fmt.Errorf("%w: phase tag %d", errUnknownEventShape, tag)
	}
}

// skipTopics consumes the record's topic vector of 32-byte hashes.
func skipTopics(r *callcodec.Reader) error {
	n, err := r.CompactUint64()
	if err != nil {
		return err
	}
	_, err = r.Take(int(n) * 32)
	return err
}

// ledgerEventKinds maps the ledger pallet's event variant indexes onto the
// synchronizer's kinds. Variants carry either (account) or (account, amount)
// or (from, to, amount).
var ledgerEventKinds = map[byte]eventsync.Kind{
	0: eventsync.KindMinted,
	1: eventsync.KindTransferred,
	2: eventsync.KindFrozen,
	3: eventsync.KindUnfrozen,
	4: eventsync.KindWhitelisted,
	5: eventsync.KindRemovedFromWhitelist,
}

func decodeLedgerEvent(r *callcodec.Reader, profile *callcodec.Profile, variantIdx byte) (eventsync.Event, error) {
	kind, ok := ledgerEventKinds[variantIdx]
	if !ok {
		return eventsync.Event{}, fmt.Errorf("%w: ledger event variant %d", errUnknownEventShape, variantIdx)
	}

	readAddress := func() (string, error) {
		b, err := r.Take(32)
		if err != nil {
			return "", err
		}
		var account callcodec.AccountID
		copy(account[:], b)
		return callcodec.EncodeAddress(account, profile.SS58Prefix)
	}

	payload := make(map[string]string)
	switch kind {
	case eventsync.KindMinted:
		to, err := readAddress()
		if err != nil {
			return eventsync.Event{}, err
		}
		amount, err := r.Uint128()
		if err != nil {
			return eventsync.Event{}, err
		}
		payload["to"] = to
		payload["amount"] = amount.String()

	case eventsync.KindTransferred:
		from, err := readAddress()
		if err != nil {
			return eventsync.Event{}, err
		}
		to, err := readAddress()
		if err != nil {
			return eventsync.Event{}, err
		}
		amount, err := r.Uint128()
		if err != nil {
			return eventsync.Event{}, err
		}
		payload["from"] = from
		payload["to"] = to
		payload["amount"] = amount.String()

	default: // freeze, thaw, and whitelist events carry a single account
		who, err := readAddress()
		if err != nil {
			return eventsync.Event{}, err
		}
		payload["who"] = who
	}

	return eventsync.Event{Kind: kind, Payload: payload}, nil
}

// skipSystemEvent consumes a frame-system event's fields.
func skipSystemEvent(r *callcodec.Reader, variantIdx byte) error {
	switch variantIdx {
	case 0: // ExtrinsicSuccess(DispatchInfo)
		return skipDispatchInfo(r)
	case 1: // ExtrinsicFailed(DispatchError, DispatchInfo)
		if err := skipDispatchError(r); err != nil {
			return err
		}
		return skipDispatchInfo(r)
	case 2: // CodeUpdated
		return nil
	case 3, 4: // NewAccount, KilledAccount
		_, err := r.Take(32)
		return err
	case 5: // Remarked(AccountId, Hash)
		_, err := r.Take(64)
		return err
	default:
		return fmt.Errorf("%w: system event variant %d", errUnknownEventShape, variantIdx)
	}
}

// skipBalancesEvent consumes a balances event's fields for the variants with
// a stable layout.
func skipBalancesEvent(r *callcodec.Reader, variantIdx byte) error {
	skipAccountAmount := func() error {
		if _, err := r.Take(32); err != nil {
			return err
		}
		_, err := r.Uint128()
		return err
	}

	switch variantIdx {
	case 0, 1, 3, 7, 8, 9: // Endowed, DustLost, BalanceSet, Deposit, Withdraw, Slashed
		return skipAccountAmount()
	case 2: // Transfer(from, to, amount)
		if _, err := r.Take(64); err != nil {
			return err
		}
		_, err := r.Uint128()
		return err
	default:
		return fmt.Errorf("%w: balances event variant %d", errUnknownEventShape, variantIdx)
	}
}

// skipDispatchInfo consumes weight (two compacts), class, and pays fields.
func skipDispatchInfo(r *callcodec.Reader) error {
	if _, err := r.Compact(); err != nil {
		return err
	}
	if _, err := r.Compact(); err != nil {
		return err
	}
	if _, err := r.Byte(); err != nil {
		return err
	}
	_, err := r.Byte()
	return err
}

// skipDispatchError consumes a dispatch error. Module errors carry a pallet
// index plus four error bytes; token, arithmetic, and transactional errors
// carry a one-byte sub-code; the rest are bare tags.
func skipDispatchError(r *callcodec.Reader) error {
	tag, err := r.Byte()
	if err != nil {
		return err
	}
	switch tag {
	case 3:
		_, err := r.Take(5)
		return err
	case 7, 8, 9:
		_, err := r.Byte()
		return err
	default:
		return nil
	}
}
