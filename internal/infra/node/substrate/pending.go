package substrate

import (
	"context"
	"fmt"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
	"github.com/clad-sovereign/clad-dashboard/internal/multisig"
	"github.com/clad-sovereign/clad-dashboard/internal/pkg/logger"
)

// keysPageSize bounds one state_getKeysPaged request.
const keysPageSize = 256

// Offsets inside a multisig storage key, measured from the end: the call hash
// is the final 32 bytes (preceded by its 16-byte blake2b-128 digest), and the
// multisig account is the 32 bytes before that digest (preceded by its 8-byte
// twox64 digest).
const (
	multisigKeyMinLen  = 32 + 32 + (16 + 16 + 8 + 16)
	callHashTailOffset = 32
	accountTailOffset  = 32 + 16 + 32
)

// PendingEntries enumerates every entry under the multisig pallet's storage
// map, optionally narrowed to one multisig account.
func (n *Node) PendingEntries(ctx context.Context, filterAccount string) ([]multisig.StorageEntry, error) {
	if !n.hasMultisig {
		return nil, multisig.ErrMultisigUnsupported
	}

	prefix := storageKey("Multisig", "Multisigs")
	if filterAccount != "" {
		account, _, err := callcodec.DecodeAddress(filterAccount)
		if err != nil {
			return nil, fmt.Errorf("invalid multisig account filter: %w", err)
		}
		prefix = append(prefix, twox64Concat(account[:])...)
	}

	keys, err := n.storageKeysUnder(ctx, prefix)
	if err != nil {
		return nil, err
	}

	entries := make([]multisig.StorageEntry, 0, len(keys))
	for _, key := range keys {
		account, callHash, err := n.decomposeMultisigKey(key)
		if err != nil {
			// A key that does not fit the expected layout is skipped; the
			// remaining entries are still returned. Transport failures below
			// abort, a malformed key does not.
			logger.Warn(ctx, "skipping malformed multisig storage key",
				"key", toHex(key),
				"error", err,
			)
			continue
		}

		value, err := n.storageAt(ctx, key, "")
		if err != nil {
			return nil, err
		}

		entries = append(entries, multisig.StorageEntry{
			Account:  account,
			CallHash: callHash,
			Value:    value,
		})
	}

	return entries, nil
}

// BlockTime resolves the timestamp of the block at the given height.
func (n *Node) BlockTime(ctx context.Context, height uint64) (time.Time, bool, error) {
	hash, err := n.BlockHash(ctx, height)
	if err != nil {
		return time.Time{}, false, err
	}
	return n.BlockTimestamp(ctx, hash)
}

// storageKeysUnder pages through every storage key below the given prefix.
func (n *Node) storageKeysUnder(ctx context.Context, prefix []byte) ([][]byte, error) {
	var (
		out      [][]byte
		startKey string
	)

	for {
		var page []string
		params := []any{toHex(prefix), keysPageSize}
		if startKey != "" {
			params = append(params, startKey)
		}
		if err := n.conn.Call(ctx, &page, "state_getKeysPaged", params...); err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return out, nil
		}

		for _, keyHex := range page {
			key, err := fromHex(keyHex)
			if err != nil {
				return nil, err
			}
			out = append(out, key)
		}

		if len(page) < keysPageSize {
			return out, nil
		}
		startKey = page[len(page)-1]
	}
}

// decomposeMultisigKey recovers the multisig account and call hash from the
// concat-style hasher suffixes of one storage key.
func (n *Node) decomposeMultisigKey(key []byte) (account, callHash string, err error) {
	if len(key) < multisigKeyMinLen {
		return "", "", fmt.Errorf("multisig storage key too short: %d bytes", len(key))
	}

	var accountID callcodec.AccountID
	copy(accountID[:], key[len(key)-accountTailOffset:len(key)-accountTailOffset+32])

	account, err = callcodec.EncodeAddress(accountID, n.profile.SS58Prefix)
	if err != nil {
		return "", "", err
	}

	return account, toHex(key[len(key)-callHashTailOffset:]), nil
}
