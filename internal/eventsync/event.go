package eventsync

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Kind enumerates the ledger occurrences the dashboard tracks.
type Kind string

const (
	KindMinted               Kind = "Minted"
	KindTransferred          Kind = "Transferred"
	KindFrozen               Kind = "Frozen"
	KindUnfrozen             Kind = "Unfrozen"
	KindWhitelisted          Kind = "Whitelisted"
	KindRemovedFromWhitelist Kind = "RemovedFromWhitelist"
)

// RetentionCap is the hard bound on the persisted event log. Entries beyond
// the cap are silently evicted, oldest first.
const RetentionCap = 500

// Event is one ledger-relevant occurrence extracted from a block.
//
// ID is derived deterministically from (BlockHash, Kind, Payload), never from
// insertion order, so identical occurrences observed via different sync paths
// (backfill vs. live subscription) collapse to one record.
type Event struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	BlockNumber uint64            `json:"blockNumber"`
	BlockHash   string            `json:"blockHash"`
	Timestamp   *time.Time        `json:"timestamp,omitempty"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// Snapshot is the persisted form of the event log, keyed by the genesis hash
// of the chain it was collected from. Persistence is last-write-wins: each
// save replaces the prior snapshot wholesale.
type Snapshot struct {
	GenesisHash string    `json:"genesisHash"`
	Events      []Event   `json:"events"`
	SavedAt     time.Time `json:"savedAt"`
}

// DeriveEventID computes the stable content identity of an event as a SHA-256
// digest over the block hash, the kind, and the payload in canonical
// (key-sorted) order. Identical inputs always yield the identical ID.
func DeriveEventID(blockHash string, kind Kind, payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(blockHash)
	b.WriteByte('|')
	b.WriteString(string(kind))
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(payload[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Merge combines two event lists into a deduplicated log: events are unique
// by ID (first occurrence wins, so existing entries keep their resolved
// timestamps), sorted by descending block number with the ID as a
// deterministic tie-break, and truncated to cap entries.
func Merge(existing, incoming []Event, cap int) []Event {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]Event, 0, len(existing)+len(incoming))

	for _, list := range [][]Event{existing, incoming} {
		for _, ev := range list {
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			merged = append(merged, ev)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].BlockNumber != merged[j].BlockNumber {
			return merged[i].BlockNumber > merged[j].BlockNumber
		}
		return merged[i].ID < merged[j].ID
	})

	if cap > 0 && len(merged) > cap {
		merged = merged[:cap]
	}
	return merged
}
