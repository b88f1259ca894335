// Package substrate adapts a Substrate-style chain node, reached over
// WebSocket JSON-RPC, to the ports the dashboard core defines: the connection
// dialer, the event synchronizer's chain source, and the multisig
// reconciler's pending source.
package substrate

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pierrec/xxHash/xxHash64"
	"golang.org/x/crypto/blake2b"
)

// twox128 is the xxhash64-based hasher Substrate uses for storage prefixes:
// two 64-bit digests of the same input with seeds 0 and 1, concatenated
// little-endian.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxHash64.Checksum(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxHash64.Checksum(data, 1))
	return out
}

// twox64Concat hashes the key with seed-0 xxhash64 and appends the key
// itself, the reversible map hasher.
func twox64Concat(data []byte) []byte {
	out := make([]byte, 8, 8+len(data))
	binary.LittleEndian.PutUint64(out, xxHash64.Checksum(data, 0))
	return append(out, data...)
}

// blake2b128Concat hashes the key with blake2b-128 and appends the key
// itself.
func blake2b128Concat(data []byte) []byte {
	digest, _ := blake2b.New(16, nil)
	digest.Write(data)
	return append(digest.Sum(nil), data...)
}

// storageKey builds the prefix of a storage item: twox128(pallet) ++
// twox128(item), with any map key components appended by the caller.
func storageKey(pallet, item string) []byte {
	key := twox128([]byte(pallet))
	return append(key, twox128([]byte(item))...)
}

func toHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func fromHex(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	out, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value %q: %w", s, err)
	}
	return out, nil
}
