package callcodec

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// CallHash computes the blake2b-256 content hash of a call payload, rendered
// as a 0x-prefixed lowercase hex string. This is the identifier under which
// the coordination backend files call records and the chain's multisig
// storage keys pending calls.
func CallHash(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return "0x" + hex.EncodeToString(sum[:])
}

// VerifyHash recomputes the digest of payload and compares it against
// expectedHash, ignoring case and an optional 0x prefix. It is used to
// confirm that a payload retrieved from the backend matches the hash it was
// filed under, detecting tampering or corruption.
func VerifyHash(payload []byte, expectedHash string) bool {
	return normalizeHash(CallHash(payload)) == normalizeHash(expectedHash)
}

func normalizeHash(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "0x")
}
