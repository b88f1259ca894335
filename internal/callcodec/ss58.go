package callcodec

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// SS58 address codec for 32-byte account identifiers with single-byte network
// prefixes (0-63), which covers every network this dashboard targets.

const (
	// ss58ChecksumPreimage is the domain-separation prefix hashed into every
	// SS58 checksum.
	ss58ChecksumPreimage = "SS58PRE"

	// accountIDLength is the size of a raw account identifier.
	accountIDLength = 32
)

var (
	// ErrInvalidAddress indicates an SS58 address that failed to decode or
	// whose checksum did not match.
	ErrInvalidAddress = errors.New("invalid SS58 address")

	base58Alphabet = []byte("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz")
)

// AccountID is a raw 32-byte chain account identifier.
type AccountID [accountIDLength]byte

// EncodeAddress renders the account in SS58 form under the given network prefix.
func EncodeAddress(account AccountID, prefix uint8) (string, error) {
	if prefix > 63 {
		return "", fmt.Errorf("unsupported SS58 prefix %d: only single-byte prefixes are handled", prefix)
	}

	body := append([]byte{prefix}, account[:]...)
	sum := ss58Checksum(body)
	return base58Encode(append(body, sum[:2]...)), nil
}

// DecodeAddress parses an SS58 address back into its account identifier and
// network prefix, verifying the embedded checksum.
func DecodeAddress(address string) (AccountID, uint8, error) {
	var account AccountID

	raw, err := base58Decode(address)
	if err != nil {
		return account, 0, err
	}

	// prefix byte + 32-byte account + 2-byte checksum
	if len(raw) != 1+accountIDLength+2 {
		return account, 0, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}

	body, checksum := raw[:len(raw)-2], raw[len(raw)-2:]
	sum := ss58Checksum(body)
	if !bytes.Equal(checksum, sum[:2]) {
		return account, 0, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	copy(account[:], body[1:])
	return account, body[0], nil
}

// ss58Checksum computes the blake2b-512 checksum over the prefixed body.
func ss58Checksum(body []byte) [64]byte {
	return blake2b.Sum512(append([]byte(ss58ChecksumPreimage), body...))
}

// base58Encode renders data in Bitcoin-alphabet base58.
func base58Encode(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	n := new(big.Int).SetBytes(data)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for n.Sign() > 0 {
		n.DivMod(n, radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, base58Alphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// base58Decode parses Bitcoin-alphabet base58 text.
func base58Decode(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAddress)
	}

	n := new(big.Int)
	radix := big.NewInt(58)
	for _, c := range []byte(s) {
		idx := bytes.IndexByte(base58Alphabet, c)
		if idx < 0 {
			return nil, fmt.Errorf("%w: invalid base58 character %q", ErrInvalidAddress, c)
		}
		n.Mul(n, radix)
		n.Add(n, big.NewInt(int64(idx)))
	}

	zeros := 0
	for zeros < len(s) && s[zeros] == base58Alphabet[0] {
		zeros++
	}

	return append(make([]byte, zeros), n.Bytes()...), nil
}
