package multisig

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
)

// Timepoint locates the extrinsic that proposed a multisig call: block
// height plus the extrinsic's index within that block.
type Timepoint struct {
	Height uint64 `json:"height"`
	Index  uint32 `json:"index"`
}

// Signatory is one expected signer of a multisig account, as configured in
// the local registry.
type Signatory struct {
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address" validate:"required"`
}

// PendingApproval is the reconciled, display-ready view of one outstanding
// multisig call. The record exists only while the call is pending on-chain:
// once executed or cancelled it simply stops being returned; there is no
// terminal state.
type PendingApproval struct {
	// ID is the natural key: a multisig account can have at most one
	// outstanding call per call hash.
	ID string

	MultisigAccount string
	CallHash        string

	// Operation describes what the pending call does, when its payload could
	// be resolved; otherwise it is tagged Unknown.
	Operation callcodec.DecodedOperation

	Depositor string
	Deposit   *big.Int

	// Approvals lists the addresses that have signed so far, in approval
	// order. Its length may be below, at, or transiently above Threshold.
	Approvals []string

	// Threshold and Signatories come from the local registry; zero and empty
	// when the account is not registered.
	Threshold   uint16
	Signatories []Signatory

	ProposedAt   Timepoint
	ProposedTime *time.Time
}

// ApprovalID derives the natural key of a pending approval.
func ApprovalID(multisigAccount, callHash string) string {
	return multisigAccount + ":" + callHash
}

// entryValue is the parsed storage representation of one pending multisig
// call: its proposal timepoint, the bonded deposit, the depositor, and the
// approvals collected so far.
type entryValue struct {
	When      Timepoint
	Deposit   *big.Int
	Depositor callcodec.AccountID
	Approvals []callcodec.AccountID
}

var errTruncatedValue = errors.New("truncated multisig storage value")

// parseEntryValue decodes the SCALE storage value of a multisig entry:
// u32 height, u32 index, u128 deposit, 32-byte depositor, then a
// compact-length vector of 32-byte approver account IDs.
func parseEntryValue(data []byte) (entryValue, error) {
	const (
		fixedPrefix = 4 + 4 + 16 + 32 // when + deposit + depositor
		accountLen  = 32
	)

	if len(data) < fixedPrefix+1 {
		return entryValue{}, errTruncatedValue
	}

	var v entryValue
	v.When.Height = uint64(binary.LittleEndian.Uint32(data[0:4]))
	v.When.Index = binary.LittleEndian.Uint32(data[4:8])
	v.Deposit = leUint128(data[8:24])
	copy(v.Depositor[:], data[24:56])

	count, consumed, err := compactLen(data[56:])
	if err != nil {
		return entryValue{}, err
	}

	rest := data[56+consumed:]
	if uint64(len(rest)) != count*accountLen {
		return entryValue{}, fmt.Errorf("%w: expected %d approval account(s), have %d byte(s)",
			errTruncatedValue, count, len(rest))
	}

	v.Approvals = make([]callcodec.AccountID, count)
	for i := range v.Approvals {
		copy(v.Approvals[i][:], rest[i*accountLen:(i+1)*accountLen])
	}

	return v, nil
}

// leUint128 interprets b (exactly 16 bytes) as a little-endian u128.
func leUint128(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

// compactLen reads a SCALE compact length prefix, returning the value and
// how many bytes it occupied. Lengths beyond 30 bits do not occur in bounded
// approval vectors and are rejected.
func compactLen(data []byte) (value uint64, consumed int, err error) {
	if len(data) == 0 {
		return 0, 0, errTruncatedValue
	}

	switch data[0] & 0b11 {
	case 0:
		return uint64(data[0]) >> 2, 1, nil
	case 1:
		if len(data) < 2 {
			return 0, 0, errTruncatedValue
		}
		return (uint64(data[0]) | uint64(data[1])<<8) >> 2, 2, nil
	case 2:
		if len(data) < 4 {
			return 0, 0, errTruncatedValue
		}
		u := binary.LittleEndian.Uint32(data[:4])
		return uint64(u) >> 2, 4, nil
	default:
		return 0, 0, fmt.Errorf("approval vector length prefix out of range")
	}
}
