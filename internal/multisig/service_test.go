package multisig

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
)

type fakeSource struct {
	mu           sync.Mutex
	entries      []StorageEntry
	entriesErr   error
	blockTimes   map[uint64]time.Time
	timeCalls    map[uint64]int
	lastFiltered string
	ss58Prefix   uint8
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		blockTimes: make(map[uint64]time.Time),
		timeCalls:  make(map[uint64]int),
		ss58Prefix: 42,
	}
}

func (f *fakeSource) SS58Prefix() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ss58Prefix
}

func (f *fakeSource) PendingEntries(ctx context.Context, filterAccount string) ([]StorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFiltered = filterAccount
	return f.entries, f.entriesErr
}

func (f *fakeSource) BlockTime(ctx context.Context, height uint64) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeCalls[height]++
	ts, ok := f.blockTimes[height]
	return ts, ok, nil
}

// encodeEntryValue builds the SCALE storage value of one pending multisig
// call, mirroring the layout parseEntryValue expects.
func encodeEntryValue(height uint32, index uint32, deposit uint64, depositor callcodec.AccountID, approvals ...callcodec.AccountID) []byte {
	out := make([]byte, 8, 64)
	binary.LittleEndian.PutUint32(out[0:4], height)
	binary.LittleEndian.PutUint32(out[4:8], index)

	depositLE := make([]byte, 16)
	binary.LittleEndian.PutUint64(depositLE, deposit)
	out = append(out, depositLE...)
	out = append(out, depositor[:]...)

	out = append(out, byte(len(approvals))<<2)
	for _, a := range approvals {
		out = append(out, a[:]...)
	}
	return out
}

func account(seed byte) callcodec.AccountID {
	var a callcodec.AccountID
	for i := range a {
		a[i] = seed
	}
	return a
}

func TestParseEntryValue(t *testing.T) {
	t.Run("should parse a complete entry", func(t *testing.T) {
		raw := encodeEntryValue(120, 2, 5_000, account(0xaa), account(0xbb), account(0xcc))

		value, err := parseEntryValue(raw)
		require.NoError(t, err)

		assert.Equal(t, uint64(120), value.When.Height)
		assert.Equal(t, uint32(2), value.When.Index)
		assert.Equal(t, uint64(5_000), value.Deposit.Uint64())
		assert.Equal(t, account(0xaa), value.Depositor)
		require.Len(t, value.Approvals, 2)
		assert.Equal(t, account(0xbb), value.Approvals[0])
		assert.Equal(t, account(0xcc), value.Approvals[1])
	})

	t.Run("should parse an entry with no approvals yet", func(t *testing.T) {
		value, err := parseEntryValue(encodeEntryValue(1, 0, 0, account(0x01)))
		require.NoError(t, err)

		assert.Empty(t, value.Approvals)
	})

	t.Run("should reject a truncated value", func(t *testing.T) {
		raw := encodeEntryValue(120, 2, 5_000, account(0xaa), account(0xbb))

		_, err := parseEntryValue(raw[:len(raw)-5])
		assert.ErrorIs(t, err, errTruncatedValue)
	})

	t.Run("should reject an empty value", func(t *testing.T) {
		_, err := parseEntryValue(nil)
		assert.ErrorIs(t, err, errTruncatedValue)
	})
}

func TestFetchPendingApprovals(t *testing.T) {
	mustAddress := func(t *testing.T, a callcodec.AccountID) string {
		t.Helper()
		address, err := callcodec.EncodeAddress(a, 42)
		require.NoError(t, err)
		return address
	}

	t.Run("should pass the unsupported error through unchanged", func(t *testing.T) {
		source := newFakeSource()
		source.entriesErr = ErrMultisigUnsupported

		_, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")

		assert.ErrorIs(t, err, ErrMultisigUnsupported)
	})

	t.Run("should return empty for a chain with no pending calls", func(t *testing.T) {
		approvals, err := New(newFakeSource(), EmptyRegistry()).FetchPendingApprovals(t.Context(), "")

		require.NoError(t, err)
		assert.Empty(t, approvals)
	})

	t.Run("should forward the account filter to the source", func(t *testing.T) {
		source := newFakeSource()

		_, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "5Fmulti")
		require.NoError(t, err)

		assert.Equal(t, "5Fmulti", source.lastFiltered)
	})

	t.Run("should skip absent and malformed entries and keep the rest", func(t *testing.T) {
		source := newFakeSource()
		source.entries = []StorageEntry{
			{Account: "5Fa", CallHash: "0x01", Value: nil},
			{Account: "5Fb", CallHash: "0x02", Value: []byte{0x01, 0x02}},
			{Account: "5Fc", CallHash: "0x03", Value: encodeEntryValue(10, 0, 100, account(0x01))},
		}

		approvals, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)

		require.Len(t, approvals, 1)
		assert.Equal(t, "5Fc:0x03", approvals[0].ID)
	})

	t.Run("should build a display-ready approval", func(t *testing.T) {
		depositor := account(0x05)
		approver := account(0x06)
		proposed := time.Unix(1_700_000_000, 0).UTC()

		source := newFakeSource()
		source.blockTimes[77] = proposed
		source.entries = []StorageEntry{{
			Account:  "5Fmulti",
			CallHash: "0xdeadbeefdeadbeefdeadbeef",
			Value:    encodeEntryValue(77, 1, 250, depositor, approver),
		}}

		approvals, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, approvals, 1)

		got := approvals[0]
		assert.Equal(t, "5Fmulti", got.MultisigAccount)
		assert.Equal(t, uint64(250), got.Deposit.Uint64())
		assert.Equal(t, mustAddress(t, depositor), got.Depositor)
		assert.Equal(t, []string{mustAddress(t, approver)}, got.Approvals)
		assert.Equal(t, Timepoint{Height: 77, Index: 1}, got.ProposedAt)
		require.NotNil(t, got.ProposedTime)
		assert.Equal(t, proposed, *got.ProposedTime)
		assert.True(t, got.Operation.Success)
		assert.Equal(t, callcodec.KindUnknown, got.Operation.Operation.Kind)
		assert.Contains(t, got.Operation.Summary, "unknown call")
	})

	t.Run("should render addresses with the chain's announced prefix", func(t *testing.T) {
		depositor := account(0x05)
		approver := account(0x06)

		source := newFakeSource()
		source.ss58Prefix = 7
		source.entries = []StorageEntry{{
			Account:  "5Fmulti",
			CallHash: "0x01",
			Value:    encodeEntryValue(1, 0, 0, depositor, approver),
		}}

		approvals, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, approvals, 1)

		wantDepositor, err := callcodec.EncodeAddress(depositor, 7)
		require.NoError(t, err)
		wantApprover, err := callcodec.EncodeAddress(approver, 7)
		require.NoError(t, err)

		assert.Equal(t, wantDepositor, approvals[0].Depositor)
		assert.Equal(t, []string{wantApprover}, approvals[0].Approvals)
		assert.NotEqual(t, mustAddress(t, depositor), approvals[0].Depositor)
	})

	t.Run("should default threshold and signatories for unregistered accounts", func(t *testing.T) {
		source := newFakeSource()
		source.entries = []StorageEntry{{
			Account:  "5Funknown",
			CallHash: "0x04",
			Value:    encodeEntryValue(1, 0, 0, account(0x01)),
		}}

		approvals, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, approvals, 1)

		assert.Zero(t, approvals[0].Threshold)
		assert.Empty(t, approvals[0].Signatories)
	})

	t.Run("should join registered accounts against the registry", func(t *testing.T) {
		registry, err := NewRegistry(RegistryEntry{
			Account:   "5Fmulti",
			Name:      "treasury",
			Threshold: 2,
			Signatories: []Signatory{
				{Name: "alice", Address: "5Falice"},
				{Name: "bob", Address: "5Fbob"},
				{Name: "carol", Address: "5Fcarol"},
			},
		})
		require.NoError(t, err)

		source := newFakeSource()
		source.entries = []StorageEntry{{
			Account:  "5Fmulti",
			CallHash: "0x05",
			Value:    encodeEntryValue(1, 0, 0, account(0x01)),
		}}

		approvals, err := New(source, registry).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, approvals, 1)

		assert.Equal(t, uint16(2), approvals[0].Threshold)
		assert.Len(t, approvals[0].Signatories, 3)
	})

	t.Run("should sort newest proposal first", func(t *testing.T) {
		source := newFakeSource()
		source.entries = []StorageEntry{
			{Account: "5Fa", CallHash: "0x01", Value: encodeEntryValue(10, 0, 0, account(0x01))},
			{Account: "5Fb", CallHash: "0x02", Value: encodeEntryValue(30, 1, 0, account(0x01))},
			{Account: "5Fc", CallHash: "0x03", Value: encodeEntryValue(30, 2, 0, account(0x01))},
		}

		approvals, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, approvals, 3)

		assert.Equal(t, "5Fc:0x03", approvals[0].ID)
		assert.Equal(t, "5Fb:0x02", approvals[1].ID)
		assert.Equal(t, "5Fa:0x01", approvals[2].ID)
	})

	t.Run("should resolve each proposal height at most once", func(t *testing.T) {
		source := newFakeSource()
		source.entries = []StorageEntry{
			{Account: "5Fa", CallHash: "0x01", Value: encodeEntryValue(50, 0, 0, account(0x01))},
			{Account: "5Fb", CallHash: "0x02", Value: encodeEntryValue(50, 1, 0, account(0x01))},
		}

		_, err := New(source, EmptyRegistry()).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)

		assert.Equal(t, 1, source.timeCalls[50])
	})

	t.Run("should use the resolver's decoded operation when available", func(t *testing.T) {
		source := newFakeSource()
		source.entries = []StorageEntry{{
			Account:  "5Fmulti",
			CallHash: "0x06",
			Value:    encodeEntryValue(1, 0, 0, account(0x01)),
		}}

		resolver := func(ctx context.Context, callHash string) (callcodec.DecodedOperation, bool) {
			return callcodec.DecodedOperation{
				Success:   true,
				Pallet:    callcodec.LedgerPalletName,
				Call:      "freeze",
				Operation: callcodec.Operation{Kind: callcodec.KindFrozen},
				Summary:   "Freeze 5Fsome…addr",
			}, true
		}

		approvals, err := New(source, EmptyRegistry(), WithOperationResolver(resolver)).FetchPendingApprovals(t.Context(), "")
		require.NoError(t, err)
		require.Len(t, approvals, 1)

		assert.Equal(t, callcodec.KindFrozen, approvals[0].Operation.Operation.Kind)
		assert.Equal(t, "Freeze 5Fsome…addr", approvals[0].Operation.Summary)
	})
}
