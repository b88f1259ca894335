package callcodec

import "math/big"

// Reader exposes the codec's SCALE primitives to packages that decode
// chain-side structures such as event records and storage values.
type Reader struct {
	r *scaleReader
}

// NewReader wraps data in a SCALE reader positioned at the start.
func NewReader(data []byte) *Reader {
	return &Reader{r: newScaleReader(data)}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return r.r.remaining()
}

// Take consumes exactly n bytes.
func (r *Reader) Take(n int) ([]byte, error) {
	return r.r.take(n)
}

// Byte consumes a single byte.
func (r *Reader) Byte() (byte, error) {
	return r.r.byte()
}

// Uint32 consumes a fixed-width little-endian u32.
func (r *Reader) Uint32() (uint32, error) {
	return r.r.uint32LE()
}

// Uint64 consumes a fixed-width little-endian u64.
func (r *Reader) Uint64() (uint64, error) {
	return r.r.uint64LE()
}

// Uint128 consumes a fixed-width little-endian u128.
func (r *Reader) Uint128() (*big.Int, error) {
	return r.r.uint128LE()
}

// Compact consumes a compact-encoded unsigned integer of up to 128 bits.
func (r *Reader) Compact() (*big.Int, error) {
	return r.r.compact()
}

// CompactUint64 consumes a compact integer expected to fit in 64 bits.
func (r *Reader) CompactUint64() (uint64, error) {
	return r.r.compactUint64()
}
