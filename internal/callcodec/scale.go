package callcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// SCALE primitives, limited to the shapes the ledger runtime's calls and
// storage values actually use: compact integers, fixed-width little-endian
// integers, fixed byte arrays, and option wrappers.

var (
	// ErrUnexpectedEOF indicates the input ended before a value was complete.
	ErrUnexpectedEOF = errors.New("unexpected end of SCALE input")

	// ErrIntegerTooLarge indicates a compact integer wider than 128 bits.
	ErrIntegerTooLarge = errors.New("compact integer too large")
)

// scaleReader walks a SCALE-encoded byte slice.
type scaleReader struct {
	data []byte
	pos  int
}

func newScaleReader(data []byte) *scaleReader {
	return &scaleReader{data: data}
}

// remaining reports how many bytes are left unread.
func (r *scaleReader) remaining() int {
	return len(r.data) - r.pos
}

// take consumes exactly n bytes.
func (r *scaleReader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// byte consumes a single byte.
func (r *scaleReader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// uint32LE consumes a fixed-width little-endian u32.
func (r *scaleReader) uint32LE() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// uint64LE consumes a fixed-width little-endian u64.
func (r *scaleReader) uint64LE() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// uint128LE consumes a fixed-width little-endian u128 as a big.Int.
func (r *scaleReader) uint128LE() (*big.Int, error) {
	b, err := r.take(16)
	if err != nil {
		return nil, err
	}
	return leBytesToBig(b), nil
}

// compact consumes a SCALE compact-encoded unsigned integer of up to 128 bits.
func (r *scaleReader) compact() (*big.Int, error) {
	first, err := r.byte()
	if err != nil {
		return nil, err
	}

	switch first & 0b11 {
	case 0:
		return big.NewInt(int64(first >> 2)), nil

	case 1:
		second, err := r.byte()
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(second)<<8) >> 2
		return new(big.Int).SetUint64(v), nil

	case 2:
		rest, err := r.take(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(first) | uint64(rest[0])<<8 | uint64(rest[1])<<16 | uint64(rest[2])<<24) >> 2
		return new(big.Int).SetUint64(v), nil

	default:
		n := int(first>>2) + 4
		if n > 16 {
			return nil, ErrIntegerTooLarge
		}
		b, err := r.take(n)
		if err != nil {
			return nil, err
		}
		return leBytesToBig(b), nil
	}
}

// compactUint64 consumes a compact integer expected to fit in 64 bits.
func (r *scaleReader) compactUint64() (uint64, error) {
	v, err := r.compact()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ErrIntegerTooLarge
	}
	return v.Uint64(), nil
}

// scaleWriter builds a SCALE-encoded byte slice.
type scaleWriter struct {
	buf []byte
}

func (w *scaleWriter) bytes() []byte {
	return w.buf
}

func (w *scaleWriter) writeByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *scaleWriter) writeRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *scaleWriter) writeUint64LE(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// writeCompact appends the canonical compact encoding of v, which must be a
// non-negative integer of at most 128 bits.
func (w *scaleWriter) writeCompact(v *big.Int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("compact encoding requires a non-negative value, got %s", v)
	}
	if v.BitLen() > 128 {
		return ErrIntegerTooLarge
	}

	switch {
	case v.BitLen() <= 6:
		w.writeByte(byte(v.Uint64()) << 2)

	case v.BitLen() <= 14:
		u := uint16(v.Uint64())<<2 | 0b01
		w.writeByte(byte(u))
		w.writeByte(byte(u >> 8))

	case v.BitLen() <= 30:
		u := uint32(v.Uint64())<<2 | 0b10
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], u)
		w.writeRaw(b[:])

	default:
		le := bigToLEBytes(v)
		w.writeByte(byte(len(le)-4)<<2 | 0b11)
		w.writeRaw(le)
	}

	return nil
}

// leBytesToBig interprets b as a little-endian unsigned integer.
func leBytesToBig(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

// bigToLEBytes renders v as its minimal little-endian byte representation.
func bigToLEBytes(v *big.Int) []byte {
	be := v.Bytes()
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return le
}
