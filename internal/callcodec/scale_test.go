package callcodec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCompact(t *testing.T) {
	cases := []struct {
		name  string
		value uint64
		want  []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one", 1, []byte{0x04}},
		{"forty two", 42, []byte{0xa8}},
		{"single byte max", 63, []byte{0xfc}},
		{"two byte min", 64, []byte{0x01, 0x01}},
		{"two byte max", 16383, []byte{0xfd, 0xff}},
		{"four byte min", 16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{"four byte max", 1073741823, []byte{0xfe, 0xff, 0xff, 0xff}},
		{"big integer min", 1073741824, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
	}

	for _, tc := range cases {
		t.Run("should encode "+tc.name, func(t *testing.T) {
			w := &scaleWriter{}
			require.NoError(t, w.writeCompact(new(big.Int).SetUint64(tc.value)))

			assert.Equal(t, tc.want, w.bytes())
		})
	}

	t.Run("should reject negative values", func(t *testing.T) {
		w := &scaleWriter{}

		assert.Error(t, w.writeCompact(big.NewInt(-1)))
	})

	t.Run("should reject values wider than 128 bits", func(t *testing.T) {
		w := &scaleWriter{}
		huge := new(big.Int).Lsh(big.NewInt(1), 129)

		assert.ErrorIs(t, w.writeCompact(huge), ErrIntegerTooLarge)
	})
}

func TestCompactRoundTrip(t *testing.T) {
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(63),
		big.NewInt(64),
		big.NewInt(16383),
		big.NewInt(16384),
		big.NewInt(1073741823),
		big.NewInt(1073741824),
		new(big.Int).SetUint64(^uint64(0)),
		new(big.Int).Lsh(big.NewInt(1), 127),
	}

	for _, v := range values {
		w := &scaleWriter{}
		require.NoError(t, w.writeCompact(v))

		r := NewReader(w.bytes())
		got, err := r.Compact()
		require.NoError(t, err)

		assert.Zero(t, v.Cmp(got), "value %s did not round trip", v)
		assert.Zero(t, r.Remaining())
	}
}

func TestReader(t *testing.T) {
	t.Run("should read little-endian integers", func(t *testing.T) {
		r := NewReader([]byte{0x39, 0x30, 0x00, 0x00, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})

		u32, err := r.Uint32()
		require.NoError(t, err)
		assert.Equal(t, uint32(12345), u32)

		u64, err := r.Uint64()
		require.NoError(t, err)
		assert.Equal(t, uint64(255), u64)
	})

	t.Run("should read a u128 as a big integer", func(t *testing.T) {
		raw := make([]byte, 16)
		raw[0] = 0x01
		raw[15] = 0x80

		r := NewReader(raw)
		v, err := r.Uint128()
		require.NoError(t, err)

		want := new(big.Int).Lsh(big.NewInt(1), 127)
		want.Add(want, big.NewInt(1))
		assert.Zero(t, want.Cmp(v))
	})

	t.Run("should fail on truncated input", func(t *testing.T) {
		r := NewReader([]byte{0x01, 0x02})

		_, err := r.Uint32()
		assert.ErrorIs(t, err, ErrUnexpectedEOF)
	})
}
