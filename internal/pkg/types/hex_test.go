package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexFromString(t *testing.T) {
	t.Run("valid lowercase hex", func(t *testing.T) {
		h, err := HexFromString("0x1a")
		require.NoError(t, err)
		assert.Equal(t, Hex("0x1a"), h)
	})

	t.Run("valid uppercase hex", func(t *testing.T) {
		h, err := HexFromString("0X2F")
		require.NoError(t, err)
		assert.Equal(t, Hex("0X2F"), h)
	})

	t.Run("missing 0x prefix", func(t *testing.T) {
		_, err := HexFromString("1a")
		require.Error(t, err)
	})

	t.Run("invalid hex characters", func(t *testing.T) {
		_, err := HexFromString("0xZZZ")
		require.Error(t, err)
	})
}

func TestHexFromUint64(t *testing.T) {
	t.Run("zero", func(t *testing.T) {
		assert.Equal(t, Hex("0x0"), HexFromUint64(0))
	})

	t.Run("round trip", func(t *testing.T) {
		h := HexFromUint64(123456)
		assert.Equal(t, uint64(123456), h.Uint64())
	})
}

func TestHex_UnmarshalJSON(t *testing.T) {
	t.Run("valid lowercase hex", func(t *testing.T) {
		var h Hex

		err := json.Unmarshal([]byte(`"0x1a"`), &h)
		require.NoError(t, err)
		assert.Equal(t, Hex("0x1a"), h)
	})

	t.Run("missing 0x prefix", func(t *testing.T) {
		var h Hex

		err := json.Unmarshal([]byte(`"1a"`), &h)
		require.Error(t, err)
	})

	t.Run("invalid hex characters", func(t *testing.T) {
		var h Hex

		err := json.Unmarshal([]byte(`"0xZZZ"`), &h)
		require.Error(t, err)
	})

	t.Run("not a string", func(t *testing.T) {
		var h Hex

		err := json.Unmarshal([]byte(`42`), &h)
		require.Error(t, err)
	})
}

func TestHex_Uint64(t *testing.T) {
	t.Run("0x0a should be 10", func(t *testing.T) {
		var h Hex = "0x0a"
		assert.Equal(t, uint64(10), h.Uint64())
	})

	t.Run("0xff should be 255", func(t *testing.T) {
		var h Hex = "0xff"
		assert.Equal(t, uint64(255), h.Uint64())
	})

	t.Run("0X10 should be 16", func(t *testing.T) {
		var h Hex = "0X10"
		assert.Equal(t, uint64(16), h.Uint64())
	})

	t.Run("invalid hex returns 0", func(t *testing.T) {
		var h Hex = "0xZZZ"
		assert.Equal(t, uint64(0), h.Uint64())
	})

	t.Run("empty value returns 0", func(t *testing.T) {
		var h Hex
		assert.True(t, h.IsEmpty())
		assert.Equal(t, uint64(0), h.Uint64())
	})
}
