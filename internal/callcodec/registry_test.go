package callcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	t.Run("should carry every pallet the event decoder attributes", func(t *testing.T) {
		profile := DefaultProfile()

		for name, index := range map[string]uint8{
			"System":         0,
			"Balances":       5,
			LedgerPalletName: 10,
		} {
			pallet, ok := profile.PalletByName(name)
			require.True(t, ok, "pallet %s missing from default profile", name)
			assert.Equal(t, index, pallet.Index)
		}
	})

	t.Run("should resolve pallets by index", func(t *testing.T) {
		profile := DefaultProfile()

		pallet, ok := profile.PalletByIndex(10)
		require.True(t, ok)
		assert.Equal(t, LedgerPalletName, pallet.Name)

		_, ok = profile.PalletByIndex(99)
		assert.False(t, ok)
	})

	t.Run("should list the full ledger call set", func(t *testing.T) {
		profile := DefaultProfile()

		ledger, ok := profile.PalletByName(LedgerPalletName)
		require.True(t, ok)

		for _, name := range []string{
			"mint", "transfer", "freeze", "thaw",
			"add_to_whitelist", "remove_from_whitelist",
		} {
			_, ok := ledger.CallByName(name)
			assert.True(t, ok, "call %s missing from %s", name, LedgerPalletName)
		}
	})
}
