package substrate

import (
	"context"
	"fmt"
	"math/big"

	"github.com/clad-sovereign/clad-dashboard/internal/callcodec"
)

// TokenBalance reads an account's ledger-token balance at the latest block.
// Accounts without an entry hold zero.
func (n *Node) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	account, _, err := callcodec.DecodeAddress(address)
	if err != nil {
		return nil, err
	}

	key := append(storageKey(callcodec.LedgerPalletName, "Balances"), blake2b128Concat(account[:])...)
	raw, err := n.storageAt(ctx, key, "")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return big.NewInt(0), nil
	}

	r := callcodec.NewReader(raw)
	return r.Uint128()
}

// NativeBalance reads an account's free native-token balance from the system
// account record at the latest block.
func (n *Node) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	account, _, err := callcodec.DecodeAddress(address)
	if err != nil {
		return nil, err
	}

	key := append(storageKey("System", "Account"), blake2b128Concat(account[:])...)
	raw, err := n.storageAt(ctx, key, "")
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return big.NewInt(0), nil
	}

	// AccountInfo: nonce, consumers, providers, sufficients (u32 each),
	// followed by the balance record. Free is the record's first field.
	r := callcodec.NewReader(raw)
	if _, err := r.Take(16); err != nil {
		return nil, fmt.Errorf("account record too short: %w", err)
	}
	return r.Uint128()
}
