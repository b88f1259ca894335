package callcodec

// Profile describes the slice of chain metadata the codec needs: pallet and
// call layout plus token display properties. The substrate adapter builds one
// per connection from the node's system properties and the ledger runtime's
// known pallet layout; tests construct profiles directly.
type Profile struct {
	Pallets []PalletMeta

	TokenSymbol   string
	TokenDecimals uint8

	NativeSymbol   string
	NativeDecimals uint8

	SS58Prefix uint8
}

// PalletMeta describes one pallet's dispatchable surface.
type PalletMeta struct {
	Name  string
	Index uint8
	Calls []CallMeta
}

// CallMeta describes one dispatchable call and its argument layout.
type CallMeta struct {
	Name  string
	Index uint8
	Args  []ArgMeta
}

// ArgMeta names one call argument and its wire shape.
type ArgMeta struct {
	Name string
	Kind ArgKind
}

// ArgKind enumerates the argument wire shapes the ledger runtime uses.
type ArgKind int

const (
	// ArgAccount is a raw 32-byte account identifier.
	ArgAccount ArgKind = iota

	// ArgBalance is a compact-encoded u128 token amount.
	ArgBalance
)

// LedgerPalletName is the pallet whose calls map onto typed operations.
const LedgerPalletName = "CladToken"

// OperationKind tags a decoded operation. The set mirrors the ledger events
// the dashboard tracks, plus Unknown for anything outside the ledger pallet.
type OperationKind string

const (
	KindMinted               OperationKind = "Minted"
	KindTransferred          OperationKind = "Transferred"
	KindFrozen               OperationKind = "Frozen"
	KindUnfrozen             OperationKind = "Unfrozen"
	KindWhitelisted          OperationKind = "Whitelisted"
	KindRemovedFromWhitelist OperationKind = "RemovedFromWhitelist"
	KindUnknown              OperationKind = "Unknown"
)

// ledgerCallKinds is the fixed mapping from ledger-pallet call names to
// operation kinds. Calls absent from this table decode as Unknown.
var ledgerCallKinds = map[string]OperationKind{
	"mint":                  KindMinted,
	"transfer":              KindTransferred,
	"freeze":                KindFrozen,
	"thaw":                  KindUnfrozen,
	"add_to_whitelist":      KindWhitelisted,
	"remove_from_whitelist": KindRemovedFromWhitelist,
}

// PalletByIndex returns the pallet with the given dispatch index.
func (p *Profile) PalletByIndex(index uint8) (PalletMeta, bool) {
	for _, pallet := range p.Pallets {
		if pallet.Index == index {
			return pallet, true
		}
	}
	return PalletMeta{}, false
}

// PalletByName returns the pallet with the given name.
func (p *Profile) PalletByName(name string) (PalletMeta, bool) {
	for _, pallet := range p.Pallets {
		if pallet.Name == name {
			return pallet, true
		}
	}
	return PalletMeta{}, false
}

// CallByIndex returns the call with the given index inside the pallet.
func (pm PalletMeta) CallByIndex(index uint8) (CallMeta, bool) {
	for _, call := range pm.Calls {
		if call.Index == index {
			return call, true
		}
	}
	return CallMeta{}, false
}

// CallByName returns the call with the given name inside the pallet.
func (pm PalletMeta) CallByName(name string) (CallMeta, bool) {
	for _, call := range pm.Calls {
		if call.Name == name {
			return call, true
		}
	}
	return CallMeta{}, false
}

// DefaultProfile returns the pallet layout of the CLAD ledger runtime with
// generic display properties. Connection-specific fields (symbols, decimals,
// SS58 prefix) are overwritten from the node's system properties at connect
// time.
func DefaultProfile() *Profile {
	return &Profile{
		TokenSymbol:    "CLAD",
		TokenDecimals:  6,
		NativeSymbol:   "UNIT",
		NativeDecimals: 18,
		SS58Prefix:     42,
		Pallets: []PalletMeta{
			{
				// Present for event attribution only; the dashboard never
				// encodes system calls.
				Name:  "System",
				Index: 0,
			},
			{
				Name:  "Balances",
				Index: 5,
				Calls: []CallMeta{
					{Name: "transfer_allow_death", Index: 0, Args: []ArgMeta{
						{Name: "dest", Kind: ArgAccount},
						{Name: "value", Kind: ArgBalance},
					}},
					{Name: "transfer_keep_alive", Index: 3, Args: []ArgMeta{
						{Name: "dest", Kind: ArgAccount},
						{Name: "value", Kind: ArgBalance},
					}},
				},
			},
			{
				Name:  LedgerPalletName,
				Index: 10,
				Calls: []CallMeta{
					{Name: "mint", Index: 0, Args: []ArgMeta{
						{Name: "to", Kind: ArgAccount},
						{Name: "amount", Kind: ArgBalance},
					}},
					{Name: "transfer", Index: 1, Args: []ArgMeta{
						{Name: "to", Kind: ArgAccount},
						{Name: "amount", Kind: ArgBalance},
					}},
					{Name: "freeze", Index: 2, Args: []ArgMeta{
						{Name: "who", Kind: ArgAccount},
					}},
					{Name: "thaw", Index: 3, Args: []ArgMeta{
						{Name: "who", Kind: ArgAccount},
					}},
					{Name: "add_to_whitelist", Index: 4, Args: []ArgMeta{
						{Name: "who", Kind: ArgAccount},
					}},
					{Name: "remove_from_whitelist", Index: 5, Args: []ArgMeta{
						{Name: "who", Kind: ArgAccount},
					}},
				},
			},
		},
	}
}
