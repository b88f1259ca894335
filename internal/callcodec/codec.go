// Package callcodec encodes ledger operations into their canonical SCALE wire
// form and decodes opaque call payloads back into typed, display-ready
// operations. Decoding is a pure function of (profile, payload), never
// mutates other state, and never fails past its own boundary: a payload that
// cannot be interpreted still yields a structured result with an error detail
// or a "<pallet>.<call>" fallback description.
package callcodec

import (
	"fmt"
	"math/big"
)

// EncodedCall is the canonical wire form of an operation: the SCALE payload,
// its blake2b-256 content hash, and the pallet/call labels it encodes.
type EncodedCall struct {
	Payload []byte
	Hash    string
	Pallet  string
	Call    string
}

// Args holds decoded call arguments in both addressing schemes. Depending on
// the encoding path, stored call records may carry arguments as a named-field
// structure or a positional list, so extraction always tries the name first
// and falls back to the position.
type Args struct {
	Named      map[string]any
	Positional []any
}

// Value returns the argument under name, falling back to the positional
// index when no named entry exists.
func (a Args) Value(name string, index int) (any, bool) {
	if v, ok := a.Named[name]; ok {
		return v, true
	}
	if index >= 0 && index < len(a.Positional) {
		return a.Positional[index], true
	}
	return nil, false
}

// Account returns the argument as an SS58 address string.
func (a Args) Account(name string, index int) (string, bool) {
	v, ok := a.Value(name, index)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Amount returns the argument as a raw ledger amount.
func (a Args) Amount(name string, index int) (*big.Int, bool) {
	v, ok := a.Value(name, index)
	if !ok {
		return nil, false
	}
	n, ok := v.(*big.Int)
	return n, ok
}

// Operation is the tagged result of interpreting a call payload.
type Operation struct {
	Kind OperationKind
	Args Args
}

// DecodedOperation is the full decode result. Success reports whether the
// payload parsed against the profile; ErrorDetail is set iff Success is
// false. Summary is always usable for display.
type DecodedOperation struct {
	Success     bool
	Pallet      string
	Call        string
	Operation   Operation
	Summary     string
	ErrorDetail string
}

// Encode builds the canonical wire payload for the named call. Arguments are
// positional and must match the call's metadata: SS58 address strings (or raw
// AccountID values) for account arguments, *big.Int or uint64 for balances.
// Identical inputs against an identical profile always produce the identical
// payload and hash.
func Encode(p *Profile, palletName, callName string, args ...any) (EncodedCall, error) {
	pallet, ok := p.PalletByName(palletName)
	if !ok {
		return EncodedCall{}, fmt.Errorf("pallet %q not present in chain metadata", palletName)
	}

	call, ok := pallet.CallByName(callName)
	if !ok {
		return EncodedCall{}, fmt.Errorf("call %q not present in pallet %q", callName, palletName)
	}

	if len(args) != len(call.Args) {
		return EncodedCall{}, fmt.Errorf("%s.%s expects %d argument(s), got %d",
			palletName, callName, len(call.Args), len(args))
	}

	w := &scaleWriter{}
	w.writeByte(pallet.Index)
	w.writeByte(call.Index)

	for i, meta := range call.Args {
		if err := encodeArg(w, meta, args[i]); err != nil {
			return EncodedCall{}, fmt.Errorf("argument %q of %s.%s: %w", meta.Name, palletName, callName, err)
		}
	}

	payload := w.bytes()
	return EncodedCall{
		Payload: payload,
		Hash:    CallHash(payload),
		Pallet:  palletName,
		Call:    callName,
	}, nil
}

// encodeArg appends one argument in its wire shape.
func encodeArg(w *scaleWriter, meta ArgMeta, value any) error {
	switch meta.Kind {
	case ArgAccount:
		account, err := coerceAccount(value)
		if err != nil {
			return err
		}
		w.writeRaw(account[:])
		return nil

	case ArgBalance:
		amount, err := coerceAmount(value)
		if err != nil {
			return err
		}
		return w.writeCompact(amount)

	default:
		return fmt.Errorf("unsupported argument kind %d", meta.Kind)
	}
}

// coerceAccount accepts the account representations callers are likely to
// hold: an SS58 string, a raw AccountID, or a 32-byte slice.
func coerceAccount(value any) (AccountID, error) {
	switch v := value.(type) {
	case AccountID:
		return v, nil
	case string:
		account, _, err := DecodeAddress(v)
		return account, err
	case []byte:
		var account AccountID
		if len(v) != accountIDLength {
			return account, fmt.Errorf("account must be %d bytes, got %d", accountIDLength, len(v))
		}
		copy(account[:], v)
		return account, nil
	default:
		return AccountID{}, fmt.Errorf("cannot use %T as an account argument", value)
	}
}

// coerceAmount accepts *big.Int or uint64 balance values.
func coerceAmount(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			return nil, fmt.Errorf("amount must be a non-negative integer")
		}
		return v, nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("cannot use %T as an amount argument", value)
	}
}

// Decode interprets an opaque call payload against the profile. It never
// returns an error: parse failures yield Success=false with an ErrorDetail,
// and structurally valid calls outside the ledger pallet's known surface
// yield an Unknown operation described as "<pallet>.<call>".
func Decode(p *Profile, payload []byte) DecodedOperation {
	fail := func(detail string) DecodedOperation {
		return DecodedOperation{
			Success:     false,
			Operation:   Operation{Kind: KindUnknown},
			Summary:     "undecodable call",
			ErrorDetail: detail,
		}
	}

	r := newScaleReader(payload)

	palletIndex, err := r.byte()
	if err != nil {
		return fail("payload too short for a pallet index")
	}
	callIndex, err := r.byte()
	if err != nil {
		return fail("payload too short for a call index")
	}

	pallet, ok := p.PalletByIndex(palletIndex)
	if !ok {
		return fail(fmt.Sprintf("pallet index %d not present in chain metadata", palletIndex))
	}

	call, ok := pallet.CallByIndex(callIndex)
	if !ok {
		return fail(fmt.Sprintf("call index %d not present in pallet %q", callIndex, pallet.Name))
	}

	args, err := decodeArgs(p, r, call)
	if err != nil {
		return fail(fmt.Sprintf("malformed arguments for %s.%s: %v", pallet.Name, call.Name, err))
	}
	if r.remaining() != 0 {
		return fail(fmt.Sprintf("%d trailing byte(s) after %s.%s arguments", r.remaining(), pallet.Name, call.Name))
	}

	kind := KindUnknown
	if pallet.Name == LedgerPalletName {
		if k, known := ledgerCallKinds[call.Name]; known {
			kind = k
		}
	}

	op := Operation{Kind: kind, Args: args}
	return DecodedOperation{
		Success:   true,
		Pallet:    pallet.Name,
		Call:      call.Name,
		Operation: op,
		Summary:   summarize(p, pallet.Name, call.Name, op),
	}
}

// decodeArgs reads every argument of the call, recording each value under
// both its name and its position.
func decodeArgs(p *Profile, r *scaleReader, call CallMeta) (Args, error) {
	args := Args{Named: make(map[string]any, len(call.Args))}

	for _, meta := range call.Args {
		var value any

		switch meta.Kind {
		case ArgAccount:
			raw, err := r.take(accountIDLength)
			if err != nil {
				return Args{}, err
			}
			var account AccountID
			copy(account[:], raw)
			address, err := EncodeAddress(account, p.SS58Prefix)
			if err != nil {
				return Args{}, err
			}
			value = address

		case ArgBalance:
			amount, err := r.compact()
			if err != nil {
				return Args{}, err
			}
			value = amount

		default:
			return Args{}, fmt.Errorf("unsupported argument kind %d", meta.Kind)
		}

		args.Named[meta.Name] = value
		args.Positional = append(args.Positional, value)
	}

	return args, nil
}

// summarize renders the human-readable one-liner for a decoded operation.
// Anything outside the known ledger surface falls back to "<pallet>.<call>".
func summarize(p *Profile, palletName, callName string, op Operation) string {
	fallback := palletName + "." + callName

	account := func(name string) string {
		addr, ok := op.Args.Account(name, 0)
		if !ok {
			return "?"
		}
		return TruncateAddress(addr)
	}
	amount := func(name string) string {
		v, ok := op.Args.Amount(name, 1)
		if !ok {
			return "?"
		}
		return FormatAmount(v, p.TokenDecimals) + " " + p.TokenSymbol
	}

	switch op.Kind {
	case KindMinted:
		return fmt.Sprintf("Mint %s to %s", amount("amount"), account("to"))
	case KindTransferred:
		return fmt.Sprintf("Transfer %s to %s", amount("amount"), account("to"))
	case KindFrozen:
		return fmt.Sprintf("Freeze %s", account("who"))
	case KindUnfrozen:
		return fmt.Sprintf("Unfreeze %s", account("who"))
	case KindWhitelisted:
		return fmt.Sprintf("Add %s to whitelist", account("who"))
	case KindRemovedFromWhitelist:
		return fmt.Sprintf("Remove %s from whitelist", account("who"))
	default:
		return fallback
	}
}
