package callcodec

import (
	"math/big"
	"strings"
)

// TruncateAddress shortens an address for display, keeping the first six and
// last four characters. Addresses short enough to show whole pass through.
func TruncateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}

// FormatAmount renders a raw ledger amount as a fixed-point decimal string:
// the value divided by 10^decimals, with thousands separators in the integer
// part, at least two fractional digits, and trailing zeros beyond the second
// fractional digit trimmed.
//
//	FormatAmount(1000000, 6)  -> "1.00"
//	FormatAmount(1234567, 6)  -> "1.234567"
//	FormatAmount(1250000, 6)  -> "1.25"
func FormatAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		raw = new(big.Int)
	}

	sign := ""
	abs := new(big.Int).Abs(raw)
	if raw.Sign() < 0 {
		sign = "-"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).DivMod(abs, scale, new(big.Int))

	fracDigits := strings.TrimRight(leftPad(frac.String(), int(decimals)), "0")
	for len(fracDigits) < 2 {
		fracDigits += "0"
	}

	return sign + groupThousands(whole.String()) + "." + fracDigits
}

// leftPad prefixes s with zeros until it reaches width.
func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// groupThousands inserts comma separators into a non-negative digit string.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
