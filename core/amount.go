package core

import (
	"fmt"
	"math/big"
	"strings"
)

// AmountDecimals is the fixed number of fractional digits every Amount
// carries, per spec §4.2 "amounts are fixed-point with 18 fractional
// digits, stored as 128-bit signed integers".
const AmountDecimals = 18

var (
	amountOne  = new(big.Int).Exp(big.NewInt(10), big.NewInt(AmountDecimals), nil)
	amountZero = big.NewInt(0)

	// amountMax/amountMin bound a signed 128-bit integer; an Amount whose
	// underlying value would fall outside this range is not representable.
	amountMax = func() *big.Int {
		v := new(big.Int).Lsh(big.NewInt(1), 127)
		return v.Sub(v, big.NewInt(1))
	}()
	amountMin = func() *big.Int {
		v := new(big.Int).Lsh(big.NewInt(1), 127)
		return v.Neg(v)
	}()
)

// Amount is a fixed-point decimal with 18 fractional digits backed by a
// 128-bit signed integer (spec §4.2). The zero value is 0.
type Amount struct {
	// raw is the value multiplied by 10^18; e.g. raw=1_500000000000000000
	// represents 1.5.
	raw *big.Int
}

// ZeroAmount returns the additive identity.
func ZeroAmount() Amount { return Amount{raw: new(big.Int)} }

// AmountFromInt constructs a whole-number Amount (no fractional part).
func AmountFromInt(n int64) Amount {
	return Amount{raw: new(big.Int).Mul(big.NewInt(n), amountOne)}
}

// AmountFromRaw constructs an Amount directly from its 10^18-scaled
// representation, e.g. for decoding off the wire.
func AmountFromRaw(raw *big.Int) Amount {
	return Amount{raw: new(big.Int).Set(raw)}
}

// Raw returns the 10^18-scaled underlying integer.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) ensure() *big.Int {
	if a.raw == nil {
		return amountZero
	}
	return a.raw
}

func inRange(v *big.Int) bool {
	return v.Cmp(amountMin) >= 0 && v.Cmp(amountMax) <= 0
}

// Add returns a+b, failing InvalidAmount if the result does not fit in a
// signed 128-bit integer (spec §4.2 "addition and subtraction must
// saturate-detect and fail InvalidAmount on non-representable values").
func (a Amount) Add(b Amount) (Amount, error) {
	sum := new(big.Int).Add(a.ensure(), b.ensure())
	if !inRange(sum) {
		return Amount{}, &InvalidAmount{Amount: AmountFromRaw(sum)}
	}
	return Amount{raw: sum}, nil
}

// Sub returns a-b, failing InvalidAmount if the result does not fit in a
// signed 128-bit integer.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := new(big.Int).Sub(a.ensure(), b.ensure())
	if !inRange(diff) {
		return Amount{}, &InvalidAmount{Amount: AmountFromRaw(diff)}
	}
	return Amount{raw: diff}, nil
}

// Cmp compares two amounts the way big.Int.Cmp does.
func (a Amount) Cmp(b Amount) int { return a.ensure().Cmp(b.ensure()) }

func (a Amount) IsZero() bool { return a.ensure().Sign() == 0 }
func (a Amount) IsNegative() bool { return a.ensure().Sign() < 0 }

// DivisibilityAligned reports whether the amount is representable at the
// given divisibility (0-18 significant fractional digits): the value must
// be an exact multiple of 10^(18-divisibility), per spec §4.2.
func (a Amount) DivisibilityAligned(divisibility uint8) bool {
	if divisibility >= AmountDecimals {
		return true
	}
	granularity := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(AmountDecimals-divisibility)), nil)
	mod := new(big.Int).Mod(a.ensure(), granularity)
	return mod.Sign() == 0
}

// String renders the amount as a decimal string, e.g. "1.500000000000000000".
func (a Amount) String() string {
	raw := a.ensure()
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	s := abs.String()
	for len(s) <= AmountDecimals {
		s = "0" + s
	}
	intPart := s[:len(s)-AmountDecimals]
	fracPart := s[len(s)-AmountDecimals:]
	out := intPart + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// ParseAmount parses a decimal string (e.g. "1.5", "-3", "0.000000000000000001")
// into an Amount, the inverse of String.
func ParseAmount(s string) (Amount, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > AmountDecimals {
		return Amount{}, fmt.Errorf("amount %q: too many fractional digits", s)
	}
	for len(fracPart) < AmountDecimals {
		fracPart += "0"
	}
	if !hasFrac {
		fracPart = strings.Repeat("0", AmountDecimals)
	}
	raw, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		raw.Neg(raw)
	}
	if !inRange(raw) {
		return Amount{}, &InvalidAmount{Amount: AmountFromRaw(raw)}
	}
	return Amount{raw: raw}, nil
}

// AsUint64Count interprets the amount as a non-negative integer count, used
// by ResourceContainer.take for non-fungible resources where "amount" names
// a cardinality rather than a fungible quantity (spec §4.2).
func (a Amount) AsUint64Count() (uint64, bool) {
	raw := a.ensure()
	if raw.Sign() < 0 || !a.DivisibilityAligned(0) {
		return 0, false
	}
	whole := new(big.Int).Quo(raw, amountOne)
	if !whole.IsUint64() {
		return 0, false
	}
	return whole.Uint64(), true
}
