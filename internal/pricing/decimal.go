package pricing

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimal is an exact decimal number used for reference prices and the
// exchange rate. Floats are forbidden throughout the engine - binary floating
// point made the upstream conversion platform-sensitive, so money-denominated
// inputs are parsed from decimal strings and kept as exact rationals.
type Decimal struct {
	rat *big.Rat
}

// ParseDecimal parses a plain decimal string such as "10", "2.5" or "0.0001".
// Rational syntax ("1/3"), exponents and signs other than a leading '-' are
// rejected so every Decimal has a finite decimal expansion.
func ParseDecimal(s string) (Decimal, error) {
	if s == "" {
		return Decimal{}, fmt.Errorf("empty decimal")
	}
	if strings.ContainsAny(s, "/eE+") {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	rat, ok := new(big.Rat).SetString(s)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	return Decimal{rat: rat}, nil
}

// MustDecimal parses a decimal literal and panics on error. Test helper.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the decimal is unset or exactly zero.
func (d Decimal) IsZero() bool { return d.rat == nil || d.rat.Sign() == 0 }

// Positive reports whether the decimal is strictly greater than zero.
func (d Decimal) Positive() bool { return d.rat != nil && d.rat.Sign() > 0 }

// Rat returns the underlying rational, or zero if unset.
func (d Decimal) Rat() *big.Rat {
	if d.rat == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(d.rat)
}

// String renders the decimal in plain notation with trailing zeros trimmed.
func (d Decimal) String() string {
	if d.rat == nil {
		return "0"
	}
	if d.rat.IsInt() {
		return d.rat.Num().String()
	}
	// Parsed decimals always have a power-of-ten denominator, so a fixed
	// 24-digit expansion is exact; trim it back down.
	s := d.rat.FloatString(24)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// MarshalText implements encoding.TextMarshaler.
func (d Decimal) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decimal) UnmarshalText(b []byte) error {
	parsed, err := ParseDecimal(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
