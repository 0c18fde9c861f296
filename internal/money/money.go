// Package money converts between major currency units (naira) and the minor
// units (kobo) Paystack expects on the wire.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MinorExponent is the number of decimal places between major and minor units.
const MinorExponent = 2

var hundred = decimal.NewFromInt(100)

// Bounds checked before any arithmetic. A decimal's exponent is unbounded, and
// rescaling 1e50000000 to an integer would build a fifty-million digit number.
const (
	maxExponent        = 18
	minExponent        = -38
	maxCoefficientBits = 127
)

var (
	ErrOutOfRange    = errors.New("amount out of range")
	ErrTooManyDigits = errors.New("amount has too many digits")
)

// Major is an amount in major currency units. It marshals to a bare JSON
// number and accepts both numbers and numeric strings.
type Major struct {
	decimal.Decimal
}

func NewMajor(d decimal.Decimal) Major {
	return Major{Decimal: d}
}

// MustMajor parses s and panics on error. Intended for tests and constants.
func MustMajor(s string) Major {
	return Major{Decimal: decimal.RequireFromString(s)}
}

func (m Major) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// ToMinor converts m to minor units. Sub-minor fractions are rounded half away
// from zero, so 1.005 becomes 101 and 1.004 becomes 100.
func ToMinor(m Major) (int64, error) {
	if m.Decimal.IsZero() {
		return 0, nil
	}
	if m.Decimal.Coefficient().BitLen() > maxCoefficientBits || m.Decimal.Exponent() < minExponent {
		return 0, ErrTooManyDigits
	}
	if m.Decimal.Exponent() > maxExponent {
		return 0, ErrOutOfRange
	}

	minor := m.Decimal.Mul(hundred).Round(0)
	if !minor.BigInt().IsInt64() {
		return 0, ErrOutOfRange
	}
	return minor.IntPart(), nil
}

// FromMinor converts minor units back to major units. The result is exact.
func FromMinor(minor int64) Major {
	return Major{Decimal: decimal.New(minor, -MinorExponent)}
}
