package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as signed integers in the smallest currency unit.
// Parsing and formatting go through decimal.Decimal so "12.30" never picks
// up float drift on the way to 1230 minor units.

const exponent = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more precision than the currency supports")
)

var scale = decimal.New(1, exponent)

// Parse converts a human decimal string ("50", "-12.30") into minor units.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m := d.Mul(scale)
	if !m.IsInteger() {
		return 0, ErrTooPrecise
	}
	return m.IntPart(), nil
}

// Format renders minor units as a fixed-point decimal string.
func Format(minor int64) string {
	return decimal.New(minor, -exponent).StringFixed(exponent)
}

// FromMajor converts a whole-unit value into minor units.
func FromMajor(major int64) int64 {
	return decimal.NewFromInt(major).Mul(scale).IntPart()
}
