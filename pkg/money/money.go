// Package money converts stored integer cents into presentation amounts.
package money

import "github.com/shopspring/decimal"

// Cents is an amount in the smallest currency unit.
type Cents = int64

// Amount returns cents as a two-place decimal.
func Amount(c Cents) decimal.Decimal {
	return decimal.NewFromInt(c).Shift(-2)
}

// Float renders cents for JSON payloads.
func Float(c Cents) float64 {
	return Amount(c).InexactFloat64()
}

// Mul multiplies a unit price by a quantity.
func Mul(unit Cents, qty int) Cents {
	return unit * int64(qty)
}
