package util

import (
	"github.com/shopspring/decimal"
)

// FloorToPrecision floors val to the given number of decimal places.
// Decimal arithmetic avoids 0.1+0.2 style artifacts in order quantities.
func FloorToPrecision(val float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(val).RoundFloor(int32(precision)).Float64()
	return f
}

// RoundToPrecision rounds val half away from zero to precision decimals
func RoundToPrecision(val float64, precision int) float64 {
	f, _ := decimal.NewFromFloat(val).Round(int32(precision)).Float64()
	return f
}

// MulFloat multiplies two floats through decimal to keep notional values stable
func MulFloat(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Float64()
	return f
}

// DivFloat divides a by b; b must be non-zero
func DivFloat(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).DivRound(decimal.NewFromFloat(b), 16).Float64()
	return f
}
