// Package unit defines the fixed measurement-unit vocabulary for products
// sold by weight, volume, count, or length, and conversions between
// compatible units.
package unit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dailypos/backend/internal/domain"
)

type Unit struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Symbol         string          `json:"symbol"`
	BaseMultiplier decimal.Decimal `json:"base_multiplier"`
	IsBase         bool            `json:"is_base"`
}

// quantityPlaces is the rounding applied to converted quantities.
const quantityPlaces = 4

var units = []Unit{
	{Code: "mg", Name: "Milligram", Type: domain.UnitTypeWeight, Symbol: "mg", BaseMultiplier: decimal.New(1, -3)},
	{Code: "g", Name: "Gram", Type: domain.UnitTypeWeight, Symbol: "g", BaseMultiplier: decimal.New(1, 0), IsBase: true},
	{Code: "kg", Name: "Kilogram", Type: domain.UnitTypeWeight, Symbol: "kg", BaseMultiplier: decimal.New(1, 3)},
	{Code: "ml", Name: "Milliliter", Type: domain.UnitTypeVolume, Symbol: "ml", BaseMultiplier: decimal.New(1, 0), IsBase: true},
	{Code: "l", Name: "Liter", Type: domain.UnitTypeVolume, Symbol: "L", BaseMultiplier: decimal.New(1, 3)},
	{Code: "pc", Name: "Piece", Type: domain.UnitTypeCount, Symbol: "pc", BaseMultiplier: decimal.New(1, 0), IsBase: true},
	{Code: "dz", Name: "Dozen", Type: domain.UnitTypeCount, Symbol: "dz", BaseMultiplier: decimal.New(12, 0)},
	{Code: "cm", Name: "Centimeter", Type: domain.UnitTypeLength, Symbol: "cm", BaseMultiplier: decimal.New(1, 0), IsBase: true},
	{Code: "m", Name: "Meter", Type: domain.UnitTypeLength, Symbol: "m", BaseMultiplier: decimal.New(1, 2)},
}

var byCode = func() map[string]Unit {
	m := make(map[string]Unit, len(units))
	for _, u := range units {
		m[u.Code] = u
	}
	return m
}()

// All returns the unit vocabulary in declaration order.
func All() []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	return out
}

func Lookup(code string) (Unit, bool) {
	u, ok := byCode[code]
	return u, ok
}

// Valid reports whether code is empty (unitless product) or a known unit.
func Valid(code string) bool {
	if code == "" {
		return true
	}
	_, ok := byCode[code]
	return ok
}

// Compatible reports whether two unit codes share a measurement type.
func Compatible(a, b string) bool {
	ua, oka := byCode[a]
	ub, okb := byCode[b]
	return oka && okb && ua.Type == ub.Type
}

// Convert expresses qty given in the from unit as a quantity of the to
// unit, rounded half-up to four decimal places.
func Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, error) {
	uf, ok := byCode[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown unit %q", from)
	}
	ut, ok := byCode[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown unit %q", to)
	}
	if uf.Type != ut.Type {
		return decimal.Zero, fmt.Errorf("incompatible units %q and %q", from, to)
	}
	base := qty.Mul(uf.BaseMultiplier)
	return base.Div(ut.BaseMultiplier).Round(quantityPlaces), nil
}

// AllowsFraction reports whether quantities in this unit may be
// fractional. Unitless products sell in whole pieces only.
func AllowsFraction(code string) bool {
	return code != ""
}
