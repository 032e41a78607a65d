package unit

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValid(t *testing.T) {
	if !Valid("") {
		t.Fatalf("empty code means unitless and is valid")
	}
	if !Valid("kg") || !Valid("ml") || !Valid("dz") {
		t.Fatalf("known codes must be valid")
	}
	if Valid("furlong") {
		t.Fatalf("unknown code must be invalid")
	}
}

func TestCompatible(t *testing.T) {
	if !Compatible("g", "kg") {
		t.Fatalf("g and kg share a type")
	}
	if Compatible("g", "ml") {
		t.Fatalf("weight and volume are incompatible")
	}
	if Compatible("g", "") {
		t.Fatalf("unitless is compatible with nothing")
	}
}

func TestConvert(t *testing.T) {
	got, err := Convert(decimal.RequireFromString("2.5"), "kg", "g")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("expected 2500 g, got %s", got)
	}

	got, err = Convert(decimal.NewFromInt(30), "cm", "m")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("expected 0.3 m, got %s", got)
	}

	got, err = Convert(decimal.NewFromInt(18), "pc", "dz")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected 1.5 dz, got %s", got)
	}

	if _, err := Convert(decimal.NewFromInt(1), "kg", "l"); err == nil {
		t.Fatalf("cross-type conversion must fail")
	}
	if _, err := Convert(decimal.NewFromInt(1), "nope", "g"); err == nil {
		t.Fatalf("unknown unit must fail")
	}
}

func TestConvertRoundsToFourPlaces(t *testing.T) {
	got, err := Convert(decimal.NewFromInt(1), "g", "kg")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.001")) {
		t.Fatalf("expected 0.001 kg, got %s", got)
	}

	got, err = Convert(decimal.NewFromInt(1), "mg", "kg")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Equal(decimal.Zero) {
		t.Fatalf("1 mg in kg rounds away at 4 places, got %s", got)
	}
}

func TestAllowsFraction(t *testing.T) {
	if AllowsFraction("") {
		t.Fatalf("unitless products sell whole quantities only")
	}
	if !AllowsFraction("kg") {
		t.Fatalf("unit-bearing products may sell fractions")
	}
}

func TestAllAndLookup(t *testing.T) {
	all := All()
	if len(all) != 9 {
		t.Fatalf("expected 9 units, got %d", len(all))
	}
	u, ok := Lookup("kg")
	if !ok || u.Symbol != "kg" || !u.BaseMultiplier.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected kg lookup: %+v ok=%v", u, ok)
	}
	if _, ok := Lookup("zz"); ok {
		t.Fatalf("unknown code must not resolve")
	}
}
