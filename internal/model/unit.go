package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unit is the numeric code of a measuring unit. Codes are stable: they are persisted and
// take part in the merge identity key.
type Unit int

const (
	UnitPiece Unit = iota
	UnitGram
	UnitKilogram
	UnitMilliliter
	UnitLiter
	UnitPack
	UnitCan
	UnitBottle
	UnitBunch
	UnitTeaspoon
	UnitTablespoon
	UnitCup
	UnitPinch
	UnitClove
	UnitSlice
)

type unitInfo struct {
	symbol  string
	aliases []string
}

var units = map[Unit]unitInfo{
	UnitPiece:      {"pc", []string{"pcs", "piece", "pieces", "x", "stk", "stück"}},
	UnitGram:       {"g", []string{"gr", "gram", "grams", "gramm", "gramme"}},
	UnitKilogram:   {"kg", []string{"kilo", "kilos", "kilogram", "kilograms", "kilogramm"}},
	UnitMilliliter: {"ml", []string{"milliliter", "milliliters", "millilitre", "millilitres"}},
	UnitLiter:      {"l", []string{"lt", "liter", "liters", "litre", "litres"}},
	UnitPack:       {"pack", []string{"packs", "pkg", "package", "packages", "packet", "packets"}},
	UnitCan:        {"can", []string{"cans", "tin", "tins"}},
	UnitBottle:     {"bottle", []string{"bottles", "btl"}},
	UnitBunch:      {"bunch", []string{"bunches"}},
	UnitTeaspoon:   {"tsp", []string{"teaspoon", "teaspoons", "tl"}},
	UnitTablespoon: {"tbsp", []string{"tablespoon", "tablespoons", "el"}},
	UnitCup:        {"cup", []string{"cups"}},
	UnitPinch:      {"pinch", []string{"pinches", "prise"}},
	UnitClove:      {"clove", []string{"cloves"}},
	UnitSlice:      {"slice", []string{"slices"}},
}

var unitLookup = func() map[string]Unit {
	m := make(map[string]Unit)
	for u, info := range units {
		m[info.symbol] = u
		for _, a := range info.aliases {
			m[a] = u
		}
	}
	return m
}()

func (u Unit) String() string {
	if info, ok := units[u]; ok {
		return info.symbol
	}
	return strconv.Itoa(int(u))
}

// Valid reports whether u is a known unit code.
func (u Unit) Valid() bool {
	_, ok := units[u]
	return ok
}

// UnitInfo is the wire form used by the units endpoint.
type UnitInfo struct {
	ID     Unit   `json:"id"`
	Symbol string `json:"symbol"`
}

// Units returns all known units ordered by code.
func Units() []UnitInfo {
	out := make([]UnitInfo, 0, len(units))
	for u := UnitPiece; u <= UnitSlice; u++ {
		out = append(out, UnitInfo{ID: u, Symbol: units[u].symbol})
	}
	return out
}

// ParseUnit resolves a numeric code ("3"), a symbol ("ml") or an alias ("litres").
// The empty string is UnitPiece.
func ParseUnit(s string) (Unit, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ".")))
	if s == "" {
		return UnitPiece, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		u := Unit(n)
		return u, u.Valid()
	}
	u, ok := unitLookup[s]
	return u, ok
}

// UnmarshalJSON accepts a numeric code, a numeric string or a unit name.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		n, err := decodeCode(data)
		if err != nil {
			return fmt.Errorf("unit: %w", err)
		}
		s = strconv.Itoa(n)
	}
	parsed, ok := ParseUnit(s)
	if !ok {
		return fmt.Errorf("unknown unit %q", s)
	}
	*u = parsed
	return nil
}
