package nutrition

import (
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidServings = errors.New("servings must be positive")
	ErrInvalidQuantity = errors.New("quantity must be a finite number")
)

// wholeUnitStems are matched case-insensitively as substrings of the unit.
// Quantities in these units are counted items and are never fractional.
// Any unit containing a stem counts, so "scant cup" (contains "can") is a
// whole unit too.
var wholeUnitStems = []string{
	"egg",
	"can",
	"package",
	"loaf",
	"loaves",
	"bulb",
	"head",
}

// IsWholeUnit reports whether unit counts indivisible items.
func IsWholeUnit(unit string) bool {
	u := strings.ToLower(unit)
	for _, stem := range wholeUnitStems {
		if strings.Contains(u, stem) {
			return true
		}
	}
	return false
}

// Scaled is a rescaled quantity. Unit is the caller's unit, unchanged.
type Scaled struct {
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ScaleQuantity rescales quantity from originalServings to newServings.
// Whole units round to the nearest integer but never below 1; everything
// else rounds to two decimals. No unit conversion is done.
func ScaleQuantity(quantity, originalServings, newServings float64, unit string) (Scaled, error) {
	if !validServings(originalServings) || !validServings(newServings) {
		return Scaled{}, ErrInvalidServings
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return Scaled{}, ErrInvalidQuantity
	}

	scaled := quantity * (newServings / originalServings)
	if IsWholeUnit(unit) {
		scaled = math.Round(scaled)
		if scaled == 0 {
			scaled = 1
		}
	} else {
		scaled = math.Round(scaled*100) / 100
	}
	return Scaled{Quantity: scaled, Unit: unit}, nil
}

func validServings(s float64) bool {
	return s > 0 && !math.IsInf(s, 0)
}

// Ingredient is a recipe line. Only Quantity is changed by scaling.
type Ingredient struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     string   `json:"unit"`
	Notes    string   `json:"notes,omitempty"`
	RawLine  string   `json:"raw_line,omitempty"`
}

// ScaleIngredients returns a copy of items scaled between serving counts.
// Ingredients without a quantity ("salt to taste") pass through unchanged.
func ScaleIngredients(items []Ingredient, originalServings, newServings float64) ([]Ingredient, error) {
	if !validServings(originalServings) || !validServings(newServings) {
		return nil, ErrInvalidServings
	}
	out := make([]Ingredient, len(items))
	for i, item := range items {
		out[i] = item
		if item.Quantity == nil {
			continue
		}
		s, err := ScaleQuantity(*item.Quantity, originalServings, newServings, item.Unit)
		if err != nil {
			return nil, err
		}
		q := s.Quantity
		out[i].Quantity = &q
	}
	return out, nil
}
