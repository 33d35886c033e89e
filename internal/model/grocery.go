package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Origin tells whether an item was entered by a user or derived from a recipe attachment.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginRecipe Origin = "recipe"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginManual || o == OriginRecipe
}

type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     Unit     `json:"unit"`
	Category Category `json:"category"`
	Origin   Origin   `json:"origin"`
	RecipeID string   `json:"recipeId,omitempty"`
	Active   bool     `json:"active"`
}

// Quantity is a nullable amount. The zero value is null.
type Quantity struct {
	Value float64
	Valid bool
}

// Qty returns a non-null quantity.
func Qty(v float64) Quantity {
	return Quantity{Value: v, Valid: true}
}

// Add combines two quantities: numeric sides are summed, a lone numeric side wins,
// and two nulls stay null.
func (q Quantity) Add(o Quantity) Quantity {
	switch {
	case q.Valid && o.Valid:
		return Qty(q.Value + o.Value)
	case q.Valid:
		return q
	default:
		return o
	}
}

// Finite reports whether q is null or a finite number.
func (q Quantity) Finite() bool {
	return !q.Valid || !(math.IsInf(q.Value, 0) || math.IsNaN(q.Value))
}

// Scale multiplies a non-null quantity by f.
func (q Quantity) Scale(f float64) Quantity {
	if !q.Valid {
		return q
	}
	return Qty(q.Value * f)
}

func (q Quantity) String() string {
	if !q.Valid {
		return ""
	}
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(q.Value)
}

// UnmarshalJSON accepts a number, a numeric string ("200", "1,5"), "" or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*q = Quantity{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	if !Qty(f).Finite() {
		return fmt.Errorf("invalid quantity %s", data)
	}
	*q = Qty(f)
	return nil
}

// ParseQuantity parses a textual amount. Empty input yields a null quantity.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Quantity{}, fmt.Errorf("invalid quantity %q", s)
	}
	return Qty(f), nil
}

// Category is a grocery aisle id. CategoryUnset asks the merge engine to categorize by name.
type Category int

const (
	CategoryUnset Category = iota
	CategoryProduce
	CategoryDairy
	CategoryMeatSeafood
	CategoryBakery
	CategoryPantry
	CategoryFrozen
	CategoryBeverages
	CategorySnacks
	CategoryHousehold
	CategoryPersonalCare
	CategoryOther
)

var categoryNames = map[Category]string{
	CategoryProduce:      "Produce",
	CategoryDairy:        "Dairy",
	CategoryMeatSeafood:  "Meat & Seafood",
	CategoryBakery:       "Bakery",
	CategoryPantry:       "Pantry",
	CategoryFrozen:       "Frozen",
	CategoryBeverages:    "Beverages",
	CategorySnacks:       "Snacks",
	CategoryHousehold:    "Household",
	CategoryPersonalCare: "Personal Care",
	CategoryOther:        "Other",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return ""
}

// Valid reports whether c is unset or a known category.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok || c == CategoryUnset
}

// CategoryInfo is the wire form used by the categories endpoint.
type CategoryInfo struct {
	ID   Category `json:"id"`
	Name string   `json:"name"`
}

// Categories returns all known categories in aisle order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryNames))
	for c := CategoryProduce; c <= CategoryOther; c++ {
		out = append(out, CategoryInfo{ID: c, Name: categoryNames[c]})
	}
	return out
}

// UnmarshalJSON accepts a numeric id or a numeric string.
func (c *Category) UnmarshalJSON(data []byte) error {
	n, err := decodeCode(data)
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	*c = Category(n)
	return nil
}

func decodeCode(data []byte) (int, error) {
	data = bytes.TrimSpace(data)
	if string(data) == "null" || len(data) == 0 {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		return strconv.Atoi(s)
	}
	var n int
	err := json.Unmarshal(data, &n)
	return n, err
}
