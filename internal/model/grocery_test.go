package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestQuantityUnmarshal(t *testing.T) {
	tests := []struct {
		in    string
		want  Quantity
		isErr bool
	}{
		{`200`, Qty(200), false},
		{`"200"`, Qty(200), false},
		{`"1,5"`, Qty(1.5), false},
		{`null`, Quantity{}, false},
		{`""`, Quantity{}, false},
		{`"lots"`, Quantity{}, true},
		{`"inf"`, Quantity{}, true},
		{`"-Inf"`, Quantity{}, true},
		{`"NaN"`, Quantity{}, true},
		{`"1e400"`, Quantity{}, true},
		{`1e400`, Quantity{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.in), &q)
			if tt.isErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if q != tt.want {
				t.Errorf("got %+v, want %+v", q, tt.want)
			}
		})
	}
}

func TestQuantityMarshalNull(t *testing.T) {
	b, err := json.Marshal(Item{ID: "a", Name: "Milk"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["quantity"] != nil {
		t.Errorf("quantity = %v, want null", m["quantity"])
	}
}

func TestQuantityAdd(t *testing.T) {
	if got := Qty(1).Add(Qty(2)); got != Qty(3) {
		t.Errorf("1+2 = %+v", got)
	}
	if got := Qty(1).Add(Quantity{}); got != Qty(1) {
		t.Errorf("1+null = %+v", got)
	}
	if got := (Quantity{}).Add(Qty(4)); got != Qty(4) {
		t.Errorf("null+4 = %+v", got)
	}
	if got := (Quantity{}).Add(Quantity{}); got.Valid {
		t.Errorf("null+null = %+v, want null", got)
	}
}

func TestUnitUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
	}{
		{`3`, UnitMilliliter},
		{`"3"`, UnitMilliliter},
		{`"l"`, UnitLiter},
		{`"Litres"`, UnitLiter},
		{`"g"`, UnitGram},
		{`""`, UnitPiece},
	}
	for _, tt := range tests {
		var u Unit
		if err := json.Unmarshal([]byte(tt.in), &u); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if u != tt.want {
			t.Errorf("%s: got %v, want %v", tt.in, u, tt.want)
		}
	}

	var u Unit
	if err := json.Unmarshal([]byte(`"furlong"`), &u); err == nil {
		t.Error("expected error for unknown unit")
	}
	if err := json.Unmarshal([]byte(`99`), &u); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestListClone(t *testing.T) {
	l := &List{ID: 1, Owner: 1, Items: []Item{{ID: "a", Name: "Milk"}}, SharedWith: []int64{2}}
	c := l.Clone()
	c.Items[0].Name = "Bread"
	c.SharedWith[0] = 3
	if l.Items[0].Name != "Milk" || l.SharedWith[0] != 2 {
		t.Error("clone shares backing arrays with original")
	}
	if !l.CanAccess(2) || l.CanAccess(3) {
		t.Error("CanAccess mismatch")
	}
}

func TestQuantityFinite(t *testing.T) {
	tests := []struct {
		q    Quantity
		want bool
	}{
		{Quantity{}, true},
		{Qty(1e308), true},
		{Qty(1e308).Add(Qty(1e308)), false},
		{Qty(math.Inf(-1)), false},
		{Qty(math.NaN()), false},
	}
	for _, tt := range tests {
		if got := tt.q.Finite(); got != tt.want {
			t.Errorf("%+v.Finite() = %v, want %v", tt.q, got, tt.want)
		}
	}
}
