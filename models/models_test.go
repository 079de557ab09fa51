package models

import (
	"encoding/json"
	"testing"
)

func TestCategoryNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want Category
	}{
		{`{"id":1,"name":"Coke","price":5,"category":"Drinks"}`, Category{Name: "Drinks"}},
		{`{"id":1,"name":"Coke","price":5,"category":{"id":2,"name":"Drinks"}}`, Category{ID: 2, Name: "Drinks"}},
		{`{"id":1,"name":"Coke","price":5,"category":null}`, Category{}},
		{`{"id":1,"name":"Coke","price":5}`, Category{}},
	}
	for _, tc := range cases {
		var p Product
		if err := json.Unmarshal([]byte(tc.raw), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.raw, err)
		}
		if p.Category != tc.want {
			t.Fatalf("category = %+v, want %+v (input %s)", p.Category, tc.want, tc.raw)
		}
	}
}

func TestOrderable(t *testing.T) {
	cases := []struct {
		product Product
		want    bool
	}{
		{Product{IsAvailable: true, Quantity: 3}, true},
		{Product{IsAvailable: true, Quantity: 0}, false},
		{Product{IsAvailable: false, Quantity: 3}, false},
		{Product{IsAvailable: false, Quantity: 0}, false},
	}
	for _, tc := range cases {
		if got := tc.product.Orderable(); got != tc.want {
			t.Fatalf("Orderable(available=%v, quantity=%d) = %v, want %v",
				tc.product.IsAvailable, tc.product.Quantity, got, tc.want)
		}
	}
}

func TestOrderTotalSnapshotsUnitPrice(t *testing.T) {
	order := Order{Items: []OrderItem{
		{UnitPrice: 5.00, Quantity: 3},
		{UnitPrice: 32.90, Quantity: 1},
	}}
	if got, want := order.Total(), 47.90; got != want {
		t.Fatalf("total = %v, want %v", got, want)
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("delivered and cancelled are terminal")
	}
	for _, s := range []OrderStatus{StatusPending, StatusPreparing, StatusReady} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}
