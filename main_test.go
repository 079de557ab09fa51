package main

import (
	"errors"
	"testing"

	"comanda/apierr"
)

func TestParseProductCreate(t *testing.T) {
	product, err := parseProductCreate([]string{"--name", "Guarana", "--price", "6.50", "--quantity", "18", "--category", "Drinks"})
	if err != nil {
		t.Fatal(err)
	}
	if product.Name != "Guarana" || product.Price != 6.50 || product.Quantity != 18 {
		t.Fatalf("parsed product = %+v", product)
	}
	if product.Category.Name != "Drinks" {
		t.Fatalf("category = %q, want Drinks", product.Category.Name)
	}
	if !product.IsAvailable {
		t.Fatal("new products must start available")
	}
	if product.MinStock != 10 {
		t.Fatalf("min stock = %d, want default 10", product.MinStock)
	}

	var validation *apierr.ValidationError
	if _, err := parseProductCreate([]string{"--price", "6.50"}); !errors.As(err, &validation) {
		t.Fatalf("missing name: err = %v, want ValidationError", err)
	}
	if _, err := parseProductCreate([]string{"--name", "Guarana"}); !errors.As(err, &validation) {
		t.Fatalf("missing price: err = %v, want ValidationError", err)
	}
}

func TestParseProductSetOnlyPatchesGivenFlags(t *testing.T) {
	id, patch, err := parseProductSet([]string{"3", "--price", "7.50"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Fatalf("id = %d, want 3", id)
	}
	if patch.Price == nil || *patch.Price != 7.50 {
		t.Fatalf("price = %v, want 7.50", patch.Price)
	}
	if patch.Name != nil || patch.Quantity != nil || patch.IsAvailable != nil || patch.MinStock != nil {
		t.Fatalf("untouched fields must stay nil: %+v", patch)
	}

	_, patch, err = parseProductSet([]string{"3", "--available", "false", "--quantity", "0"})
	if err != nil {
		t.Fatal(err)
	}
	if patch.IsAvailable == nil || *patch.IsAvailable {
		t.Fatalf("available = %v, want false", patch.IsAvailable)
	}
	if patch.Quantity == nil || *patch.Quantity != 0 {
		t.Fatal("an explicit --quantity 0 must be sent, not dropped")
	}

	if _, _, err := parseProductSet([]string{"3"}); err == nil {
		t.Fatal("flagless set must be rejected")
	}
	var validation *apierr.ValidationError
	if _, _, err := parseProductSet([]string{"3", "--available", "maybe"}); !errors.As(err, &validation) {
		t.Fatalf("bad bool: err = %v, want ValidationError", err)
	}
	if _, _, err := parseProductSet([]string{"x", "--price", "1"}); err == nil {
		t.Fatal("non-numeric id must be rejected")
	}
}
