// Package catalog holds the product snapshot the rest of the app works
// against. There is no cache invalidation beyond re-fetch on demand; a failed
// refresh leaves the previous snapshot in place so the user can retry.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"comanda/client"
	"comanda/models"
)

type Store struct {
	mu       sync.RWMutex
	api      *client.Client
	products map[uint]models.Product
}

func NewStore(api *client.Client) *Store {
	return &Store{api: api, products: make(map[uint]models.Product)}
}

// Refresh replaces the snapshot with a fresh fetch. On failure the old
// snapshot is kept untouched.
func (s *Store) Refresh(ctx context.Context) error {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	next := make(map[uint]models.Product, len(products))
	for _, p := range products {
		next[p.ID] = p
	}
	s.mu.Lock()
	s.products = next
	s.mu.Unlock()
	return nil
}

// Load replaces the snapshot with products that arrived from elsewhere
// (seed data, tests). Refresh overwrites it on the next successful fetch.
func (s *Store) Load(products []models.Product) {
	next := make(map[uint]models.Product, len(products))
	for _, p := range products {
		next[p.ID] = p
	}
	s.mu.Lock()
	s.products = next
	s.mu.Unlock()
}

// Products returns the full snapshot sorted by ID.
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Orderable returns products that can go into a draft order.
func (s *Store) Orderable() []models.Product {
	var out []models.Product
	for _, p := range s.Products() {
		if p.Orderable() {
			out = append(out, p)
		}
	}
	return out
}

// Search filters the snapshot by case-insensitive name substring.
func (s *Store) Search(term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Products()
	}
	var out []models.Product
	for _, p := range s.Products() {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	return out
}

// Find looks a product up by ID in the current snapshot.
func (s *Store) Find(id uint) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// Len reports the snapshot size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
