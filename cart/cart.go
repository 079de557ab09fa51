// Package cart implements the draft order a customer builds before
// submission. One line per product, quantity bounded by live stock, owned
// exclusively by the current session.
package cart

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"comanda/catalog"
	"comanda/models"
)

var (
	ErrStockExceeded  = errors.New("not enough stock for this product")
	ErrNotOrderable   = errors.New("product is not available for ordering")
	ErrUnknownProduct = errors.New("product is not in the current catalog")
)

// Line is one draft line item. Name and UnitPrice are snapshots taken when
// the line is created; the server re-prices on submission regardless.
type Line struct {
	ProductID uint    `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Builder accumulates (product, quantity) pairs against the catalog store.
// The stock ceiling is enforced for every caller, staff and customer alike.
type Builder struct {
	mu      sync.Mutex
	catalog *catalog.Store
	lines   map[uint]*Line
}

func NewBuilder(cat *catalog.Store) *Builder {
	return &Builder{catalog: cat, lines: make(map[uint]*Line)}
}

// AddItem inserts a line with quantity 1, or increments an existing one.
// Incrementing past the product's stock fails with ErrStockExceeded and
// leaves the cart untouched.
func (b *Builder) AddItem(productID uint) error {
	product, ok := b.catalog.Find(productID)
	if !ok {
		return ErrUnknownProduct
	}
	if !product.Orderable() {
		return ErrNotOrderable
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	line, exists := b.lines[productID]
	if !exists {
		b.lines[productID] = &Line{
			ProductID: productID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		}
		return nil
	}
	if line.Quantity+1 > product.Quantity {
		return ErrStockExceeded
	}
	line.Quantity++
	return nil
}

// RemoveOrDecrement lowers a line's quantity by one, removing the line when
// it would reach zero. Unknown products are a no-op.
func (b *Builder) RemoveOrDecrement(productID uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	line, exists := b.lines[productID]
	if !exists {
		return
	}
	if line.Quantity > 1 {
		line.Quantity--
		return
	}
	delete(b.lines, productID)
}

// SetQuantity sets a line to n, clamped to [1, stock]. n <= 0 removes the
// line entirely; there are never zero-quantity lines.
func (b *Builder) SetQuantity(productID uint, n int) error {
	b.mu.Lock()
	if n <= 0 {
		delete(b.lines, productID)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	product, ok := b.catalog.Find(productID)
	if !ok {
		return ErrUnknownProduct
	}
	if !product.Orderable() {
		return ErrNotOrderable
	}
	if n > product.Quantity {
		n = product.Quantity
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	line, exists := b.lines[productID]
	if !exists {
		b.lines[productID] = &Line{
			ProductID: productID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  n,
		}
		return nil
	}
	line.Quantity = n
	return nil
}

// QuantityOf returns the current quantity for a product, 0 when absent.
func (b *Builder) QuantityOf(productID uint) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if line, ok := b.lines[productID]; ok {
		return line.Quantity
	}
	return 0
}

// Total recomputes the draft total from scratch on every call.
func (b *Builder) Total() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var total float64
	for _, line := range b.lines {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}

// TotalItems is the unit count across all lines.
func (b *Builder) TotalItems() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int
	for _, line := range b.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns a copy of the draft, sorted by product ID.
func (b *Builder) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, 0, len(b.lines))
	for _, line := range b.lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (b *Builder) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines) == 0
}

// Clear empties the draft; called after a successful submission or an
// explicit cancel.
func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = make(map[uint]*Line)
}

// Reconcile re-checks every line against the current catalog snapshot:
// lines for products that vanished or became unorderable are dropped,
// quantities above the new stock are clamped down.
func (b *Builder) Reconcile() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, line := range b.lines {
		product, ok := b.catalog.Find(id)
		if !ok || !product.Orderable() {
			delete(b.lines, id)
			continue
		}
		if line.Quantity > product.Quantity {
			line.Quantity = product.Quantity
		}
		// refresh display snapshots while we are here
		line.Name = product.Name
		line.UnitPrice = product.Price
	}
}

// Snapshot serializes the draft for session persistence.
func (b *Builder) Snapshot() ([]byte, error) {
	return json.Marshal(b.Lines())
}

// Restore loads a previously persisted draft and reconciles it against the
// current catalog.
func (b *Builder) Restore(raw []byte) error {
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return err
	}
	b.mu.Lock()
	b.lines = make(map[uint]*Line, len(lines))
	for i := range lines {
		if lines[i].Quantity <= 0 {
			continue
		}
		line := lines[i]
		b.lines[line.ProductID] = &line
	}
	b.mu.Unlock()
	b.Reconcile()
	return nil
}

// Items converts the draft into the wire shape for order creation.
func (b *Builder) Items() []models.CreateOrderItem {
	lines := b.Lines()
	items := make([]models.CreateOrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CreateOrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items
}
