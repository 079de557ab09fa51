package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Category is the normalized form of the product category. The backend is
// inconsistent about its shape on the wire: some records carry a plain string
// ("Drinks"), others a full object ({"id":2,"name":"Drinks"}). Normalization
// happens once, here, at the decode boundary.
type Category struct {
	ID   uint   `json:"id" gorm:"column:category_id"`
	Name string `json:"name" gorm:"column:category_name"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*c = Category{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*c = Category{Name: name}
		return nil
	}
	type category Category // drop methods to avoid recursion
	var full category
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*c = Category(full)
	return nil
}

type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category" gorm:"embedded"`
	Price       float64   `json:"price" gorm:"not null"`
	IsAvailable bool      `json:"isAvailable" gorm:"default:true"`
	Quantity    int       `json:"quantity" gorm:"default:0"`
	MinStock    int       `json:"minStock" gorm:"default:10"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Orderable reports whether the product may be added to a draft order.
func (p Product) Orderable() bool {
	return p.IsAvailable && p.Quantity > 0
}

// ProductPatch is a partial update for PATCH /products/:id. Nil fields are
// omitted from the request body and left untouched by the server.
type ProductPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	MinStock    *int     `json:"minStock,omitempty"`
}
