package models

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition can leave the status.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	CustomerName string      `json:"customerName" gorm:"not null"`
	TableID      *uint       `json:"tableId,omitempty"`
	Status       OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	Notes        string      `json:"notes,omitempty"`
	Items        []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Total sums unitPrice * quantity over the order's items.
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// OrderItem references a product with the unit price and name captured at
// order time, decoupled from the live catalog price.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"orderId" gorm:"not null"`
	ProductID uint    `json:"productId" gorm:"not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	UnitPrice float64 `json:"unitPrice" gorm:"not null"`
	Name      string  `json:"name"`
}

// CreateOrderRequest is the POST /orders body. The server re-prices every
// item from its own catalog; the client never sends prices.
type CreateOrderRequest struct {
	CustomerName string            `json:"customerName" binding:"required"`
	TableID      *uint             `json:"tableId,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Items        []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

type CreateOrderItem struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}
