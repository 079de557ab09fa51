package client

import (
	"context"
	"fmt"
	"net/http"

	"comanda/models"
)

func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	var created models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &created); err != nil {
		return models.Order{}, err
	}
	return created, nil
}

// UpdateOrderStatus requests a status transition. The server validates the
// transition again; the tracker pre-validates so a rejection here means the
// order moved underneath us.
func (c *Client) UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) (models.Order, error) {
	var updated models.Order
	path := fmt.Sprintf("/orders/%d", id)
	body := map[string]models.OrderStatus{"status": status}
	if err := c.do(ctx, http.MethodPatch, path, body, &updated); err != nil {
		return models.Order{}, err
	}
	return updated, nil
}
