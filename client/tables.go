package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"comanda/apierr"
	"comanda/models"
)

func (c *Client) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := c.do(ctx, http.MethodGet, "/tables", nil, &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// UpdateTable applies a partial update. The patch carries the version the
// caller last observed; a stale version comes back as a ConflictError.
func (c *Client) UpdateTable(ctx context.Context, id uint, patch models.TablePatch) (models.Table, error) {
	var updated models.Table
	path := fmt.Sprintf("/tables/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, patch, &updated); err != nil {
		var serverErr *apierr.ServerError
		if errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusConflict {
			return models.Table{}, &apierr.ConflictError{Resource: "table", ID: id}
		}
		return models.Table{}, err
	}
	return updated, nil
}
