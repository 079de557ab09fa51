// Package forecast is a thin display proxy over the external ML service: it
// sends one query per product and classifies the response against the
// product's minimum stock. No forecasting logic lives here.
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"comanda/apierr"
	"comanda/models"
)

type Query struct {
	TargetDate   string `json:"target_date"`
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
}

type Prediction struct {
	EstimatedSales         float64 `json:"estimated_sales"`
	ProjectedStockEndOfDay float64 `json:"projected_stock_end_of_day"`
}

type predictionEnvelope struct {
	Prediction Prediction `json:"prediction"`
}

// StockHealth classifies a projection for display.
type StockHealth string

const (
	HealthOK       StockHealth = "ok"
	HealthLow      StockHealth = "low"
	HealthCritical StockHealth = "critical"
)

// ProductForecast pairs a product with its prediction for rendering.
type ProductForecast struct {
	Product    models.Product
	Prediction Prediction
	Health     StockHealth
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}
		var netTimeout interface{ Timeout() bool }
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netTimeout) && netTimeout.Timeout()) {
			return &apierr.TimeoutError{Err: err}
		}
		return &apierr.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apierr.ServerError{StatusCode: resp.StatusCode, Message: string(msg)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Predict forecasts next-day sales for one product.
func (c *Client) Predict(ctx context.Context, q Query) (Prediction, error) {
	var envelope predictionEnvelope
	if err := c.post(ctx, "/predict-stock", q, &envelope); err != nil {
		return Prediction{}, err
	}
	return envelope.Prediction, nil
}

// Retrain asks the ML service to rebuild its model from current sales data.
func (c *Client) Retrain(ctx context.Context) error {
	return c.post(ctx, "/retrain-model", struct{}{}, nil)
}

// Classify maps a projection to a display status: below zero is critical,
// below the product's minimum stock is low.
func Classify(product models.Product, p Prediction) StockHealth {
	switch {
	case p.ProjectedStockEndOfDay < 0:
		return HealthCritical
	case p.ProjectedStockEndOfDay < float64(product.MinStock):
		return HealthLow
	default:
		return HealthOK
	}
}

// PredictAll runs one query per product for the given date, stopping early
// when the context is cancelled. Products that fail individually are skipped
// rather than failing the whole batch.
func (c *Client) PredictAll(ctx context.Context, targetDate string, products []models.Product) ([]ProductForecast, error) {
	out := make([]ProductForecast, 0, len(products))
	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		prediction, err := c.Predict(ctx, Query{
			TargetDate:   targetDate,
			ProductID:    product.ID,
			ProductName:  product.Name,
			CurrentStock: product.Quantity,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return out, err
			}
			continue
		}
		out = append(out, ProductForecast{
			Product:    product,
			Prediction: prediction,
			Health:     Classify(product, prediction),
		})
	}
	return out, nil
}
