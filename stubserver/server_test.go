package stubserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"comanda/models"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	stub, err := NewInMemory([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	products, tables := DefaultSeed()
	if err := stub.Seed(products, tables); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(stub.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestOrderCreationDecrementsStock(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/orders", models.CreateOrderRequest{
		CustomerName: "Ana",
		Items:        []models.CreateOrderItem{{ProductID: 1, Quantity: 3}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/products")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var products []models.Product
	json.NewDecoder(listResp.Body).Decode(&products)
	if products[0].Quantity != 21 {
		t.Fatalf("stock after order = %d, want 24-3=21", products[0].Quantity)
	}
}

func TestOrderCreationRejectsOverdraw(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/orders", models.CreateOrderRequest{
		CustomerName: "Ana",
		Items:        []models.CreateOrderItem{{ProductID: 1, Quantity: 500}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRejectedOrderLeavesNothingBehind(t *testing.T) {
	srv := newServer(t)

	// second line references a product that does not exist
	resp := postJSON(t, srv.URL+"/orders", models.CreateOrderRequest{
		CustomerName: "Ana",
		Items: []models.CreateOrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 999, Quantity: 1},
		},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/products")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var products []models.Product
	json.NewDecoder(listResp.Body).Decode(&products)
	if products[0].Quantity != 24 {
		t.Fatalf("stock = %d, want untouched 24", products[0].Quantity)
	}

	ordersResp, err := http.Get(srv.URL + "/orders")
	if err != nil {
		t.Fatal(err)
	}
	defer ordersResp.Body.Close()
	var orders []models.Order
	json.NewDecoder(ordersResp.Body).Decode(&orders)
	if len(orders) != 0 {
		t.Fatalf("orders persisted = %d, want none", len(orders))
	}
}

func TestTransitionsEndpointDocumentsBothMachines(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/transitions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Orders []struct {
			From  string `json:"from"`
			To    string `json:"to"`
			Actor string `json:"actor"`
		} `json:"orders"`
		Tables []struct {
			From         string `json:"from"`
			To           string `json:"to"`
			RequiresName bool   `json:"requiresName"`
		} `json:"tables"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	hasOrder := func(from, to, actor string) bool {
		for _, tr := range body.Orders {
			if tr.From == from && tr.To == to && tr.Actor == actor {
				return true
			}
		}
		return false
	}
	if !hasOrder("pending", "preparing", "staff") {
		t.Fatal("pending -> preparing (staff) missing from the order machine")
	}
	if hasOrder("delivered", "cancelled", "customer") {
		t.Fatal("delivered must be documented as terminal")
	}

	var reserveFound bool
	for _, tr := range body.Tables {
		if tr.From == "available" && tr.To == "reserved" {
			reserveFound = true
			if !tr.RequiresName {
				t.Fatal("reserving must be documented as requiring a name")
			}
		}
	}
	if !reserveFound {
		t.Fatal("available -> reserved missing from the occupancy machine")
	}
}

func TestOrderStatusMachineEnforcedServerSide(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/orders", models.CreateOrderRequest{
		CustomerName: "Ana",
		Items:        []models.CreateOrderItem{{ProductID: 2, Quantity: 1}},
	})
	var order models.Order
	json.NewDecoder(resp.Body).Decode(&order)
	resp.Body.Close()

	patch := func(status string) int {
		raw, _ := json.Marshal(map[string]string{"status": status})
		req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/orders/1", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		patchResp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer patchResp.Body.Close()
		return patchResp.StatusCode
	}

	if code := patch("delivered"); code != http.StatusBadRequest {
		t.Fatalf("pending -> delivered: status = %d, want 400", code)
	}
	if code := patch("preparing"); code != http.StatusOK {
		t.Fatalf("pending -> preparing: status = %d, want 200", code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	srv := newServer(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/products", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/auth/login", map[string]string{"name": "Ana", "role": "client"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Token == "" {
		t.Fatal("no token issued")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/products", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	authResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer authResp.Body.Close()
	if authResp.StatusCode != http.StatusOK {
		t.Fatalf("authed request status = %d", authResp.StatusCode)
	}
}

func TestPredictStockIsDeterministic(t *testing.T) {
	srv := newServer(t)

	resp := postJSON(t, srv.URL+"/predict-stock", map[string]any{
		"target_date": "2026-09-02", "product_id": 1, "product_name": "Coke", "current_stock": 20,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Prediction struct {
			EstimatedSales         float64 `json:"estimated_sales"`
			ProjectedStockEndOfDay float64 `json:"projected_stock_end_of_day"`
		} `json:"prediction"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Prediction.EstimatedSales != 4 || body.Prediction.ProjectedStockEndOfDay != 16 {
		t.Fatalf("prediction = %+v", body.Prediction)
	}
}
