package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-inventory.git/internal/inventory"
	"github.com/ariefcatur/go-order-inventory.git/internal/lifecycle"
	"github.com/ariefcatur/go-order-inventory.git/internal/memory"
	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
)

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	e := &lifecycle.Engine{
		Store:   st,
		Ledger:  inventory.Ledger{},
		Log:     zap.NewNop(),
		Service: "order-api-test",
	}
	router := NewRouter(zap.NewNop())
	h := &OrdersHandler{Engine: e, Reader: st} // Redis nil: cache dilewati
	h.Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func seed(st *memory.Store, id string, stock int, price string) {
	d, _ := decimal.NewFromString(price)
	st.SeedProduct(orders.Product{ID: id, SKU: "SKU-" + id, Name: "P" + id, Stock: stock, Price: d})
}

func TestCreateConfirmCancelOverHTTP(t *testing.T) {
	srv, st := newServer(t)
	seed(st, "p1", 10, "50.00")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders", map[string]any{
		"items": []map[string]any{{"product_id": "p1", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "100.00", body["total_amount"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", body["status"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])
	assert.Equal(t, "0.00", body["total_amount"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])
}

func TestErrorStatusMapping(t *testing.T) {
	srv, st := newServer(t)
	seed(st, "p1", 2, "10.00")

	// validation -> 422
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders", map[string]any{
		"items": []map[string]any{{"product_id": "p1", "quantity": 0}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])

	// not found -> 404
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders/ghost/confirm", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// state conflict -> 409
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders", map[string]any{
		"items": []map[string]any{{"product_id": "p1", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)
	_, _ = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/confirm", nil)
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "state_conflict", body["kind"])

	// insufficient stock -> 409 dengan detail product
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/products/p1/stock", map[string]any{
		"delta": -5, "reason": "manual_update",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", body["kind"])
	assert.Equal(t, "p1", body["product_id"])

	// bad json -> 400
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/orders", bytes.NewBufferString("{nope"))
	r2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer r2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r2.StatusCode)
}

func TestCancelItemsInformationalResult(t *testing.T) {
	srv, st := newServer(t)
	seed(st, "p1", 10, "10.00")
	seed(st, "p2", 10, "20.00")

	_, body := doJSON(t, http.MethodPost, srv.URL+"/orders", map[string]any{
		"items": []map[string]any{
			{"product_id": "p1", "quantity": 2},
			{"product_id": "p2", "quantity": 1},
		},
	})
	orderID := body["id"].(string)
	items := body["items"].([]any)
	item1 := items[0].(map[string]any)["id"].(string)

	_, _ = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/confirm", nil)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/cancel-items", map[string]any{
		"items": []map[string]any{{"order_item_id": item1, "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["cancelled"], 1)
	assert.Empty(t, body["message"])

	// item sudah habis dibatalkan -> informasional, bukan error
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/cancel-items", map[string]any{
		"items": []map[string]any{{"order_item_id": item1, "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
	assert.Empty(t, body["cancelled"])
}

func TestProductEndpoints(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/products", map[string]any{
		"sku": "SKU-1", "name": "Widget", "price": "19.90", "opening_stock": 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(5), body["stock_quantity"])
	assert.Equal(t, "19.90", body["price"])
	productID := body["id"].(string)

	resp, body = doJSON(t, http.MethodPost, srv.URL+fmt.Sprintf("/products/%s/stock", productID), map[string]any{
		"delta": 3, "reason": "stock_correction",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(8), body["stock_quantity"])

	// reason tak dikenal -> 422
	resp, _ = doJSON(t, http.MethodPost, srv.URL+fmt.Sprintf("/products/%s/stock", productID), map[string]any{
		"delta": 1, "reason": "because",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
