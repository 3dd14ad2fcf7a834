package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dishly/api/internal/handler"
	"github.com/dishly/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// --- Mock InventoryServicer ---

type mockInventoryService struct {
	checkFn    func(ctx context.Context, dishID int64, qty int32) (bool, error)
	adjustFn   func(ctx context.Context, dishID int64, delta int32) (int32, error)
	batchFn    func(ctx context.Context, adjustments []service.StockAdjustment) error
	getStockFn func(ctx context.Context, dishID int64) (int32, error)
}

func (m *mockInventoryService) CheckAvailable(ctx context.Context, dishID int64, qty int32) (bool, error) {
	return m.checkFn(ctx, dishID, qty)
}

func (m *mockInventoryService) Adjust(ctx context.Context, dishID int64, delta int32) (int32, error) {
	return m.adjustFn(ctx, dishID, delta)
}

func (m *mockInventoryService) AdjustBatch(ctx context.Context, adjustments []service.StockAdjustment) error {
	return m.batchFn(ctx, adjustments)
}

func (m *mockInventoryService) GetStock(ctx context.Context, dishID int64) (int32, error) {
	return m.getStockFn(ctx, dishID)
}

func newInventoryRouter(svc handler.InventoryServicer) *chi.Mux {
	h := handler.NewInventoryHandler(svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Tests ---

func TestGetStock(t *testing.T) {
	svc := &mockInventoryService{
		getStockFn: func(ctx context.Context, dishID int64) (int32, error) {
			return 42, nil
		},
	}
	router := newInventoryRouter(svc)

	req := httptest.NewRequest("GET", "/dishes/1/stock", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		DishID int64 `json:"dish_id"`
		Stock  int32 `json:"stock"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stock != 42 {
		t.Errorf("stock: got %d, want 42", resp.Stock)
	}
}

func TestGetStock_NotFound(t *testing.T) {
	svc := &mockInventoryService{
		getStockFn: func(ctx context.Context, dishID int64) (int32, error) {
			return 0, fmt.Errorf("%w: dish_id=%d", service.ErrDishNotFound, dishID)
		},
	}
	router := newInventoryRouter(svc)

	req := httptest.NewRequest("GET", "/dishes/99/stock", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCheckAvailability(t *testing.T) {
	svc := &mockInventoryService{
		checkFn: func(ctx context.Context, dishID int64, qty int32) (bool, error) {
			if qty != 3 {
				t.Errorf("qty: got %d, want 3", qty)
			}
			return true, nil
		},
	}
	router := newInventoryRouter(svc)

	req := httptest.NewRequest("GET", "/dishes/1/availability?qty=3", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Available bool `json:"available"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Available {
		t.Error("expected available=true")
	}
}

func TestAdjustStock(t *testing.T) {
	svc := &mockInventoryService{
		adjustFn: func(ctx context.Context, dishID int64, delta int32) (int32, error) {
			if delta != -3 {
				t.Errorf("delta: got %d, want -3", delta)
			}
			return 7, nil
		},
	}
	router := newInventoryRouter(svc)

	body, _ := json.Marshal(map[string]int32{"delta": -3})
	req := httptest.NewRequest("POST", "/dishes/1/stock/adjust", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Stock int32 `json:"stock"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Stock != 7 {
		t.Errorf("stock: got %d, want 7", resp.Stock)
	}
}

func TestAdjustStock_Insufficient(t *testing.T) {
	svc := &mockInventoryService{
		adjustFn: func(ctx context.Context, dishID int64, delta int32) (int32, error) {
			return 0, fmt.Errorf("%w: Spring Rolls has 5, requested -6", service.ErrInsufficientStock)
		},
	}
	router := newInventoryRouter(svc)

	body, _ := json.Marshal(map[string]int32{"delta": -6})
	req := httptest.NewRequest("POST", "/dishes/1/stock/adjust", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestAdjustBatch(t *testing.T) {
	svc := &mockInventoryService{
		batchFn: func(ctx context.Context, adjustments []service.StockAdjustment) error {
			if len(adjustments) != 2 {
				t.Errorf("adjustments: got %d, want 2", len(adjustments))
			}
			return nil
		},
	}
	router := newInventoryRouter(svc)

	body, _ := json.Marshal(map[string]any{
		"adjustments": []map[string]any{
			{"dish_id": 1, "delta": 5},
			{"dish_id": 2, "delta": -2},
		},
	})
	req := httptest.NewRequest("POST", "/stock/adjust-batch", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}

func TestAdjustBatch_Empty(t *testing.T) {
	svc := &mockInventoryService{
		batchFn: func(ctx context.Context, adjustments []service.StockAdjustment) error {
			t.Fatal("service should not be called")
			return nil
		},
	}
	router := newInventoryRouter(svc)

	body, _ := json.Marshal(map[string]any{"adjustments": []map[string]any{}})
	req := httptest.NewRequest("POST", "/stock/adjust-batch", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
