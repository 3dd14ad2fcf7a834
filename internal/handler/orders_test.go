package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dishly/api/internal/database"
	"github.com/dishly/api/internal/enum"
	"github.com/dishly/api/internal/handler"
	"github.com/dishly/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	createFn   func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	getFn      func(ctx context.Context, id int64) (*service.OrderDetail, error)
	cancelFn   func(ctx context.Context, id int64) (database.Order, error)
	completeFn func(ctx context.Context, id int64) (database.Order, error)
	listFn     func(ctx context.Context, req service.ListOrdersRequest) ([]service.OrderSummary, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) GetOrderByID(ctx context.Context, id int64) (*service.OrderDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, service.ErrOrderNotFound
}

func (m *mockOrderService) CancelOrder(ctx context.Context, id int64) (database.Order, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id)
	}
	return database.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) CompleteOrder(ctx context.Context, id int64) (database.Order, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, id)
	}
	return database.Order{}, service.ErrOrderNotFound
}

func (m *mockOrderService) ListOrders(ctx context.Context, req service.ListOrdersRequest) ([]service.OrderSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, req)
	}
	return nil, nil
}

// mockNotifier records broadcast events.
type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Broadcast(eventType string, payload any) {
	m.events = append(m.events, eventType)
}

func newOrderRouter(svc handler.OrderServicer, notifier handler.OrderNotifier) *chi.Mux {
	h := handler.NewOrderHandler(svc, notifier)
	r := chi.NewRouter()
	r.Route("/orders", h.RegisterRoutes)
	return r
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

// --- Tests ---

func TestCreateOrder_Success(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			if req.UserID != 7 {
				t.Errorf("user ID: got %d, want 7", req.UserID)
			}
			return &service.CreateOrderResult{
				Order:      database.Order{ID: 1, UserID: 7, Status: enum.OrderStatusSubmitted},
				TotalPrice: mustDecimal(t, "80.00"),
			}, nil
		},
	}
	notifier := &mockNotifier{}
	router := newOrderRouter(svc, notifier)

	body, _ := json.Marshal(map[string]any{
		"user_id": 7,
		"items":   []map[string]any{{"dish_id": 1, "qty": 2}},
	})
	req := httptest.NewRequest("POST", "/orders", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp struct {
		OrderID    int64  `json:"order_id"`
		Status     string `json:"status"`
		TotalPrice string `json:"total_price"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalPrice != "80.00" {
		t.Errorf("total_price: got %s, want 80.00", resp.TotalPrice)
	}
	if resp.Status != enum.OrderStatusSubmitted {
		t.Errorf("status: got %s, want %s", resp.Status, enum.OrderStatusSubmitted)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "order.created" {
		t.Errorf("events: got %v, want [order.created]", notifier.events)
	}
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	router := newOrderRouter(svc, nil)

	req := httptest.NewRequest("POST", "/orders", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateOrder_ValidationError(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, service.ErrEmptyItems
		},
	}
	router := newOrderRouter(svc, nil)

	body, _ := json.Marshal(map[string]any{"user_id": 7})
	req := httptest.NewRequest("POST", "/orders", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, fmt.Errorf("items[0]: %w: Noodles needs 5", service.ErrInsufficientStock)
		},
	}
	notifier := &mockNotifier{}
	router := newOrderRouter(svc, notifier)

	body, _ := json.Marshal(map[string]any{
		"user_id": 7,
		"items":   []map[string]any{{"dish_id": 1, "qty": 5}},
	})
	req := httptest.NewRequest("POST", "/orders", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if len(notifier.events) != 0 {
		t.Errorf("no events should fire on failure, got %v", notifier.events)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	router := newOrderRouter(&mockOrderService{}, nil)

	req := httptest.NewRequest("GET", "/orders/99", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetOrder_InvalidID(t *testing.T) {
	router := newOrderRouter(&mockOrderService{}, nil)

	req := httptest.NewRequest("GET", "/orders/abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetOrder_Detail(t *testing.T) {
	svc := &mockOrderService{
		getFn: func(ctx context.Context, id int64) (*service.OrderDetail, error) {
			return &service.OrderDetail{
				Order:      database.Order{ID: id, UserID: 7, Status: enum.OrderStatusSubmitted},
				TotalPrice: mustDecimal(t, "70.00"),
				Items: []service.OrderDetailItem{
					{
						ID:        11,
						DishID:    1,
						DishName:  "Noodles",
						Qty:       2,
						UnitPrice: mustDecimal(t, "30.00"),
						Subtotal:  mustDecimal(t, "70.00"),
						Options: []service.OrderDetailOption{
							{ID: 42, Name: "Large", PriceDelta: mustDecimal(t, "5.00")},
						},
					},
				},
			}, nil
		},
	}
	router := newOrderRouter(svc, nil)

	req := httptest.NewRequest("GET", "/orders/1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		TotalPrice string `json:"total_price"`
		Items      []struct {
			DishName  string `json:"dish_name"`
			UnitPrice string `json:"unit_price"`
			Options   []struct {
				PriceDelta string `json:"price_delta"`
			} `json:"options"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalPrice != "70.00" {
		t.Errorf("total_price: got %s, want 70.00", resp.TotalPrice)
	}
	if len(resp.Items) != 1 || resp.Items[0].UnitPrice != "30.00" {
		t.Errorf("unexpected items: %+v", resp.Items)
	}
	if len(resp.Items[0].Options) != 1 || resp.Items[0].Options[0].PriceDelta != "5.00" {
		t.Errorf("unexpected options: %+v", resp.Items[0].Options)
	}
}

func TestCancelOrder_InvalidTransition(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, id int64) (database.Order, error) {
			return database.Order{}, fmt.Errorf("%w: Completed -> Cancelled", service.ErrInvalidTransition)
		},
	}
	router := newOrderRouter(svc, nil)

	req := httptest.NewRequest("POST", "/orders/1/cancel", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCompleteOrder_Success(t *testing.T) {
	svc := &mockOrderService{
		completeFn: func(ctx context.Context, id int64) (database.Order, error) {
			return database.Order{ID: id, Status: enum.OrderStatusCompleted}, nil
		},
	}
	notifier := &mockNotifier{}
	router := newOrderRouter(svc, notifier)

	req := httptest.NewRequest("POST", "/orders/1/complete", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "order.completed" {
		t.Errorf("events: got %v, want [order.completed]", notifier.events)
	}
}

func TestListOrders(t *testing.T) {
	svc := &mockOrderService{
		listFn: func(ctx context.Context, req service.ListOrdersRequest) ([]service.OrderSummary, error) {
			if req.Page != 2 || req.Size != 10 {
				t.Errorf("pagination: got page=%d size=%d, want page=2 size=10", req.Page, req.Size)
			}
			return []service.OrderSummary{
				{
					Order:      database.Order{ID: 1, UserID: 7, Status: enum.OrderStatusSubmitted},
					TotalPrice: mustDecimal(t, "80.00"),
				},
			}, nil
		},
	}
	router := newOrderRouter(svc, nil)

	req := httptest.NewRequest("GET", "/orders?page=2&size=10", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Orders []struct {
			OrderID    int64  `json:"order_id"`
			TotalPrice string `json:"total_price"`
		} `json:"orders"`
		Page int `json:"page"`
		Size int `json:"size"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].TotalPrice != "80.00" {
		t.Errorf("unexpected orders: %+v", resp.Orders)
	}
	if resp.Page != 2 || resp.Size != 10 {
		t.Errorf("pagination echo: got page=%d size=%d", resp.Page, resp.Size)
	}
}
