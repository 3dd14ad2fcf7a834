package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dishly/api/internal/database"
	"github.com/dishly/api/internal/enum"
	"github.com/dishly/api/internal/middleware"
	"github.com/dishly/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	GetOrderByID(ctx context.Context, id int64) (*service.OrderDetail, error)
	CancelOrder(ctx context.Context, id int64) (database.Order, error)
	CompleteOrder(ctx context.Context, id int64) (database.Order, error)
	ListOrders(ctx context.Context, req service.ListOrdersRequest) ([]service.OrderSummary, error)
}

// OrderNotifier pushes order events to connected kitchen-feed clients.
// Satisfied by *ws.Hub; may be nil when no feed is wired.
type OrderNotifier interface {
	Broadcast(eventType string, payload any)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	notifier OrderNotifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, notifier OrderNotifier) *OrderHandler {
	return &OrderHandler{svc: svc, notifier: notifier}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/complete", h.Complete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	UserID int64                    `json:"user_id"`
	Remark string                   `json:"remark"`
	Items  []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	DishID        int64   `json:"dish_id"`
	Qty           int32   `json:"qty"`
	OptionItemIDs []int64 `json:"option_item_ids"`
}

type orderResponse struct {
	OrderID    int64               `json:"order_id"`
	UserID     int64               `json:"user_id"`
	Status     string              `json:"status"`
	TotalPrice string              `json:"total_price"`
	Remark     string              `json:"remark"`
	CreatedAt  time.Time           `json:"created_at"`
	Items      []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID        int64                 `json:"id"`
	DishID    int64                 `json:"dish_id"`
	DishName  string                `json:"dish_name"`
	Qty       int32                 `json:"qty"`
	UnitPrice string                `json:"unit_price"`
	Subtotal  string                `json:"subtotal"`
	Options   []orderOptionResponse `json:"options,omitempty"`
}

type orderOptionResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceDelta string `json:"price_delta"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	userID := req.UserID
	if userID == 0 {
		if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
			userID = claims.UserID
		}
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateOrderItemRequest{
			DishID:        item.DishID,
			Qty:           item.Qty,
			OptionItemIDs: item.OptionItemIDs,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		UserID: userID,
		Remark: req.Remark,
		Items:  items,
	})
	if err != nil {
		if errors.Is(err, service.ErrInsufficientStock) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(result)
	if h.notifier != nil {
		h.notifier.Broadcast("order.created", resp)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	listReq := service.ListOrdersRequest{
		Status: r.URL.Query().Get("status"),
	}

	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			listReq.Page = v
		}
	}
	if s := r.URL.Query().Get("size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			listReq.Size = v
		}
	}
	if s := r.URL.Query().Get("user_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
		listReq.UserID = &v
	}

	// Customers only ever see their own orders.
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil && claims.Role == enum.UserRoleCustomer {
		id := claims.UserID
		listReq.UserID = &id
	}

	summaries, err := h.svc.ListOrders(r.Context(), listReq)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	page := listReq.Page
	if page < 1 {
		page = 1
	}
	size := listReq.Size
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	resp := make([]orderResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = orderResponse{
			OrderID:    s.Order.ID,
			UserID:     s.Order.UserID,
			Status:     s.Order.Status,
			TotalPrice: s.TotalPrice.StringFixed(2),
			Remark:     s.Order.Remark,
			CreatedAt:  s.Order.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Page: page, Size: size})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.svc.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "order.cancelled", h.svc.CancelOrder)
}

// Complete handles POST /orders/{id}/complete.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "order.completed", h.svc.CompleteOrder)
}

// transition runs a lifecycle update and maps its failures: 404 for a missing
// order, 409 for an illegal state change.
func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, event string, fn func(ctx context.Context, id int64) (database.Order, error)) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := fn(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		if errors.Is(err, service.ErrInvalidTransition) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: %s: %v", event, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := map[string]any{
		"order_id":   order.ID,
		"status":     order.Status,
		"updated_at": order.UpdatedAt,
	}
	if h.notifier != nil {
		h.notifier.Broadcast(event, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidUserID) ||
		errors.Is(err, service.ErrInvalidDishID) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrRemarkTooLong) ||
		errors.Is(err, service.ErrDishNotFound) ||
		errors.Is(err, service.ErrOptionNotFound) ||
		errors.Is(err, service.ErrOptionUnavailable)
}

func toOrderResponse(result *service.CreateOrderResult) orderResponse {
	resp := orderResponse{
		OrderID:    result.Order.ID,
		UserID:     result.Order.UserID,
		Status:     result.Order.Status,
		TotalPrice: result.TotalPrice.StringFixed(2),
		Remark:     result.Order.Remark,
		CreatedAt:  result.Order.CreatedAt,
	}

	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, ir := range result.Items {
		item := orderItemResponse{
			ID:        ir.Item.ID,
			DishID:    ir.Item.DishID,
			DishName:  ir.DishName,
			Qty:       ir.Item.Qty,
			UnitPrice: numericToString(ir.Item.UnitPrice),
			Subtotal:  ir.Subtotal.StringFixed(2),
		}
		item.Options = make([]orderOptionResponse, len(ir.Options))
		for j, opt := range ir.Options {
			item.Options[j] = orderOptionResponse{
				ID:         opt.ID,
				Name:       opt.Name,
				PriceDelta: numericToString(opt.PriceDelta),
			}
		}
		resp.Items[i] = item
	}

	return resp
}

func toOrderDetailResponse(detail *service.OrderDetail) orderResponse {
	resp := orderResponse{
		OrderID:    detail.Order.ID,
		UserID:     detail.Order.UserID,
		Status:     detail.Order.Status,
		TotalPrice: detail.TotalPrice.StringFixed(2),
		Remark:     detail.Order.Remark,
		CreatedAt:  detail.Order.CreatedAt,
	}

	resp.Items = make([]orderItemResponse, len(detail.Items))
	for i, it := range detail.Items {
		item := orderItemResponse{
			ID:        it.ID,
			DishID:    it.DishID,
			DishName:  it.DishName,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Subtotal:  it.Subtotal.StringFixed(2),
		}
		item.Options = make([]orderOptionResponse, len(it.Options))
		for j, opt := range it.Options {
			item.Options[j] = orderOptionResponse{
				ID:         opt.ID,
				Name:       opt.Name,
				PriceDelta: opt.PriceDelta.StringFixed(2),
			}
		}
		resp.Items[i] = item
	}

	return resp
}
