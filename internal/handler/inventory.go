package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/dishly/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// InventoryServicer defines the service methods needed by inventory handlers.
// Satisfied by *service.InventoryService; narrow interface for testability.
type InventoryServicer interface {
	CheckAvailable(ctx context.Context, dishID int64, qty int32) (bool, error)
	Adjust(ctx context.Context, dishID int64, delta int32) (int32, error)
	AdjustBatch(ctx context.Context, adjustments []service.StockAdjustment) error
	GetStock(ctx context.Context, dishID int64) (int32, error)
}

// InventoryHandler handles stock endpoints.
type InventoryHandler struct {
	svc InventoryServicer
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(svc InventoryServicer) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// RegisterRoutes registers stock endpoints on the given Chi router.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dishes/{id}/stock", h.GetStock)
	r.Get("/dishes/{id}/availability", h.CheckAvailability)
	r.Post("/dishes/{id}/stock/adjust", h.Adjust)
	r.Post("/stock/adjust-batch", h.AdjustBatch)
}

// --- Request / Response types ---

type adjustStockRequest struct {
	Delta int32 `json:"delta"`
}

type stockResponse struct {
	DishID int64 `json:"dish_id"`
	Stock  int32 `json:"stock"`
}

type batchAdjustRequest struct {
	Adjustments []batchAdjustEntry `json:"adjustments"`
}

type batchAdjustEntry struct {
	DishID int64 `json:"dish_id"`
	Delta  int32 `json:"delta"`
}

type availabilityResponse struct {
	DishID    int64 `json:"dish_id"`
	Qty       int32 `json:"qty"`
	Available bool  `json:"available"`
}

// --- Handlers ---

// GetStock handles GET /dishes/{id}/stock.
func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	stock, err := h.svc.GetStock(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDishNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: get stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{DishID: id, Stock: stock})
}

// CheckAvailability handles GET /dishes/{id}/availability?qty=N.
func (h *InventoryHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	qty := int32(1)
	if s := r.URL.Query().Get("qty"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "qty must be > 0"})
			return
		}
		qty = int32(v)
	}

	available, err := h.svc.CheckAvailable(r.Context(), id, qty)
	if err != nil {
		log.Printf("ERROR: check availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{DishID: id, Qty: qty, Available: available})
}

// Adjust handles POST /dishes/{id}/stock/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dish ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stock, err := h.svc.Adjust(r.Context(), id, req.Delta)
	if err != nil {
		if errors.Is(err, service.ErrDishNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		if errors.Is(err, service.ErrInsufficientStock) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: adjust stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{DishID: id, Stock: stock})
}

// AdjustBatch handles POST /stock/adjust-batch. All adjustments apply or none do.
func (h *InventoryHandler) AdjustBatch(w http.ResponseWriter, r *http.Request) {
	var req batchAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Adjustments) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "adjustments are required"})
		return
	}

	adjustments := make([]service.StockAdjustment, len(req.Adjustments))
	for i, a := range req.Adjustments {
		if a.DishID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "adjustments[" + strconv.Itoa(i) + "]: dish_id must be > 0",
			})
			return
		}
		adjustments[i] = service.StockAdjustment{DishID: a.DishID, Delta: a.Delta}
	}

	if err := h.svc.AdjustBatch(r.Context(), adjustments); err != nil {
		if errors.Is(err, service.ErrDishNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		if errors.Is(err, service.ErrInsufficientStock) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: adjust stock batch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
