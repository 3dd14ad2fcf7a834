package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dishly/api/internal/database"
	"github.com/dishly/api/internal/enum"
	"github.com/jackc/pgx/v5"
)

// InventoryStore defines the DB methods needed by the inventory service.
// Satisfied by *database.Queries (and its WithTx variant).
type InventoryStore interface {
	GetDish(ctx context.Context, id int64) (database.Dish, error)
	AdjustDishStock(ctx context.Context, arg database.AdjustDishStockParams) (int32, error)
	GetDishStock(ctx context.Context, id int64) (int32, error)
}

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// StockAdjustment is one entry in a batch adjustment.
type StockAdjustment struct {
	DishID int64
	Delta  int32
}

// InventoryService maintains truthful stock counts. The order flow does not
// go through it; order deductions are conditional updates inside the order
// transaction. This service covers manual restocking and corrections.
type InventoryService struct {
	pool     TxBeginner
	store    InventoryStore
	newStore NewInventoryStore
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(pool TxBeginner, store InventoryStore, newStore NewInventoryStore) *InventoryService {
	return &InventoryService{pool: pool, store: store, newStore: newStore}
}

// CheckAvailable reports whether the dish exists, is on shelf, and has at
// least qty in stock. Read-only fast path for UI checks; the authoritative
// decision is the conditional deduct inside the order transaction.
func (s *InventoryService) CheckAvailable(ctx context.Context, dishID int64, qty int32) (bool, error) {
	dish, err := s.store.GetDish(ctx, dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get dish: %w", err)
	}
	return dish.Status == enum.DishStatusOnShelf && dish.Stock >= qty, nil
}

// Adjust applies an unconditional administrative stock change. Fails with
// ErrInsufficientStock if the result would be negative.
func (s *InventoryService) Adjust(ctx context.Context, dishID int64, delta int32) (int32, error) {
	return adjust(ctx, s.store, dishID, delta)
}

// AdjustBatch applies every adjustment or none: any single failure rolls
// back the whole batch.
func (s *InventoryService) AdjustBatch(ctx context.Context, adjustments []StockAdjustment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	for i, adj := range adjustments {
		if _, err := adjust(ctx, store, adj.DishID, adj.Delta); err != nil {
			return fmt.Errorf("adjustments[%d]: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetStock returns the live stock count for a dish.
func (s *InventoryService) GetStock(ctx context.Context, dishID int64) (int32, error) {
	stock, err := s.store.GetDishStock(ctx, dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: dish_id=%d", ErrDishNotFound, dishID)
		}
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return stock, nil
}

// adjust runs the conditional update against the given store and maps a
// zero-row result to ErrDishNotFound or ErrInsufficientStock.
func adjust(ctx context.Context, store InventoryStore, dishID int64, delta int32) (int32, error) {
	stock, err := store.AdjustDishStock(ctx, database.AdjustDishStockParams{ID: dishID, Delta: delta})
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	dish, err := store.GetDish(ctx, dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: dish_id=%d", ErrDishNotFound, dishID)
		}
		return 0, fmt.Errorf("get dish: %w", err)
	}
	return 0, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, dish.Name, dish.Stock, delta)
}
