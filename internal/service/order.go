package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dishly/api/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxRemarkLength = 500

// Errors returned by the order service. Everything except wrapped storage
// errors is a business-rule failure the caller can act on.
var (
	ErrEmptyItems        = errors.New("items are required")
	ErrInvalidUserID     = errors.New("user_id must be > 0")
	ErrInvalidDishID     = errors.New("dish_id must be > 0")
	ErrInvalidQuantity   = errors.New("qty must be > 0")
	ErrRemarkTooLong     = errors.New("remark exceeds 500 characters")
	ErrDishNotFound      = errors.New("dish not found")
	ErrOptionNotFound    = errors.New("option item not found")
	ErrOptionUnavailable = errors.New("option item unavailable")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetDish(ctx context.Context, id int64) (database.Dish, error)
	GetOptionItemsByIDs(ctx context.Context, ids []int64) ([]database.OptionItem, error)
	DeductDishStock(ctx context.Context, arg database.DeductDishStockParams) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	AddOrderItemOption(ctx context.Context, arg database.AddOrderItemOptionParams) error
	SubmitOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	CancelOrder(ctx context.Context, id int64) (database.Order, error)
	CompleteOrder(ctx context.Context, id int64) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.ListOrderItemsByOrderRow, error)
	ListOrderItemOptions(ctx context.Context, orderItemID int64) ([]database.OptionItem, error)
	GetOrderTotal(ctx context.Context, orderID int64) (pgtype.Numeric, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	UserID int64
	Remark string
	Items  []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line item in the order.
type CreateOrderItemRequest struct {
	DishID        int64
	Qty           int32
	OptionItemIDs []int64
}

// CreateOrderResult is the created order with its computed total.
type CreateOrderResult struct {
	Order      database.Order
	TotalPrice decimal.Decimal
	Items      []OrderItemResult
}

// OrderItemResult is a created line item with its selected options.
type OrderItemResult struct {
	Item     database.OrderItem
	DishName string
	Subtotal decimal.Decimal
	Options  []database.OptionItem
}

// OrderDetail is a fully assembled order for read endpoints. Subtotals and
// the grand total are recomputed from the persisted snapshots every time.
type OrderDetail struct {
	Order      database.Order
	TotalPrice decimal.Decimal
	Items      []OrderDetailItem
}

type OrderDetailItem struct {
	ID        int64
	DishID    int64
	DishName  string
	Qty       int32
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Options   []OrderDetailOption
}

type OrderDetailOption struct {
	ID         int64
	Name       string
	PriceDelta decimal.Decimal
}

// OrderSummary is a list-row view of an order.
type OrderSummary struct {
	Order      database.Order
	TotalPrice decimal.Decimal
}

// ListOrdersRequest carries optional filters and offset pagination.
type ListOrdersRequest struct {
	UserID *int64
	Status string
	Page   int
	Size   int
}

// OrderService owns the order transaction and lifecycle logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store is pool-backed and used
// for reads and lifecycle updates; newStore builds tx-scoped stores for the
// order creation transaction.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// pendingItem holds a validated, priced line item awaiting persistence.
type pendingItem struct {
	dishID   int64
	dishName string
	qty      int32
	unit     decimal.Decimal
	subtotal decimal.Decimal
	options  []database.OptionItem
}

// CreateOrder validates, prices, deducts stock, and persists an order as one
// all-or-nothing transaction. Success always returns a Submitted order; any
// failure rolls back every insert and every stock deduction.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if req.UserID <= 0 {
		return nil, ErrInvalidUserID
	}
	if len(req.Remark) > maxRemarkLength {
		return nil, ErrRemarkTooLong
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.DishID <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidDishID)
		}
		if item.Qty <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID: req.UserID,
		Remark: req.Remark,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// First pass: validate each item and compute its subtotal from the
	// dish's current price (the snapshot) and the selected option deltas.
	pending := make([]pendingItem, 0, len(req.Items))
	for i, item := range req.Items {
		dish, err := store.GetDish(ctx, item.DishID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w: dish_id=%d", i, ErrDishNotFound, item.DishID)
			}
			return nil, fmt.Errorf("items[%d]: get dish: %w", i, err)
		}

		var options []database.OptionItem
		if len(item.OptionItemIDs) > 0 {
			options, err = store.GetOptionItemsByIDs(ctx, item.OptionItemIDs)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: get options: %w", i, err)
			}
			found := make(map[int64]bool, len(options))
			for _, opt := range options {
				found[opt.ID] = true
			}
			for _, id := range item.OptionItemIDs {
				if !found[id] {
					return nil, fmt.Errorf("items[%d]: %w: option_item_id=%d", i, ErrOptionNotFound, id)
				}
			}
			for _, opt := range options {
				if !opt.Available {
					return nil, fmt.Errorf("items[%d]: %w: %s", i, ErrOptionUnavailable, opt.Name)
				}
			}
		}

		deltas := make([]decimal.Decimal, len(options))
		for j, opt := range options {
			deltas[j] = numericToDecimal(opt.PriceDelta)
		}
		unit := numericToDecimal(dish.Price)

		pending = append(pending, pendingItem{
			dishID:   dish.ID,
			dishName: dish.Name,
			qty:      item.Qty,
			unit:     unit,
			subtotal: LineSubtotal(unit, deltas, item.Qty),
			options:  options,
		})
	}

	// Second pass: conditional deductions in ascending dish-ID order, so
	// two orders touching overlapping dish sets acquire row locks in the
	// same sequence and cannot deadlock each other.
	deductOrder := make([]int, len(pending))
	for i := range deductOrder {
		deductOrder[i] = i
	}
	sort.SliceStable(deductOrder, func(a, b int) bool {
		return pending[deductOrder[a]].dishID < pending[deductOrder[b]].dishID
	})
	for _, i := range deductOrder {
		p := pending[i]
		_, err := store.DeductDishStock(ctx, database.DeductDishStockParams{ID: p.dishID, Qty: p.qty})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Off shelf or under-stocked; the conditional update does
				// not distinguish and the caller does not need it to.
				return nil, fmt.Errorf("items[%d]: %w: %s needs %d", i, ErrInsufficientStock, p.dishName, p.qty)
			}
			return nil, fmt.Errorf("items[%d]: deduct stock: %w", i, err)
		}
	}

	// Third pass: persist line items and option associations in request order.
	subtotals := make([]decimal.Decimal, 0, len(pending))
	results := make([]OrderItemResult, 0, len(pending))
	for i, p := range pending {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			DishID:    p.dishID,
			Qty:       p.qty,
			UnitPrice: decimalToNumeric(p.unit),
		})
		if err != nil {
			return nil, fmt.Errorf("items[%d]: create order item: %w", i, err)
		}
		for _, opt := range p.options {
			if err := store.AddOrderItemOption(ctx, database.AddOrderItemOptionParams{
				OrderItemID:  item.ID,
				OptionItemID: opt.ID,
			}); err != nil {
				return nil, fmt.Errorf("items[%d]: add option: %w", i, err)
			}
		}
		subtotals = append(subtotals, p.subtotal)
		results = append(results, OrderItemResult{
			Item:     item,
			DishName: p.dishName,
			Subtotal: p.subtotal,
			Options:  p.options,
		})
	}

	order, err = store.SubmitOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{
		Order:      order,
		TotalPrice: OrderTotal(subtotals),
		Items:      results,
	}, nil
}

// CancelOrder transitions Created/Submitted -> Cancelled. Stock is never
// restored on cancellation; that is a business rule, not an oversight.
func (s *OrderService) CancelOrder(ctx context.Context, id int64) (database.Order, error) {
	order, err := s.store.CancelOrder(ctx, id)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	return database.Order{}, s.transitionFailure(ctx, id, "Cancelled")
}

// CompleteOrder transitions Submitted -> Completed.
func (s *OrderService) CompleteOrder(ctx context.Context, id int64) (database.Order, error) {
	order, err := s.store.CompleteOrder(ctx, id)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Order{}, fmt.Errorf("complete order: %w", err)
	}
	return database.Order{}, s.transitionFailure(ctx, id, "Completed")
}

// transitionFailure distinguishes a missing order from an illegal transition
// after a conditional status update matched zero rows.
func (s *OrderService) transitionFailure(ctx context.Context, id int64, attempted string) error {
	current, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order_id=%d", ErrOrderNotFound, id)
		}
		return fmt.Errorf("get order: %w", err)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, attempted)
}

// GetOrderByID assembles an order with its items, dish names, and selected
// options. Subtotals and the total come from the stored snapshots, so later
// catalog price changes never alter a historical order.
func (s *OrderService) GetOrderByID(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order_id=%d", ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := s.store.ListOrderItemsByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	detail := &OrderDetail{Order: order}
	subtotals := make([]decimal.Decimal, 0, len(rows))
	for _, row := range rows {
		opts, err := s.store.ListOrderItemOptions(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("list item options: %w", err)
		}

		deltas := make([]decimal.Decimal, len(opts))
		detailOpts := make([]OrderDetailOption, len(opts))
		for j, opt := range opts {
			deltas[j] = numericToDecimal(opt.PriceDelta)
			detailOpts[j] = OrderDetailOption{
				ID:         opt.ID,
				Name:       opt.Name,
				PriceDelta: deltas[j],
			}
		}

		unit := numericToDecimal(row.UnitPrice)
		subtotal := LineSubtotal(unit, deltas, row.Qty)
		subtotals = append(subtotals, subtotal)

		detail.Items = append(detail.Items, OrderDetailItem{
			ID:        row.ID,
			DishID:    row.DishID,
			DishName:  row.DishName,
			Qty:       row.Qty,
			UnitPrice: unit,
			Subtotal:  subtotal,
			Options:   detailOpts,
		})
	}
	detail.TotalPrice = OrderTotal(subtotals)

	return detail, nil
}

// ListOrders returns orders newest first with optional user/status filters.
func (s *OrderService) ListOrders(ctx context.Context, req ListOrdersRequest) ([]OrderSummary, error) {
	size := req.Size
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	params := database.ListOrdersParams{
		Limit:  int32(size),
		Offset: int32((page - 1) * size),
	}
	if req.UserID != nil {
		params.UserID = pgtype.Int8{Int64: *req.UserID, Valid: true}
	}
	if req.Status != "" {
		params.Status = pgtype.Text{String: req.Status, Valid: true}
	}

	orders, err := s.store.ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		total, err := s.store.GetOrderTotal(ctx, o.ID)
		if err != nil {
			return nil, fmt.Errorf("order total: %w", err)
		}
		summaries = append(summaries, OrderSummary{
			Order:      o,
			TotalPrice: numericToDecimal(total),
		})
	}
	return summaries, nil
}
