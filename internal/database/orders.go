package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateOrderParams struct {
	UserID int64
	Remark string
}

const createOrderSQL = `
	INSERT INTO orders (user_id, remark, status)
	VALUES ($1, $2, 'Created')
	RETURNING id, user_id, status, remark, created_at, updated_at`

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, createOrderSQL, arg.UserID, arg.Remark).Scan(
		&o.ID, &o.UserID, &o.Status, &o.Remark, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderItemParams struct {
	OrderID   int64
	DishID    int64
	Qty       int32
	UnitPrice pgtype.Numeric
}

const createOrderItemSQL = `
	INSERT INTO order_items (order_id, dish_id, qty, unit_price)
	VALUES ($1, $2, $3, $4)
	RETURNING id, order_id, dish_id, qty, unit_price`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, createOrderItemSQL,
		arg.OrderID, arg.DishID, arg.Qty, arg.UnitPrice,
	).Scan(&i.ID, &i.OrderID, &i.DishID, &i.Qty, &i.UnitPrice)
	return i, err
}

type AddOrderItemOptionParams struct {
	OrderItemID  int64
	OptionItemID int64
}

const addOrderItemOptionSQL = `
	INSERT INTO order_item_options (order_item_id, option_item_id)
	VALUES ($1, $2)`

func (q *Queries) AddOrderItemOption(ctx context.Context, arg AddOrderItemOptionParams) error {
	_, err := q.db.Exec(ctx, addOrderItemOptionSQL, arg.OrderItemID, arg.OptionItemID)
	return err
}

// Returns pgx.ErrNoRows if the order is not in Created state.
const submitOrderSQL = `
	UPDATE orders SET status = 'Submitted', updated_at = NOW()
	WHERE id = $1 AND status = 'Created'
	RETURNING id, user_id, status, remark, created_at, updated_at`

func (q *Queries) SubmitOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, submitOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.Remark, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// The precondition is enforced atomically: zero rows means the order is
// missing or already in a terminal state.
const cancelOrderSQL = `
	UPDATE orders SET status = 'Cancelled', updated_at = NOW()
	WHERE id = $1 AND status IN ('Created', 'Submitted')
	RETURNING id, user_id, status, remark, created_at, updated_at`

func (q *Queries) CancelOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, cancelOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.Remark, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const completeOrderSQL = `
	UPDATE orders SET status = 'Completed', updated_at = NOW()
	WHERE id = $1 AND status = 'Submitted'
	RETURNING id, user_id, status, remark, created_at, updated_at`

func (q *Queries) CompleteOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, completeOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.Remark, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const getOrderSQL = `
	SELECT id, user_id, status, remark, created_at, updated_at
	FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.Remark, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type ListOrdersParams struct {
	UserID pgtype.Int8
	Status pgtype.Text
	Limit  int32
	Offset int32
}

const listOrdersSQL = `
	SELECT id, user_id, status, remark, created_at, updated_at
	FROM orders
	WHERE ($1::BIGINT IS NULL OR user_id = $1)
	  AND ($2::VARCHAR IS NULL OR status = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersSQL, arg.UserID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Remark, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type ListOrderItemsByOrderRow struct {
	ID        int64
	OrderID   int64
	DishID    int64
	DishName  string
	Qty       int32
	UnitPrice pgtype.Numeric
}

const listOrderItemsByOrderSQL = `
	SELECT oi.id, oi.order_id, oi.dish_id, d.name, oi.qty, oi.unit_price
	FROM order_items oi
	JOIN dishes d ON d.id = oi.dish_id
	WHERE oi.order_id = $1
	ORDER BY oi.id`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]ListOrderItemsByOrderRow, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrderSQL, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListOrderItemsByOrderRow
	for rows.Next() {
		var i ListOrderItemsByOrderRow
		if err := rows.Scan(&i.ID, &i.OrderID, &i.DishID, &i.DishName, &i.Qty, &i.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrderItemOptionsSQL = `
	SELECT opt.id, opt.group_id, opt.name, opt.price_delta, opt.available
	FROM order_item_options oio
	JOIN option_items opt ON opt.id = oio.option_item_id
	WHERE oio.order_item_id = $1
	ORDER BY opt.id`

func (q *Queries) ListOrderItemOptions(ctx context.Context, orderItemID int64) ([]OptionItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemOptionsSQL, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OptionItem
	for rows.Next() {
		var o OptionItem
		if err := rows.Scan(&o.ID, &o.GroupID, &o.Name, &o.PriceDelta, &o.Available); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

// GetOrderTotal recomputes an order's grand total from the persisted price
// snapshots and option deltas. Totals are never cached on the order row.
const getOrderTotalSQL = `
	SELECT COALESCE(SUM((oi.unit_price + COALESCE(od.delta_sum, 0)) * oi.qty), 0)
	FROM order_items oi
	LEFT JOIN (
		SELECT oio.order_item_id, SUM(opt.price_delta) AS delta_sum
		FROM order_item_options oio
		JOIN option_items opt ON opt.id = oio.option_item_id
		GROUP BY oio.order_item_id
	) od ON od.order_item_id = oi.id
	WHERE oi.order_id = $1`

func (q *Queries) GetOrderTotal(ctx context.Context, orderID int64) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := q.db.QueryRow(ctx, getOrderTotalSQL, orderID).Scan(&total)
	return total, err
}
