package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getDishSQL = `
	SELECT id, category_id, name, price, image_url, stock, status, created_at, updated_at
	FROM dishes WHERE id = $1`

func (q *Queries) GetDish(ctx context.Context, id int64) (Dish, error) {
	var d Dish
	err := q.db.QueryRow(ctx, getDishSQL, id).Scan(
		&d.ID, &d.CategoryID, &d.Name, &d.Price, &d.ImageURL,
		&d.Stock, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

const listDishesByCategorySQL = `
	SELECT id, category_id, name, price, image_url, stock, status, created_at, updated_at
	FROM dishes WHERE category_id = $1 ORDER BY id`

func (q *Queries) ListDishesByCategory(ctx context.Context, categoryID int64) ([]Dish, error) {
	rows, err := q.db.Query(ctx, listDishesByCategorySQL, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(
			&d.ID, &d.CategoryID, &d.Name, &d.Price, &d.ImageURL,
			&d.Stock, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

type CreateDishParams struct {
	CategoryID int64
	Name       string
	Price      pgtype.Numeric
	ImageURL   pgtype.Text
	Stock      int32
	Status     string
}

const createDishSQL = `
	INSERT INTO dishes (category_id, name, price, image_url, stock, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, category_id, name, price, image_url, stock, status, created_at, updated_at`

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	var d Dish
	err := q.db.QueryRow(ctx, createDishSQL,
		arg.CategoryID, arg.Name, arg.Price, arg.ImageURL, arg.Stock, arg.Status,
	).Scan(
		&d.ID, &d.CategoryID, &d.Name, &d.Price, &d.ImageURL,
		&d.Stock, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

type UpdateDishParams struct {
	ID         int64
	CategoryID int64
	Name       string
	Price      pgtype.Numeric
	ImageURL   pgtype.Text
	Status     string
}

const updateDishSQL = `
	UPDATE dishes
	SET category_id = $2, name = $3, price = $4, image_url = $5, status = $6, updated_at = NOW()
	WHERE id = $1
	RETURNING id, category_id, name, price, image_url, stock, status, created_at, updated_at`

func (q *Queries) UpdateDish(ctx context.Context, arg UpdateDishParams) (Dish, error) {
	var d Dish
	err := q.db.QueryRow(ctx, updateDishSQL,
		arg.ID, arg.CategoryID, arg.Name, arg.Price, arg.ImageURL, arg.Status,
	).Scan(
		&d.ID, &d.CategoryID, &d.Name, &d.Price, &d.ImageURL,
		&d.Stock, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

type DeductDishStockParams struct {
	ID  int64
	Qty int32
}

// Conditional deduct: the availability check and the decrement are a single
// statement, so concurrent callers are serialized by the row lock and the
// sum of successful deductions can never exceed the starting stock.
// Returns pgx.ErrNoRows when the dish is off shelf or under-stocked.
const deductDishStockSQL = `
	UPDATE dishes
	SET stock = stock - $2, updated_at = NOW()
	WHERE id = $1 AND status = 'OnShelf' AND stock >= $2
	RETURNING stock`

func (q *Queries) DeductDishStock(ctx context.Context, arg DeductDishStockParams) (int32, error) {
	var stock int32
	err := q.db.QueryRow(ctx, deductDishStockSQL, arg.ID, arg.Qty).Scan(&stock)
	return stock, err
}

type AdjustDishStockParams struct {
	ID    int64
	Delta int32
}

// Returns pgx.ErrNoRows when the adjustment would take stock below zero.
const adjustDishStockSQL = `
	UPDATE dishes
	SET stock = stock + $2, updated_at = NOW()
	WHERE id = $1 AND stock + $2 >= 0
	RETURNING stock`

func (q *Queries) AdjustDishStock(ctx context.Context, arg AdjustDishStockParams) (int32, error) {
	var stock int32
	err := q.db.QueryRow(ctx, adjustDishStockSQL, arg.ID, arg.Delta).Scan(&stock)
	return stock, err
}

const getDishStockSQL = `SELECT stock FROM dishes WHERE id = $1`

func (q *Queries) GetDishStock(ctx context.Context, id int64) (int32, error) {
	var stock int32
	err := q.db.QueryRow(ctx, getDishStockSQL, id).Scan(&stock)
	return stock, err
}
