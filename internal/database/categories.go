package database

import "context"

const listCategoriesSQL = `
	SELECT id, name, sort_order FROM categories ORDER BY sort_order, id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type CreateCategoryParams struct {
	Name      string
	SortOrder int32
}

const createCategorySQL = `
	INSERT INTO categories (name, sort_order) VALUES ($1, $2)
	RETURNING id, name, sort_order`

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, createCategorySQL, arg.Name, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.SortOrder)
	return c, err
}

type UpdateCategoryParams struct {
	ID        int64
	Name      string
	SortOrder int32
}

const updateCategorySQL = `
	UPDATE categories SET name = $2, sort_order = $3 WHERE id = $1
	RETURNING id, name, sort_order`

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, updateCategorySQL, arg.ID, arg.Name, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.SortOrder)
	return c, err
}
