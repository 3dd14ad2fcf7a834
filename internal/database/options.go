package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateOptionGroupParams struct {
	DishID    int64
	Name      string
	Type      string
	Required  bool
	MaxSelect int32
}

const createOptionGroupSQL = `
	INSERT INTO option_groups (dish_id, name, type, required, max_select)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, dish_id, name, type, required, max_select`

func (q *Queries) CreateOptionGroup(ctx context.Context, arg CreateOptionGroupParams) (OptionGroup, error) {
	var g OptionGroup
	err := q.db.QueryRow(ctx, createOptionGroupSQL,
		arg.DishID, arg.Name, arg.Type, arg.Required, arg.MaxSelect,
	).Scan(&g.ID, &g.DishID, &g.Name, &g.Type, &g.Required, &g.MaxSelect)
	return g, err
}

const listOptionGroupsByDishSQL = `
	SELECT id, dish_id, name, type, required, max_select
	FROM option_groups WHERE dish_id = $1 ORDER BY id`

func (q *Queries) ListOptionGroupsByDish(ctx context.Context, dishID int64) ([]OptionGroup, error) {
	rows, err := q.db.Query(ctx, listOptionGroupsByDishSQL, dishID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []OptionGroup
	for rows.Next() {
		var g OptionGroup
		if err := rows.Scan(&g.ID, &g.DishID, &g.Name, &g.Type, &g.Required, &g.MaxSelect); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type CreateOptionItemParams struct {
	GroupID    int64
	Name       string
	PriceDelta pgtype.Numeric
	Available  bool
}

const createOptionItemSQL = `
	INSERT INTO option_items (group_id, name, price_delta, available)
	VALUES ($1, $2, $3, $4)
	RETURNING id, group_id, name, price_delta, available`

func (q *Queries) CreateOptionItem(ctx context.Context, arg CreateOptionItemParams) (OptionItem, error) {
	var o OptionItem
	err := q.db.QueryRow(ctx, createOptionItemSQL,
		arg.GroupID, arg.Name, arg.PriceDelta, arg.Available,
	).Scan(&o.ID, &o.GroupID, &o.Name, &o.PriceDelta, &o.Available)
	return o, err
}

const listOptionItemsByGroupSQL = `
	SELECT id, group_id, name, price_delta, available
	FROM option_items WHERE group_id = $1 ORDER BY id`

func (q *Queries) ListOptionItemsByGroup(ctx context.Context, groupID int64) ([]OptionItem, error) {
	rows, err := q.db.Query(ctx, listOptionItemsByGroupSQL, groupID)
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

const getOptionItemsByIDsSQL = `
	SELECT id, group_id, name, price_delta, available
	FROM option_items WHERE id = ANY($1)`

// GetOptionItemsByIDs returns the option items matching ids. Callers compare
// the result count against the request to detect unknown ids.
func (q *Queries) GetOptionItemsByIDs(ctx context.Context, ids []int64) ([]OptionItem, error) {
	rows, err := q.db.Query(ctx, getOptionItemsByIDsSQL, ids)
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
