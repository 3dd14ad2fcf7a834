package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID        int64
	Name      string
	SortOrder int32
}

type Dish struct {
	ID         int64
	CategoryID int64
	Name       string
	Price      pgtype.Numeric
	ImageURL   pgtype.Text
	Stock      int32
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OptionGroup struct {
	ID        int64
	DishID    int64
	Name      string
	Type      string
	Required  bool
	MaxSelect int32
}

type OptionItem struct {
	ID         int64
	GroupID    int64
	Name       string
	PriceDelta pgtype.Numeric
	Available  bool
}

type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Order struct {
	ID        int64
	UserID    int64
	Status    string
	Remark    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	DishID    int64
	Qty       int32
	UnitPrice pgtype.Numeric
}
