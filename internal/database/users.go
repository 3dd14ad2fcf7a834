package database

import "context"

type CreateUserParams struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         string
}

const createUserSQL = `
	INSERT INTO users (full_name, email, password_hash, role)
	VALUES ($1, $2, $3, $4)
	RETURNING id, full_name, email, password_hash, role, created_at`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUserSQL,
		arg.FullName, arg.Email, arg.PasswordHash, arg.Role,
	).Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByEmailSQL = `
	SELECT id, full_name, email, password_hash, role, created_at
	FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByEmailSQL, email).Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt,
	)
	return u, err
}
