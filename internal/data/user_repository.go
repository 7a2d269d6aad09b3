package data

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"edupro/internal/model"
)

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, input *model.RepositoryCreateUserInput) (*model.User, error) {
	query := `
INSERT INTO users (id, email, password_hash, display_name, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, password_hash, display_name, role, created_at, edited_at
`
	var user model.User
	err := pgxscan.Get(ctx, r.db, &user, query,
		input.Id,
		input.Email,
		input.PasswordHash,
		input.DisplayName,
		input.Role,
	)
	if err != nil {
		return nil, handleError("user", err)
	}
	return &user, nil
}

func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
SELECT id, email, password_hash, display_name, role, created_at, edited_at
FROM users
WHERE id = $1
`
	var user model.User
	err := pgxscan.Get(ctx, r.db, &user, query, id)
	if err != nil {
		return nil, handleError("user", err)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
SELECT id, email, password_hash, display_name, role, created_at, edited_at
FROM users
WHERE lower(email) = lower($1)
`
	var user model.User
	err := pgxscan.Get(ctx, r.db, &user, query, email)
	if err != nil {
		return nil, handleError("user", err)
	}
	return &user, nil
}
