package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userColumns = `id, external_id, name, created_at, updated_at`

	getUserByExternalIDQuery = `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`
	getUserByIDQuery         = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	// the no-op update makes RETURNING yield the existing row on conflict
	upsertUserQuery = `
		INSERT INTO users (id, external_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING ` + userColumns
	updateUserNameQuery = `
		UPDATE users SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	return r.one(ctx, "get user by external id", getUserByExternalIDQuery, externalID)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	return r.one(ctx, "get user", getUserByIDQuery, id)
}

func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, u User) (User, error) {
	return r.one(ctx, "create user", upsertUserQuery, u.ID, u.ExternalID, u.Name, u.CreatedAt)
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id, name string) (User, error) {
	return r.one(ctx, "update user", updateUserNameQuery, id, name)
}

func (r *PostgresRepository) one(ctx context.Context, op, query string, args ...any) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.ExternalID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
