package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	lineColumns = `id, user_id, product_id, quantity, created_at, updated_at`

	listLinesQuery = `
		SELECT ` + lineColumns + `
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`
	getLineQuery = `
		SELECT ` + lineColumns + `
		FROM cart_items
		WHERE id = $1 AND user_id = $2
	`
	findLineByProductQuery = `
		SELECT ` + lineColumns + `
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`
	// the conditional DO UPDATE makes the increment and its stock bound one statement
	addQuantityQuery = `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		WHERE cart_items.quantity + EXCLUDED.quantity <= $5
		RETURNING ` + lineColumns
	setQuantityQuery = `
		UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + lineColumns
	deleteLineQuery = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`
	clearCartQuery  = `DELETE FROM cart_items WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(s rowScanner) (Line, error) {
	var l Line
	err := s.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx, listLinesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	out := make([]Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, userID, lineID string) (Line, error) {
	return r.one(ctx, ErrNotFound, "get cart line", getLineQuery, lineID, userID)
}

func (r *PostgresRepository) FindByProduct(ctx context.Context, userID, productID string) (Line, error) {
	return r.one(ctx, ErrNotFound, "find cart line", findLineByProductQuery, userID, productID)
}

func (r *PostgresRepository) AddQuantity(ctx context.Context, userID, productID string, qty, limit int) (Line, error) {
	return r.one(ctx, ErrLimitExceeded, "add to cart", addQuantityQuery, uuid.NewString(), userID, productID, qty, limit)
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, lineID string, qty int) (Line, error) {
	return r.one(ctx, ErrNotFound, "set cart quantity", setQuantityQuery, lineID, userID, qty)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, lineID string) error {
	if _, err := r.db.ExecContext(ctx, deleteLineQuery, lineID, userID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, clearCartQuery, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *PostgresRepository) one(ctx context.Context, noRows error, op, query string, args ...any) (Line, error) {
	l, err := scanLine(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Line{}, noRows
	}
	if err != nil {
		return Line{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}
