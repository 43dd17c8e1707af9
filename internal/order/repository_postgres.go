package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `id, user_id, order_number, total_amount, status, shipping_name, shipping_address, shipping_phone, order_note, created_at, updated_at`

	// rows are locked in id order so concurrent checkouts cannot deadlock
	lockProductsQuery = `
		SELECT id, name, price, stock_quantity, is_active
		FROM products
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`
	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`
	insertOrderLineQuery = `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	deleteOrderQuery = `DELETE FROM orders WHERE id = $1`
	getOrderQuery    = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND user_id = $2
	`
	listOrderLinesQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price, oi.created_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at ASC, oi.id
	`
	listOrdersQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, order_number DESC
	`
	transitionStatusQuery = `
		UPDATE orders SET status = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = $3
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) RunInTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warnw("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (Order, error) {
	var o Order
	err := s.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.TotalAmount, &o.Status,
		&o.Shipping.Name, &o.Shipping.Address, &o.Shipping.Phone, &o.Shipping.Note,
		&o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *PostgresRepository) Get(ctx context.Context, userID, orderID string) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, getOrderQuery, orderID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, listOrderLinesQuery, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	o.Lines = make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.Price, &l.CreatedAt); err != nil {
			return Order{}, fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) TransitionStatus(ctx context.Context, userID, orderID string, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, transitionStatusQuery, orderID, userID, from, to)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return n > 0, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t pgTx) LockProducts(ctx context.Context, ids []string) (map[string]ProductState, error) {
	rows, err := t.tx.QueryContext(ctx, lockProductsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()
	out := make(map[string]ProductState, len(ids))
	for rows.Next() {
		var p ProductState
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t pgTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.ExecContext(ctx, insertOrderQuery,
		o.ID, o.UserID, o.OrderNumber, o.TotalAmount, o.Status,
		o.Shipping.Name, o.Shipping.Address, o.Shipping.Phone, o.Shipping.Note,
		o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.UpdatedAt = o.CreatedAt
	return nil
}

func (t pgTx) InsertLines(ctx context.Context, orderID string, lines []Line) error {
	for i := range lines {
		l := &lines[i]
		l.OrderID = orderID
		if _, err := t.tx.ExecContext(ctx, insertOrderLineQuery, l.ID, orderID, l.ProductID, l.Quantity, l.Price, l.CreatedAt); err != nil {
			return fmt.Errorf("insert order line %s: %w", l.ProductID, err)
		}
	}
	return nil
}

func (t pgTx) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := t.tx.ExecContext(ctx, deleteOrderQuery, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (pgTx) Atomic() bool { return true }
