package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/wichananm65/storefront-backend/internal/postgres"
)

type PostgresRepository struct {
	db *sql.DB
}

const productColumns = `id, name, description, price, stock_quantity, is_active, category, created_at, updated_at`

const (
	getProductByIDQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	listProductsByIDsQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::uuid[])
	`
	insertProductQuery = `
		INSERT INTO products (id, name, description, price, stock_quantity, is_active, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns
	updateProductQuery = `
		UPDATE products
		SET name = $2,
			description = $3,
			price = $4,
			stock_quantity = $5,
			is_active = $6,
			category = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
	setStockQuery = `
		UPDATE products SET stock_quantity = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
	setActiveQuery = `
		UPDATE products SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns
	deleteProductQuery = `DELETE FROM products WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (Product, error) {
	var p Product
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.IsActive, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// buildFilter renders the WHERE clause for f. Placeholders start at $1.
func buildFilter(f Filter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 2)
	if !f.IncludeInactive {
		conds = append(conds, "is_active = true")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, "category = $"+strconv.Itoa(len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(name ILIKE $"+n+" OR description ILIKE $"+n+")")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func orderClause(s Sort) string {
	if s == SortName {
		return " ORDER BY name ASC, id ASC"
	}
	return " ORDER BY created_at DESC, id ASC"
}

// List degrades to an empty result while the products table does not exist.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Product, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&total); err != nil {
		if postgres.IsUndefinedTable(err) {
			return []Product{}, 0, nil
		}
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	n := len(args)
	q := "SELECT " + productColumns + " FROM products" + where + orderClause(f.Sort) +
		" LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, f.PageSize, f.Offset())...)
	if err != nil {
		if postgres.IsUndefinedTable(err) {
			return []Product{}, 0, nil
		}
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0, f.PageSize)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	return out, total, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	return r.one(ctx, "get product", getProductByIDQuery, id)
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.QueryContext(ctx, listProductsByIDsQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list products by id: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	return r.one(ctx, "insert product", insertProductQuery,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity, p.IsActive, p.Category, p.CreatedAt, p.UpdatedAt)
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	return r.one(ctx, "update product", updateProductQuery,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity, p.IsActive, p.Category)
}

func (r *PostgresRepository) SetStock(ctx context.Context, id string, qty int) (Product, error) {
	return r.one(ctx, "set stock", setStockQuery, id, qty)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) (Product, error) {
	return r.one(ctx, "set active", setActiveQuery, id, active)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) one(ctx context.Context, op, query string, args ...any) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
