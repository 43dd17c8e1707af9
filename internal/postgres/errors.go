package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUndefinedTable      = "42P01"
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUndefinedTable reports a query against a table that does not exist yet.
func IsUndefinedTable(err error) bool { return code(err) == codeUndefinedTable }

func IsUniqueViolation(err error) bool { return code(err) == codeUniqueViolation }

func IsForeignKeyViolation(err error) bool { return code(err) == codeForeignKeyViolation }
