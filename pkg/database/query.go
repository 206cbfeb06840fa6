package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// The helpers below run against the transaction bound to ctx, if any, and
// rebind "?" placeholders for the handle's driver.

func Get(ctx context.Context, db *sqlx.DB, dest interface{}, query string, args ...interface{}) error {
	ext := Executor(ctx, db)
	return sqlx.GetContext(ctx, ext, dest, ext.Rebind(query), args...)
}

func Select(ctx context.Context, db *sqlx.DB, dest interface{}, query string, args ...interface{}) error {
	ext := Executor(ctx, db)
	return sqlx.SelectContext(ctx, ext, dest, ext.Rebind(query), args...)
}

func Exec(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (sql.Result, error) {
	ext := Executor(ctx, db)
	return ext.ExecContext(ctx, ext.Rebind(query), args...)
}

// NamedExec runs a query with :name parameters bound from arg.
func NamedExec(ctx context.Context, db *sqlx.DB, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, Executor(ctx, db), query, arg)
}

// In expands slice arguments of an IN (?) clause.
func In(query string, args ...interface{}) (string, []interface{}, error) {
	return sqlx.In(query, args...)
}

// Paginate appends LIMIT/OFFSET when pageSize is positive. Pages start at 1.
func Paginate(query string, page, pageSize int) string {
	if pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query + fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains builds a lower-cased LIKE pattern matching s anywhere.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// RowsAffected reports whether the statement touched at least one row.
func RowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsForeignKeyViolation reports whether err is a referential-integrity failure
// on either supported backend.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1451 || myErr.Number == 1452
	}
	return false
}
