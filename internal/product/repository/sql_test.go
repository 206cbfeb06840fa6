package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var productRowColumns = []string{"id", "barcode", "name", "user_price", "unit_cost", "min_stock", "unit_id", "current_amount", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*SQLRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "pgx")
	return NewSQLRepository(db), db, mock
}

func sqlPattern(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

func productRow(rows *sqlmock.Rows, id, name string) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return rows.AddRow(id, nil, name, "10.00", nil, 0.0, nil, 8.0, now, now)
}

func TestCreateMapsConstraintViolations(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate barcode", &pgconn.PgError{Code: "23505"}, model.ErrValidation},
		{"duplicate barcode on mysql", &mysql.MySQLError{Number: 1062}, model.ErrValidation},
		{"unknown unit", &pgconn.PgError{Code: "23503"}, model.ErrUnitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, mock := newMockRepo(t)
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).WillReturnError(tt.err)

			p := &model.Product{BaseModel: model.BaseModel{ID: "X"}, Name: "Rice", UserPrice: decimal.RequireFromString("10")}
			if err := repo.Create(context.Background(), p); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFindByIDLocksInsideTransaction(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlPattern("FROM products WHERE id = $1 FOR UPDATE")).
		WithArgs("X").
		WillReturnRows(productRow(sqlmock.NewRows(productRowColumns), "X", "Rice"))
	mock.ExpectCommit()

	err := database.NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context) error {
		p, err := repo.FindByID(ctx, "X")
		if err != nil {
			return err
		}
		if p.CurrentAmount != 8 || !p.UserPrice.Equal(decimal.RequireFromString("10")) || p.Barcode != nil {
			t.Errorf("product = %+v", p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindByIDsExpandsInClause(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, "a", "Rice")
	productRow(rows, "b", "Salt")
	mock.ExpectQuery(sqlPattern("FROM products WHERE id IN ($1, $2)")).
		WithArgs("a", "b").
		WillReturnRows(rows)

	ctx := context.Background()
	products, err := repo.FindByIDs(ctx, []string{"a", "b"})
	if err != nil || len(products) != 2 {
		t.Fatalf("FindByIDs = %+v, %v", products, err)
	}

	// no ids, no query
	if products, err := repo.FindByIDs(ctx, nil); err != nil || len(products) != 0 {
		t.Errorf("empty FindByIDs = %+v, %v", products, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestFindAllSearchAndSort(t *testing.T) {
	tests := []struct {
		name    string
		filters dto.ProductFilters
		where   string
		args    []driver.Value
		order   string
	}{
		{
			name:    "escaped search, default sort",
			filters: dto.ProductFilters{SearchQuery: "10%", SortBy: "price; DROP TABLE products"},
			where:   " WHERE (LOWER(name) LIKE $1 OR LOWER(barcode) LIKE $2)",
			args:    []driver.Value{`%10\%%`, `%10\%%`},
			order:   "ORDER BY name ASC, id ASC",
		},
		{
			name:    "unit filter, price descending, paged",
			filters: dto.ProductFilters{UnitID: "kg", SortBy: "user_price", SortOrder: "DESC", Page: 3, PageSize: 5},
			where:   " WHERE unit_id = $1",
			args:    []driver.Value{"kg"},
			order:   "ORDER BY user_price DESC, id DESC LIMIT 5 OFFSET 10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, mock := newMockRepo(t)
			mock.ExpectQuery(sqlPattern("SELECT COUNT(*) FROM products"+tt.where)).
				WithArgs(tt.args...).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			mock.ExpectQuery(sqlPattern("FROM products"+tt.where+" "+tt.order)).
				WithArgs(tt.args...).
				WillReturnRows(productRow(sqlmock.NewRows(productRowColumns), "X", "Rice"))

			products, count, err := repo.FindAll(context.Background(), &tt.filters)
			if err != nil || count != 1 || len(products) != 1 {
				t.Fatalf("FindAll = %d %+v, %v", count, products, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}
