package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDSN(t *testing.T) {
	pg := &Config{Dialect: DialectPostgres, Host: "db", Port: "5432", User: "u", Password: "p", DBName: "sales", SSLMode: "disable"}
	driver, dsn, err := pg.DSN()
	if err != nil || driver != "pgx" {
		t.Fatalf("postgres: %s %v", driver, err)
	}
	if dsn != "host=db port=5432 user=u password=p dbname=sales sslmode=disable" {
		t.Errorf("postgres dsn = %q", dsn)
	}

	my := &Config{Dialect: DialectMySQL, Host: "db", Port: "3306", User: "u", Password: "p", DBName: "sales"}
	driver, dsn, err = my.DSN()
	if err != nil || driver != "mysql" {
		t.Fatalf("mysql: %s %v", driver, err)
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", dsn, err)
	}
	if parsed.Addr != "db:3306" || parsed.DBName != "sales" || !parsed.ParseTime {
		t.Errorf("mysql config = %+v", parsed)
	}

	if _, _, err := (&Config{Dialect: "oracle"}).DSN(); err == nil {
		t.Error("expected error for unsupported dialect")
	}
}

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		err    error
		unique bool
		fk     bool
	}{
		{&pgconn.PgError{Code: "23505"}, true, false},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), false, true},
		{&mysql.MySQLError{Number: 1062}, true, false},
		{&mysql.MySQLError{Number: 1451}, false, true},
		{errors.New("other"), false, false},
	}
	for _, tt := range tests {
		if got := IsUniqueViolation(tt.err); got != tt.unique {
			t.Errorf("IsUniqueViolation(%v) = %v", tt.err, got)
		}
		if got := IsForeignKeyViolation(tt.err); got != tt.fk {
			t.Errorf("IsForeignKeyViolation(%v) = %v", tt.err, got)
		}
	}
}

func TestPaginate(t *testing.T) {
	if got := Paginate("SELECT 1", 3, 20); got != "SELECT 1 LIMIT 20 OFFSET 40" {
		t.Errorf("got %q", got)
	}
	if got := Paginate("SELECT 1", 0, 10); got != "SELECT 1 LIMIT 10 OFFSET 0" {
		t.Errorf("got %q", got)
	}
	if got := Paginate("SELECT 1", 2, 0); got != "SELECT 1" {
		t.Errorf("got %q", got)
	}
}

func TestContains(t *testing.T) {
	if got := Contains("50%_Off"); got != `%50\%\_off%` {
		t.Errorf("got %q", got)
	}
}

func TestForUpdateOutsideTx(t *testing.T) {
	if ForUpdate(context.Background()) != "" {
		t.Error("no lock clause expected outside a transaction")
	}
	if _, ok := TxFromContext(context.Background()); ok {
		t.Error("no transaction expected")
	}
}
