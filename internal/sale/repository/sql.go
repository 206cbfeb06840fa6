package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

const (
	saleColumns      = `id, total_amount, paid_amount, change_amount, is_loan, created_at`
	operationColumns = `id, sale_id, product_id, lot_id, quantity, unit_price, unit_cost, subtotal, created_at`
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, s *model.Sale) error {
	query := `
        INSERT INTO sales (` + saleColumns + `)
        VALUES (:id, :total_amount, :paid_amount, :change_amount, :is_loan, :created_at)
    `
	_, err := database.NamedExec(ctx, r.DB, query, s)
	return err
}

func (r *SQLRepository) CreateOperation(ctx context.Context, op *model.Operation) error {
	query := `
        INSERT INTO operations (` + operationColumns + `)
        VALUES (:id, :sale_id, :product_id, :lot_id, :quantity, :unit_price, :unit_cost, :subtotal, :created_at)
    `
	_, err := database.NamedExec(ctx, r.DB, query, op)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("operation %s: %w", op.ID, model.ErrSaleNotFound)
	}
	return err
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.Sale, error) {
	var s model.Sale
	err := database.Get(ctx, r.DB, &s, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", id, model.ErrSaleNotFound)
	}
	if err != nil {
		return nil, err
	}

	s.Operations = []model.Operation{}
	query := `SELECT ` + operationColumns + ` FROM operations WHERE sale_id = ? ORDER BY created_at ASC, id ASC`
	if err := database.Select(ctx, r.DB, &s.Operations, query, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.SaleFilters) ([]model.Sale, int, error) {
	whereClause, args := filterClause(f)

	var count int
	if err := database.Get(ctx, r.DB, &count, "SELECT COUNT(*) FROM sales"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	query := database.Paginate(
		"SELECT "+saleColumns+" FROM sales"+whereClause+" ORDER BY created_at DESC, id DESC",
		f.Page, f.PageSize,
	)

	sales := []model.Sale{}
	if err := database.Select(ctx, r.DB, &sales, query, args...); err != nil {
		return nil, 0, err
	}
	return sales, count, nil
}

// Statistics aggregates over the same rows FindAll would return. Collected is
// the cash actually kept, so change handed back is subtracted.
func (r *SQLRepository) Statistics(ctx context.Context, f *dto.SaleFilters) (*model.SaleStatistics, error) {
	whereClause, args := filterClause(f)
	query := `
        SELECT
            COUNT(*) AS sale_count,
            COUNT(CASE WHEN is_loan THEN 1 END) AS loan_count,
            COALESCE(SUM(total_amount), 0) AS revenue,
            COALESCE(SUM(CASE WHEN is_loan THEN 0 ELSE total_amount END), 0) AS cash_revenue,
            COALESCE(SUM(CASE WHEN is_loan THEN total_amount ELSE 0 END), 0) AS loan_revenue,
            COALESCE(SUM(paid_amount - change_amount), 0) AS collected
        FROM sales` + whereClause

	var stats model.SaleStatistics
	if err := database.Get(ctx, r.DB, &stats, query, args...); err != nil {
		return nil, err
	}
	return &stats, nil
}

func filterClause(f *dto.SaleFilters) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if f.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, *f.To)
	}
	if f.IsLoan != nil {
		conditions = append(conditions, "is_loan = ?")
		args = append(args, *f.IsLoan)
	}
	if f.Debtor != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM loans l WHERE l.sale_id = sales.id AND LOWER(l.debtor_name) LIKE ?)")
		args = append(args, database.Contains(f.Debtor))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
