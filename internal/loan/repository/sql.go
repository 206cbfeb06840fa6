package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

const (
	loanColumns    = `id, sale_id, debtor_name, debtor_phone, total_debt, paid_amount, remaining_amount, status, created_at, updated_at`
	paymentColumns = `id, loan_id, amount, paid_at, notes`
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, l *model.Loan) error {
	query := `
        INSERT INTO loans (` + loanColumns + `)
        VALUES (:id, :sale_id, :debtor_name, :debtor_phone, :total_debt, :paid_amount, :remaining_amount, :status, :created_at, :updated_at)
    `
	_, err := database.NamedExec(ctx, r.DB, query, l)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("sale %s: %w", l.SaleID, model.ErrLoanExists)
	}
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", l.SaleID, model.ErrSaleNotFound)
	}
	return err
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	var l model.Loan
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?` + database.ForUpdate(ctx)
	err := database.Get(ctx, r.DB, &l, query, id)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", id, model.ErrLoanNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLRepository) FindBySaleID(ctx context.Context, saleID string) (*model.Loan, error) {
	var l model.Loan
	err := database.Get(ctx, r.DB, &l, `SELECT `+loanColumns+` FROM loans WHERE sale_id = ?`, saleID)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("sale %s: %w", saleID, model.ErrLoanNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.LoanFilters) ([]model.Loan, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		in, inArgs, err := database.In("status IN (?)", statuses)
		if err != nil {
			return nil, 0, err
		}
		conditions = append(conditions, in)
		args = append(args, inArgs...)
	}
	if f.Search != "" {
		conditions = append(conditions, "(LOWER(debtor_name) LIKE ? OR LOWER(COALESCE(debtor_phone, '')) LIKE ?)")
		pattern := database.Contains(f.Search)
		args = append(args, pattern, pattern)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := database.Get(ctx, r.DB, &count, "SELECT COUNT(*) FROM loans"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	query := database.Paginate(
		"SELECT "+loanColumns+" FROM loans"+whereClause+" ORDER BY created_at DESC, id DESC",
		f.Page, f.PageSize,
	)

	loans := []model.Loan{}
	if err := database.Select(ctx, r.DB, &loans, query, args...); err != nil {
		return nil, 0, err
	}
	return loans, count, nil
}

// Update writes the balances and status. The rest of a loan never changes.
func (r *SQLRepository) Update(ctx context.Context, l *model.Loan) error {
	query := `
        UPDATE loans
        SET paid_amount = :paid_amount,
            remaining_amount = :remaining_amount,
            status = :status,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := database.NamedExec(ctx, r.DB, query, l)
	if err != nil {
		return err
	}
	if ok, err := database.RowsAffected(res); err == nil && !ok {
		return fmt.Errorf("%s: %w", l.ID, model.ErrLoanNotFound)
	}
	return nil
}

func (r *SQLRepository) CreatePayment(ctx context.Context, p *model.LoanPayment) error {
	query := `
        INSERT INTO loan_payments (` + paymentColumns + `)
        VALUES (:id, :loan_id, :amount, :paid_at, :notes)
    `
	_, err := database.NamedExec(ctx, r.DB, query, p)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", p.LoanID, model.ErrLoanNotFound)
	}
	return err
}

func (r *SQLRepository) FindPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error) {
	payments := []model.LoanPayment{}
	query := `SELECT ` + paymentColumns + ` FROM loan_payments WHERE loan_id = ? ORDER BY paid_at DESC, id DESC`
	if err := database.Select(ctx, r.DB, &payments, query, loanID); err != nil {
		return nil, err
	}
	return payments, nil
}

// Summary counts loans per status. Outstanding only sums open loans, so a
// cancelled balance is not owed anymore.
func (r *SQLRepository) Summary(ctx context.Context) (*model.LoanSummary, error) {
	query := `
        SELECT
            COUNT(CASE WHEN status = ? THEN 1 END) AS active_count,
            COUNT(CASE WHEN status = ? THEN 1 END) AS partially_paid_count,
            COUNT(CASE WHEN status = ? THEN 1 END) AS fully_paid_count,
            COUNT(CASE WHEN status = ? THEN 1 END) AS cancelled_count,
            COALESCE(SUM(CASE WHEN status IN (?, ?) THEN remaining_amount ELSE 0 END), 0) AS outstanding
        FROM loans
    `
	var s model.LoanSummary
	active, partial := string(model.LoanStatusActive), string(model.LoanStatusPartiallyPaid)
	err := database.Get(ctx, r.DB, &s, query,
		active, partial, string(model.LoanStatusFullyPaid), string(model.LoanStatusCancelled),
		active, partial,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
