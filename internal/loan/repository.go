package loan

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Repository interface {
	// Create fails with model.ErrLoanExists when the sale already has a loan.
	Create(ctx context.Context, loan *model.Loan) error
	// FindByID locks the row when ctx carries a transaction.
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	FindBySaleID(ctx context.Context, saleID string) (*model.Loan, error)
	FindAll(ctx context.Context, filters *dto.LoanFilters) ([]model.Loan, int, error)
	Update(ctx context.Context, loan *model.Loan) error

	CreatePayment(ctx context.Context, payment *model.LoanPayment) error
	// FindPayments lists a loan's payments, newest first.
	FindPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error)

	Summary(ctx context.Context) (*model.LoanSummary, error)
}
