package loan

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	CreateLoan(ctx context.Context, input *dto.CreateLoanInput) (*model.Loan, error)
	RecordPayment(ctx context.Context, input *dto.RecordPaymentInput) (*model.Loan, *model.LoanPayment, error)
	CancelLoan(ctx context.Context, id string) (*model.Loan, error)

	GetLoan(ctx context.Context, id string) (*model.Loan, error)
	ListLoans(ctx context.Context, filters *dto.LoanFilters) ([]model.Loan, int, error)
	ListPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error)
	ListActiveLoans(ctx context.Context) ([]model.Loan, error)
	ListLoansByStatus(ctx context.Context, status model.LoanStatus) ([]model.Loan, error)
	SearchLoans(ctx context.Context, query string) ([]model.Loan, error)
	GetSummary(ctx context.Context) (*model.LoanSummary, error)
}
