package memory

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/shopspring/decimal"
)

type LoanRepository struct {
	s *Store
}

func (r *LoanRepository) Create(ctx context.Context, l *model.Loan) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("loans.create"); err != nil {
		return err
	}
	if _, ok := r.s.data.sales[l.SaleID]; !ok {
		return fmt.Errorf("%s: %w", l.SaleID, model.ErrSaleNotFound)
	}
	for _, existing := range r.s.data.loans {
		if existing.SaleID == l.SaleID {
			return fmt.Errorf("sale %s: %w", l.SaleID, model.ErrLoanExists)
		}
	}
	r.s.data.loans[l.ID] = *l
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	defer r.s.lock(ctx)()
	l, ok := r.s.data.loans[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, model.ErrLoanNotFound)
	}
	return &l, nil
}

func (r *LoanRepository) FindBySaleID(ctx context.Context, saleID string) (*model.Loan, error) {
	defer r.s.lock(ctx)()
	for _, l := range r.s.data.loans {
		if l.SaleID == saleID {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("sale %s: %w", saleID, model.ErrLoanNotFound)
}

func (r *LoanRepository) FindAll(ctx context.Context, f *dto.LoanFilters) ([]model.Loan, int, error) {
	defer r.s.lock(ctx)()
	statuses := map[model.LoanStatus]bool{}
	for _, st := range f.Statuses {
		statuses[st] = true
	}

	var out []model.Loan
	for _, l := range r.s.data.loans {
		if len(statuses) > 0 && !statuses[l.Status] {
			continue
		}
		if f.Search != "" {
			phone := ""
			if l.DebtorPhone != nil {
				phone = *l.DebtorPhone
			}
			if !contains(l.DebtorName, f.Search) && !contains(phone, f.Search) {
				continue
			}
		}
		out = append(out, l)
	}
	sortBy(out, func(a, b model.Loan) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *LoanRepository) Update(ctx context.Context, l *model.Loan) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("loans.update"); err != nil {
		return err
	}
	if _, ok := r.s.data.loans[l.ID]; !ok {
		return fmt.Errorf("%s: %w", l.ID, model.ErrLoanNotFound)
	}
	r.s.data.loans[l.ID] = *l
	return nil
}

func (r *LoanRepository) CreatePayment(ctx context.Context, p *model.LoanPayment) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("loan_payments.create"); err != nil {
		return err
	}
	if _, ok := r.s.data.loans[p.LoanID]; !ok {
		return fmt.Errorf("%s: %w", p.LoanID, model.ErrLoanNotFound)
	}
	r.s.data.payments = append(r.s.data.payments, *p)
	return nil
}

func (r *LoanRepository) FindPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error) {
	defer r.s.lock(ctx)()
	out := []model.LoanPayment{}
	// walk backwards so equal timestamps keep newest-first insertion order
	for i := len(r.s.data.payments) - 1; i >= 0; i-- {
		if p := r.s.data.payments[i]; p.LoanID == loanID {
			out = append(out, p)
		}
	}
	sortBy(out, func(a, b model.LoanPayment) bool { return a.PaidAt.After(b.PaidAt) })
	return out, nil
}

func (r *LoanRepository) Summary(ctx context.Context) (*model.LoanSummary, error) {
	defer r.s.lock(ctx)()
	sum := &model.LoanSummary{Outstanding: decimal.Zero}
	for _, l := range r.s.data.loans {
		switch l.Status {
		case model.LoanStatusActive:
			sum.ActiveCount++
		case model.LoanStatusPartiallyPaid:
			sum.PartiallyPaidCount++
		case model.LoanStatusFullyPaid:
			sum.FullyPaidCount++
		case model.LoanStatusCancelled:
			sum.CancelledCount++
		}
		if l.Status.IsOpen() {
			sum.Outstanding = sum.Outstanding.Add(l.RemainingAmount)
		}
	}
	return sum, nil
}
