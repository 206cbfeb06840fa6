package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/shopspring/decimal"
)

type SaleRepository struct {
	s *Store
}

func (r *SaleRepository) Create(ctx context.Context, sale *model.Sale) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("sales.create"); err != nil {
		return err
	}
	header := *sale
	header.Operations = nil
	r.s.data.sales[sale.ID] = header
	return nil
}

func (r *SaleRepository) CreateOperation(ctx context.Context, op *model.Operation) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("operations.create"); err != nil {
		return err
	}
	if _, ok := r.s.data.sales[op.SaleID]; !ok {
		return fmt.Errorf("%s: %w", op.SaleID, model.ErrSaleNotFound)
	}
	r.s.data.operations = append(r.s.data.operations, *op)
	return nil
}

func (r *SaleRepository) FindByID(ctx context.Context, id string) (*model.Sale, error) {
	defer r.s.lock(ctx)()
	sale, ok := r.s.data.sales[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, model.ErrSaleNotFound)
	}
	sale.Operations = []model.Operation{}
	for _, op := range r.s.data.operations {
		if op.SaleID == id {
			sale.Operations = append(sale.Operations, op)
		}
	}
	return &sale, nil
}

func (r *SaleRepository) FindAll(ctx context.Context, f *dto.SaleFilters) ([]model.Sale, int, error) {
	defer r.s.lock(ctx)()
	out := r.filter(f)
	sortBy(out, func(a, b model.Sale) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *SaleRepository) Statistics(ctx context.Context, f *dto.SaleFilters) (*model.SaleStatistics, error) {
	defer r.s.lock(ctx)()
	stats := &model.SaleStatistics{
		Revenue:     decimal.Zero,
		CashRevenue: decimal.Zero,
		LoanRevenue: decimal.Zero,
		Collected:   decimal.Zero,
	}
	for _, sale := range r.filter(f) {
		stats.SaleCount++
		stats.Revenue = stats.Revenue.Add(sale.TotalAmount)
		stats.Collected = stats.Collected.Add(sale.PaidAmount.Sub(sale.ChangeAmount))
		if sale.IsLoan {
			stats.LoanCount++
			stats.LoanRevenue = stats.LoanRevenue.Add(sale.TotalAmount)
		} else {
			stats.CashRevenue = stats.CashRevenue.Add(sale.TotalAmount)
		}
	}
	return stats, nil
}

func (r *SaleRepository) filter(f *dto.SaleFilters) []model.Sale {
	debtors := map[string]string{}
	for _, l := range r.s.data.loans {
		debtors[l.SaleID] = l.DebtorName
	}

	var out []model.Sale
	for _, sale := range r.s.data.sales {
		if !inRange(sale.CreatedAt, f.From, f.To) {
			continue
		}
		if f.IsLoan != nil && sale.IsLoan != *f.IsLoan {
			continue
		}
		if f.Debtor != "" {
			name, ok := debtors[sale.ID]
			if !ok || !contains(name, f.Debtor) {
				continue
			}
		}
		out = append(out, sale)
	}
	return out
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
