package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type InventoryRepository struct {
	s *Store
}

func (r *InventoryRepository) CreateLot(ctx context.Context, l *model.Lot) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("lots.create"); err != nil {
		return err
	}
	if _, ok := r.s.data.products[l.ProductID]; !ok {
		return fmt.Errorf("%s: %w", l.ProductID, model.ErrProductNotFound)
	}
	r.s.data.lots[l.ID] = *l
	return nil
}

func (r *InventoryRepository) FindLotsByProduct(ctx context.Context, productID string) ([]model.Lot, error) {
	defer r.s.lock(ctx)()
	out := []model.Lot{}
	for _, l := range r.s.data.lots {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	model.SortLotsForDepletion(out)
	return out, nil
}

func (r *InventoryRepository) UpdateLotQuantity(ctx context.Context, id string, remaining float64) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("lots.update"); err != nil {
		return err
	}
	l, ok := r.s.data.lots[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, model.ErrLotNotFound)
	}
	if remaining < 0 {
		return fmt.Errorf("lot %s: negative remaining quantity %v", id, remaining)
	}
	l.RemainingQuantity = remaining
	r.s.data.lots[id] = l
	return nil
}

func (r *InventoryRepository) DeleteLot(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("lots.delete"); err != nil {
		return err
	}
	if _, ok := r.s.data.lots[id]; !ok {
		return fmt.Errorf("%s: %w", id, model.ErrLotNotFound)
	}
	delete(r.s.data.lots, id)
	return nil
}

func (r *InventoryRepository) RefreshProductStock(ctx context.Context, productID string, at time.Time) (float64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fault("products.refresh_stock"); err != nil {
		return 0, err
	}
	p, ok := r.s.data.products[productID]
	if !ok {
		return 0, fmt.Errorf("%s: %w", productID, model.ErrProductNotFound)
	}
	var total float64
	for _, l := range r.s.data.lots {
		if l.ProductID == productID {
			total += l.RemainingQuantity
		}
	}
	p.CurrentAmount = total
	p.UpdatedAt = at
	r.s.data.products[productID] = p
	return total, nil
}

func (r *InventoryRepository) FindLowStock(ctx context.Context, f *dto.LowStockFilters) ([]model.Product, int, error) {
	defer r.s.lock(ctx)()
	var out []model.Product
	for _, p := range r.s.data.products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	sortBy(out, func(a, b model.Product) bool {
		if a.CurrentAmount != b.CurrentAmount {
			return a.CurrentAmount < b.CurrentAmount
		}
		return a.Name < b.Name
	})
	return page(out, f.Page, f.PageSize), len(out), nil
}
