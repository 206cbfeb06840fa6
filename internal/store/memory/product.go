package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
)

type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("products.create"); err != nil {
		return err
	}
	if p.Barcode != nil && !r.barcodeFree(*p.Barcode, "") {
		return model.Validationf("barcode %q already exists", *p.Barcode)
	}
	r.s.data.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, model.ErrProductNotFound)
	}
	return &p, nil
}

func (r *ProductRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.data.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("barcode %s: %w", barcode, model.ErrProductNotFound)
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	defer r.s.lock(ctx)()
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	defer r.s.lock(ctx)()
	var out []model.Product
	for _, p := range r.s.data.products {
		if f.UnitID != "" && (p.UnitID == nil || *p.UnitID != f.UnitID) {
			continue
		}
		if f.SearchQuery != "" {
			barcode := ""
			if p.Barcode != nil {
				barcode = *p.Barcode
			}
			if !contains(p.Name, f.SearchQuery) && !contains(barcode, f.SearchQuery) {
				continue
			}
		}
		out = append(out, p)
	}

	desc := strings.EqualFold(f.SortOrder, "desc")
	less := func(a, b model.Product) bool {
		switch f.SortBy {
		case "user_price":
			if !a.UserPrice.Equal(b.UserPrice) {
				return a.UserPrice.LessThan(b.UserPrice)
			}
		case "current_amount":
			if a.CurrentAmount != b.CurrentAmount {
				return a.CurrentAmount < b.CurrentAmount
			}
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}
	sortBy(out, func(a, b model.Product) bool {
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("products.update"); err != nil {
		return err
	}
	current, ok := r.s.data.products[p.ID]
	if !ok {
		return fmt.Errorf("%s: %w", p.ID, model.ErrProductNotFound)
	}
	if p.Barcode != nil && !r.barcodeFree(*p.Barcode, p.ID) {
		return model.Validationf("barcode %q already exists", *p.Barcode)
	}
	// stock is owned by the lot repository
	updated := *p
	updated.CurrentAmount = current.CurrentAmount
	r.s.data.products[p.ID] = updated
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	for _, op := range r.s.data.operations {
		if op.ProductID == id {
			return model.Validationf("product %s has sales history", id)
		}
	}
	delete(r.s.data.products, id)
	for lotID, l := range r.s.data.lots {
		if l.ProductID == id {
			delete(r.s.data.lots, lotID)
		}
	}
	return nil
}

func (r *ProductRepository) IsBarcodeUnique(ctx context.Context, barcode, excludeID string) (bool, error) {
	defer r.s.lock(ctx)()
	return r.barcodeFree(barcode, excludeID), nil
}

func (r *ProductRepository) barcodeFree(barcode, excludeID string) bool {
	for _, p := range r.s.data.products {
		if p.ID != excludeID && p.Barcode != nil && *p.Barcode == barcode {
			return false
		}
	}
	return true
}
