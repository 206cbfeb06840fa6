package memory

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
)

type UnitRepository struct {
	s *Store
}

func (r *UnitRepository) Create(ctx context.Context, u *model.Unit) error {
	defer r.s.lock(ctx)()
	if err := r.s.fault("units.create"); err != nil {
		return err
	}
	for _, existing := range r.s.data.units {
		if existing.Name == u.Name {
			return model.Validationf("unit %q already exists", u.Name)
		}
	}
	r.s.data.units[u.ID] = *u
	return nil
}

func (r *UnitRepository) FindByID(ctx context.Context, id string) (*model.Unit, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.data.units[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, model.ErrUnitNotFound)
	}
	return &u, nil
}

func (r *UnitRepository) FindAll(ctx context.Context, f *dto.UnitFilters) ([]model.Unit, int, error) {
	defer r.s.lock(ctx)()
	var out []model.Unit
	for _, u := range r.s.data.units {
		if f.Search != "" && !contains(u.Name, f.Search) && !contains(u.Abbreviation, f.Search) {
			continue
		}
		out = append(out, u)
	}
	sortBy(out, func(a, b model.Unit) bool { return a.Name < b.Name })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *UnitRepository) Update(ctx context.Context, u *model.Unit) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.units[u.ID]; !ok {
		return fmt.Errorf("%s: %w", u.ID, model.ErrUnitNotFound)
	}
	for _, existing := range r.s.data.units {
		if existing.ID != u.ID && existing.Name == u.Name {
			return model.Validationf("unit %q already exists", u.Name)
		}
	}
	r.s.data.units[u.ID] = *u
	return nil
}

func (r *UnitRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	delete(r.s.data.units, id)
	return nil
}

func (r *UnitRepository) CountProducts(ctx context.Context, id string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, p := range r.s.data.products {
		if p.UnitID != nil && *p.UnitID == id {
			n++
		}
	}
	return n, nil
}
