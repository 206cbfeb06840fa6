package unit

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
)

type Repository interface {
	Create(ctx context.Context, unit *model.Unit) error
	FindByID(ctx context.Context, id string) (*model.Unit, error)
	FindAll(ctx context.Context, filters *dto.UnitFilters) ([]model.Unit, int, error)
	Update(ctx context.Context, unit *model.Unit) error
	Delete(ctx context.Context, id string) error

	// CountProducts reports how many products are sold in the unit.
	CountProducts(ctx context.Context, id string) (int, error)
}
