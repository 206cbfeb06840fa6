package unit

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
)

type UseCase interface {
	CreateUnit(ctx context.Context, input *dto.CreateUnitInput) (*model.Unit, error)
	GetUnit(ctx context.Context, id string) (*model.Unit, error)
	ListUnits(ctx context.Context, filters *dto.UnitFilters) ([]model.Unit, int, error)
	UpdateUnit(ctx context.Context, input *dto.UpdateUnitInput) (*model.Unit, error)
	DeleteUnit(ctx context.Context, id string) error
}
