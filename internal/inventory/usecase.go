package inventory

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	ReceiveStock(ctx context.Context, input *dto.ReceiveStockInput) (*model.Lot, error)
	ListLots(ctx context.Context, productID string) ([]model.Lot, error)
	ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error)
}
