package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Repository interface {
	CreateLot(ctx context.Context, lot *model.Lot) error
	// FindLotsByProduct returns the product's lots in depletion order, locked
	// when ctx carries a transaction.
	FindLotsByProduct(ctx context.Context, productID string) ([]model.Lot, error)
	UpdateLotQuantity(ctx context.Context, id string, remaining float64) error
	DeleteLot(ctx context.Context, id string) error

	// RefreshProductStock recomputes the product's current amount from its lots.
	RefreshProductStock(ctx context.Context, productID string, at time.Time) (float64, error)
	FindLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error)
}
