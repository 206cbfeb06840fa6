package sale

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
)

type Repository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateOperation(ctx context.Context, op *model.Operation) error
	// FindByID loads the sale with its operations.
	FindByID(ctx context.Context, id string) (*model.Sale, error)
	FindAll(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	Statistics(ctx context.Context, filters *dto.SaleFilters) (*model.SaleStatistics, error)
}

// Deduplicator remembers idempotency keys of sales submitted by tills.
type Deduplicator interface {
	// Reserve claims key for a new sale. When key already produced a sale its
	// id is returned instead.
	Reserve(ctx context.Context, key string) (saleID string, err error)
	Complete(ctx context.Context, key, saleID string) error
	Release(ctx context.Context, key string) error
}
