package product

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	// FindByID locks the row when ctx carries a transaction.
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	IsBarcodeUnique(ctx context.Context, barcode, excludeID string) (bool, error)
}

// Indexer keeps a full-text index of the catalog.
type Indexer interface {
	Index(ctx context.Context, product *model.Product) error
	Remove(ctx context.Context, id string) error
	// Search returns matching product ids, best match first.
	Search(ctx context.Context, query string, page, pageSize int) ([]string, int, error)
}
