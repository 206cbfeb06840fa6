package sale

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
)

type UseCase interface {
	ProcessSale(ctx context.Context, input *dto.ProcessSaleInput) (*model.Sale, error)
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	ListSales(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error)
	ListSalesByDateRange(ctx context.Context, from, to time.Time) ([]model.Sale, error)
	ListSalesByDebtor(ctx context.Context, name string) ([]model.Sale, error)
	GetStatistics(ctx context.Context, from, to *time.Time) (*model.SaleStatistics, error)
}
