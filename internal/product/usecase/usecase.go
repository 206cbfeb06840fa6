package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/fekuna/omnipos-sales-service/internal/unit"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo          product.Repository
	inventoryRepo inventory.Repository
	unitRepo      unit.Repository
	tx            database.Transactor
	index         product.Indexer
	logger        logger.ZapLogger
}

// NewProductUseCase wires the catalog. index may be nil, in which case
// searches go straight to the database.
func NewProductUseCase(repo product.Repository, inventoryRepo inventory.Repository, unitRepo unit.Repository, tx database.Transactor, index product.Indexer, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:          repo,
		inventoryRepo: inventoryRepo,
		unitRepo:      unitRepo,
		tx:            tx,
		index:         index,
		logger:        log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := validateCatalogFields(input.Name, input.UserPrice, input.UnitCost, input.MinStock); err != nil {
		return nil, err
	}
	if input.InitialQuantity < 0 || math.IsNaN(input.InitialQuantity) || math.IsInf(input.InitialQuantity, 0) {
		return nil, model.Validationf("initial quantity must not be negative")
	}

	barcode := optional(input.Barcode)
	if err := uc.checkBarcode(ctx, barcode, ""); err != nil {
		return nil, err
	}
	unitID := optional(input.UnitID)
	if err := uc.checkUnit(ctx, unitID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Barcode:   barcode,
		Name:      strings.TrimSpace(input.Name),
		UserPrice: model.RoundMoney(input.UserPrice),
		MinStock:  input.MinStock,
		UnitID:    unitID,
	}
	if input.UnitCost != nil {
		p.UnitCost = decimal.NewNullDecimal(model.RoundMoney(*input.UnitCost))
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, p); err != nil {
			return err
		}
		if model.IsZeroQuantity(input.InitialQuantity) {
			return nil
		}

		// the opening stock is the product's first lot
		lot := &model.Lot{
			ID:                uuid.New().String(),
			ProductID:         p.ID,
			RemainingQuantity: input.InitialQuantity,
			UnitCost:          p.UnitCost.Decimal,
			EffectiveFrom:     now,
			CreatedAt:         now,
		}
		if err := uc.inventoryRepo.CreateLot(ctx, lot); err != nil {
			return err
		}
		amount, err := uc.inventoryRepo.RefreshProductStock(ctx, p.ID, now)
		if err != nil {
			return err
		}
		p.CurrentAmount = amount
		return nil
	})
	if err != nil {
		uc.logger.Error("failed to create product", zap.String("name", p.Name), zap.Error(err))
		return nil, model.Persistence(err)
	}

	uc.syncIndex(ctx, p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	return p, model.Persistence(err)
}

func (uc *productUseCase) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, model.Validationf("barcode is required")
	}
	p, err := uc.repo.FindByBarcode(ctx, barcode)
	return p, model.Persistence(err)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, model.Persistence(err)
	}
	return products, count, nil
}

func (uc *productUseCase) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]model.Product, int, error) {
	query = strings.TrimSpace(query)
	if query == "" || uc.index == nil {
		return uc.ListProducts(ctx, &dto.ProductFilters{SearchQuery: query, Page: page, PageSize: pageSize})
	}

	ids, total, err := uc.index.Search(ctx, query, page, pageSize)
	if err != nil {
		// If ES fails, fall through to DB
		uc.logger.Warn("product index search failed, falling back to database", zap.String("query", query), zap.Error(err))
		return uc.ListProducts(ctx, &dto.ProductFilters{SearchQuery: query, Page: page, PageSize: pageSize})
	}

	// stock figures always come from the database
	found, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, model.Persistence(err)
	}
	byID := make(map[string]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, total, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := validateCatalogFields(input.Name, input.UserPrice, input.UnitCost, input.MinStock); err != nil {
		return nil, err
	}

	barcode := optional(input.Barcode)
	unitID := optional(input.UnitID)

	// The read, the write and the re-read share one transaction, so the
	// returned stock is the amount committed with the update.
	var p *model.Product
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := uc.repo.FindByID(ctx, input.ID)
		if err != nil {
			return err
		}
		if err := uc.checkBarcode(ctx, barcode, current.ID); err != nil {
			return err
		}
		if err := uc.checkUnit(ctx, unitID); err != nil {
			return err
		}

		current.Name = strings.TrimSpace(input.Name)
		current.Barcode = barcode
		current.UserPrice = model.RoundMoney(input.UserPrice)
		current.UnitCost = decimal.NullDecimal{}
		if input.UnitCost != nil {
			current.UnitCost = decimal.NewNullDecimal(model.RoundMoney(*input.UnitCost))
		}
		current.MinStock = input.MinStock
		current.UnitID = unitID
		current.UpdatedAt = time.Now().UTC()

		if err := uc.repo.Update(ctx, current); err != nil {
			return err
		}
		p, err = uc.repo.FindByID(ctx, current.ID)
		return err
	})
	if err != nil {
		uc.logger.Error("failed to update product", zap.String("product_id", input.ID), zap.Error(err))
		return nil, model.Persistence(err)
	}

	uc.syncIndex(ctx, p)
	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !model.IsZeroQuantity(p.CurrentAmount) {
			return model.Validationf("product %s still has %v in stock", p.ID, p.CurrentAmount)
		}
		return uc.repo.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, model.ErrValidation) && !errors.Is(err, model.ErrNotFound) {
			uc.logger.Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		}
		return model.Persistence(err)
	}

	if uc.index != nil {
		if err := uc.index.Remove(ctx, id); err != nil {
			uc.logger.Error("failed to remove product from index", zap.String("product_id", id), zap.Error(err))
		}
	}
	return nil
}

func (uc *productUseCase) syncIndex(ctx context.Context, p *model.Product) {
	if uc.index == nil {
		return
	}
	if err := uc.index.Index(ctx, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) checkBarcode(ctx context.Context, barcode *string, excludeID string) error {
	if barcode == nil {
		return nil
	}
	unique, err := uc.repo.IsBarcodeUnique(ctx, *barcode, excludeID)
	if err != nil {
		return model.Persistence(err)
	}
	if !unique {
		return model.Validationf("barcode %q already exists", *barcode)
	}
	return nil
}

func (uc *productUseCase) checkUnit(ctx context.Context, unitID *string) error {
	if unitID == nil {
		return nil
	}
	_, err := uc.unitRepo.FindByID(ctx, *unitID)
	return model.Persistence(err)
}

func validateCatalogFields(name string, price decimal.Decimal, cost *decimal.Decimal, minStock float64) error {
	if strings.TrimSpace(name) == "" {
		return model.Validationf("product name is required")
	}
	if !model.RoundMoney(price).IsPositive() {
		return model.Validationf("user price must be greater than zero")
	}
	if cost != nil && cost.IsNegative() {
		return model.Validationf("unit cost must not be negative")
	}
	if minStock < 0 || math.IsNaN(minStock) || math.IsInf(minStock, 0) {
		return model.Validationf("minimum stock must not be negative")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
