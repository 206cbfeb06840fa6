package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo        inventory.Repository
	productRepo product.Repository
	tx          database.Transactor
	publisher   events.Publisher
	logger      logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, productRepo product.Repository, tx database.Transactor, publisher events.Publisher, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:        repo,
		productRepo: productRepo,
		tx:          tx,
		publisher:   publisher,
		logger:      log,
	}
}

type stockReceivedPayload struct {
	ProductID     string  `json:"product_id"`
	LotID         string  `json:"lot_id"`
	Quantity      float64 `json:"quantity"`
	UnitCost      string  `json:"unit_cost"`
	CurrentAmount float64 `json:"current_amount"`
}

// ReceiveStock books a delivery as a new lot.
func (uc *inventoryUseCase) ReceiveStock(ctx context.Context, input *dto.ReceiveStockInput) (*model.Lot, error) {
	if input.Quantity <= 0 || math.IsNaN(input.Quantity) || math.IsInf(input.Quantity, 0) {
		return nil, fmt.Errorf("quantity %v: %w", input.Quantity, model.ErrInvalidAmount)
	}
	if input.UnitCost.IsNegative() {
		return nil, model.Validationf("unit cost must not be negative")
	}

	now := time.Now().UTC()
	effective := now
	if input.EffectiveFrom != nil && !input.EffectiveFrom.IsZero() {
		effective = input.EffectiveFrom.UTC()
	}

	lot := &model.Lot{
		ID:                uuid.New().String(),
		ProductID:         input.ProductID,
		RemainingQuantity: input.Quantity,
		UnitCost:          model.RoundMoney(input.UnitCost),
		EffectiveFrom:     effective,
		CreatedAt:         now,
	}

	var amount float64
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.productRepo.FindByID(ctx, input.ProductID); err != nil {
			return err
		}
		if err := uc.repo.CreateLot(ctx, lot); err != nil {
			return err
		}
		var err error
		amount, err = uc.repo.RefreshProductStock(ctx, input.ProductID, now)
		return err
	})
	if err != nil {
		uc.logger.Error("failed to receive stock",
			zap.String("product_id", input.ProductID),
			zap.Float64("quantity", input.Quantity),
			zap.Error(err),
		)
		return nil, model.Persistence(err)
	}

	uc.logger.Info("stock received",
		zap.String("product_id", lot.ProductID),
		zap.String("lot_id", lot.ID),
		zap.Float64("quantity", lot.RemainingQuantity),
		zap.Float64("current_amount", amount),
	)
	uc.publish(ctx, events.New(events.StockReceived, lot.ProductID, stockReceivedPayload{
		ProductID:     lot.ProductID,
		LotID:         lot.ID,
		Quantity:      lot.RemainingQuantity,
		UnitCost:      lot.UnitCost.StringFixed(model.MoneyScale),
		CurrentAmount: amount,
	}))
	return lot, nil
}

func (uc *inventoryUseCase) ListLots(ctx context.Context, productID string) ([]model.Lot, error) {
	if _, err := uc.productRepo.FindByID(ctx, productID); err != nil {
		return nil, model.Persistence(err)
	}
	lots, err := uc.repo.FindLotsByProduct(ctx, productID)
	if err != nil {
		return nil, model.Persistence(err)
	}
	model.SortLotsForDepletion(lots)
	return lots, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, filters *dto.LowStockFilters) ([]model.Product, int, error) {
	products, count, err := uc.repo.FindLowStock(ctx, filters)
	if err != nil {
		return nil, 0, model.Persistence(err)
	}
	return products, count, nil
}

func (uc *inventoryUseCase) publish(ctx context.Context, e events.Event) {
	if err := uc.publisher.Publish(ctx, e); err != nil {
		uc.logger.Warn("failed to publish event", zap.String("event_type", e.Type), zap.Error(err))
	}
}
