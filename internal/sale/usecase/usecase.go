package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/allocator"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/loan"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type saleUseCase struct {
	repo          sale.Repository
	productRepo   product.Repository
	inventoryRepo inventory.Repository
	loanRepo      loan.Repository
	tx            database.Transactor
	dedup         sale.Deduplicator
	publisher     events.Publisher
	logger        logger.ZapLogger
}

// NewSaleUseCase wires the sale processor. dedup may be nil, in which case
// idempotency keys are ignored.
func NewSaleUseCase(
	repo sale.Repository,
	productRepo product.Repository,
	inventoryRepo inventory.Repository,
	loanRepo loan.Repository,
	tx database.Transactor,
	dedup sale.Deduplicator,
	publisher events.Publisher,
	log logger.ZapLogger,
) sale.UseCase {
	return &saleUseCase{
		repo:          repo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		loanRepo:      loanRepo,
		tx:            tx,
		dedup:         dedup,
		publisher:     publisher,
		logger:        log,
	}
}

// saleLine is one product of a sale, with repeated lines merged.
type saleLine struct {
	ProductID string
	Quantity  float64
	UnitPrice decimal.Decimal
}

type saleItemPayload struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice string  `json:"unit_price"`
}

type saleCompletedPayload struct {
	SaleID       string            `json:"sale_id"`
	TotalAmount  string            `json:"total_amount"`
	PaidAmount   string            `json:"paid_amount"`
	ChangeAmount string            `json:"change_amount"`
	IsLoan       bool              `json:"is_loan"`
	Source       string            `json:"source,omitempty"`
	Items        []saleItemPayload `json:"items"`
}

type loanCreatedPayload struct {
	LoanID          string `json:"loan_id"`
	SaleID          string `json:"sale_id"`
	DebtorName      string `json:"debtor_name"`
	TotalDebt       string `json:"total_debt"`
	RemainingAmount string `json:"remaining_amount"`
	Status          string `json:"status"`
}

type lowStockPayload struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	CurrentAmount float64 `json:"current_amount"`
	MinStock      float64 `json:"min_stock"`
}

func (uc *saleUseCase) ProcessSale(ctx context.Context, input *dto.ProcessSaleInput) (result *model.Sale, err error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && uc.dedup != nil {
		existingID, rerr := uc.dedup.Reserve(ctx, key)
		if rerr != nil {
			return nil, model.Persistence(rerr)
		}
		if existingID != "" {
			uc.logger.Info("replaying completed sale",
				zap.String("idempotency_key", key),
				zap.String("sale_id", existingID),
			)
			return uc.GetSale(ctx, existingID)
		}
		defer func() {
			if err == nil {
				if cerr := uc.dedup.Complete(ctx, key, result.ID); cerr != nil {
					uc.logger.Warn("failed to complete idempotency key", zap.String("idempotency_key", key), zap.Error(cerr))
				}
				return
			}
			if rerr := uc.dedup.Release(ctx, key); rerr != nil {
				uc.logger.Warn("failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(rerr))
			}
		}()
	}

	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}
	if input.PaidAmount.IsNegative() {
		return nil, fmt.Errorf("paid amount %s: %w", input.PaidAmount.String(), model.ErrInvalidAmount)
	}

	total, err := uc.validateLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	paid := model.RoundMoney(input.PaidAmount)
	if paid.LessThan(total) && !input.IsLoan {
		return nil, fmt.Errorf("paid %s of %s: %w",
			paid.StringFixed(model.MoneyScale), total.StringFixed(model.MoneyScale), model.ErrIncompletePayment)
	}

	now := time.Now().UTC()
	s := model.NewSale(uuid.New().String(), total, paid, now)

	// A loan intent that is paid in full is an ordinary cash sale.
	var newLoan *model.Loan
	if s.IsLoan && input.Debtor != nil {
		newLoan, err = model.NewLoanFromSale(uuid.New().String(), s, input.Debtor.Name, &input.Debtor.Phone, now)
		if err != nil {
			return nil, err
		}
	}

	var lowStock []model.Product
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		lowStock = nil
		s.Operations = nil
		if err := uc.repo.Create(ctx, s); err != nil {
			return err
		}
		for _, line := range lines {
			ops, p, err := uc.deplete(ctx, s.ID, line, now)
			if err != nil {
				return err
			}
			s.Operations = append(s.Operations, ops...)
			if p.IsLowStock() {
				lowStock = append(lowStock, *p)
			}
		}
		if newLoan != nil {
			return uc.loanRepo.Create(ctx, newLoan)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("failed to process sale",
			zap.Int("items", len(lines)),
			zap.String("total_amount", total.StringFixed(model.MoneyScale)),
			zap.Error(err),
		)
		return nil, model.Persistence(err)
	}

	uc.logger.Info("sale processed",
		zap.String("sale_id", s.ID),
		zap.String("total_amount", s.TotalAmount.StringFixed(model.MoneyScale)),
		zap.String("paid_amount", s.PaidAmount.StringFixed(model.MoneyScale)),
		zap.Bool("is_loan", s.IsLoan),
		zap.Int("operations", len(s.Operations)),
		zap.String("source", input.Source),
	)
	uc.publishSale(ctx, s, lines, newLoan, lowStock, input.Source)
	return s, nil
}

// mergeLines validates the items and merges repeated products, keeping the
// order in which products first appear. Each line's price must agree.
func mergeLines(items []dto.SaleItemInput) ([]saleLine, error) {
	if len(items) == 0 {
		return nil, model.ErrEmptySale
	}

	lines := make([]saleLine, 0, len(items))
	index := map[string]int{}
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return nil, model.Validationf("product id is required")
		}
		if item.Quantity <= 0 || math.IsNaN(item.Quantity) || math.IsInf(item.Quantity, 0) {
			return nil, fmt.Errorf("product %s quantity %v: %w", id, item.Quantity, model.ErrInvalidAmount)
		}

		if i, ok := index[id]; ok {
			if !lines[i].UnitPrice.Equal(item.UnitPrice) {
				return nil, fmt.Errorf("product %s listed at %s and %s: %w",
					id, lines[i].UnitPrice.String(), item.UnitPrice.String(), model.ErrPriceMismatch)
			}
			lines[i].Quantity += item.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, saleLine{ProductID: id, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return lines, nil
}

// validateLines checks every line against the catalog and returns the sale total.
func (uc *saleUseCase) validateLines(ctx context.Context, lines []saleLine) (decimal.Decimal, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := uc.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, model.Persistence(err)
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return decimal.Zero, fmt.Errorf("%s: %w", l.ProductID, model.ErrProductNotFound)
		}
		if err := checkPrice(&p, l.UnitPrice); err != nil {
			return decimal.Zero, err
		}
		if !model.QuantityCovers(p.CurrentAmount, l.Quantity) {
			return decimal.Zero, fmt.Errorf("product %s: requested %v, available %v: %w",
				p.ID, l.Quantity, p.CurrentAmount, model.ErrInsufficientStock)
		}
		subtotal := model.Subtotal(l.Quantity, l.UnitPrice)
		if !subtotal.IsPositive() {
			return decimal.Zero, fmt.Errorf("product %s: %v at %s rounds to %s: %w",
				p.ID, l.Quantity, l.UnitPrice.String(), subtotal.StringFixed(model.MoneyScale), model.ErrInvalidAmount)
		}
		total = total.Add(subtotal)
	}
	return total, nil
}

func checkPrice(p *model.Product, price decimal.Decimal) error {
	if !price.Equal(p.UserPrice) {
		return fmt.Errorf("product %s: got %s, list price %s: %w",
			p.ID, price.String(), p.UserPrice.StringFixed(model.MoneyScale), model.ErrPriceMismatch)
	}
	return nil
}

// deplete takes one line out of the product's lots. It re-reads the product
// and its lots under lock, so the checks made before the transaction are
// repeated against current state.
func (uc *saleUseCase) deplete(ctx context.Context, saleID string, line saleLine, now time.Time) ([]model.Operation, *model.Product, error) {
	p, err := uc.productRepo.FindByID(ctx, line.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkPrice(p, line.UnitPrice); err != nil {
		return nil, nil, err
	}

	lots, err := uc.inventoryRepo.FindLotsByProduct(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	model.SortLotsForDepletion(lots)

	consumptions, err := allocator.Allocate(line.Quantity, allocator.FromModel(lots))
	if err != nil {
		return nil, nil, fmt.Errorf("product %s: %w", p.ID, err)
	}

	costs := make(map[string]decimal.Decimal, len(lots))
	for _, l := range lots {
		costs[l.ID] = l.UnitCost
	}

	// Each operation is charged the rounded running total minus what earlier
	// operations were charged. Rounding is monotonic, so no subtotal goes below
	// zero, and the last one closes on the line subtotal.
	lineSubtotal := model.Subtotal(line.Quantity, line.UnitPrice)
	charged := decimal.Zero
	consumed := decimal.Zero

	ops := make([]model.Operation, 0, len(consumptions))
	for i, c := range consumptions {
		lotID := c.LotID
		op := model.Operation{
			ID:        uuid.New().String(),
			SaleID:    saleID,
			ProductID: p.ID,
			LotID:     &lotID,
			Quantity:  c.Quantity,
			UnitPrice: line.UnitPrice,
			UnitCost:  costs[c.LotID],
			CreatedAt: now,
		}
		consumed = consumed.Add(decimal.NewFromFloat(c.Quantity))
		upTo := model.RoundMoney(line.UnitPrice.Mul(consumed))
		if i == len(consumptions)-1 || upTo.GreaterThan(lineSubtotal) {
			upTo = lineSubtotal
		}
		op.Subtotal = upTo.Sub(charged)
		charged = upTo

		if err := uc.repo.CreateOperation(ctx, &op); err != nil {
			return nil, nil, err
		}
		if c.Emptied {
			err = uc.inventoryRepo.DeleteLot(ctx, c.LotID)
		} else {
			err = uc.inventoryRepo.UpdateLotQuantity(ctx, c.LotID, c.Remaining)
		}
		if err != nil {
			return nil, nil, err
		}
		ops = append(ops, op)
	}

	amount, err := uc.inventoryRepo.RefreshProductStock(ctx, p.ID, now)
	if err != nil {
		return nil, nil, err
	}
	p.CurrentAmount = amount
	return ops, p, nil
}

func (uc *saleUseCase) publishSale(ctx context.Context, s *model.Sale, lines []saleLine, newLoan *model.Loan, lowStock []model.Product, source string) {
	items := make([]saleItemPayload, len(lines))
	for i, l := range lines {
		items[i] = saleItemPayload{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(model.MoneyScale),
		}
	}

	batch := []events.Event{events.New(events.SaleCompleted, s.ID, saleCompletedPayload{
		SaleID:       s.ID,
		TotalAmount:  s.TotalAmount.StringFixed(model.MoneyScale),
		PaidAmount:   s.PaidAmount.StringFixed(model.MoneyScale),
		ChangeAmount: s.ChangeAmount.StringFixed(model.MoneyScale),
		IsLoan:       s.IsLoan,
		Source:       source,
		Items:        items,
	})}
	if newLoan != nil {
		batch = append(batch, events.New(events.LoanCreated, newLoan.ID, loanCreatedPayload{
			LoanID:          newLoan.ID,
			SaleID:          newLoan.SaleID,
			DebtorName:      newLoan.DebtorName,
			TotalDebt:       newLoan.TotalDebt.StringFixed(model.MoneyScale),
			RemainingAmount: newLoan.RemainingAmount.StringFixed(model.MoneyScale),
			Status:          string(newLoan.Status),
		}))
	}
	for _, p := range lowStock {
		batch = append(batch, events.New(events.ProductLowStock, p.ID, lowStockPayload{
			ProductID:     p.ID,
			Name:          p.Name,
			CurrentAmount: p.CurrentAmount,
			MinStock:      p.MinStock,
		}))
	}

	if err := uc.publisher.Publish(ctx, batch...); err != nil {
		uc.logger.Warn("failed to publish sale events", zap.String("sale_id", s.ID), zap.Error(err))
	}
}

func (uc *saleUseCase) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, model.Persistence(err)
	}
	return s, nil
}

func (uc *saleUseCase) ListSales(ctx context.Context, filters *dto.SaleFilters) ([]model.Sale, int, error) {
	if filters == nil {
		filters = &dto.SaleFilters{}
	}
	if err := checkRange(filters.From, filters.To); err != nil {
		return nil, 0, err
	}
	sales, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, model.Persistence(err)
	}
	return sales, count, nil
}

// ListSalesByDateRange returns sales created in [from, to), newest first.
func (uc *saleUseCase) ListSalesByDateRange(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	sales, _, err := uc.ListSales(ctx, &dto.SaleFilters{From: &from, To: &to})
	return sales, err
}

// ListSalesByDebtor returns the sales whose loan debtor name contains name.
func (uc *saleUseCase) ListSalesByDebtor(ctx context.Context, name string) ([]model.Sale, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.Validationf("debtor name is required")
	}
	sales, _, err := uc.ListSales(ctx, &dto.SaleFilters{Debtor: name})
	return sales, err
}

func (uc *saleUseCase) GetStatistics(ctx context.Context, from, to *time.Time) (*model.SaleStatistics, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	stats, err := uc.repo.Statistics(ctx, &dto.SaleFilters{From: from, To: to})
	if err != nil {
		return nil, model.Persistence(err)
	}
	return stats, nil
}

func checkRange(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return model.Validationf("date range ends before it starts")
	}
	return nil
}
