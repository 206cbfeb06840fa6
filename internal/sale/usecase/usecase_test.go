package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/events"
	loandto "github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/internal/store/memory"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/shopspring/decimal"
)

type fixture struct {
	store  *memory.Store
	events *events.Recorder
	uc     sale.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	rec := &events.Recorder{}
	uc := NewSaleUseCase(
		store.Sales(), store.Products(), store.Inventory(), store.Loans(),
		store, memory.NewDeduplicator(), rec, logger.NewNop(),
	)
	return &fixture{store: store, events: rec, uc: uc}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seed creates a product with one lot per quantity, oldest first. Lot ids are
// the product id followed by -L1, -L2...
func (f *fixture) seed(t *testing.T, id, userPrice string, minStock float64, lots ...float64) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := &model.Product{
		BaseModel: model.BaseModel{ID: id, CreatedAt: base, UpdatedAt: base},
		Name:      id,
		UserPrice: money(userPrice),
		MinStock:  minStock,
	}
	if err := f.store.Products().Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	for i, qty := range lots {
		lot := &model.Lot{
			ID:                id + "-L" + string(rune('1'+i)),
			ProductID:         id,
			RemainingQuantity: qty,
			UnitCost:          money("1.00"),
			EffectiveFrom:     base.Add(time.Duration(i) * time.Hour),
			CreatedAt:         base,
		}
		if err := f.store.Inventory().CreateLot(ctx, lot); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.store.Inventory().RefreshProductStock(ctx, id, base); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) lots(t *testing.T, productID string) map[string]float64 {
	t.Helper()
	lots, err := f.store.Inventory().FindLotsByProduct(context.Background(), productID)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]float64{}
	for _, l := range lots {
		out[l.ID] = l.RemainingQuantity
	}
	return out
}

func (f *fixture) saleCount(t *testing.T) int {
	t.Helper()
	_, count, err := f.store.Sales().FindAll(context.Background(), &dto.SaleFilters{})
	if err != nil {
		t.Fatal(err)
	}
	return count
}

func item(productID string, qty float64, unitPrice string) dto.SaleItemInput {
	return dto.SaleItemInput{ProductID: productID, Quantity: qty, UnitPrice: money(unitPrice)}
}

func TestProcessSaleDepletesOldestLotFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "X", "10.00", 0, 5, 3)

	s, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("X", 6, "10")},
		PaidAmount: money("60"),
	})
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}

	if len(s.Operations) != 2 {
		t.Fatalf("operations = %+v", s.Operations)
	}
	want := []struct {
		lot string
		qty float64
	}{{"X-L1", 5}, {"X-L2", 1}}
	for i, w := range want {
		op := s.Operations[i]
		if op.LotID == nil || *op.LotID != w.lot || op.Quantity != w.qty {
			t.Errorf("operation %d = lot %v qty %v, want %s %v", i, op.LotID, op.Quantity, w.lot, w.qty)
		}
	}

	lots := f.lots(t, "X")
	if _, ok := lots["X-L1"]; ok {
		t.Errorf("emptied lot X-L1 still present")
	}
	if lots["X-L2"] != 2 {
		t.Errorf("X-L2 remaining = %v, want 2", lots["X-L2"])
	}

	p, _ := f.store.Products().FindByID(ctx, "X")
	if p.CurrentAmount != 2 {
		t.Errorf("current amount = %v, want 2", p.CurrentAmount)
	}
	if !s.TotalAmount.Equal(money("60")) || !s.ChangeAmount.IsZero() || s.IsLoan {
		t.Errorf("sale header = %+v", s)
	}

	stored, err := f.uc.GetSale(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Operations) != 2 {
		t.Errorf("stored operations = %d, want 2", len(stored.Operations))
	}
}

func TestProcessSaleOpensLoanForUnderpaidSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "rice", "25.00", 0, 10)

	s, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("rice", 4, "25")},
		PaidAmount: money("40"),
		IsLoan:     true,
		Debtor:     &dto.DebtorInput{Name: " Budi ", Phone: "0812"},
	})
	if err != nil {
		t.Fatalf("ProcessSale: %v", err)
	}
	if !s.IsLoan || !s.TotalAmount.Equal(money("100")) {
		t.Fatalf("sale = %+v", s)
	}

	l, err := f.store.Loans().FindBySaleID(ctx, s.ID)
	if err != nil {
		t.Fatalf("FindBySaleID: %v", err)
	}
	if !l.TotalDebt.Equal(money("100")) || !l.PaidAmount.Equal(money("40")) || !l.RemainingAmount.Equal(money("60")) {
		t.Errorf("loan balances = %s/%s/%s", l.TotalDebt, l.PaidAmount, l.RemainingAmount)
	}
	if l.Status != model.LoanStatusPartiallyPaid || l.DebtorName != "Budi" {
		t.Errorf("loan = %+v", l)
	}

	types := f.events.Types()
	if len(types) != 2 || types[0] != events.SaleCompleted || types[1] != events.LoanCreated {
		t.Errorf("events = %v", types)
	}
}

func TestProcessSaleLoanIntentPaidInFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "rice", "25.00", 0, 10)

	s, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("rice", 1, "25")},
		PaidAmount: money("30"),
		IsLoan:     true,
		Debtor:     &dto.DebtorInput{Name: "Budi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.IsLoan || !s.ChangeAmount.Equal(money("5")) {
		t.Errorf("sale = %+v", s)
	}
	if _, err := f.store.Loans().FindBySaleID(ctx, s.ID); !errors.Is(err, model.ErrLoanNotFound) {
		t.Errorf("FindBySaleID = %v, want loan not found", err)
	}
}

func TestProcessSaleRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.ProcessSaleInput
		want  error
	}{
		{
			name:  "no items",
			input: dto.ProcessSaleInput{PaidAmount: money("10")},
			want:  model.ErrValidation,
		},
		{
			name:  "unknown product",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("ghost", 1, "10")}, PaidAmount: money("10")},
			want:  model.ErrProductNotFound,
		},
		{
			name:  "zero quantity",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("X", 0, "10")}, PaidAmount: money("10")},
			want:  model.ErrInvalidAmount,
		},
		{
			name:  "total rounds to zero",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("X", 0.0001, "10")}, PaidAmount: money("0")},
			want:  model.ErrInvalidAmount,
		},
		{
			name:  "tampered price",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("X", 1, "9.99")}, PaidAmount: money("10")},
			want:  model.ErrPriceMismatch,
		},
		{
			name: "conflicting prices for one product",
			input: dto.ProcessSaleInput{
				Items:      []dto.SaleItemInput{item("X", 1, "10"), item("X", 1, "5")},
				PaidAmount: money("15"),
			},
			want: model.ErrPriceMismatch,
		},
		{
			name:  "more than in stock",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("X", 9, "10")}, PaidAmount: money("90")},
			want:  model.ErrInsufficientStock,
		},
		{
			name: "repeated lines exceed stock together",
			input: dto.ProcessSaleInput{
				Items:      []dto.SaleItemInput{item("X", 5, "10"), item("X", 4, "10")},
				PaidAmount: money("90"),
			},
			want: model.ErrInsufficientStock,
		},
		{
			name:  "negative payment",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("X", 1, "10")}, PaidAmount: money("-1"), IsLoan: true},
			want:  model.ErrInvalidAmount,
		},
		{
			name:  "underpaid cash sale",
			input: dto.ProcessSaleInput{Items: []dto.SaleItemInput{item("X", 6, "10")}, PaidAmount: money("50")},
			want:  model.ErrIncompletePayment,
		},
		{
			name: "loan without debtor name",
			input: dto.ProcessSaleInput{
				Items:      []dto.SaleItemInput{item("X", 1, "10")},
				PaidAmount: money("0"),
				IsLoan:     true,
				Debtor:     &dto.DebtorInput{Name: "   "},
			},
			want: model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "X", "10.00", 0, 5, 3)

			_, err := f.uc.ProcessSale(ctx, &tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if n := f.saleCount(t); n != 0 {
				t.Errorf("%d sales stored after rejection", n)
			}
			lots := f.lots(t, "X")
			if lots["X-L1"] != 5 || lots["X-L2"] != 3 {
				t.Errorf("lots changed: %v", lots)
			}
			if len(f.events.Types()) != 0 {
				t.Errorf("events published: %v", f.events.Types())
			}
		})
	}
}

func TestProcessSaleRollsBackOnStorageFailure(t *testing.T) {
	ctx := context.Background()

	for _, op := range []string{"operations.create", "lots.update", "lots.delete", "products.refresh_stock", "loans.create"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, "X", "10.00", 0, 5, 3)
			f.store.Fail(op, errors.New("connection reset"))

			_, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
				Items:      []dto.SaleItemInput{item("X", 6, "10")},
				PaidAmount: money("20"),
				IsLoan:     true,
				Debtor:     &dto.DebtorInput{Name: "Sari"},
			})
			if !errors.Is(err, model.ErrPersistence) {
				t.Fatalf("got %v, want persistence error", err)
			}

			if n := f.saleCount(t); n != 0 {
				t.Errorf("%d sales stored after rollback", n)
			}
			lots := f.lots(t, "X")
			if lots["X-L1"] != 5 || lots["X-L2"] != 3 {
				t.Errorf("lots changed: %v", lots)
			}
			p, _ := f.store.Products().FindByID(ctx, "X")
			if p.CurrentAmount != 8 {
				t.Errorf("current amount = %v, want 8", p.CurrentAmount)
			}
			loans, _, _ := f.store.Loans().FindAll(ctx, &loandto.LoanFilters{})
			if len(loans) != 0 {
				t.Errorf("loans stored after rollback: %+v", loans)
			}
		})
	}
}

func TestProcessSaleIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "X", "10.00", 0, 5, 3)

	// a failed attempt frees the key for the retry
	_, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:          []dto.SaleItemInput{item("X", 2, "11")},
		PaidAmount:     money("22"),
		IdempotencyKey: "till-1:0001",
	})
	if !errors.Is(err, model.ErrPriceMismatch) {
		t.Fatalf("first attempt = %v", err)
	}

	input := &dto.ProcessSaleInput{
		Items:          []dto.SaleItemInput{item("X", 2, "10")},
		PaidAmount:     money("20"),
		IdempotencyKey: "till-1:0001",
	}
	first, err := f.uc.ProcessSale(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	replay, err := f.uc.ProcessSale(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	if replay.ID != first.ID {
		t.Errorf("replay returned sale %s, want %s", replay.ID, first.ID)
	}
	if n := f.saleCount(t); n != 1 {
		t.Errorf("sales = %d, want 1", n)
	}
	p, _ := f.store.Products().FindByID(ctx, "X")
	if p.CurrentAmount != 6 {
		t.Errorf("current amount = %v, want 6", p.CurrentAmount)
	}
}

func TestProcessSaleMergesRepeatedLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "X", "10.00", 0, 5, 3)

	s, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("X", 2, "10"), item("X", 4, "10")},
		PaidAmount: money("100"),
	})
	if err != nil {
		t.Fatal(err)
	}

	var qty float64
	for _, op := range s.Operations {
		qty += op.Quantity
	}
	if qty != 6 {
		t.Errorf("operations cover %v, want 6", qty)
	}
	if !s.TotalAmount.Equal(money("60")) || !s.ChangeAmount.Equal(money("40")) {
		t.Errorf("sale = %s paid, %s change", s.TotalAmount, s.ChangeAmount)
	}
}

func TestProcessSaleSplitSubtotalsAddUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "nail", "0.05", 0, 0.1, 0.1, 0.1)

	s, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("nail", 0.3, "0.05")},
		PaidAmount: money("1"),
	})
	if err != nil {
		t.Fatal(err)
	}

	sum := decimal.Zero
	for _, op := range s.Operations {
		sum = sum.Add(op.Subtotal)
	}
	if !sum.Equal(s.TotalAmount) {
		t.Errorf("operation subtotals sum to %s, sale total %s", sum, s.TotalAmount)
	}
}

func TestProcessSaleSplitSubtotalsNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "pin", "0.01", 0, 0.5, 0.5, 0.5, 0.5)

	s, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("pin", 2, "0.01")},
		PaidAmount: money("1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Operations) != 4 {
		t.Fatalf("operations = %d, want 4", len(s.Operations))
	}

	sum := decimal.Zero
	for _, op := range s.Operations {
		if op.Subtotal.IsNegative() {
			t.Errorf("operation on %s has subtotal %s", *op.LotID, op.Subtotal)
		}
		sum = sum.Add(op.Subtotal)
	}
	if !sum.Equal(money("0.02")) || !s.TotalAmount.Equal(money("0.02")) {
		t.Errorf("operation subtotals sum to %s, sale total %s", sum, s.TotalAmount)
	}
}

func TestProcessSaleConcurrentDepletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "X", "10.00", 0, 5, 3)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		errs    []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
				Items:      []dto.SaleItemInput{item("X", 3, "10")},
				PaidAmount: money("30"),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			success++
		}()
	}
	wg.Wait()

	if success != 2 {
		t.Errorf("%d sales succeeded, want 2", success)
	}
	for _, err := range errs {
		if !errors.Is(err, model.ErrInsufficientStock) {
			t.Errorf("unexpected error %v", err)
		}
	}
	if n := f.saleCount(t); n != 2 {
		t.Errorf("%d sales stored, want 2", n)
	}
	lots := f.lots(t, "X")
	if _, ok := lots["X-L1"]; ok || lots["X-L2"] != 2 {
		t.Errorf("lots = %v, want only X-L2 with 2", lots)
	}
}

func TestProcessSalePublishesLowStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "X", "10.00", 3, 5)

	if _, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("X", 3, "10")},
		PaidAmount: money("30"),
	}); err != nil {
		t.Fatal(err)
	}

	types := f.events.Types()
	if len(types) != 2 || types[1] != events.ProductLowStock {
		t.Errorf("events = %v", types)
	}
}

func TestSaleReads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "X", "10.00", 0, 50)

	if _, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("X", 6, "10")},
		PaidAmount: money("100"),
	}); err != nil {
		t.Fatal(err)
	}
	loanSale, err := f.uc.ProcessSale(ctx, &dto.ProcessSaleInput{
		Items:      []dto.SaleItemInput{item("X", 10, "10")},
		PaidAmount: money("40"),
		IsLoan:     true,
		Debtor:     &dto.DebtorInput{Name: "Budi Santoso"},
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("statistics", func(t *testing.T) {
		stats, err := f.uc.GetStatistics(ctx, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if stats.SaleCount != 2 || stats.LoanCount != 1 {
			t.Errorf("counts = %d/%d", stats.SaleCount, stats.LoanCount)
		}
		checks := map[string][2]decimal.Decimal{
			"revenue":      {stats.Revenue, money("160")},
			"cash revenue": {stats.CashRevenue, money("60")},
			"loan revenue": {stats.LoanRevenue, money("100")},
			"collected":    {stats.Collected, money("100")},
		}
		for name, c := range checks {
			if !c[0].Equal(c[1]) {
				t.Errorf("%s = %s, want %s", name, c[0], c[1])
			}
		}
	})

	t.Run("by debtor", func(t *testing.T) {
		sales, err := f.uc.ListSalesByDebtor(ctx, "budi")
		if err != nil {
			t.Fatal(err)
		}
		if len(sales) != 1 || sales[0].ID != loanSale.ID {
			t.Errorf("sales = %+v", sales)
		}
		if _, err := f.uc.ListSalesByDebtor(ctx, "  "); !errors.Is(err, model.ErrValidation) {
			t.Errorf("blank debtor = %v", err)
		}
	})

	t.Run("by date range", func(t *testing.T) {
		now := time.Now().UTC()
		sales, err := f.uc.ListSalesByDateRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if len(sales) != 2 {
			t.Errorf("sales = %+v", sales)
		}

		sales, err = f.uc.ListSalesByDateRange(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
		if err != nil || len(sales) != 0 {
			t.Errorf("future range = %v, %v", sales, err)
		}

		if _, err := f.uc.ListSalesByDateRange(ctx, now, now.Add(-time.Hour)); !errors.Is(err, model.ErrValidation) {
			t.Errorf("reversed range = %v", err)
		}
	})

	t.Run("unknown sale", func(t *testing.T) {
		if _, err := f.uc.GetSale(ctx, "missing"); !errors.Is(err, model.ErrSaleNotFound) {
			t.Errorf("GetSale = %v", err)
		}
	})
}
