package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/loan"
	loandto "github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	saledto "github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/internal/unit"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/shopspring/decimal"
)

var (
	_ database.Transactor  = (*Store)(nil)
	_ unit.Repository      = (*UnitRepository)(nil)
	_ product.Repository   = (*ProductRepository)(nil)
	_ inventory.Repository = (*InventoryRepository)(nil)
	_ sale.Repository      = (*SaleRepository)(nil)
	_ sale.Deduplicator    = (*Deduplicator)(nil)
	_ loan.Repository      = (*LoanRepository)(nil)
)

func seedProduct(t *testing.T, s *Store, id string) {
	t.Helper()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: id},
		Name:      id,
		UserPrice: decimal.NewFromInt(1),
	}
	if err := s.Products().Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedProduct(t, s, "p1")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		lot := &model.Lot{ID: "l1", ProductID: "p1", RemainingQuantity: 5}
		if err := s.Inventory().CreateLot(ctx, lot); err != nil {
			return err
		}
		if _, err := s.Inventory().RefreshProductStock(ctx, "p1", time.Now()); err != nil {
			return err
		}
		// nested transactions join the outer one
		return s.WithinTx(ctx, func(ctx context.Context) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	lots, _ := s.Inventory().FindLotsByProduct(ctx, "p1")
	if len(lots) != 0 {
		t.Errorf("lot survived rollback: %+v", lots)
	}
	p, _ := s.Products().FindByID(ctx, "p1")
	if p.CurrentAmount != 0 {
		t.Errorf("stock survived rollback: %v", p.CurrentAmount)
	}
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedProduct(t, s, "p1")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		for i, id := range []string{"b", "a", "c"} {
			at := base
			if id == "c" {
				at = base.Add(-time.Hour)
			}
			lot := &model.Lot{ID: id, ProductID: "p1", RemainingQuantity: float64(i + 1), EffectiveFrom: at}
			if err := s.Inventory().CreateLot(ctx, lot); err != nil {
				return err
			}
		}
		_, err := s.Inventory().RefreshProductStock(ctx, "p1", base)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	lots, _ := s.Inventory().FindLotsByProduct(ctx, "p1")
	if len(lots) != 3 || lots[0].ID != "c" || lots[1].ID != "a" || lots[2].ID != "b" {
		t.Errorf("depletion order = %+v", lots)
	}
	p, _ := s.Products().FindByID(ctx, "p1")
	if p.CurrentAmount != 6 {
		t.Errorf("current amount = %v, want 6", p.CurrentAmount)
	}
}

func TestFault(t *testing.T) {
	s := New()
	boom := errors.New("disk full")
	s.Fail("products.create", boom)
	err := s.Products().Create(context.Background(), &model.Product{BaseModel: model.BaseModel{ID: "x"}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	s.Fail("products.create", nil)
	seedProduct(t, s, "x")
}

func TestSaleFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	sales := []*model.Sale{
		model.NewSale("s1", decimal.NewFromInt(60), decimal.NewFromInt(100), day),
		model.NewSale("s2", decimal.NewFromInt(100), decimal.NewFromInt(40), day.Add(time.Hour)),
		model.NewSale("s3", decimal.NewFromInt(20), decimal.NewFromInt(20), day.AddDate(0, 0, 1)),
	}
	for _, sl := range sales {
		if err := s.Sales().Create(ctx, sl); err != nil {
			t.Fatal(err)
		}
	}
	l, err := model.NewLoanFromSale("l1", sales[1], "Siti Aminah", nil, day)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Loans().Create(ctx, l); err != nil {
		t.Fatal(err)
	}

	from, to := day, day.AddDate(0, 0, 1)
	got, total, _ := s.Sales().FindAll(ctx, &saledto.SaleFilters{From: &from, To: &to})
	if total != 2 || got[0].ID != "s2" || got[1].ID != "s1" {
		t.Errorf("date range = %d %+v", total, got)
	}

	got, _, _ = s.Sales().FindAll(ctx, &saledto.SaleFilters{Debtor: "aminah"})
	if len(got) != 1 || got[0].ID != "s2" {
		t.Errorf("debtor filter = %+v", got)
	}

	stats, _ := s.Sales().Statistics(ctx, &saledto.SaleFilters{})
	if stats.SaleCount != 3 || stats.LoanCount != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if !stats.Revenue.Equal(decimal.NewFromInt(180)) || !stats.CashRevenue.Equal(decimal.NewFromInt(80)) ||
		!stats.LoanRevenue.Equal(decimal.NewFromInt(100)) || !stats.Collected.Equal(decimal.NewFromInt(120)) {
		t.Errorf("amounts = %+v", stats)
	}

	if err := s.Loans().Create(ctx, &model.Loan{ID: "l2", SaleID: "s2"}); !errors.Is(err, model.ErrLoanExists) {
		t.Errorf("duplicate loan: %v", err)
	}
	loans, _, _ := s.Loans().FindAll(ctx, &loandto.LoanFilters{Statuses: []model.LoanStatus{model.LoanStatusPartiallyPaid}})
	if len(loans) != 1 {
		t.Errorf("loans by status = %+v", loans)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := page(items, 2, 2); len(got) != 2 || got[0] != 3 {
		t.Errorf("page 2 = %v", got)
	}
	if got := page(items, 3, 2); len(got) != 1 || got[0] != 5 {
		t.Errorf("page 3 = %v", got)
	}
	if got := page(items, 9, 2); len(got) != 0 {
		t.Errorf("page 9 = %v", got)
	}
	if got := page(items, 0, 0); len(got) != 5 {
		t.Errorf("unpaged = %v", got)
	}
}
