package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/fekuna/omnipos-sales-service/internal/store/memory"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeIndex struct {
	docs    map[string]string
	hits    []string
	fail    error
	removed []string
}

func (f *fakeIndex) Index(_ context.Context, p *model.Product) error {
	if f.docs == nil {
		f.docs = map[string]string{}
	}
	f.docs[p.ID] = p.Name
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) ([]string, int, error) {
	if f.fail != nil {
		return nil, 0, f.fail
	}
	return f.hits, len(f.hits), nil
}

func newUseCase(store *memory.Store, index *fakeIndex) *productUseCase {
	uc := NewProductUseCase(store.Products(), store.Inventory(), store.Units(), store, nil, logger.NewNop()).(*productUseCase)
	if index != nil {
		uc.index = index
	}
	return uc
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	index := &fakeIndex{}
	uc := newUseCase(store, index)

	cost := price("1500")
	p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:            "Instant noodles",
		Barcode:         "8991234",
		UserPrice:       price("3000"),
		UnitCost:        &cost,
		MinStock:        10,
		InitialQuantity: 48,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.CurrentAmount != 48 {
		t.Errorf("current amount = %v, want 48", p.CurrentAmount)
	}
	lots, _ := store.Inventory().FindLotsByProduct(ctx, p.ID)
	if len(lots) != 1 || lots[0].RemainingQuantity != 48 || !lots[0].UnitCost.Equal(cost) {
		t.Errorf("opening lot = %+v", lots)
	}
	if index.docs[p.ID] != "Instant noodles" {
		t.Errorf("product not indexed")
	}

	byBarcode, err := uc.GetProductByBarcode(ctx, " 8991234 ")
	if err != nil || byBarcode.ID != p.ID {
		t.Errorf("GetProductByBarcode = %v, %v", byBarcode, err)
	}

	tests := []struct {
		name  string
		input dto.CreateProductInput
		want  error
	}{
		{"duplicate barcode", dto.CreateProductInput{Name: "x", Barcode: "8991234", UserPrice: price("1")}, model.ErrValidation},
		{"blank name", dto.CreateProductInput{Name: " ", UserPrice: price("1")}, model.ErrValidation},
		{"zero price", dto.CreateProductInput{Name: "x", UserPrice: price("0")}, model.ErrValidation},
		{"price rounds to zero", dto.CreateProductInput{Name: "x", UserPrice: price("0.001")}, model.ErrValidation},
		{"negative min stock", dto.CreateProductInput{Name: "x", UserPrice: price("1"), MinStock: -1}, model.ErrValidation},
		{"negative opening stock", dto.CreateProductInput{Name: "x", UserPrice: price("1"), InitialQuantity: -2}, model.ErrValidation},
		{"unknown unit", dto.CreateProductInput{Name: "x", UserPrice: price("1"), UnitID: "nope"}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.CreateProduct(ctx, &tt.input); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	_, total, _ := uc.ListProducts(ctx, &dto.ProductFilters{})
	if total != 1 {
		t.Errorf("rejected products were stored: total %d", total)
	}
}

func TestCreateProductRollsBackOnLotFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uc := newUseCase(store, nil)

	store.Fail("lots.create", errors.New("connection reset"))
	_, err := uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Rice", UserPrice: price("12000"), InitialQuantity: 5})
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("got %v, want persistence error", err)
	}
	if _, total, _ := uc.ListProducts(ctx, &dto.ProductFilters{}); total != 0 {
		t.Errorf("product survived rollback")
	}
}

func TestSearchProducts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	index := &fakeIndex{}
	uc := newUseCase(store, index)

	a, _ := uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Sugar 1kg", UserPrice: price("15000")})
	b, _ := uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Palm sugar", UserPrice: price("9000")})

	index.hits = []string{b.ID, "stale-id", a.ID}
	got, _, err := uc.SearchProducts(ctx, "sugar", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("index order not kept: %+v", got)
	}

	index.fail = errors.New("cluster unavailable")
	got, total, err := uc.SearchProducts(ctx, "palm", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || got[0].ID != b.ID {
		t.Errorf("fallback search = %d %+v", total, got)
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	index := &fakeIndex{}
	uc := newUseCase(store, index)

	stocked, _ := uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Tea", UserPrice: price("5000"), InitialQuantity: 3})
	empty, _ := uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Coffee", Barcode: "c1", UserPrice: price("7000")})

	updated, err := uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: stocked.ID, Name: "Green tea", UserPrice: price("5500"), Barcode: "t1"})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.CurrentAmount != 3 || !updated.UserPrice.Equal(price("5500")) {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: stocked.ID, Name: "Tea", UserPrice: price("1"), Barcode: "c1"}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("barcode clash: got %v", err)
	}

	if err := uc.DeleteProduct(ctx, stocked.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("delete with stock: got %v", err)
	}
	if err := uc.DeleteProduct(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if len(index.removed) != 1 || index.removed[0] != empty.ID {
		t.Errorf("index removals = %v", index.removed)
	}
	if _, err := uc.GetProduct(ctx, empty.ID); !errors.Is(err, model.ErrProductNotFound) {
		t.Errorf("GetProduct after delete: %v", err)
	}
}

// receivingRepo books a stock receipt right after every product update, in
// the same transaction.
type receivingRepo struct {
	product.Repository
	store *memory.Store
}

func (r *receivingRepo) Update(ctx context.Context, p *model.Product) error {
	if err := r.Repository.Update(ctx, p); err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := r.store.Inventory().CreateLot(ctx, &model.Lot{
		ID:                p.ID + "-late",
		ProductID:         p.ID,
		RemainingQuantity: 2,
		UnitCost:          price("1"),
		EffectiveFrom:     now,
		CreatedAt:         now,
	}); err != nil {
		return err
	}
	_, err := r.store.Inventory().RefreshProductStock(ctx, p.ID, now)
	return err
}

func TestUpdateProductReturnsCommittedStock(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	created, err := newUseCase(store, nil).CreateProduct(ctx, &dto.CreateProductInput{Name: "Tea", UserPrice: price("5000"), InitialQuantity: 3})
	if err != nil {
		t.Fatal(err)
	}

	repo := &receivingRepo{Repository: store.Products(), store: store}
	uc := NewProductUseCase(repo, store.Inventory(), store.Units(), store, nil, logger.NewNop())

	updated, err := uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: created.ID, Name: "Green tea", UserPrice: price("5500")})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.CurrentAmount != 5 {
		t.Errorf("current amount = %v, want 5", updated.CurrentAmount)
	}
	if updated.Name != "Green tea" || !updated.UserPrice.Equal(price("5500")) {
		t.Errorf("updated = %+v", updated)
	}
}
