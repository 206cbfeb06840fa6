package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/store/memory"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/shopspring/decimal"
)

func TestUnitLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uc := NewUnitUseCase(store.Units(), logger.NewNop())

	kg, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{Name: " Kilogram ", Abbreviation: "kg"})
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	if kg.Name != "Kilogram" || kg.ID == "" {
		t.Errorf("unit = %+v", kg)
	}

	pcs, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{Name: "Piece"})
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}
	if pcs.Abbreviation != "Piece" {
		t.Errorf("abbreviation should default to the name, got %q", pcs.Abbreviation)
	}

	if _, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{Name: "Kilogram"}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("duplicate name: got %v", err)
	}
	if _, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{Name: "  "}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank name: got %v", err)
	}

	units, total, err := uc.ListUnits(ctx, &dto.UnitFilters{Search: "KG"})
	if err != nil || total != 1 || units[0].ID != kg.ID {
		t.Errorf("search = %v %d %v", units, total, err)
	}

	updated, err := uc.UpdateUnit(ctx, &dto.UpdateUnitInput{ID: pcs.ID, Name: "Pieces", Abbreviation: "pcs"})
	if err != nil || updated.Abbreviation != "pcs" {
		t.Fatalf("UpdateUnit = %+v, %v", updated, err)
	}

	if _, err := uc.GetUnit(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetUnit(missing) = %v", err)
	}
}

func TestDeleteUnitInUse(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uc := NewUnitUseCase(store.Units(), logger.NewNop())

	u, err := uc.CreateUnit(ctx, &dto.CreateUnitInput{Name: "Litre", Abbreviation: "l"})
	if err != nil {
		t.Fatal(err)
	}
	p := &model.Product{
		BaseModel: model.BaseModel{ID: "p1"},
		Name:      "Cooking oil",
		UserPrice: decimal.NewFromInt(18000),
		UnitID:    &u.ID,
	}
	if err := store.Products().Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := uc.DeleteUnit(ctx, u.ID); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("delete in use: got %v", err)
	}
	if err := store.Products().Delete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := uc.DeleteUnit(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUnit: %v", err)
	}
	if err := uc.DeleteUnit(ctx, u.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}
