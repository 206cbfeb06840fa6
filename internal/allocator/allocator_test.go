package allocator

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
		lots      []Lot
		want      []Consumption
		wantErr   error
	}{
		{
			name:      "spans two lots",
			requested: 6,
			lots:      []Lot{{"L1", 5}, {"L2", 3}},
			want: []Consumption{
				{LotID: "L1", Quantity: 5, Remaining: 0, Emptied: true},
				{LotID: "L2", Quantity: 1, Remaining: 2},
			},
		},
		{
			name:      "first lot suffices",
			requested: 2,
			lots:      []Lot{{"L1", 5}, {"L2", 3}},
			want:      []Consumption{{LotID: "L1", Quantity: 2, Remaining: 3}},
		},
		{
			name:      "drains everything",
			requested: 8,
			lots:      []Lot{{"L1", 5}, {"L2", 3}},
			want: []Consumption{
				{LotID: "L1", Quantity: 5, Emptied: true},
				{LotID: "L2", Quantity: 3, Emptied: true},
			},
		},
		{
			name:      "skips empty lots",
			requested: 1,
			lots:      []Lot{{"L0", 0}, {"L1", 2}},
			want:      []Consumption{{LotID: "L1", Quantity: 1, Remaining: 1}},
		},
		{
			name:      "insufficient",
			requested: 9,
			lots:      []Lot{{"L1", 5}, {"L2", 3}},
			wantErr:   model.ErrInsufficientStock,
		},
		{
			name:      "no lots",
			requested: 1,
			wantErr:   model.ErrInsufficientStock,
		},
		{
			name:      "zero request",
			requested: 0,
			lots:      []Lot{{"L1", 5}},
			wantErr:   model.ErrInvalidAmount,
		},
		{
			name:      "negative request",
			requested: -1,
			lots:      []Lot{{"L1", 5}},
			wantErr:   model.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Allocate(tt.requested, tt.lots)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Fatalf("expected no consumption on error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAllocateConservation(t *testing.T) {
	lots := []Lot{{"a", 1.25}, {"b", 0.5}, {"c", 7}, {"d", 2.75}}
	var total float64
	for _, l := range lots {
		total += l.Remaining
	}

	for _, requested := range []float64{0.1, 1.25, 1.3, 4.2, 9.5, total} {
		got, err := Allocate(requested, lots)
		if err != nil {
			t.Fatalf("Allocate(%v): %v", requested, err)
		}

		var taken, after float64
		touched := map[string]bool{}
		for _, c := range got {
			taken += c.Quantity
			after += c.Remaining
			touched[c.LotID] = true
		}
		for _, l := range lots {
			if !touched[l.ID] {
				after += l.Remaining
			}
		}
		if math.Abs(taken-requested) > model.QuantityEpsilon {
			t.Errorf("Allocate(%v) took %v", requested, taken)
		}
		if math.Abs(after-(total-requested)) > 1e-9 {
			t.Errorf("Allocate(%v) leaves %v, want %v", requested, after, total-requested)
		}
	}
}

func TestAllocateDeterministicAndPure(t *testing.T) {
	lots := []Lot{{"x", 3}, {"y", 3}, {"z", 3}}
	snapshot := append([]Lot(nil), lots...)

	first, err := Allocate(4.5, lots)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Allocate(4.5, lots)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
	if !reflect.DeepEqual(lots, snapshot) {
		t.Fatalf("input mutated: %+v", lots)
	}

	if _, err := Allocate(100, lots); err == nil || !reflect.DeepEqual(lots, snapshot) {
		t.Fatalf("failed allocation must not mutate input")
	}
}

func TestAllocateFloatNoise(t *testing.T) {
	got, err := Allocate(0.1+0.2, []Lot{{"a", 0.1}, {"b", 0.2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got[1].Emptied || got[1].Remaining != 0 {
		t.Fatalf("got %+v", got)
	}
}
