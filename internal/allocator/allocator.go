// Package allocator splits a requested quantity across a product's lots.
package allocator

import (
	"fmt"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

// Lot is the allocator's view of a lot: its identity and what is left in it.
type Lot struct {
	ID        string
	Remaining float64
}

// Consumption is the quantity taken from one lot.
type Consumption struct {
	LotID     string
	Quantity  float64
	Remaining float64 // left in the lot afterwards
	Emptied   bool
}

// Allocate walks lots in the given order and takes from each until requested
// is satisfied. The input is never modified. Lots with nothing left are skipped.
func Allocate(requested float64, lots []Lot) ([]Consumption, error) {
	if requested <= 0 || model.IsZeroQuantity(requested) {
		return nil, fmt.Errorf("allocate %v: %w", requested, model.ErrInvalidAmount)
	}

	var available float64
	for _, l := range lots {
		if l.Remaining > 0 {
			available += l.Remaining
		}
	}
	if !model.QuantityCovers(available, requested) {
		return nil, fmt.Errorf("requested %v, available %v: %w", requested, available, model.ErrInsufficientStock)
	}

	out := make([]Consumption, 0, len(lots))
	left := requested
	for _, l := range lots {
		if model.IsZeroQuantity(left) {
			break
		}
		if l.Remaining <= 0 || model.IsZeroQuantity(l.Remaining) {
			continue
		}

		take := l.Remaining
		if left < take {
			take = left
		}
		remaining := l.Remaining - take
		emptied := model.IsZeroQuantity(remaining)
		if emptied {
			remaining = 0
		}

		out = append(out, Consumption{
			LotID:     l.ID,
			Quantity:  take,
			Remaining: remaining,
			Emptied:   emptied,
		})
		left -= take
	}

	return out, nil
}

// FromModel converts persisted lots, already in depletion order.
func FromModel(lots []model.Lot) []Lot {
	out := make([]Lot, len(lots))
	for i, l := range lots {
		out[i] = Lot{ID: l.ID, Remaining: l.RemainingQuantity}
	}
	return out
}
