package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one priced acquisition of a product.
type Lot struct {
	ID                string          `db:"id" json:"id"`
	ProductID         string          `db:"product_id" json:"product_id"`
	RemainingQuantity float64         `db:"remaining_quantity" json:"remaining_quantity"`
	UnitCost          decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	EffectiveFrom     time.Time       `db:"effective_from" json:"effective_from"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// SortLotsForDepletion orders lots oldest-acquired first, ties broken by id.
// This is the order stock is consumed in, and so decides the cost basis of a sale.
func SortLotsForDepletion(lots []Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].EffectiveFrom.Equal(lots[j].EffectiveFrom) {
			return lots[i].EffectiveFrom.Before(lots[j].EffectiveFrom)
		}
		return lots[i].ID < lots[j].ID
	})
}
