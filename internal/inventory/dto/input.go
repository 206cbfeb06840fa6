package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReceiveStockInput struct {
	ProductID     string
	Quantity      float64
	UnitCost      decimal.Decimal
	EffectiveFrom *time.Time // Defaults to now
}
