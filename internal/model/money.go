package model

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MoneyScale is the number of decimal places every persisted amount keeps.
	MoneyScale = 2

	// QuantityEpsilon absorbs float noise in stock arithmetic.
	QuantityEpsilon = 1e-9
)

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Subtotal is quantity × unit price, rounded to cents.
func Subtotal(quantity float64, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromFloat(quantity)))
}

// NonNegative floors d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func IsZeroQuantity(q float64) bool {
	return math.Abs(q) <= QuantityEpsilon
}

// QuantityCovers reports whether available is enough to serve requested.
func QuantityCovers(available, requested float64) bool {
	return available >= requested-QuantityEpsilon
}
