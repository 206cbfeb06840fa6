package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID           string          `db:"id" json:"id"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount   decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	ChangeAmount decimal.Decimal `db:"change_amount" json:"change_amount"`
	IsLoan       bool            `db:"is_loan" json:"is_loan"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`

	Operations []Operation `db:"-" json:"operations,omitempty"`
}

// NewSale builds a sale header. Change is floored at zero, and the sale is a
// loan exactly when it is underpaid.
func NewSale(id string, total, paid decimal.Decimal, now time.Time) *Sale {
	total = RoundMoney(total)
	paid = RoundMoney(paid)
	return &Sale{
		ID:           id,
		TotalAmount:  total,
		PaidAmount:   paid,
		ChangeAmount: NonNegative(paid.Sub(total)),
		IsLoan:       paid.LessThan(total),
		CreatedAt:    now,
	}
}

// Underpaid reports whether part of the sale is still owed.
func (s *Sale) Underpaid() bool {
	return s.PaidAmount.LessThan(s.TotalAmount)
}

// Operation records the quantity of one product taken from one lot by a sale.
type Operation struct {
	ID        string          `db:"id" json:"id"`
	SaleID    string          `db:"sale_id" json:"sale_id"`
	ProductID string          `db:"product_id" json:"product_id"`
	LotID     *string         `db:"lot_id" json:"lot_id"`
	Quantity  float64         `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	UnitCost  decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type SaleStatistics struct {
	SaleCount   int64           `db:"sale_count" json:"sale_count"`
	LoanCount   int64           `db:"loan_count" json:"loan_count"`
	Revenue     decimal.Decimal `db:"revenue" json:"revenue"`
	CashRevenue decimal.Decimal `db:"cash_revenue" json:"cash_revenue"`
	LoanRevenue decimal.Decimal `db:"loan_revenue" json:"loan_revenue"`
	Collected   decimal.Decimal `db:"collected" json:"collected"`
}
