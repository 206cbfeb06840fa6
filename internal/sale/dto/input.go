package dto

import "github.com/shopspring/decimal"

type ProcessSaleInput struct {
	Items      []SaleItemInput
	PaidAmount decimal.Decimal
	IsLoan     bool         // Caller accepts an underpaid sale
	Debtor     *DebtorInput // Opens the loan together with the sale

	IdempotencyKey string
	Source         string // pos, online
}

type SaleItemInput struct {
	ProductID string
	Quantity  float64
	UnitPrice decimal.Decimal // Must match the product's current price
}

type DebtorInput struct {
	Name  string
	Phone string
}
