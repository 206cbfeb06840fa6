package dto

import "github.com/shopspring/decimal"

type CreateLoanInput struct {
	SaleID      string
	DebtorName  string
	DebtorPhone string
}

type RecordPaymentInput struct {
	LoanID string
	Amount decimal.Decimal
	Notes  string
}
