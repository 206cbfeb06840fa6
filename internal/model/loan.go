package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusActive        LoanStatus = "active"
	LoanStatusPartiallyPaid LoanStatus = "partially_paid"
	LoanStatusFullyPaid     LoanStatus = "fully_paid"
	LoanStatusCancelled     LoanStatus = "cancelled"
)

func ParseLoanStatus(s string) (LoanStatus, error) {
	switch st := LoanStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case LoanStatusActive, LoanStatusPartiallyPaid, LoanStatusFullyPaid, LoanStatusCancelled:
		return st, nil
	default:
		return "", Validationf("unknown loan status %q", s)
	}
}

// IsOpen reports whether a loan in this status still accepts payments.
func (s LoanStatus) IsOpen() bool {
	return s == LoanStatusActive || s == LoanStatusPartiallyPaid
}

// DeriveLoanStatus maps balances to a status. Cancelled is never derived.
func DeriveLoanStatus(paid, remaining decimal.Decimal) LoanStatus {
	switch {
	case !remaining.IsPositive():
		return LoanStatusFullyPaid
	case paid.IsPositive():
		return LoanStatusPartiallyPaid
	default:
		return LoanStatusActive
	}
}

// RemainingAmount is total minus paid, floored at zero.
func RemainingAmount(total, paid decimal.Decimal) decimal.Decimal {
	return NonNegative(RoundMoney(total.Sub(paid)))
}

type Loan struct {
	ID              string          `db:"id" json:"id"`
	SaleID          string          `db:"sale_id" json:"sale_id"`
	DebtorName      string          `db:"debtor_name" json:"debtor_name"`
	DebtorPhone     *string         `db:"debtor_phone" json:"debtor_phone"`
	TotalDebt       decimal.Decimal `db:"total_debt" json:"total_debt"`
	PaidAmount      decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`
	Status          LoanStatus      `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NewLoanFromSale opens a loan for the unpaid part of sale. The amount already
// paid at the till is carried over.
func NewLoanFromSale(id string, sale *Sale, debtorName string, debtorPhone *string, now time.Time) (*Loan, error) {
	if !sale.Underpaid() {
		return nil, fmt.Errorf("sale %s: %w", sale.ID, ErrAlreadyFullyPaid)
	}
	name := strings.TrimSpace(debtorName)
	if name == "" {
		return nil, Validationf("debtor name is required")
	}

	var phone *string
	if debtorPhone != nil {
		if p := strings.TrimSpace(*debtorPhone); p != "" {
			phone = &p
		}
	}

	total := RoundMoney(sale.TotalAmount)
	paid := RoundMoney(sale.PaidAmount)
	remaining := RemainingAmount(total, paid)

	return &Loan{
		ID:              id,
		SaleID:          sale.ID,
		DebtorName:      name,
		DebtorPhone:     phone,
		TotalDebt:       total,
		PaidAmount:      paid,
		RemainingAmount: remaining,
		Status:          DeriveLoanStatus(paid, remaining),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ApplyPayment moves the loan forward by amount and returns the payment row to
// persist. On error the loan is left untouched.
func (l *Loan) ApplyPayment(paymentID string, amount decimal.Decimal, notes *string, now time.Time) (*LoanPayment, error) {
	amount = RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment of %s: %w", amount.StringFixed(MoneyScale), ErrInvalidAmount)
	}
	switch l.Status {
	case LoanStatusCancelled:
		return nil, fmt.Errorf("loan %s: %w", l.ID, ErrLoanCancelled)
	case LoanStatusFullyPaid:
		return nil, fmt.Errorf("loan %s: %w", l.ID, ErrAlreadyFullyPaid)
	}
	if !l.RemainingAmount.IsPositive() {
		return nil, fmt.Errorf("loan %s: %w", l.ID, ErrAlreadyFullyPaid)
	}
	if amount.GreaterThan(l.RemainingAmount) {
		return nil, fmt.Errorf("payment of %s against %s: %w",
			amount.StringFixed(MoneyScale), l.RemainingAmount.StringFixed(MoneyScale), ErrPaymentExceedsRemaining)
	}

	paid := RoundMoney(l.PaidAmount.Add(amount))
	remaining := RemainingAmount(l.TotalDebt, paid)

	l.PaidAmount = paid
	l.RemainingAmount = remaining
	l.Status = DeriveLoanStatus(paid, remaining)
	l.UpdatedAt = now

	return &LoanPayment{
		ID:     paymentID,
		LoanID: l.ID,
		Amount: amount,
		PaidAt: now,
		Notes:  notes,
	}, nil
}

// Cancel closes the loan. Balances are kept as they were.
func (l *Loan) Cancel(now time.Time) error {
	switch l.Status {
	case LoanStatusCancelled:
		return fmt.Errorf("loan %s: %w", l.ID, ErrLoanCancelled)
	case LoanStatusFullyPaid:
		return fmt.Errorf("loan %s: %w", l.ID, ErrAlreadyFullyPaid)
	}
	l.Status = LoanStatusCancelled
	l.UpdatedAt = now
	return nil
}

type LoanPayment struct {
	ID     string          `db:"id" json:"id"`
	LoanID string          `db:"loan_id" json:"loan_id"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
	PaidAt time.Time       `db:"paid_at" json:"paid_at"`
	Notes  *string         `db:"notes" json:"notes"`
}

type LoanSummary struct {
	ActiveCount        int64           `db:"active_count" json:"active_count"`
	PartiallyPaidCount int64           `db:"partially_paid_count" json:"partially_paid_count"`
	FullyPaidCount     int64           `db:"fully_paid_count" json:"fully_paid_count"`
	CancelledCount     int64           `db:"cancelled_count" json:"cancelled_count"`
	Outstanding        decimal.Decimal `db:"outstanding" json:"outstanding"`
}
