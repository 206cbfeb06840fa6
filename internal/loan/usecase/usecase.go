package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/loan"
	"github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type loanUseCase struct {
	repo      loan.Repository
	saleRepo  sale.Repository
	tx        database.Transactor
	publisher events.Publisher
	logger    logger.ZapLogger
}

func NewLoanUseCase(repo loan.Repository, saleRepo sale.Repository, tx database.Transactor, publisher events.Publisher, log logger.ZapLogger) loan.UseCase {
	return &loanUseCase{
		repo:      repo,
		saleRepo:  saleRepo,
		tx:        tx,
		publisher: publisher,
		logger:    log,
	}
}

type loanPayload struct {
	LoanID          string `json:"loan_id"`
	SaleID          string `json:"sale_id"`
	DebtorName      string `json:"debtor_name"`
	TotalDebt       string `json:"total_debt"`
	PaidAmount      string `json:"paid_amount"`
	RemainingAmount string `json:"remaining_amount"`
	Status          string `json:"status"`
}

type paymentPayload struct {
	loanPayload
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
}

func newLoanPayload(l *model.Loan) loanPayload {
	return loanPayload{
		LoanID:          l.ID,
		SaleID:          l.SaleID,
		DebtorName:      l.DebtorName,
		TotalDebt:       l.TotalDebt.StringFixed(model.MoneyScale),
		PaidAmount:      l.PaidAmount.StringFixed(model.MoneyScale),
		RemainingAmount: l.RemainingAmount.StringFixed(model.MoneyScale),
		Status:          string(l.Status),
	}
}

// CreateLoan opens the loan of an underpaid sale after the fact.
func (uc *loanUseCase) CreateLoan(ctx context.Context, input *dto.CreateLoanInput) (*model.Loan, error) {
	if strings.TrimSpace(input.DebtorName) == "" {
		return nil, model.Validationf("debtor name is required")
	}

	var l *model.Loan
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := uc.saleRepo.FindByID(ctx, input.SaleID)
		if err != nil {
			return err
		}
		l, err = model.NewLoanFromSale(uuid.New().String(), s, input.DebtorName, &input.DebtorPhone, time.Now().UTC())
		if err != nil {
			return err
		}
		return uc.repo.Create(ctx, l)
	})
	if err != nil {
		uc.logger.Error("failed to create loan", zap.String("sale_id", input.SaleID), zap.Error(err))
		return nil, model.Persistence(err)
	}

	uc.logger.Info("loan created",
		zap.String("loan_id", l.ID),
		zap.String("sale_id", l.SaleID),
		zap.String("remaining_amount", l.RemainingAmount.StringFixed(model.MoneyScale)),
	)
	uc.publish(ctx, events.New(events.LoanCreated, l.ID, newLoanPayload(l)))
	return l, nil
}

// RecordPayment applies a payment against the balance read inside the
// transaction, never against a copy the caller may hold.
func (uc *loanUseCase) RecordPayment(ctx context.Context, input *dto.RecordPaymentInput) (*model.Loan, *model.LoanPayment, error) {
	if !model.RoundMoney(input.Amount).IsPositive() {
		return nil, nil, fmt.Errorf("payment of %s: %w", input.Amount.String(), model.ErrInvalidAmount)
	}

	var notes *string
	if n := strings.TrimSpace(input.Notes); n != "" {
		notes = &n
	}

	var (
		l       *model.Loan
		payment *model.LoanPayment
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		l, err = uc.repo.FindByID(ctx, input.LoanID)
		if err != nil {
			return err
		}
		payment, err = l.ApplyPayment(uuid.New().String(), input.Amount, notes, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := uc.repo.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return uc.repo.Update(ctx, l)
	})
	if err != nil {
		uc.logger.Error("failed to record loan payment",
			zap.String("loan_id", input.LoanID),
			zap.String("amount", input.Amount.String()),
			zap.Error(err),
		)
		return nil, nil, model.Persistence(err)
	}

	uc.logger.Info("loan payment recorded",
		zap.String("loan_id", l.ID),
		zap.String("payment_id", payment.ID),
		zap.String("amount", payment.Amount.StringFixed(model.MoneyScale)),
		zap.String("status", string(l.Status)),
	)
	uc.publish(ctx, events.New(events.LoanPaymentRecorded, l.ID, paymentPayload{
		loanPayload: newLoanPayload(l),
		PaymentID:   payment.ID,
		Amount:      payment.Amount.StringFixed(model.MoneyScale),
	}))
	return l, payment, nil
}

func (uc *loanUseCase) CancelLoan(ctx context.Context, id string) (*model.Loan, error) {
	var l *model.Loan
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		l, err = uc.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := l.Cancel(time.Now().UTC()); err != nil {
			return err
		}
		return uc.repo.Update(ctx, l)
	})
	if err != nil {
		uc.logger.Error("failed to cancel loan", zap.String("loan_id", id), zap.Error(err))
		return nil, model.Persistence(err)
	}

	uc.logger.Info("loan cancelled", zap.String("loan_id", l.ID))
	uc.publish(ctx, events.New(events.LoanCancelled, l.ID, newLoanPayload(l)))
	return l, nil
}

func (uc *loanUseCase) GetLoan(ctx context.Context, id string) (*model.Loan, error) {
	l, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, model.Persistence(err)
	}
	return l, nil
}

func (uc *loanUseCase) ListLoans(ctx context.Context, filters *dto.LoanFilters) ([]model.Loan, int, error) {
	if filters == nil {
		filters = &dto.LoanFilters{}
	}
	filters.Search = strings.TrimSpace(filters.Search)
	loans, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, model.Persistence(err)
	}
	return loans, count, nil
}

// ListPayments returns the payment history of a loan, newest first.
func (uc *loanUseCase) ListPayments(ctx context.Context, loanID string) ([]model.LoanPayment, error) {
	if _, err := uc.repo.FindByID(ctx, loanID); err != nil {
		return nil, model.Persistence(err)
	}
	payments, err := uc.repo.FindPayments(ctx, loanID)
	if err != nil {
		return nil, model.Persistence(err)
	}
	return payments, nil
}

// ListActiveLoans returns the loans that still accept payments.
func (uc *loanUseCase) ListActiveLoans(ctx context.Context) ([]model.Loan, error) {
	loans, _, err := uc.ListLoans(ctx, &dto.LoanFilters{
		Statuses: []model.LoanStatus{model.LoanStatusActive, model.LoanStatusPartiallyPaid},
	})
	return loans, err
}

func (uc *loanUseCase) ListLoansByStatus(ctx context.Context, status model.LoanStatus) ([]model.Loan, error) {
	st, err := model.ParseLoanStatus(string(status))
	if err != nil {
		return nil, err
	}
	loans, _, err := uc.ListLoans(ctx, &dto.LoanFilters{Statuses: []model.LoanStatus{st}})
	return loans, err
}

// SearchLoans matches query against debtor names and phone numbers.
func (uc *loanUseCase) SearchLoans(ctx context.Context, query string) ([]model.Loan, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.Validationf("search query is required")
	}
	loans, _, err := uc.ListLoans(ctx, &dto.LoanFilters{Search: query})
	return loans, err
}

func (uc *loanUseCase) GetSummary(ctx context.Context) (*model.LoanSummary, error) {
	summary, err := uc.repo.Summary(ctx)
	if err != nil {
		return nil, model.Persistence(err)
	}
	return summary, nil
}

func (uc *loanUseCase) publish(ctx context.Context, e events.Event) {
	if err := uc.publisher.Publish(ctx, e); err != nil {
		uc.logger.Warn("failed to publish event", zap.String("event_type", e.Type), zap.Error(err))
	}
}
