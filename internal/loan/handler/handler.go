package handler

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-sales-service/internal/loan"
	"github.com/fekuna/omnipos-sales-service/internal/loan/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.sales.v1.LoanService"

type LoanHandler struct {
	uc   loan.UseCase
	errs *transport.ErrorMapper
}

func NewLoanHandler(uc loan.UseCase, errs *transport.ErrorMapper) *LoanHandler {
	return &LoanHandler{
		uc:   uc,
		errs: errs,
	}
}

func (h *LoanHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	transport.Register(s, ServiceName,
		transport.Method{Name: "CreateLoan", Handler: transport.Unary(h.errs, h.CreateLoan)},
		transport.Method{Name: "RecordPayment", Handler: transport.Unary(h.errs, h.RecordPayment)},
		transport.Method{Name: "CancelLoan", Handler: transport.Unary(h.errs, h.CancelLoan)},
		transport.Method{Name: "GetLoan", Handler: transport.Unary(h.errs, h.GetLoan)},
		transport.Method{Name: "ListLoans", Handler: transport.Unary(h.errs, h.ListLoans)},
		transport.Method{Name: "ListPayments", Handler: transport.Unary(h.errs, h.ListPayments)},
		transport.Method{Name: "ListActiveLoans", Handler: transport.Unary(h.errs, h.ListActiveLoans)},
		transport.Method{Name: "ListLoansByStatus", Handler: transport.Unary(h.errs, h.ListLoansByStatus)},
		transport.Method{Name: "SearchLoans", Handler: transport.Unary(h.errs, h.SearchLoans)},
		transport.Method{Name: "GetSummary", Handler: transport.Unary(h.errs, h.GetSummary)},
	)
}

func (h *LoanHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/loans")
	g.POST("", transport.JSON(h.errs, http.StatusCreated, h.CreateLoan))
	g.GET("", transport.JSON(h.errs, http.StatusOK, h.ListLoans))
	g.GET("/active", transport.JSON(h.errs, http.StatusOK, h.ListActiveLoans))
	g.GET("/search", transport.JSON(h.errs, http.StatusOK, h.SearchLoans))
	g.GET("/summary", transport.JSON(h.errs, http.StatusOK, h.GetSummary))
	g.GET("/status/:status", transport.JSON(h.errs, http.StatusOK, h.ListLoansByStatus))
	g.GET("/:id", transport.JSON(h.errs, http.StatusOK, h.GetLoan))
	g.POST("/:id/payments", transport.JSON(h.errs, http.StatusCreated, h.RecordPayment))
	g.GET("/:id/payments", transport.JSON(h.errs, http.StatusOK, h.ListPayments))
	g.POST("/:id/cancel", transport.JSON(h.errs, http.StatusOK, h.CancelLoan))
}

type CreateLoanRequest struct {
	SaleID      string `json:"sale_id"`
	DebtorName  string `json:"debtor_name"`
	DebtorPhone string `json:"debtor_phone"`
}

type RecordPaymentRequest struct {
	LoanID string          `json:"loan_id" uri:"id"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

type ListLoansRequest struct {
	transport.PageRequest
	Statuses []string `json:"statuses" form:"status"`
	Search   string   `json:"search" form:"search"`
}

type StatusRequest struct {
	Status string `json:"status" uri:"status"`
}

type SearchRequest struct {
	Query string `json:"query" form:"q"`
}

type LoanResponse struct {
	Loan *model.Loan `json:"loan"`
}

type PaymentResponse struct {
	Loan    *model.Loan        `json:"loan"`
	Payment *model.LoanPayment `json:"payment"`
}

type ListLoansResponse struct {
	Loans []model.Loan `json:"loans"`
	Total int          `json:"total"`
}

type ListPaymentsResponse struct {
	Payments []model.LoanPayment `json:"payments"`
}

type SummaryResponse struct {
	Summary *model.LoanSummary `json:"summary"`
}

func (h *LoanHandler) CreateLoan(ctx context.Context, req *CreateLoanRequest) (*LoanResponse, error) {
	l, err := h.uc.CreateLoan(ctx, &dto.CreateLoanInput{
		SaleID:      req.SaleID,
		DebtorName:  req.DebtorName,
		DebtorPhone: req.DebtorPhone,
	})
	if err != nil {
		return nil, err
	}
	return &LoanResponse{Loan: l}, nil
}

func (h *LoanHandler) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*PaymentResponse, error) {
	l, payment, err := h.uc.RecordPayment(ctx, &dto.RecordPaymentInput{
		LoanID: req.LoanID,
		Amount: req.Amount,
		Notes:  req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &PaymentResponse{Loan: l, Payment: payment}, nil
}

func (h *LoanHandler) CancelLoan(ctx context.Context, req *transport.IDRequest) (*LoanResponse, error) {
	l, err := h.uc.CancelLoan(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &LoanResponse{Loan: l}, nil
}

func (h *LoanHandler) GetLoan(ctx context.Context, req *transport.IDRequest) (*LoanResponse, error) {
	l, err := h.uc.GetLoan(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &LoanResponse{Loan: l}, nil
}

func (h *LoanHandler) ListLoans(ctx context.Context, req *ListLoansRequest) (*ListLoansResponse, error) {
	filters := &dto.LoanFilters{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	for _, s := range req.Statuses {
		st, err := model.ParseLoanStatus(s)
		if err != nil {
			return nil, err
		}
		filters.Statuses = append(filters.Statuses, st)
	}

	loans, count, err := h.uc.ListLoans(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &ListLoansResponse{Loans: loans, Total: count}, nil
}

func (h *LoanHandler) ListPayments(ctx context.Context, req *transport.IDRequest) (*ListPaymentsResponse, error) {
	payments, err := h.uc.ListPayments(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &ListPaymentsResponse{Payments: payments}, nil
}

func (h *LoanHandler) ListActiveLoans(ctx context.Context, _ *transport.Empty) (*ListLoansResponse, error) {
	loans, err := h.uc.ListActiveLoans(ctx)
	if err != nil {
		return nil, err
	}
	return &ListLoansResponse{Loans: loans, Total: len(loans)}, nil
}

func (h *LoanHandler) ListLoansByStatus(ctx context.Context, req *StatusRequest) (*ListLoansResponse, error) {
	loans, err := h.uc.ListLoansByStatus(ctx, model.LoanStatus(req.Status))
	if err != nil {
		return nil, err
	}
	return &ListLoansResponse{Loans: loans, Total: len(loans)}, nil
}

func (h *LoanHandler) SearchLoans(ctx context.Context, req *SearchRequest) (*ListLoansResponse, error) {
	loans, err := h.uc.SearchLoans(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	return &ListLoansResponse{Loans: loans, Total: len(loans)}, nil
}

func (h *LoanHandler) GetSummary(ctx context.Context, _ *transport.Empty) (*SummaryResponse, error) {
	summary, err := h.uc.GetSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &SummaryResponse{Summary: summary}, nil
}
