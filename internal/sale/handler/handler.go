package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/fekuna/omnipos-sales-service/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const (
	ServiceName = "omnipos.sales.v1.SaleService"

	sourcePOS = "pos"
)

type SaleHandler struct {
	uc   sale.UseCase
	errs *transport.ErrorMapper
}

func NewSaleHandler(uc sale.UseCase, errs *transport.ErrorMapper) *SaleHandler {
	return &SaleHandler{
		uc:   uc,
		errs: errs,
	}
}

func (h *SaleHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	transport.Register(s, ServiceName,
		transport.Method{Name: "ProcessSale", Handler: transport.Unary(h.errs, h.ProcessSale)},
		transport.Method{Name: "GetSale", Handler: transport.Unary(h.errs, h.GetSale)},
		transport.Method{Name: "ListSales", Handler: transport.Unary(h.errs, h.ListSales)},
		transport.Method{Name: "ListSalesByDateRange", Handler: transport.Unary(h.errs, h.ListSalesByDateRange)},
		transport.Method{Name: "ListSalesByDebtor", Handler: transport.Unary(h.errs, h.ListSalesByDebtor)},
		transport.Method{Name: "GetStatistics", Handler: transport.Unary(h.errs, h.GetStatistics)},
	)
}

func (h *SaleHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/sales")
	g.POST("", transport.JSON(h.errs, http.StatusCreated, h.ProcessSale))
	g.GET("", transport.JSON(h.errs, http.StatusOK, h.ListSales))
	g.GET("/statistics", transport.JSON(h.errs, http.StatusOK, h.GetStatistics))
	g.GET("/:id", transport.JSON(h.errs, http.StatusOK, h.GetSale))
}

type SaleItem struct {
	ProductID string          `json:"product_id"`
	Quantity  float64         `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Debtor struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ProcessSaleRequest struct {
	Items          []SaleItem      `json:"items"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	IsLoan         bool            `json:"is_loan"`
	Debtor         *Debtor         `json:"debtor"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type ListSalesRequest struct {
	transport.PageRequest
	From   *time.Time `json:"from" form:"from"`
	To     *time.Time `json:"to" form:"to"`
	Debtor string     `json:"debtor" form:"debtor"`
	IsLoan *bool      `json:"is_loan" form:"is_loan"`
}

type DateRangeRequest struct {
	From time.Time `json:"from" form:"from"`
	To   time.Time `json:"to" form:"to"`
}

type DebtorRequest struct {
	Name string `json:"name" form:"name"`
}

type StatisticsRequest struct {
	From *time.Time `json:"from" form:"from"`
	To   *time.Time `json:"to" form:"to"`
}

type SaleResponse struct {
	Sale *model.Sale `json:"sale"`
}

type ListSalesResponse struct {
	Sales []model.Sale `json:"sales"`
	Total int          `json:"total"`
}

type StatisticsResponse struct {
	Statistics *model.SaleStatistics `json:"statistics"`
}

func (h *SaleHandler) ProcessSale(ctx context.Context, req *ProcessSaleRequest) (*SaleResponse, error) {
	input := &dto.ProcessSaleInput{
		Items:          make([]dto.SaleItemInput, len(req.Items)),
		PaidAmount:     req.PaidAmount,
		IsLoan:         req.IsLoan,
		IdempotencyKey: req.IdempotencyKey,
		Source:         sourcePOS,
	}
	for i, item := range req.Items {
		input.Items[i] = dto.SaleItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	if req.Debtor != nil {
		input.Debtor = &dto.DebtorInput{Name: req.Debtor.Name, Phone: req.Debtor.Phone}
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = transport.RequestID(ctx)
	}

	s, err := h.uc.ProcessSale(ctx, input)
	if err != nil {
		return nil, err
	}
	return &SaleResponse{Sale: s}, nil
}

func (h *SaleHandler) GetSale(ctx context.Context, req *transport.IDRequest) (*SaleResponse, error) {
	s, err := h.uc.GetSale(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &SaleResponse{Sale: s}, nil
}

func (h *SaleHandler) ListSales(ctx context.Context, req *ListSalesRequest) (*ListSalesResponse, error) {
	sales, count, err := h.uc.ListSales(ctx, &dto.SaleFilters{
		From:     req.From,
		To:       req.To,
		Debtor:   req.Debtor,
		IsLoan:   req.IsLoan,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ListSalesResponse{Sales: sales, Total: count}, nil
}

func (h *SaleHandler) ListSalesByDateRange(ctx context.Context, req *DateRangeRequest) (*ListSalesResponse, error) {
	sales, err := h.uc.ListSalesByDateRange(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return &ListSalesResponse{Sales: sales, Total: len(sales)}, nil
}

func (h *SaleHandler) ListSalesByDebtor(ctx context.Context, req *DebtorRequest) (*ListSalesResponse, error) {
	sales, err := h.uc.ListSalesByDebtor(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return &ListSalesResponse{Sales: sales, Total: len(sales)}, nil
}

func (h *SaleHandler) GetStatistics(ctx context.Context, req *StatisticsRequest) (*StatisticsResponse, error) {
	stats, err := h.uc.GetStatistics(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}
	return &StatisticsResponse{Statistics: stats}, nil
}
