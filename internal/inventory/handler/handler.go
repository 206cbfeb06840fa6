package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.sales.v1.InventoryService"

type InventoryHandler struct {
	uc   inventory.UseCase
	errs *transport.ErrorMapper
}

func NewInventoryHandler(uc inventory.UseCase, errs *transport.ErrorMapper) *InventoryHandler {
	return &InventoryHandler{
		uc:   uc,
		errs: errs,
	}
}

func (h *InventoryHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	transport.Register(s, ServiceName,
		transport.Method{Name: "ReceiveStock", Handler: transport.Unary(h.errs, h.ReceiveStock)},
		transport.Method{Name: "ListLots", Handler: transport.Unary(h.errs, h.ListLots)},
		transport.Method{Name: "ListLowStock", Handler: transport.Unary(h.errs, h.ListLowStock)},
	)
}

func (h *InventoryHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/products/:id/lots", transport.JSON(h.errs, http.StatusCreated, h.ReceiveStock))
	r.GET("/products/:id/lots", transport.JSON(h.errs, http.StatusOK, h.ListLots))
	r.GET("/inventory/low-stock", transport.JSON(h.errs, http.StatusOK, h.ListLowStock))
}

type ReceiveStockRequest struct {
	ProductID     string          `json:"product_id" uri:"id"`
	Quantity      float64         `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	EffectiveFrom *time.Time      `json:"effective_from"`
}

type ListLotsRequest struct {
	ProductID string `json:"product_id" uri:"id"`
}

type LotResponse struct {
	Lot *model.Lot `json:"lot"`
}

type ListLotsResponse struct {
	Lots []model.Lot `json:"lots"`
}

type ListLowStockResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

func (h *InventoryHandler) ReceiveStock(ctx context.Context, req *ReceiveStockRequest) (*LotResponse, error) {
	lot, err := h.uc.ReceiveStock(ctx, &dto.ReceiveStockInput{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		UnitCost:      req.UnitCost,
		EffectiveFrom: req.EffectiveFrom,
	})
	if err != nil {
		return nil, err
	}
	return &LotResponse{Lot: lot}, nil
}

func (h *InventoryHandler) ListLots(ctx context.Context, req *ListLotsRequest) (*ListLotsResponse, error) {
	lots, err := h.uc.ListLots(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	return &ListLotsResponse{Lots: lots}, nil
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, req *transport.PageRequest) (*ListLowStockResponse, error) {
	products, count, err := h.uc.ListLowStock(ctx, &dto.LowStockFilters{
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ListLowStockResponse{Products: products, Total: count}, nil
}
