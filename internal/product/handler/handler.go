package handler

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/fekuna/omnipos-sales-service/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.sales.v1.ProductService"

type ProductHandler struct {
	uc   product.UseCase
	errs *transport.ErrorMapper
}

func NewProductHandler(uc product.UseCase, errs *transport.ErrorMapper) *ProductHandler {
	return &ProductHandler{
		uc:   uc,
		errs: errs,
	}
}

func (h *ProductHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	transport.Register(s, ServiceName,
		transport.Method{Name: "CreateProduct", Handler: transport.Unary(h.errs, h.CreateProduct)},
		transport.Method{Name: "GetProduct", Handler: transport.Unary(h.errs, h.GetProduct)},
		transport.Method{Name: "GetProductByBarcode", Handler: transport.Unary(h.errs, h.GetProductByBarcode)},
		transport.Method{Name: "ListProducts", Handler: transport.Unary(h.errs, h.ListProducts)},
		transport.Method{Name: "SearchProducts", Handler: transport.Unary(h.errs, h.SearchProducts)},
		transport.Method{Name: "UpdateProduct", Handler: transport.Unary(h.errs, h.UpdateProduct)},
		transport.Method{Name: "DeleteProduct", Handler: transport.Unary(h.errs, h.DeleteProduct)},
	)
}

func (h *ProductHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/products")
	g.POST("", transport.JSON(h.errs, http.StatusCreated, h.CreateProduct))
	g.GET("", transport.JSON(h.errs, http.StatusOK, h.ListProducts))
	g.GET("/search", transport.JSON(h.errs, http.StatusOK, h.SearchProducts))
	g.GET("/barcode/:barcode", transport.JSON(h.errs, http.StatusOK, h.GetProductByBarcode))
	g.GET("/:id", transport.JSON(h.errs, http.StatusOK, h.GetProduct))
	g.PUT("/:id", transport.JSON(h.errs, http.StatusOK, h.UpdateProduct))
	g.DELETE("/:id", transport.JSON(h.errs, http.StatusOK, h.DeleteProduct))
}

type CreateProductRequest struct {
	Name            string           `json:"name"`
	Barcode         string           `json:"barcode"`
	UserPrice       decimal.Decimal  `json:"user_price"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	MinStock        float64          `json:"min_stock"`
	UnitID          string           `json:"unit_id"`
	InitialQuantity float64          `json:"initial_quantity"`
}

type UpdateProductRequest struct {
	ID        string           `json:"id" uri:"id"`
	Name      string           `json:"name"`
	Barcode   string           `json:"barcode"`
	UserPrice decimal.Decimal  `json:"user_price"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	MinStock  float64          `json:"min_stock"`
	UnitID    string           `json:"unit_id"`
}

type BarcodeRequest struct {
	Barcode string `json:"barcode" uri:"barcode"`
}

type ListProductsRequest struct {
	transport.PageRequest
	UnitID    string `json:"unit_id" form:"unit_id"`
	Search    string `json:"search" form:"search"`
	SortBy    string `json:"sort_by" form:"sort_by"`
	SortOrder string `json:"sort_order" form:"sort_order"`
}

type SearchProductsRequest struct {
	transport.PageRequest
	Query string `json:"query" form:"q"`
}

type ProductResponse struct {
	Product *model.Product `json:"product"`
}

type ListProductsResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error) {
	p, err := h.uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:            req.Name,
		Barcode:         req.Barcode,
		UserPrice:       req.UserPrice,
		UnitCost:        req.UnitCost,
		MinStock:        req.MinStock,
		UnitID:          req.UnitID,
		InitialQuantity: req.InitialQuantity,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *transport.IDRequest) (*ProductResponse, error) {
	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) GetProductByBarcode(ctx context.Context, req *BarcodeRequest) (*ProductResponse, error) {
	p, err := h.uc.GetProductByBarcode(ctx, req.Barcode)
	if err != nil {
		return nil, err
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	products, count, err := h.uc.ListProducts(ctx, &dto.ProductFilters{
		UnitID:      req.UnitID,
		SearchQuery: req.Search,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ListProductsResponse{Products: products, Total: count}, nil
}

func (h *ProductHandler) SearchProducts(ctx context.Context, req *SearchProductsRequest) (*ListProductsResponse, error) {
	products, count, err := h.uc.SearchProducts(ctx, req.Query, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	return &ListProductsResponse{Products: products, Total: count}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*ProductResponse, error) {
	p, err := h.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:        req.ID,
		Name:      req.Name,
		Barcode:   req.Barcode,
		UserPrice: req.UserPrice,
		UnitCost:  req.UnitCost,
		MinStock:  req.MinStock,
		UnitID:    req.UnitID,
	})
	if err != nil {
		return nil, err
	}
	return &ProductResponse{Product: p}, nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *transport.IDRequest) (*transport.Empty, error) {
	if err := h.uc.DeleteProduct(ctx, req.ID); err != nil {
		return nil, err
	}
	return &transport.Empty{}, nil
}
