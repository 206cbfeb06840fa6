package handler

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/transport"
	"github.com/fekuna/omnipos-sales-service/internal/unit"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.sales.v1.UnitService"

type UnitHandler struct {
	uc   unit.UseCase
	errs *transport.ErrorMapper
}

func NewUnitHandler(uc unit.UseCase, errs *transport.ErrorMapper) *UnitHandler {
	return &UnitHandler{
		uc:   uc,
		errs: errs,
	}
}

func (h *UnitHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	transport.Register(s, ServiceName,
		transport.Method{Name: "CreateUnit", Handler: transport.Unary(h.errs, h.CreateUnit)},
		transport.Method{Name: "GetUnit", Handler: transport.Unary(h.errs, h.GetUnit)},
		transport.Method{Name: "ListUnits", Handler: transport.Unary(h.errs, h.ListUnits)},
		transport.Method{Name: "UpdateUnit", Handler: transport.Unary(h.errs, h.UpdateUnit)},
		transport.Method{Name: "DeleteUnit", Handler: transport.Unary(h.errs, h.DeleteUnit)},
	)
}

func (h *UnitHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/units")
	g.POST("", transport.JSON(h.errs, http.StatusCreated, h.CreateUnit))
	g.GET("", transport.JSON(h.errs, http.StatusOK, h.ListUnits))
	g.GET("/:id", transport.JSON(h.errs, http.StatusOK, h.GetUnit))
	g.PUT("/:id", transport.JSON(h.errs, http.StatusOK, h.UpdateUnit))
	g.DELETE("/:id", transport.JSON(h.errs, http.StatusOK, h.DeleteUnit))
}

type CreateUnitRequest struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

type UpdateUnitRequest struct {
	ID           string `json:"id" uri:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

type ListUnitsRequest struct {
	transport.PageRequest
	Search string `json:"search" form:"search"`
}

type UnitResponse struct {
	Unit *model.Unit `json:"unit"`
}

type ListUnitsResponse struct {
	Units []model.Unit `json:"units"`
	Total int          `json:"total"`
}

func (h *UnitHandler) CreateUnit(ctx context.Context, req *CreateUnitRequest) (*UnitResponse, error) {
	u, err := h.uc.CreateUnit(ctx, &dto.CreateUnitInput{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
	})
	if err != nil {
		return nil, err
	}
	return &UnitResponse{Unit: u}, nil
}

func (h *UnitHandler) GetUnit(ctx context.Context, req *transport.IDRequest) (*UnitResponse, error) {
	u, err := h.uc.GetUnit(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &UnitResponse{Unit: u}, nil
}

func (h *UnitHandler) ListUnits(ctx context.Context, req *ListUnitsRequest) (*ListUnitsResponse, error) {
	units, count, err := h.uc.ListUnits(ctx, &dto.UnitFilters{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ListUnitsResponse{Units: units, Total: count}, nil
}

func (h *UnitHandler) UpdateUnit(ctx context.Context, req *UpdateUnitRequest) (*UnitResponse, error) {
	u, err := h.uc.UpdateUnit(ctx, &dto.UpdateUnitInput{
		ID:           req.ID,
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
	})
	if err != nil {
		return nil, err
	}
	return &UnitResponse{Unit: u}, nil
}

func (h *UnitHandler) DeleteUnit(ctx context.Context, req *transport.IDRequest) (*transport.Empty, error) {
	if err := h.uc.DeleteUnit(ctx, req.ID); err != nil {
		return nil, err
	}
	return &transport.Empty{}, nil
}
