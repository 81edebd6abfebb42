package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/classroom-points/internal/model"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
)

type CatalogService interface {
	Create(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error)
	List(ctx context.Context, classID int64) ([]*model.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductHandler struct {
	svc CatalogService
}

func RegisterProductRoutes(e *router.Group, h *ProductHandler) {
	e.GET("/products", h.ListProducts)
	e.POST("/products", h.CreateProduct)
	e.DELETE("/products/{id}", h.DeleteProduct)
}

func NewProductHandler(catalogService CatalogService) *ProductHandler {
	return &ProductHandler{
		svc: catalogService,
	}
}

func (h *ProductHandler) ListProducts(ctx *xhttp.RequestCtx) {
	classID, ok := classIDParam(ctx)
	if !ok {
		return
	}
	items, err := h.svc.List(ctx, classID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nonNil(items))
}

func (h *ProductHandler) CreateProduct(ctx *xhttp.RequestCtx) {
	var req model.ProductCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.svc.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *ProductHandler) DeleteProduct(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, okResponse{Success: true})
}
