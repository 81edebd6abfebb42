package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/classroom-points/internal/model"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
)

type PurchaseService interface {
	Request(ctx context.Context, req model.PurchaseRequest) (*model.Purchase, error)
	Resolve(ctx context.Context, id int64, decision model.Decision) (*model.Purchase, error)
	Get(ctx context.Context, id int64) (*model.Purchase, error)
	ListByClass(ctx context.Context, classID int64) ([]*model.Purchase, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Purchase, error)
}

type PurchasePurger interface {
	PurgePurchases(ctx context.Context, classID int64) (int64, error)
}

type PurchaseHandler struct {
	svc    PurchaseService
	purger PurchasePurger
}

func RegisterPurchaseRoutes(e *router.Group, h *PurchaseHandler) {
	e.POST("/purchases", h.RequestPurchase)
	e.GET("/purchases", h.ListClassPurchases)
	e.DELETE("/purchases", h.PurgeClassPurchases)
	e.GET("/purchases/{id}", h.GetPurchase)
	e.POST("/purchases/{id}/resolve", h.ResolvePurchase)
	e.GET("/students/{id}/purchases", h.ListStudentPurchases)
}

func NewPurchaseHandler(purchaseService PurchaseService, purger PurchasePurger) *PurchaseHandler {
	return &PurchaseHandler{
		svc:    purchaseService,
		purger: purger,
	}
}

type resolveRequest struct {
	Approve *bool `json:"approve"`
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *PurchaseHandler) RequestPurchase(ctx *xhttp.RequestCtx) {
	var req model.PurchaseRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.svc.Request(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *PurchaseHandler) ResolvePurchase(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	var req resolveRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Approve == nil {
		writeError(ctx, xhttp.StatusBadRequest, "approve is required")
		return
	}

	p, err := h.svc.Resolve(ctx, id, model.DecisionFromBool(*req.Approve))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *PurchaseHandler) GetPurchase(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *PurchaseHandler) ListClassPurchases(ctx *xhttp.RequestCtx) {
	classID, ok := classIDParam(ctx)
	if !ok {
		return
	}
	items, err := h.svc.ListByClass(ctx, classID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nonNil(items))
}

func (h *PurchaseHandler) ListStudentPurchases(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListByStudent(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nonNil(items))
}

func (h *PurchaseHandler) PurgeClassPurchases(ctx *xhttp.RequestCtx) {
	classID, ok := classIDParam(ctx)
	if !ok {
		return
	}
	n, err := h.purger.PurgePurchases(ctx, classID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, purgeResponse{Deleted: n})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
