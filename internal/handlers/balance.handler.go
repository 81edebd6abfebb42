package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/classroom-points/internal/model"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
)

type BalanceService interface {
	Read(ctx context.Context, studentID int64) (int64, error)
	Adjust(ctx context.Context, studentID int64, delta int64) (int64, error)
	Set(ctx context.Context, studentID int64, value int64) (int64, error)
	Ledger(ctx context.Context, studentID int64) ([]*model.LedgerEntry, error)
}

type BalanceHandler struct {
	svc BalanceService
}

func RegisterBalanceRoutes(e *router.Group, h *BalanceHandler) {
	e.GET("/students/{id}/balance", h.GetBalance)
	e.POST("/students/{id}/balance/adjust", h.AdjustBalance)
	e.PUT("/students/{id}/balance", h.SetBalance)
	e.GET("/students/{id}/ledger", h.ListLedger)
}

func NewBalanceHandler(balanceService BalanceService) *BalanceHandler {
	return &BalanceHandler{
		svc: balanceService,
	}
}

type adjustBalanceRequest struct {
	Amount *int64 `json:"amount"`
}

type setBalanceRequest struct {
	Balance *int64 `json:"balance"`
}

type balanceResponse struct {
	StudentID int64 `json:"student_id"`
	Balance   int64 `json:"balance"`
}

func (h *BalanceHandler) GetBalance(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	balance, err := h.svc.Read(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, balanceResponse{StudentID: id, Balance: balance})
}

func (h *BalanceHandler) AdjustBalance(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	var req adjustBalanceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Amount == nil {
		writeError(ctx, xhttp.StatusBadRequest, "amount is required")
		return
	}

	balance, err := h.svc.Adjust(ctx, id, *req.Amount)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, balanceResponse{StudentID: id, Balance: balance})
}

func (h *BalanceHandler) SetBalance(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	var req setBalanceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Balance == nil {
		writeError(ctx, xhttp.StatusBadRequest, "balance is required")
		return
	}

	balance, err := h.svc.Set(ctx, id, *req.Balance)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, balanceResponse{StudentID: id, Balance: balance})
}

func (h *BalanceHandler) ListLedger(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	entries, err := h.svc.Ledger(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nonNil(entries))
}
