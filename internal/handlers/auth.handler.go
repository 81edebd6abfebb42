package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/classroom-points/internal/model"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
)

type AuthService interface {
	Login(ctx context.Context, password string) (*model.Identity, error)
}

type AuthHandler struct {
	svc AuthService
}

func RegisterAuthRoutes(e *router.Group, h *AuthHandler) {
	e.POST("/login", h.Login)
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		svc: authService,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool `json:"success"`
	*model.Identity
}

func (h *AuthHandler) Login(ctx *xhttp.RequestCtx) {
	var req loginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, err := h.svc.Login(ctx, req.Password)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, loginResponse{Success: true, Identity: id})
}
