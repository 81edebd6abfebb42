package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/nimasrn/classroom-points/internal/model"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
	"github.com/nimasrn/classroom-points/pkg/logger"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Entity  string `json:"entity,omitempty"`
	ID      int64  `json:"id,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

// writeServiceError maps an error kind onto its HTTP status.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if kind := model.KindOf(err); kind != nil {
		resp.Kind = kind.Error()
	}
	if entity, id, ok := model.EntityOf(err); ok {
		resp.Entity = entity
		resp.ID = id
	}
	if status >= xhttp.StatusInternalServerError {
		logger.Error("request failed", "path", string(ctx.Path()), "request_id", xhttp.RequestID(ctx), "error", err)
	}
	writeJSON(ctx, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, model.ErrInsufficientFunds):
		return xhttp.StatusUnprocessableEntity
	case errors.Is(err, model.ErrAlreadyResolved), errors.Is(err, model.ErrConflict):
		return xhttp.StatusConflict
	case errors.Is(err, model.ErrInvalidArgument):
		return xhttp.StatusBadRequest
	case errors.Is(err, model.ErrUnavailable):
		return xhttp.StatusServiceUnavailable
	default:
		return xhttp.StatusInternalServerError
	}
}

// pathInt64 reads a numeric route parameter such as {id}.
func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, bool) {
	v, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func paramInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	idStr := ctx.QueryArgs().Peek(name)
	return strconv.ParseInt(string(idStr), 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

// classIDParam reads the classId query argument, accepting class_id too.
func classIDParam(ctx *xhttp.RequestCtx) (int64, bool) {
	key := "classId"
	if query(ctx, key) == "" {
		key = "class_id"
	}
	id, err := paramInt64(ctx, key)
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "classId is required")
		return 0, false
	}
	return id, true
}
