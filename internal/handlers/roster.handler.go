package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/classroom-points/internal/model"
	xhttp "github.com/nimasrn/classroom-points/pkg/http"
)

type RosterService interface {
	ListClasses(ctx context.Context) ([]*model.Class, error)
	CreateClass(ctx context.Context, req model.ClassCreateRequest) (*model.Class, error)
	ClassDetails(ctx context.Context, id int64) (*model.ClassDetails, error)
	DeleteClass(ctx context.Context, id int64) error
	ListStudents(ctx context.Context, classID int64) ([]*model.Student, error)
	CreateStudent(ctx context.Context, req model.StudentCreateRequest) (*model.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	CreateTeacher(ctx context.Context, req model.TeacherCreateRequest) (*model.Teacher, error)
	DeleteTeacher(ctx context.Context, id int64) error
}

type RosterHandler struct {
	svc RosterService
}

func RegisterRosterRoutes(e *router.Group, h *RosterHandler) {
	e.GET("/classes", h.ListClasses)
	e.POST("/classes", h.CreateClass)
	e.GET("/classes/{id}", h.GetClass)
	e.DELETE("/classes/{id}", h.DeleteClass)

	e.GET("/students", h.ListStudents)
	e.POST("/students", h.CreateStudent)
	e.DELETE("/students/{id}", h.DeleteStudent)

	e.POST("/teachers", h.CreateTeacher)
	e.DELETE("/teachers/{id}", h.DeleteTeacher)
}

func NewRosterHandler(rosterService RosterService) *RosterHandler {
	return &RosterHandler{
		svc: rosterService,
	}
}

type okResponse struct {
	Success bool `json:"success"`
}

func (h *RosterHandler) ListClasses(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListClasses(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nonNil(items))
}

func (h *RosterHandler) CreateClass(ctx *xhttp.RequestCtx) {
	var req model.ClassCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.svc.CreateClass(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, c)
}

func (h *RosterHandler) GetClass(ctx *xhttp.RequestCtx) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	d, err := h.svc.ClassDetails(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	d.Students = nonNil(d.Students)
	d.Teachers = nonNil(d.Teachers)
	writeJSON(ctx, xhttp.StatusOK, d)
}

func (h *RosterHandler) DeleteClass(ctx *xhttp.RequestCtx) {
	h.delete(ctx, h.svc.DeleteClass)
}

func (h *RosterHandler) ListStudents(ctx *xhttp.RequestCtx) {
	classID, ok := classIDParam(ctx)
	if !ok {
		return
	}
	items, err := h.svc.ListStudents(ctx, classID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nonNil(items))
}

func (h *RosterHandler) CreateStudent(ctx *xhttp.RequestCtx) {
	var req model.StudentCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	st, err := h.svc.CreateStudent(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, st)
}

func (h *RosterHandler) DeleteStudent(ctx *xhttp.RequestCtx) {
	h.delete(ctx, h.svc.DeleteStudent)
}

func (h *RosterHandler) CreateTeacher(ctx *xhttp.RequestCtx) {
	var req model.TeacherCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	t, err := h.svc.CreateTeacher(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, t)
}

func (h *RosterHandler) DeleteTeacher(ctx *xhttp.RequestCtx) {
	h.delete(ctx, h.svc.DeleteTeacher)
}

func (h *RosterHandler) delete(ctx *xhttp.RequestCtx, fn func(context.Context, int64) error) {
	id, ok := pathInt64(ctx, "id")
	if !ok {
		return
	}
	if err := fn(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, okResponse{Success: true})
}
