package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
	"github.com/labregistry/lab-registry/internal/repository"
)

// MethodHandler implements CRUD over parameter methods.
type MethodHandler struct {
	Methods *repository.MethodRepo
	Sink    *auth.Sink
}

func NewMethodHandler(methods *repository.MethodRepo, sink *auth.Sink) *MethodHandler {
	if methods == nil || sink == nil {
		panic("nil dependency passed to NewMethodHandler")
	}
	return &MethodHandler{Methods: methods, Sink: sink}
}

type methodReq struct {
	Name      string  `json:"name"`
	Technique string  `json:"technique"`
	Unit      string  `json:"unit"`
	LOQ       float64 `json:"loq"`
}

type methodResp struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Technique string  `json:"technique"`
	Unit      string  `json:"unit"`
	LOQ       float64 `json:"loq"`
	IsActive  bool    `json:"is_active"`
}

func toMethodResp(m model.ParameterMethod) methodResp {
	return methodResp{ID: m.ID, Name: m.Name, Technique: m.Technique,
		Unit: m.Unit, LOQ: m.LOQ, IsActive: m.IsActive}
}

func (h *MethodHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	var req methodReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Unit == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/unit required"})
	}
	if req.LOQ < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "loq must not be negative"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	m := model.ParameterMethod{Name: req.Name, Technique: req.Technique,
		Unit: req.Unit, LOQ: req.LOQ, IsActive: true}
	id, err := h.Methods.Create(ctx, m)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "method name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create method failed"})
	}
	m.ID = id

	h.Sink.Record(ctx, auth.Event{
		Actor:      &actor,
		Action:     model.ActionMethodCreated,
		EntityType: "parameter_method",
		EntityID:   &id,
		AfterState: snapshot(toMethodResp(m)),
		IP:         c.RealIP(),
		Severity:   model.SeverityInfo,
	})
	return c.JSON(http.StatusCreated, toMethodResp(m))
}

func (h *MethodHandler) List(c echo.Context) error {
	ctx, cancel := requestScope(c)
	defer cancel()

	methods, err := h.Methods.List(ctx, c.QueryParam("active") == "true")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]methodResp, 0, len(methods))
	for _, m := range methods {
		out = append(out, toMethodResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MethodHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	m, err := h.Methods.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "method not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toMethodResp(m))
}

func (h *MethodHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req methodReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Unit == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/unit required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Methods.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "method not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	after := before
	after.Name, after.Technique, after.Unit, after.LOQ = req.Name, req.Technique, req.Unit, req.LOQ
	if err := h.Methods.Update(ctx, after); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "method name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionMethodUpdated,
		EntityType:  "parameter_method",
		EntityID:    &id,
		BeforeState: snapshot(toMethodResp(before)),
		AfterState:  snapshot(toMethodResp(after)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.JSON(http.StatusOK, toMethodResp(after))
}

func (h *MethodHandler) Deactivate(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Methods.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "method not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Methods.SetActive(ctx, id, false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionMethodDeleted,
		EntityType:  "parameter_method",
		EntityID:    &id,
		BeforeState: snapshot(toMethodResp(before)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.NoContent(http.StatusNoContent)
}
