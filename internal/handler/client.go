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

// ClientHandler implements CRUD over laboratory clients.
type ClientHandler struct {
	Clients *repository.ClientRepo
	Sink    *auth.Sink
}

func NewClientHandler(clients *repository.ClientRepo, sink *auth.Sink) *ClientHandler {
	if clients == nil || sink == nil {
		panic("nil dependency passed to NewClientHandler")
	}
	return &ClientHandler{Clients: clients, Sink: sink}
}

type clientReq struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type clientResp struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}

func toClientResp(c model.Client) clientResp {
	return clientResp{ID: c.ID, Name: c.Name, Document: c.Document,
		Email: c.Email, Phone: c.Phone, IsActive: c.IsActive}
}

func (h *ClientHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Document = strings.TrimSpace(req.Document)
	if req.Name == "" || req.Document == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/document required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	m := model.Client{Name: req.Name, Document: req.Document, Email: req.Email, Phone: req.Phone, IsActive: true}
	id, err := h.Clients.Create(ctx, m)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "document already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create client failed"})
	}
	m.ID = id

	h.Sink.Record(ctx, auth.Event{
		Actor:      &actor,
		Action:     model.ActionClientCreated,
		EntityType: "client",
		EntityID:   &id,
		AfterState: snapshot(toClientResp(m)),
		IP:         c.RealIP(),
		Severity:   model.SeverityInfo,
	})
	return c.JSON(http.StatusCreated, toClientResp(m))
}

func (h *ClientHandler) List(c echo.Context) error {
	ctx, cancel := requestScope(c)
	defer cancel()

	activeOnly := c.QueryParam("active") == "true"
	clients, err := h.Clients.List(ctx, activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]clientResp, 0, len(clients))
	for _, m := range clients {
		out = append(out, toClientResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	m, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toClientResp(m))
}

func (h *ClientHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req clientReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Document = strings.TrimSpace(req.Document)
	if req.Name == "" || req.Document == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/document required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	after := before
	after.Name, after.Document, after.Email, after.Phone = req.Name, req.Document, req.Email, req.Phone
	if err := h.Clients.Update(ctx, after); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "document already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionClientUpdated,
		EntityType:  "client",
		EntityID:    &id,
		BeforeState: snapshot(toClientResp(before)),
		AfterState:  snapshot(toClientResp(after)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.JSON(http.StatusOK, toClientResp(after))
}

// Deactivate soft-deletes a client; its samples stay referenced.
func (h *ClientHandler) Deactivate(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Clients.SetActive(ctx, id, false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionClientDeleted,
		EntityType:  "client",
		EntityID:    &id,
		BeforeState: snapshot(toClientResp(before)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.NoContent(http.StatusNoContent)
}
