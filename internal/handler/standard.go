package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
	"github.com/labregistry/lab-registry/internal/repository"
)

// StandardStore is what the standards handler needs from persistence.
// repository.StandardRepo implements it; tests substitute a fake to probe
// the rule-replacement contract without a database.
type StandardStore interface {
	Create(ctx context.Context, s model.ReferenceStandard) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.ReferenceStandard, error)
	List(ctx context.Context, activeOnly bool) ([]model.ReferenceStandard, error)
	Update(ctx context.Context, s model.ReferenceStandard) error
	SetActive(ctx context.Context, id uint64, active bool) error
	Rules(ctx context.Context, standardID uint64) ([]model.StandardRule, error)
	// ReplaceRules must be atomic: all rules replace or none do.
	ReplaceRules(ctx context.Context, standardID uint64, rules []model.StandardRule) error
}

var _ StandardStore = (*repository.StandardRepo)(nil)

// StandardHandler implements CRUD over reference standards and their rule
// sets.
type StandardHandler struct {
	Standards StandardStore
	Sink      *auth.Sink
}

func NewStandardHandler(standards StandardStore, sink *auth.Sink) *StandardHandler {
	if standards == nil || sink == nil {
		panic("nil dependency passed to NewStandardHandler")
	}
	return &StandardHandler{Standards: standards, Sink: sink}
}

type standardReq struct {
	Name      string `json:"name"`
	Authority string `json:"authority"`
}

type ruleReq struct {
	Parameter string  `json:"parameter"`
	MaxValue  float64 `json:"max_value"`
	Unit      string  `json:"unit"`
}

type standardResp struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Authority string `json:"authority"`
	IsActive  bool   `json:"is_active"`
}

type ruleResp struct {
	Parameter string  `json:"parameter"`
	MaxValue  float64 `json:"max_value"`
	Unit      string  `json:"unit"`
}

func toStandardResp(s model.ReferenceStandard) standardResp {
	return standardResp{ID: s.ID, Name: s.Name, Authority: s.Authority, IsActive: s.IsActive}
}

func (h *StandardHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	var req standardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	s := model.ReferenceStandard{Name: req.Name, Authority: req.Authority, IsActive: true}
	id, err := h.Standards.Create(ctx, s)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "standard name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create standard failed"})
	}
	s.ID = id

	h.Sink.Record(ctx, auth.Event{
		Actor:      &actor,
		Action:     model.ActionStandardCreated,
		EntityType: "reference_standard",
		EntityID:   &id,
		AfterState: snapshot(toStandardResp(s)),
		IP:         c.RealIP(),
		Severity:   model.SeverityInfo,
	})
	return c.JSON(http.StatusCreated, toStandardResp(s))
}

func (h *StandardHandler) List(c echo.Context) error {
	ctx, cancel := requestScope(c)
	defer cancel()

	standards, err := h.Standards.List(ctx, c.QueryParam("active") == "true")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]standardResp, 0, len(standards))
	for _, s := range standards {
		out = append(out, toStandardResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a standard together with its current rule set.
func (h *StandardHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	s, err := h.Standards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "standard not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	rules, err := h.Standards.Rules(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	ruleOut := make([]ruleResp, 0, len(rules))
	for _, r := range rules {
		ruleOut = append(ruleOut, ruleResp{Parameter: r.Parameter, MaxValue: r.MaxValue, Unit: r.Unit})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"standard": toStandardResp(s),
		"rules":    ruleOut,
	})
}

func (h *StandardHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req standardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Standards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "standard not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	after := before
	after.Name, after.Authority = req.Name, req.Authority
	if err := h.Standards.Update(ctx, after); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "standard name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionStandardUpdated,
		EntityType:  "reference_standard",
		EntityID:    &id,
		BeforeState: snapshot(toStandardResp(before)),
		AfterState:  snapshot(toStandardResp(after)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.JSON(http.StatusOK, toStandardResp(after))
}

// ReplaceRules swaps the full rule set of a standard. The store performs
// the swap in one transaction, so a failure leaves the previous rules
// intact and no reader ever sees a half-written set.
func (h *StandardHandler) ReplaceRules(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var reqs []ruleReq
	if err := c.Bind(&reqs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	for _, r := range reqs {
		if strings.TrimSpace(r.Parameter) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rule parameter required"})
		}
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	if _, err := h.Standards.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "standard not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rules := make([]model.StandardRule, 0, len(reqs))
	for _, r := range reqs {
		rules = append(rules, model.StandardRule{
			StandardID: id,
			Parameter:  strings.TrimSpace(r.Parameter),
			MaxValue:   r.MaxValue,
			Unit:       r.Unit,
		})
	}
	if err := h.Standards.ReplaceRules(ctx, id, rules); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "replace rules failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:      &actor,
		Action:     model.ActionStandardRulesSet,
		EntityType: "reference_standard",
		EntityID:   &id,
		AfterState: snapshot(reqs),
		IP:         c.RealIP(),
		Severity:   model.SeverityInfo,
		Metadata:   jsonMeta(map[string]any{"rule_count": len(rules)}),
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *StandardHandler) Deactivate(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Standards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "standard not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Standards.SetActive(ctx, id, false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionStandardDeleted,
		EntityType:  "reference_standard",
		EntityID:    &id,
		BeforeState: snapshot(toStandardResp(before)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.NoContent(http.StatusNoContent)
}
