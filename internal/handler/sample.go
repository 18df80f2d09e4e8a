package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
	"github.com/labregistry/lab-registry/internal/repository"
)

// SampleHandler implements registration and tracking of samples.
type SampleHandler struct {
	Samples *repository.SampleRepo
	Clients *repository.ClientRepo
	Sink    *auth.Sink
}

func NewSampleHandler(samples *repository.SampleRepo, clients *repository.ClientRepo, sink *auth.Sink) *SampleHandler {
	if samples == nil || clients == nil || sink == nil {
		panic("nil dependency passed to NewSampleHandler")
	}
	return &SampleHandler{Samples: samples, Clients: clients, Sink: sink}
}

type sampleReq struct {
	ClientID    uint64    `json:"client_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Matrix      string    `json:"matrix"`
	CollectedAt time.Time `json:"collected_at"`
	ReceivedAt  time.Time `json:"received_at"`
}

type sampleStatusReq struct {
	Status string `json:"status"`
}

type sampleResp struct {
	ID          uint64             `json:"id"`
	ClientID    uint64             `json:"client_id"`
	Code        string             `json:"code"`
	Description string             `json:"description"`
	Matrix      string             `json:"matrix"`
	CollectedAt time.Time          `json:"collected_at"`
	ReceivedAt  time.Time          `json:"received_at"`
	Status      model.SampleStatus `json:"status"`
}

func toSampleResp(s model.Sample) sampleResp {
	return sampleResp{ID: s.ID, ClientID: s.ClientID, Code: s.Code,
		Description: s.Description, Matrix: s.Matrix,
		CollectedAt: s.CollectedAt, ReceivedAt: s.ReceivedAt, Status: s.Status}
}

func (h *SampleHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	var req sampleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.ClientID == 0 || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id/code required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	client, err := h.Clients.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !client.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "client is inactive"})
	}

	received := req.ReceivedAt
	if received.IsZero() {
		received = time.Now().UTC()
	}
	s := model.Sample{
		ClientID:    req.ClientID,
		Code:        req.Code,
		Description: req.Description,
		Matrix:      req.Matrix,
		CollectedAt: req.CollectedAt,
		ReceivedAt:  received,
		Status:      model.SampleReceived,
		CreatedBy:   actor.ID,
	}
	id, err := h.Samples.Create(ctx, s)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "sample code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sample failed"})
	}
	s.ID = id

	h.Sink.Record(ctx, auth.Event{
		Actor:      &actor,
		Action:     model.ActionSampleCreated,
		EntityType: "sample",
		EntityID:   &id,
		AfterState: snapshot(toSampleResp(s)),
		IP:         c.RealIP(),
		Severity:   model.SeverityInfo,
	})
	return c.JSON(http.StatusCreated, toSampleResp(s))
}

func (h *SampleHandler) List(c echo.Context) error {
	ctx, cancel := requestScope(c)
	defer cancel()

	var (
		samples []model.Sample
		err     error
	)
	if cid := c.QueryParam("client_id"); cid != "" {
		id, perr := parseUintQuery(cid)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client_id"})
		}
		samples, err = h.Samples.ListByClient(ctx, id)
	} else {
		samples, err = h.Samples.List(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]sampleResp, 0, len(samples))
	for _, s := range samples {
		out = append(out, toSampleResp(s))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SampleHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	s, err := h.Samples.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sample not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toSampleResp(s))
}

// SetStatus moves a sample through the workflow; terminal states reject
// further transitions.
func (h *SampleHandler) SetStatus(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sampleStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.SampleStatus(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Samples.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sample not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if before.Status == model.SampleFinished || before.Status == model.SampleCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "sample already in a terminal state"})
	}

	if err := h.Samples.SetStatus(ctx, id, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	after := before
	after.Status = status
	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionSampleUpdated,
		EntityType:  "sample",
		EntityID:    &id,
		BeforeState: snapshot(toSampleResp(before)),
		AfterState:  snapshot(toSampleResp(after)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.JSON(http.StatusOK, toSampleResp(after))
}
