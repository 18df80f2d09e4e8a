package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
)

// UserHandler implements account administration. Routes are guarded to
// ADMIN and PROFESSOR by the router; the finer hierarchy rules (PROFESSOR
// must not touch ADMIN accounts, nobody deactivates themself, role changes
// and reactivation are ADMIN-only) are enforced here per operation.
type UserHandler struct {
	Users    auth.UserStore
	Registry *auth.SessionRegistry
	Sink     *auth.Sink
}

func NewUserHandler(users auth.UserStore, reg *auth.SessionRegistry, sink *auth.Sink) *UserHandler {
	if users == nil || reg == nil || sink == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Registry: reg, Sink: sink}
}

type createUserReq struct {
	Email              string `json:"email"`
	Password           string `json:"password"`
	Role               string `json:"role"`
	MustChangePassword *bool  `json:"must_change_password"`
}

type setRoleReq struct {
	Role string `json:"role"`
}

// paramID parses the :id route parameter.
func paramID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// denyHierarchy audits a business-rule denial and writes the 403.
func (h *UserHandler) denyHierarchy(c echo.Context, actor model.User, reason string) error {
	h.Sink.Record(c.Request().Context(), auth.Event{
		Actor:    &actor,
		Action:   model.ActionUnauthorizedAccess,
		IP:       c.RealIP(),
		Severity: model.SeverityWarning,
		Metadata: jsonMeta(map[string]any{"path": c.Path(), "reason": reason}),
	})
	return c.JSON(http.StatusForbidden, echo.Map{"error": reason})
}

// Create registers a new account. PROFESSOR callers may create any role
// except ADMIN.
func (h *UserHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must have at least 8 characters"})
	}
	role := model.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if actor.Role == model.RoleProfessor && role == model.RoleAdmin {
		return h.denyHierarchy(c, actor, "professor may not create admin accounts")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	mustChange := true
	if req.MustChangePassword != nil {
		mustChange = *req.MustChangePassword
	}
	creator := actor.ID
	u := model.User{
		Email:              req.Email,
		PasswordHash:       hash,
		Role:               role,
		IsActive:           true,
		MustChangePassword: mustChange,
		CreatedBy:          &creator,
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	id, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u.ID = id

	h.Sink.Record(ctx, auth.Event{
		Actor:      &actor,
		Action:     model.ActionUserCreated,
		EntityType: "user",
		EntityID:   &id,
		AfterState: snapshot(toUserPart(u)),
		IP:         c.RealIP(),
		Severity:   model.SeverityInfo,
	})
	return c.JSON(http.StatusCreated, toUserPart(u))
}

// List returns every account, active or not.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestScope(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one account by id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := requestScope(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// SetRole changes an account's role. ADMIN only.
func (h *UserHandler) SetRole(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	if actor.Role != model.RoleAdmin {
		return h.denyHierarchy(c, actor, "only admin may change roles")
	}

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := model.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	before, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.SetRole(ctx, id, role); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	after := before
	after.Role = role
	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionUserUpdated,
		EntityType:  "user",
		EntityID:    &id,
		BeforeState: snapshot(toUserPart(before)),
		AfterState:  snapshot(toUserPart(after)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.JSON(http.StatusOK, toUserPart(after))
}

// Deactivate soft-deletes an account and revokes its sessions. Accounts
// are never hard-deleted. A caller cannot deactivate itself, and a
// PROFESSOR may only deactivate TÉCNICO and VOLUNTÁRIO accounts.
func (h *UserHandler) Deactivate(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == actor.ID {
		return h.denyHierarchy(c, actor, "cannot deactivate own account")
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if actor.Role == model.RoleProfessor &&
		target.Role != model.RoleTecnico && target.Role != model.RoleVoluntario {
		return h.denyHierarchy(c, actor, "professor may only manage técnico and voluntário accounts")
	}

	if err := h.Users.SetActive(ctx, id, false); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Registry.RevokeAllForUser(ctx, id); err != nil {
		c.Logger().Warnf("deactivate: session revoke for user %d: %v", id, err)
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionUserDeleted,
		EntityType:  "user",
		EntityID:    &id,
		BeforeState: snapshot(toUserPart(target)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.NoContent(http.StatusNoContent)
}

// Reactivate re-enables a soft-deleted account. ADMIN only.
func (h *UserHandler) Reactivate(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	if actor.Role != model.RoleAdmin {
		return h.denyHierarchy(c, actor, "only admin may reactivate accounts")
	}

	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.SetActive(ctx, id, true); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	after := target
	after.IsActive = true
	h.Sink.Record(ctx, auth.Event{
		Actor:       &actor,
		Action:      model.ActionUserUpdated,
		EntityType:  "user",
		EntityID:    &id,
		BeforeState: snapshot(toUserPart(target)),
		AfterState:  snapshot(toUserPart(after)),
		IP:          c.RealIP(),
		Severity:    model.SeverityInfo,
	})
	return c.JSON(http.StatusOK, toUserPart(after))
}
