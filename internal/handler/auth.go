package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
)

// AuthHandler bundles the dependencies of the credential endpoints.
type AuthHandler struct {
	Registry *auth.SessionRegistry
	Users    auth.UserStore
	Sink     *auth.Sink
}

func NewAuthHandler(reg *auth.SessionRegistry, users auth.UserStore, sink *auth.Sink) *AuthHandler {
	if reg == nil || users == nil || sink == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Registry: reg, Users: users, Sink: sink}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userPart struct {
	ID                 uint64     `json:"id"`
	Email              string     `json:"email"`
	Role               model.Role `json:"role"`
	IsActive           bool       `json:"is_active"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
}

type loginResp struct {
	Token              string    `json:"token"`
	Expires            time.Time `json:"expires"`
	User               userPart  `json:"user"`
	MustChangePassword bool      `json:"must_change_password"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:                 u.ID,
		Email:              u.Email,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
	}
}

func requestScope(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Login verifies credentials and opens a session. Unknown email, wrong
// password and deactivated account all collapse into the same generic 401
// so the response cannot be used to enumerate accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()
	ip := c.RealIP()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			h.Sink.Record(ctx, auth.Event{
				Action:   model.ActionLoginFailed,
				IP:       ip,
				Severity: model.SeverityWarning,
				Metadata: jsonMeta(map[string]any{"email": req.Email, "reason": "unknown email"}),
			})
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if !u.IsActive {
		h.Sink.Record(ctx, auth.Event{
			Actor:    &u,
			Action:   model.ActionLoginFailed,
			IP:       ip,
			Severity: model.SeverityWarning,
			Metadata: jsonMeta(map[string]any{"reason": "account inactive"}),
		})
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		if err := h.Users.RecordLoginFailure(ctx, u.ID); err != nil {
			c.Logger().Warnf("login: failure counter update: %v", err)
		}
		h.Sink.Record(ctx, auth.Event{
			Actor:    &u,
			Action:   model.ActionLoginFailed,
			IP:       ip,
			Severity: model.SeverityWarning,
			Metadata: jsonMeta(map[string]any{"reason": "wrong password"}),
		})
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := h.Users.RecordLoginSuccess(ctx, u.ID); err != nil {
		c.Logger().Warnf("login: counter reset: %v", err)
	}

	_, token, sess, err := h.Registry.Create(ctx, u, ip, c.Request().UserAgent())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session create failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:    &u,
		Action:   model.ActionLoginSuccess,
		IP:       ip,
		Severity: model.SeverityInfo,
	})

	return c.JSON(http.StatusOK, loginResp{
		Token:              token,
		Expires:            sess.ExpiresAt,
		User:               toUserPart(u),
		MustChangePassword: u.MustChangePassword,
	})
}

// Logout revokes the session row matching the presented bearer token. It
// always reports success to the caller: revoking an unknown or already
// revoked token is not an error, and a missing header simply leaves
// nothing to revoke.
func (h *AuthHandler) Logout(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return c.NoContent(http.StatusNoContent)
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return c.NoContent(http.StatusNoContent)
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	if err := h.Registry.RevokeByTokenHash(ctx, auth.HashToken(raw)); err != nil {
		c.Logger().Warnf("logout: revoke failed: %v", err)
	}

	// Attribute the audit entry when the token still verifies; an expired
	// or forged token is still "logged out" silently.
	if claims, err := h.Registry.Codec.Verify(raw); err == nil {
		actor := model.User{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
		h.Sink.Record(ctx, auth.Event{
			Actor:    &actor,
			Action:   model.ActionLogout,
			IP:       c.RealIP(),
			Severity: model.SeverityInfo,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// ChangePassword replaces the caller's own password. The length check runs
// before any store access; a wrong current password is a credential error
// and stays generic.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	cu, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password must have at least 8 characters"})
	}

	ctx, cancel := requestScope(c)
	defer cancel()

	// Reload with the hash; the context copy is sanitized.
	u, err := h.Users.GetByID(ctx, cu.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password update failed"})
	}

	h.Sink.Record(ctx, auth.Event{
		Actor:    &u,
		Action:   model.ActionPasswordChanged,
		IP:       c.RealIP(),
		Severity: model.SeverityInfo,
	})
	return c.NoContent(http.StatusNoContent)
}
