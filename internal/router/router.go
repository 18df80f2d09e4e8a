// Package router wires handlers, the authorization guard and the rate
// limiter onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/config"
	"github.com/labregistry/lab-registry/internal/handler"
	"github.com/labregistry/lab-registry/internal/middleware"
	"github.com/labregistry/lab-registry/internal/model"
)

// Handlers groups everything the routes need.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Clients   *handler.ClientHandler
	Samples   *handler.SampleHandler
	Methods   *handler.MethodHandler
	Standards *handler.StandardHandler
}

// anyRole lists every role; used for read endpoints open to all
// authenticated staff.
var anyRole = []model.Role{model.RoleAdmin, model.RoleProfessor, model.RoleTecnico, model.RoleVoluntario}

// managerRoles may administer reference data and clients.
var managerRoles = []model.Role{model.RoleAdmin, model.RoleProfessor}

// benchRoles may register and update samples.
var benchRoles = []model.Role{model.RoleAdmin, model.RoleProfessor, model.RoleTecnico}

// Register attaches all routes. reg resolves bearer tokens, sink records
// authorization denials, rdb backs the login rate limiter (nil disables
// it).
func Register(e *echo.Echo, h Handlers, reg *auth.SessionRegistry, sink *auth.Sink, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Credential endpoints: no bearer required, rate limited by client IP.
	pub := e.Group("/v1/auth")
	pub.Use(middleware.NewTokenBucket(rlCfg, rdb))
	pub.POST("/login", h.Auth.Login)
	pub.POST("/logout", h.Auth.Logout)

	// Everything below requires a verified bearer token.
	v1 := e.Group("/v1")
	v1.Use(middleware.Authenticate(reg))

	v1.GET("/me", h.Auth.Me)
	v1.POST("/change-password", h.Auth.ChangePassword)

	// Account administration. The handler layers the finer hierarchy rules
	// (professor restrictions, no self-deactivation) on top of this guard.
	users := v1.Group("/users", middleware.RequireRole(sink, managerRoles...))
	users.POST("", h.Users.Create)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id/role", h.Users.SetRole)
	users.POST("/:id/activate", h.Users.Reactivate)
	users.DELETE("/:id", h.Users.Deactivate)

	clients := v1.Group("/clients")
	clients.GET("", h.Clients.List, middleware.RequireRole(sink, anyRole...))
	clients.GET("/:id", h.Clients.Get, middleware.RequireRole(sink, anyRole...))
	clients.POST("", h.Clients.Create, middleware.RequireRole(sink, managerRoles...))
	clients.PUT("/:id", h.Clients.Update, middleware.RequireRole(sink, managerRoles...))
	clients.DELETE("/:id", h.Clients.Deactivate, middleware.RequireRole(sink, managerRoles...))

	samples := v1.Group("/samples")
	samples.GET("", h.Samples.List, middleware.RequireRole(sink, anyRole...))
	samples.GET("/:id", h.Samples.Get, middleware.RequireRole(sink, anyRole...))
	samples.POST("", h.Samples.Create, middleware.RequireRole(sink, benchRoles...))
	samples.PATCH("/:id/status", h.Samples.SetStatus, middleware.RequireRole(sink, benchRoles...))

	methods := v1.Group("/methods")
	methods.GET("", h.Methods.List, middleware.RequireRole(sink, anyRole...))
	methods.GET("/:id", h.Methods.Get, middleware.RequireRole(sink, anyRole...))
	methods.POST("", h.Methods.Create, middleware.RequireRole(sink, managerRoles...))
	methods.PUT("/:id", h.Methods.Update, middleware.RequireRole(sink, managerRoles...))
	methods.DELETE("/:id", h.Methods.Deactivate, middleware.RequireRole(sink, managerRoles...))

	standards := v1.Group("/standards")
	standards.GET("", h.Standards.List, middleware.RequireRole(sink, anyRole...))
	standards.GET("/:id", h.Standards.Get, middleware.RequireRole(sink, anyRole...))
	standards.POST("", h.Standards.Create, middleware.RequireRole(sink, managerRoles...))
	standards.PUT("/:id", h.Standards.Update, middleware.RequireRole(sink, managerRoles...))
	standards.PUT("/:id/rules", h.Standards.ReplaceRules, middleware.RequireRole(sink, managerRoles...))
	standards.DELETE("/:id", h.Standards.Deactivate, middleware.RequireRole(sink, managerRoles...))
}
