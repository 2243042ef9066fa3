package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/archie-s/card-vault/internal/access"
	"github.com/archie-s/card-vault/internal/api/http/handlers"
	"github.com/archie-s/card-vault/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Cards       *handlers.CardsHandler
	Roles       *handlers.RolesHandler
	Audit       *handlers.AuditHandler
	AuthMW      *auth.AuthMiddleware
	Permissions *auth.PermissionMiddleware

	RedisClient     *redis.Client
	RateLimit       int
	RateLimitWindow time.Duration
	Logger          *zap.Logger
}

// RegisterRoutes wires HTTP routes. Every card route passes through the auth
// middleware and then the access engine gate before the handler runs.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", RateLimiter(cfg.RedisClient, cfg.RateLimit, cfg.RateLimitWindow, cfg.Logger))

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/users", cfg.Auth.Register)
	authGroup.Get("/users", cfg.AuthMW.Handle, cfg.Permissions.Require(access.OpManageUsers, false), cfg.Auth.ListUsers)
	authGroup.Get("/me", cfg.AuthMW.Handle, cfg.Auth.Me)
	authGroup.Post("/logout", cfg.AuthMW.Handle, cfg.Auth.Logout)

	cards := api.Group("/cards", cfg.AuthMW.Handle)
	cards.Post("/", cfg.Permissions.Require(access.OpAddPaymentMethods, true), cfg.Cards.StoreCard)
	cards.Get("/", cfg.Permissions.Require(access.OpReadPaymentMethods, true), cfg.Cards.ListCards)
	cards.Get("/:token", cfg.Permissions.Require(access.OpReadPaymentMethods, true), cfg.Cards.RetrieveCard)
	cards.Delete("/:token", cfg.Permissions.Require(access.OpDeletePaymentMethods, true), cfg.Cards.RevokeCard)

	roles := api.Group("/roles", cfg.AuthMW.Handle)
	roles.Get("/", cfg.Permissions.Require(access.OpManageUsers, false), cfg.Roles.List)
	roles.Post("/", cfg.Permissions.Require(access.OpManageSystem, false), cfg.Roles.Create)
	roles.Get("/:name/permissions", cfg.Permissions.Require(access.OpManageUsers, false), cfg.Roles.Permissions)

	api.Get("/audit", cfg.AuthMW.Handle, cfg.Permissions.Require(access.OpViewAuditLogs, false), cfg.Audit.List)
}
