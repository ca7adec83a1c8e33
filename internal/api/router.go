package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cartelhax/portal/internal/api/handler"
	"github.com/cartelhax/portal/internal/api/middleware"
	"github.com/cartelhax/portal/internal/core/service"
	"github.com/cartelhax/portal/internal/infrastructure/config"
	mongodir "github.com/cartelhax/portal/internal/infrastructure/db/mongo"
	redisinfra "github.com/cartelhax/portal/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, bus *redisinfra.Bus, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("portal"))
	e.Use(middleware.Session())

	// --- Dependencies ---
	directory := mongodir.NewDirectory(db, bus, log)
	unlocks := redisinfra.NewPanelUnlocks(rdb)

	authService := service.NewAuthService(directory, log)
	listingService := service.NewListingService(directory, log)
	adminService := service.NewAdminService(directory, log)

	authHandler := handler.NewAuthHandler(authService)
	linksHandler := handler.NewLinksHandler(listingService, log)
	panelHandler := handler.NewPanelHandler(adminService, unlocks, handler.PanelConfig{
		PasswordHash: cfg.PanelPasswordHash,
		TokenSecret:  cfg.PanelTokenSecret,
		UnlockTTL:    cfg.PanelUnlockTTL,
	}, log)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/session", authHandler.Session, middleware.RequireSession())

	// --- Member listing ---
	e.GET("/links", linksHandler.List, middleware.RequireSession())
	e.GET("/links/stream", linksHandler.Stream, middleware.RequireSession())

	// --- Admin panel ---
	e.POST("/panel/unlock", panelHandler.Unlock, middleware.RequireSession())

	panel := e.Group("/panel", middleware.Panel(cfg.PanelTokenSecret, unlocks))
	panel.POST("/lock", panelHandler.Lock)
	panel.GET("/users", panelHandler.ListUsers)
	panel.PUT("/users/:key/role", panelHandler.SetUserRole)
	panel.PUT("/users/:key/roles", panelHandler.SetUserRoles)
	panel.DELETE("/users/:key/links", panelHandler.ResetUserLinks)
	panel.GET("/roles", panelHandler.ListCustomRoles)
	panel.POST("/roles", panelHandler.CreateCustomRole)
	panel.DELETE("/roles/:value", panelHandler.DeleteCustomRole)
	panel.GET("/links", panelHandler.ListLinks)
	panel.POST("/links", panelHandler.CreateLink)
	panel.PUT("/links/:key", panelHandler.UpdateLink)
	panel.PATCH("/links/:key/status", panelHandler.ToggleLinkStatus)
	panel.DELETE("/links/:key", panelHandler.DeleteLink)

	// --- Observability & docs ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Static portal assets ---
	// Unmatched paths fall back to the entry document so client-side routes
	// survive reloads.
	if cfg.StaticDir != "" {
		e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
			Root:  cfg.StaticDir,
			HTML5: true,
		}))
	}

	return e
}
