package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

const eventsPath = "/api/checkout/events"

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, storage handlers.Pinger, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{eventsPath})))

	sessionHandler := handlers.NewSessionHandler(facade)
	checkoutHandler := handlers.NewCheckoutHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	healthHandler := handlers.NewHealthHandler(storage)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Get)
	api.GET("/session", sessionHandler.Get)
	api.PUT("/session", sessionHandler.Set)
	api.DELETE("/session", sessionHandler.Clear)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	authed.POST("/checkout", checkoutHandler.Enter)
	authed.GET("/checkout", checkoutHandler.State)
	authed.PATCH("/checkout", checkoutHandler.Update)
	authed.DELETE("/checkout", checkoutHandler.Cancel)
	authed.GET("/checkout/events", checkoutHandler.Events)
	authed.POST("/checkout/refresh", checkoutHandler.Refresh)
	authed.POST("/checkout/commit", checkoutHandler.Commit)
	authed.POST("/checkout/leave", checkoutHandler.Leave)

	authed.GET("/cart", cartHandler.Get)
	authed.GET("/cart/valid", cartHandler.Valid)
	authed.POST("/cart/:id/add", cartHandler.Add)
	authed.POST("/cart/:id/remove", cartHandler.Remove)
	authed.DELETE("/cart/:id", cartHandler.Delete)

	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/repay", orderHandler.Repay)

	return engine
}
