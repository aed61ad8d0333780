package server

import (
	"net/http"
	"time"

	"library-circulation/internal/circulation/handler"
	"library-circulation/internal/circulation/middleware"
	"library-circulation/internal/circulation/service"
	"library-circulation/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Log            *zap.Logger
	Circulation    service.CirculationService
	Catalog        service.CatalogService
	Auth           service.AuthService // nil leaves signup and login to another service
	Verifier       middleware.TokenVerifier
	Limiter        *middleware.RateLimiter
	Health         map[string]handler.Pinger
	Metrics        http.Handler // nil disables /metrics
	RequestTimeout time.Duration
	Location       *time.Location
	StaffRoles     []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(logging.GinLogger(d.Log), gin.Recovery())

	r.GET("/healthz", handler.Health(d.Health))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	api := r.Group("/api")

	// catalog reads are public
	handler.NewBookHandler(d.Catalog, d.RequestTimeout).RegisterRoutes(api.Group("/books"))

	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware()
	}

	if d.Auth != nil {
		handler.NewAuthHandler(d.Auth, d.RequestTimeout).RegisterRoutes(api.Group("/auth", limit))
	}

	authed := api.Group("", middleware.AuthMiddleware(d.Verifier))
	handler.NewCirculationHandler(d.Circulation, d.RequestTimeout, d.Location, d.StaffRoles...).
		RegisterRoutes(authed, limit)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Endpoint not found"})
	})
	return r
}
