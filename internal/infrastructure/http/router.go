package http

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/carelink/healthcare-portal/docs"
	apimiddleware "github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/infrastructure/http/handlers"
)

const bodyLimit = "10M"

// EngineConfig describes the process-level surface shared by both services.
type EngineConfig struct {
	// Service is reported by the health probes, e.g. "auth-service".
	Service string
	// Subsystem prefixes the echoprometheus HTTP metrics.
	Subsystem   string
	CORSOrigins []string

	Mongo *mongo.Database
	// Redis may be nil.
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewEngine builds an Echo instance with the global middleware, probes,
// metrics and API docs registered. Callers add their API routes on top.
func NewEngine(cfg EngineConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// --- Global middleware ---
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(apimiddleware.RequestLogger(cfg.Log))
	e.Use(middleware.BodyLimit(bodyLimit))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}))
	}
	e.Use(echoprometheus.NewMiddleware(cfg.Subsystem))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler(cfg.Service)
	healthDepsHandler := handlers.NewHealthDependenciesHandler(cfg.Service, cfg.Mongo, cfg.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
