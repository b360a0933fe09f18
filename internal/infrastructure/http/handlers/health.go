package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	redisdb "github.com/carelink/healthcare-portal/internal/infrastructure/db/redis"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves GET /health, the liveness probe. It never touches a
// dependency.
type HealthHandler struct {
	service string
	now     func() time.Time
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service, now: time.Now}
}

type livenessResponse struct {
	Success   bool      `json:"success"`
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Liveness godoc
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} livenessResponse
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{
		Success:   true,
		Service:   h.service,
		Status:    "ok",
		Timestamp: h.now().UTC(),
	})
}

// HealthDependenciesHandler serves GET /health/ready. Redis is optional; a nil
// client is reported as disabled and does not degrade readiness.
type HealthDependenciesHandler struct {
	service string
	mongo   *mongo.Database
	redis   *redis.Client
}

func NewHealthDependenciesHandler(service string, db *mongo.Database, rdb *redis.Client) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{service: service, mongo: db, redis: rdb}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Success      bool                        `json:"success"`
	Service      string                      `json:"service"`
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness godoc
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} readinessResponse
// @Failure  503 {object} readinessResponse
// @Router   /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	deps := map[string]dependencyStatus{
		"mongodb": pingMongo(ctx, h.mongo),
		"redis":   pingRedis(ctx, h.redis),
	}

	healthy := true
	for _, d := range deps {
		if d.Status == "unhealthy" {
			healthy = false
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, readinessResponse{
		Success:      healthy,
		Service:      h.service,
		Status:       status,
		Dependencies: deps,
	})
}

func pingMongo(ctx context.Context, db *mongo.Database) dependencyStatus {
	if db == nil {
		return dependencyStatus{Status: "unhealthy", Error: "not connected"}
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return dependencyStatus{Status: "unhealthy", Error: err.Error()}
	}
	return dependencyStatus{Status: "ok"}
}

func pingRedis(ctx context.Context, rdb *redis.Client) dependencyStatus {
	err := redisdb.Ping(ctx, rdb)
	switch {
	case errors.Is(err, redisdb.ErrDisabled):
		return dependencyStatus{Status: "disabled"}
	case err != nil:
		return dependencyStatus{Status: "unhealthy", Error: err.Error()}
	}
	return dependencyStatus{Status: "ok"}
}
