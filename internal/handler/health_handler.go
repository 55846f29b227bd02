package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/invigo/invigo-backend/internal/response"
)

// HealthHandler reports readiness of the service and its backing stores.
type HealthHandler struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, rdb: rdb}
}

// Check godoc
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	status := gin.H{
		"status":   "ok",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := h.pool.Ping(ctx); err != nil {
		status["database"] = "unreachable"
		healthy = false
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		status["redis"] = "unreachable"
		healthy = false
	}

	if !healthy {
		status["status"] = "degraded"
		response.Success(c, http.StatusServiceUnavailable, status)
		return
	}
	response.Success(c, http.StatusOK, status)
}
