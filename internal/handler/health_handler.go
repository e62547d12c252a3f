package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/OtoHubID/otohub_api/internal/cache"
	"github.com/OtoHubID/otohub_api/internal/utils"
)

// HealthHandler reports service liveness and dependency reachability.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := map[string]string{
		"service":  "ok",
		"database": "ok",
		"redis":    "ok",
	}
	code := 200

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		status["database"] = "unreachable"
		code = 503
	}
	if err := h.redis.Ping(c.Request.Context()); err != nil {
		status["redis"] = "unreachable"
		code = 503
	}

	if code == 200 {
		utils.Success(c, 200, "Healthy", status)
		return
	}
	c.JSON(code, gin.H{"success": false, "data": status})
}
