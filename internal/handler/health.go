package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.db != nil && h.db.Healthy(ctx)

	body := gin.H{"db": dbHealthy}
	if h.redis != nil {
		body["redis"] = h.redis.Healthy(ctx)
	}

	status := http.StatusOK
	body["status"] = "ok"
	if !dbHealthy {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}
	c.JSON(status, body)
}
