package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ConnectionCounter reports live websocket connections.
type ConnectionCounter interface {
	Connections() int
}

type HealthHandler struct {
	conns   ConnectionCounter
	started time.Time
}

func NewHealthHandler(conns ConnectionCounter) *HealthHandler {
	return &HealthHandler{conns: conns, started: time.Now()}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "Server is running",
		"connections": h.conns.Connections(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
	})
}
