package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-relay/internal/middleware"
)

func requestIDFromContext(c *gin.Context) string {
	if requestID := c.GetString(middleware.RequestIDContextKey); requestID != "" {
		return requestID
	}

	requestID := c.GetHeader(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDContextKey, requestID)
	return requestID
}

// userIDFromContext reads the caller's profile id. The relay does not verify
// it; the gateway's policies decide what the id may do.
func userIDFromContext(c *gin.Context) *string {
	if header := c.GetHeader("X-User-Id"); header != "" {
		return &header
	}
	return nil
}
