package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/repositories"
	"chat-relay/internal/telemetry"
)

// RoomHandler serves the room directory.
type RoomHandler struct {
	rooms repositories.RoomRepository
	audit *telemetry.AuditEmitter
}

// NewRoomHandler constructs a RoomHandler. audit may be nil.
func NewRoomHandler(rooms repositories.RoomRepository, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, audit: audit}
}

type createRoomRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	CreatedBy   *string `json:"created_by"`
}

// ListRooms handles GET /rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRooms(c.Request.Context())
	if err != nil {
		log.Printf("list rooms failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// CreateRoom handles POST /rooms. Name conflicts and other constraint
// violations come back as the gateway's own error message.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "room_create_rejected", "invalid request payload", "")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	createdBy := req.CreatedBy
	if createdBy == nil {
		createdBy = userIDFromContext(c)
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), req.Name, description, createdBy)
	if err != nil {
		log.Printf("create room failed: %v", err)
		h.emitAudit(c, "ERROR", "room_create_failed", err.Error(), "")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.emitAudit(c, "INFO", "room_created", "Room created", room.ID)
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) emitAudit(c *gin.Context, level, action, text, roomID string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), telemetry.AuditRecord{
		Level:     level,
		Action:    action,
		Text:      text,
		RoomID:    roomID,
		RequestID: requestIDFromContext(c),
		UserID:    userIDFromContext(c),
	})
}
