package ws

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-relay/internal/observability"
	"chat-relay/internal/relay"
)

// Router is the part of relay.Router the transport drives.
type Router interface {
	Connect(conn relay.Conn)
	Disconnect(connID string)
	Dispatch(connID string, raw []byte)
}

// Handler upgrades GET /ws requests and wires each socket to the router.
type Handler struct {
	router         Router
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

func NewHandler(router Router, origins *OriginPolicy, maxMessageSize int64) *Handler {
	return &Handler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.Check,
		},
		maxMessageSize: maxMessageSize,
	}
}

// Handle upgrades the connection and starts the client pumps.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-relay/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request.WithContext(ctx), nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		IP:          observability.IPFromRequest(c.Request),
		UserAgent:   c.Request.UserAgent(),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     observability.TraceIDFromContext(ctx),
		ConnectedAt: time.Now(),
	}
	client := newClient(conn, info, h.maxMessageSize)
	h.router.Connect(client)

	// The request context ends with this handler; lifecycle events outlive it.
	eventCtx := context.WithoutCancel(ctx)
	observability.IncWSActive()
	publishLifecycle(eventCtx, "ws_connect", info, "")

	go client.writePump()
	go func() {
		reason := client.readPump(h.router)
		observability.DecWSActive()
		publishLifecycle(eventCtx, "ws_disconnect", info, reason)
	}()
}
