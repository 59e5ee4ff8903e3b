package ws

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-relay/internal/observability"
)

const wsRoutingKey = "ws_events.relay"

func newConnID() string {
	return uuid.NewString()
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}

func publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	observability.IncWSEvent(event)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"client": map[string]interface{}{
			"ip":         info.IP,
			"user_agent": info.UserAgent,
		},
	}
	envelope := observability.NewEnvelope("ws_events", event, payload).WithTrace(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, wsRoutingKey, envelope)
}
