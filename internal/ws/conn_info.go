package ws

import "time"

// ConnInfo is the handshake metadata kept for lifecycle events.
type ConnInfo struct {
	ConnID      string
	IP          string
	UserAgent   string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
