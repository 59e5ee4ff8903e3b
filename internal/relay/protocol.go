package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Inbound events.
const (
	EventUserJoin    = "user_join"
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
)

// Outbound events.
const (
	EventUsersUpdated      = "users_updated"
	EventRoomMessages      = "room_messages"
	EventUserJoinedRoom    = "user_joined_room"
	EventUserLeftRoom      = "user_left_room"
	EventNewMessage        = "new_message"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventError             = "error"
)

const (
	ErrNotInRoom  = "User not authenticated or not in a room"
	ErrSendFailed = "Failed to send message"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds an outbound frame.
func Encode(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: payload})
}

// Decode parses an inbound frame. Only the envelope is checked; payloads are
// decoded leniently by the event handlers.
func Decode(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if frame.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event name")
	}
	return frame, nil
}

type identityPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type messagePayload struct {
	Content *string `json:"content"`
}

// Fields of the wrong type are left empty rather than rejecting the event.
func decodeIdentity(data json.RawMessage) identityPayload {
	var p identityPayload
	_ = json.Unmarshal(data, &p)
	return p
}

func decodeRoomID(data json.RawMessage) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var roomID string
	if err := json.Unmarshal(trimmed, &roomID); err == nil {
		return roomID
	}
	return string(trimmed)
}

// decodeContent returns nil when content is missing or not a string, leaving
// the gateway to reject the insert.
func decodeContent(data json.RawMessage) *string {
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return p.Content
}
