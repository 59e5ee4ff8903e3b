package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chat-relay/internal/mocks"
)

func TestAuditEmitterPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.rooms", "chat-relay", "test")
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	user := "u-1"

	publisher.On("Publish", mock.Anything, "audit.rooms", mock.MatchedBy(func(env AuditEnvelope) bool {
		return env.EventType == "audit_log" &&
			env.OccurredAt == "2024-05-01T12:00:00Z" &&
			env.Service == "chat-relay" &&
			env.RequestID == "req-1" &&
			env.UserID != nil && *env.UserID == "u-1" &&
			env.Payload.Action == "room_created" &&
			env.Payload.RoomID == "r-1"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), AuditRecord{
		Level:     "INFO",
		Action:    "room_created",
		Text:      "Room created",
		RoomID:    "r-1",
		RequestID: "req-1",
		UserID:    &user,
	})

	publisher.AssertExpectations(t)
}

func TestAuditEmitterSwallowsPublishErrors(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.rooms", "chat-relay", "test")

	publisher.On("Publish", mock.Anything, "audit.rooms", mock.Anything).Return(errors.New("broker down")).Once()

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), AuditRecord{Level: "ERROR", Action: "room_create_failed"})
	})
	publisher.AssertExpectations(t)
}

func TestNilAuditEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), AuditRecord{Level: "INFO"})
	})
}
