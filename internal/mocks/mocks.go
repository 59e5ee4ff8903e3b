package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	args := m.Called(ctx)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) CreateRoom(ctx context.Context, name *string, description string, createdBy *string) (models.ChatRoom, error) {
	args := m.Called(ctx, name, description, createdBy)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID string, userID string, content *string) (string, error) {
	args := m.Called(ctx, roomID, userID, content)
	return args.String(0), args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) TouchLastSeen(ctx context.Context, userID string, email string) error {
	args := m.Called(ctx, userID, email)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) MarkLastSeen(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type RoomCacheMock struct {
	mock.Mock
}

func (m *RoomCacheMock) GetRooms(ctx context.Context) ([]models.ChatRoom, bool, error) {
	args := m.Called(ctx)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Bool(1), args.Error(2)
}

func (m *RoomCacheMock) SetRooms(ctx context.Context, rooms []models.ChatRoom) error {
	args := m.Called(ctx, rooms)
	return args.Error(0)
}

func (m *RoomCacheMock) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.RoomCache = (*RoomCacheMock)(nil)
