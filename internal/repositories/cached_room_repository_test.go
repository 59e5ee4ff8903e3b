package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
)

func TestCachedListRoomsHit(t *testing.T) {
	next := new(mocks.RoomRepositoryMock)
	cache := new(mocks.RoomCacheMock)
	repo := repositories.NewCachedRoomRepo(next, cache)

	cached := []models.ChatRoom{{ID: "r1", Name: "general"}}
	cache.On("GetRooms", mock.Anything).Return(cached, true, nil).Once()

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, rooms)
	next.AssertNotCalled(t, "ListRooms", mock.Anything)
}

func TestCachedListRoomsMissFills(t *testing.T) {
	next := new(mocks.RoomRepositoryMock)
	cache := new(mocks.RoomCacheMock)
	repo := repositories.NewCachedRoomRepo(next, cache)

	fresh := []models.ChatRoom{{ID: "r2", Name: "random"}}
	cache.On("GetRooms", mock.Anything).Return(nil, false, nil).Once()
	next.On("ListRooms", mock.Anything).Return(fresh, nil).Once()
	cache.On("SetRooms", mock.Anything, fresh).Return(nil).Once()

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, rooms)
	cache.AssertExpectations(t)
	next.AssertExpectations(t)
}

func TestCachedListRoomsCacheDown(t *testing.T) {
	next := new(mocks.RoomRepositoryMock)
	cache := new(mocks.RoomCacheMock)
	repo := repositories.NewCachedRoomRepo(next, cache)

	fresh := []models.ChatRoom{{ID: "r1"}}
	cache.On("GetRooms", mock.Anything).Return(nil, false, errors.New("redis down")).Once()
	next.On("ListRooms", mock.Anything).Return(fresh, nil).Once()
	cache.On("SetRooms", mock.Anything, fresh).Return(errors.New("redis down")).Once()

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, rooms)
}

func TestCachedListRoomsGatewayError(t *testing.T) {
	next := new(mocks.RoomRepositoryMock)
	cache := new(mocks.RoomCacheMock)
	repo := repositories.NewCachedRoomRepo(next, cache)

	cache.On("GetRooms", mock.Anything).Return(nil, false, nil).Once()
	next.On("ListRooms", mock.Anything).Return(nil, errors.New("db down")).Once()

	_, err := repo.ListRooms(context.Background())
	require.Error(t, err)
	cache.AssertNotCalled(t, "SetRooms", mock.Anything, mock.Anything)
}

func TestCachedCreateRoomInvalidates(t *testing.T) {
	next := new(mocks.RoomRepositoryMock)
	cache := new(mocks.RoomCacheMock)
	repo := repositories.NewCachedRoomRepo(next, cache)

	name := "general"
	next.On("CreateRoom", mock.Anything, &name, "", (*string)(nil)).Return(models.ChatRoom{ID: "r1", Name: name}, nil).Once()
	cache.On("Invalidate", mock.Anything).Return(nil).Once()

	room, err := repo.CreateRoom(context.Background(), &name, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "r1", room.ID)
	cache.AssertExpectations(t)
}

func TestCachedCreateRoomFailureKeepsCache(t *testing.T) {
	next := new(mocks.RoomRepositoryMock)
	cache := new(mocks.RoomCacheMock)
	repo := repositories.NewCachedRoomRepo(next, cache)

	next.On("CreateRoom", mock.Anything, mock.Anything, "", mock.Anything).Return(nil, errors.New("duplicate")).Once()

	_, err := repo.CreateRoom(context.Background(), nil, "", nil)
	require.Error(t, err)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything)
}
