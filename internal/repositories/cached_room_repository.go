package repositories

import (
	"context"
	"log"

	"chat-relay/internal/models"
)

// RoomCache stores the full room listing.
type RoomCache interface {
	GetRooms(ctx context.Context) ([]models.ChatRoom, bool, error)
	SetRooms(ctx context.Context, rooms []models.ChatRoom) error
	Invalidate(ctx context.Context) error
}

// CachedRoomRepo serves ListRooms from a cache and invalidates it on create.
// Cache failures fall through to the wrapped repository.
type CachedRoomRepo struct {
	next  RoomRepository
	cache RoomCache
}

// NewCachedRoomRepo wraps next with cache.
func NewCachedRoomRepo(next RoomRepository, cache RoomCache) *CachedRoomRepo {
	return &CachedRoomRepo{next: next, cache: cache}
}

// ListRooms returns the cached listing when present.
func (r *CachedRoomRepo) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	rooms, ok, err := r.cache.GetRooms(ctx)
	if err != nil {
		log.Printf("room cache read failed: %v", err)
	}
	if ok {
		return rooms, nil
	}

	rooms, err = r.next.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetRooms(ctx, rooms); err != nil {
		log.Printf("room cache write failed: %v", err)
	}
	return rooms, nil
}

// CreateRoom inserts through the wrapped repository and drops the cached listing.
func (r *CachedRoomRepo) CreateRoom(ctx context.Context, name *string, description string, createdBy *string) (models.ChatRoom, error) {
	room, err := r.next.CreateRoom(ctx, name, description, createdBy)
	if err != nil {
		return room, err
	}
	if err := r.cache.Invalidate(ctx); err != nil {
		log.Printf("room cache invalidate failed: %v", err)
	}
	return room, nil
}
