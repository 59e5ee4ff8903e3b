package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-relay/internal/models"
)

// RoomsKey holds the JSON encoded room listing.
const RoomsKey = "rooms:all"

// RoomCache is a Redis-backed cache of the room listing.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache connects to Redis and verifies the connection.
func NewRoomCache(addr string, ttl time.Duration) (*RoomCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: redis connection failed: %w", err)
	}

	return NewRoomCacheWithClient(client, ttl), nil
}

// NewRoomCacheWithClient wraps an existing client.
func NewRoomCacheWithClient(client *redis.Client, ttl time.Duration) *RoomCache {
	return &RoomCache{client: client, ttl: ttl}
}

// GetRooms returns the cached listing. The bool is false on a miss.
func (c *RoomCache) GetRooms(ctx context.Context) ([]models.ChatRoom, bool, error) {
	data, err := c.client.Get(ctx, RoomsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rooms []models.ChatRoom
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, false, fmt.Errorf("cache: decode rooms: %w", err)
	}
	return rooms, true, nil
}

// SetRooms stores the listing with the configured TTL.
func (c *RoomCache) SetRooms(ctx context.Context, rooms []models.ChatRoom) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, RoomsKey, data, c.ttl).Err()
}

// Invalidate drops the cached listing.
func (c *RoomCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, RoomsKey).Err()
}

// Close closes the Redis connection.
func (c *RoomCache) Close() error {
	return c.client.Close()
}
