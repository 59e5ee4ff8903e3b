package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

// RoomRepository abstracts room persistence.
type RoomRepository interface {
	ListRooms(ctx context.Context) ([]models.ChatRoom, error)
	CreateRoom(ctx context.Context, name *string, description string, createdBy *string) (models.ChatRoom, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// ListRooms returns every room, newest first.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	rooms := []models.ChatRoom{}
	err := r.db.SelectContext(ctx, &rooms, `SELECT id, name, description, created_at, created_by FROM chat_rooms ORDER BY created_at DESC`)
	return rooms, err
}

// CreateRoom inserts a room. A nil name is passed through so the gateway's
// constraints decide whether it is acceptable.
func (r *RoomRepo) CreateRoom(ctx context.Context, name *string, description string, createdBy *string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_rooms (name, description, created_by) VALUES ($1, $2, $3) RETURNING id, name, description, created_at, created_by`, name, description, createdBy).
		StructScan(&room)
	return room, err
}
