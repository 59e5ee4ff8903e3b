package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
	CreateMessage(ctx context.Context, roomID string, userID string, content *string) (string, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// RecentMessages returns the newest limit messages of a room ordered oldest-first,
// each joined with its author's email.
func (r *MessageRepo) RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	query := `SELECT id, content, user_id, room_id, created_at, "profiles.email" FROM (
            SELECT m.id, m.content, m.user_id, m.room_id, m.created_at, COALESCE(p.email, '') AS "profiles.email"
            FROM messages m
            LEFT JOIN profiles p ON p.id = m.user_id
            WHERE m.room_id = $1
            ORDER BY m.created_at DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, roomID, limit)
	return msgs, err
}

// CreateMessage appends a message and returns its server-assigned id. A nil
// content is sent as NULL and rejected by the column constraint.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID string, userID string, content *string) (string, error) {
	var id string
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (content, user_id, room_id) VALUES ($1, $2, $3) RETURNING id`, content, userID, roomID).Scan(&id)
	return id, err
}

// GetMessage retrieves a single message joined with its author's email.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT m.id, m.content, m.user_id, m.room_id, m.created_at, COALESCE(p.email, '') AS "profiles.email"
        FROM messages m
        LEFT JOIN profiles p ON p.id = m.user_id
        WHERE m.id = $1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
