package models

import "time"

// Message represents a chat message as stored by the persistence gateway.
type Message struct {
	ID        string        `db:"id" json:"id"`
	Content   string        `db:"content" json:"content"`
	UserID    string        `db:"user_id" json:"user_id"`
	RoomID    string        `db:"room_id" json:"room_id"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	Profiles  MessageAuthor `db:"profiles" json:"profiles"`
}

// MessageAuthor is the public part of the author's profile joined onto a message.
type MessageAuthor struct {
	Email string `db:"email" json:"email"`
}
