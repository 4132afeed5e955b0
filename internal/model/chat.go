package model

import (
	"time"
)

type ChatRoom struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy int64     `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ChatParticipant struct {
	ID     int64 `db:"id" json:"id"`
	ChatID int64 `db:"chat_id" json:"chat_id"`
	UserID int64 `db:"user_id" json:"user_id"`
}

type ChatMessage struct {
	ID       int64     `db:"id" json:"id"`
	ChatID   int64     `db:"chat_id" json:"chat_id"`
	SenderID int64     `db:"sender_id" json:"sender_id"`
	Content  string    `db:"content" json:"content"`
	SentAt   time.Time `db:"sent_at" json:"sent_at"`
}

type CreateChatRoomRequest struct {
	Name           string  `json:"name" binding:"required,max=120"`
	ParticipantIDs []int64 `json:"participant_ids" binding:"required,min=1"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
