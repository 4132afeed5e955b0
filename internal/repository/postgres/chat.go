package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/medconnect/booking-api/internal/model"
)

func (r *chatRepository) CreateRoom(ctx context.Context, room *model.ChatRoom, participantIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	room.CreatedAt = time.Now()
	err = tx.QueryRowContext(ctx,
		`INSERT INTO chat_rooms (name, created_by, created_at) VALUES ($1, $2, $3) RETURNING id`,
		room.Name, room.CreatedBy, room.CreatedAt,
	).Scan(&room.ID)
	if err != nil {
		return fmt.Errorf("failed to create chat room: %w", err)
	}

	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)`,
			room.ID, userID,
		); err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat room: %w", err)
	}
	return nil
}

func (r *chatRepository) ListRoomsForUser(ctx context.Context, userID int64) ([]*model.ChatRoom, error) {
	query := `
		SELECT cr.id, cr.name, cr.created_by, cr.created_at
		FROM chat_rooms cr
		JOIN chat_participants cp ON cp.chat_id = cr.id
		WHERE cp.user_id = $1
		ORDER BY cr.created_at DESC
	`
	var rooms []*model.ChatRoom
	if err := r.db.SelectContext(ctx, &rooms, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	return rooms, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM chat_participants WHERE chat_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, chatID, userID); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return ok, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (chat_id, sender_id, content, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	msg.SentAt = time.Now()

	err := r.db.QueryRowContext(ctx, query, msg.ChatID, msg.SenderID, msg.Content, msg.SentAt).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID int64) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, chat_id, sender_id, content, sent_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY sent_at ASC
	`
	var messages []*model.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, chatID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
