package chat

import (
	"context"
	"fmt"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

type Service struct {
	repo repository.ChatRepository
}

func NewService(repo repository.ChatRepository) *Service {
	return &Service{repo: repo}
}

// CreateRoom creates a chat room; the creator is always a participant.
func (s *Service) CreateRoom(ctx context.Context, creatorID int64, req *model.CreateChatRoomRequest) (*model.ChatRoom, error) {
	participants := req.ParticipantIDs
	found := false
	for _, id := range participants {
		if id == creatorID {
			found = true
			break
		}
	}
	if !found {
		participants = append(participants, creatorID)
	}

	room := &model.ChatRoom{
		Name:      req.Name,
		CreatedBy: creatorID,
	}
	if err := s.repo.CreateRoom(ctx, room, participants); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context, userID int64) ([]*model.ChatRoom, error) {
	rooms, err := s.repo.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *Service) SendMessage(ctx context.Context, chatID, senderID int64, content string) (*model.ChatMessage, error) {
	if err := s.requireParticipant(ctx, chatID, senderID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, chatID, userID int64) ([]*model.ChatMessage, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *Service) requireParticipant(ctx context.Context, chatID, userID int64) error {
	ok, err := s.repo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to check participant: %w", err)
	}
	if !ok {
		return apperrors.Forbidden("not a participant of this chat room")
	}
	return nil
}
