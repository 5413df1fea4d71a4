package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ChatService manages direct chat rooms between two users.
type ChatService struct {
	rooms  ports.ChatRepository
	users  ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewChatService(rooms ports.ChatRepository, users ports.UserRepository, logger zerolog.Logger) *ChatService {
	return &ChatService{
		rooms:  rooms,
		users:  users,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateRoom returns the room for the caller and the other user, creating it
// on first contact. created is false when the pair already had a room.
func (s *ChatService) CreateRoom(ctx context.Context, actor domain.Actor, input ports.CreateRoomInput) (*domain.ChatRoom, bool, error) {
	other := strings.TrimSpace(input.OtherUserID)
	if other == "" {
		return nil, false, domain.Validation("participant_id is required")
	}
	if other == actor.ID {
		return nil, false, domain.Validation("cannot open a chat room with yourself")
	}
	kind := input.ServiceType
	if kind == "" {
		kind = domain.KindGeneral
	}
	if kind != domain.KindRepair && kind != domain.KindAcademic && kind != domain.KindGeneral {
		return nil, false, domain.Validation("service_type must be one of: repair, academic, general")
	}

	if _, err := s.users.FindByID(ctx, other); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.Validation("participant not found")
		}
		return nil, false, err
	}

	now := s.now()
	room := &domain.ChatRoom{
		ID:           uuid.NewString(),
		PairKey:      domain.PairKey(actor.ID, other),
		Participants: []string{actor.ID, other},
		ServiceType:  kind,
		ServiceID:    input.ServiceID,
		Messages:     []domain.ChatMessage{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stored, created, err := s.rooms.CreateOrGet(ctx, room)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info().Str("room_id", stored.ID).Str("pair", stored.PairKey).Msg("chat room created")
	}
	return stored, created, nil
}

func (s *ChatService) ListRooms(ctx context.Context, actor domain.Actor) ([]*domain.ChatRoom, error) {
	return s.rooms.ListByParticipant(ctx, actor.ID)
}

func (s *ChatService) GetRoom(ctx context.Context, actor domain.Actor, roomID string) (*domain.ChatRoom, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(actor.ID) {
		return nil, domain.Forbidden("you are not a participant in this chat room")
	}
	return room, nil
}

// PostMessage appends a participant's message to the room log.
func (s *ChatService) PostMessage(ctx context.Context, actor domain.Actor, roomID string, input ports.ChatMessageInput) (*domain.ChatMessage, error) {
	content := strings.TrimSpace(input.Content)
	fileURL := strings.TrimSpace(input.FileURL)
	if content == "" && fileURL == "" {
		return nil, domain.Validation("content is required")
	}
	if fileURL != "" && input.FileType != domain.ChatFileImage && input.FileType != domain.ChatFileDocument {
		return nil, domain.Validation("file_type must be image or document")
	}

	if _, err := s.GetRoom(ctx, actor, roomID); err != nil {
		return nil, err
	}

	msg := domain.ChatMessage{
		SenderID:   actor.ID,
		SenderName: actor.Name,
		Content:    content,
		FileURL:    fileURL,
		Timestamp:  s.now(),
	}
	if fileURL != "" {
		msg.FileType = input.FileType
	}
	if err := s.rooms.AppendMessage(ctx, roomID, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
