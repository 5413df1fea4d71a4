package ports

import (
	"context"
	"time"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// ChatRepository persists direct chat rooms.
type ChatRepository interface {
	// CreateOrGet inserts room unless a room with the same pair key exists,
	// in which case the stored room is returned with created=false.
	CreateOrGet(ctx context.Context, room *domain.ChatRoom) (stored *domain.ChatRoom, created bool, err error)
	FindByID(ctx context.Context, id string) (*domain.ChatRoom, error)
	ListByParticipant(ctx context.Context, userID string) ([]*domain.ChatRoom, error)
	AppendMessage(ctx context.Context, roomID string, msg domain.ChatMessage) error
}

type CreateRoomInput struct {
	OtherUserID string
	ServiceType domain.ServiceKind
	ServiceID   string
}

type ChatMessageInput struct {
	Content  string
	FileURL  string
	FileType string
}

// ChatService manages rooms and their message logs.
type ChatService interface {
	CreateRoom(ctx context.Context, actor domain.Actor, input CreateRoomInput) (*domain.ChatRoom, bool, error)
	ListRooms(ctx context.Context, actor domain.Actor) ([]*domain.ChatRoom, error)
	GetRoom(ctx context.Context, actor domain.Actor, roomID string) (*domain.ChatRoom, error)
	PostMessage(ctx context.Context, actor domain.Actor, roomID string, input ChatMessageInput) (*domain.ChatMessage, error)
}

const (
	FrameMessage = "message"
	FrameTyping  = "typing"
)

// ChatFrame is the JSON frame exchanged with websocket clients and carried
// over the pub/sub channel of a room.
type ChatFrame struct {
	Type       string    `json:"type"`
	RoomID     string    `json:"room_id,omitempty"`
	SenderID   string    `json:"sender_id,omitempty"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content,omitempty"`
	FileURL    string    `json:"file_url,omitempty"`
	FileType   string    `json:"file_type,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	IsTyping   bool      `json:"is_typing,omitempty"`
}

// ChatEvent is an inbound frame from an authenticated socket, queued for
// the relay.
type ChatEvent struct {
	RoomID string
	Sender domain.Actor
	Frame  ChatFrame
}

// ChatPublisher fans frames out to every instance subscribed to a room.
type ChatPublisher interface {
	Publish(ctx context.Context, frame ChatFrame) error
}

// ChatRelay accepts inbound events for asynchronous processing.
type ChatRelay interface {
	Enqueue(event ChatEvent) error
}
