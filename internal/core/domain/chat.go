package domain

import "time"

const (
	ChatFileImage    = "image"
	ChatFileDocument = "document"
)

// ChatMessage is an entry in a direct chat room.
type ChatMessage struct {
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	SenderName string    `json:"sender_name" bson:"sender_name"`
	Content    string    `json:"content" bson:"content"`
	FileURL    string    `json:"file_url,omitempty" bson:"file_url,omitempty"`
	FileType   string    `json:"file_type,omitempty" bson:"file_type,omitempty"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// ChatRoom is a direct channel between exactly two users. PairKey is the
// order-independent identity of the pair and is unique across rooms.
type ChatRoom struct {
	ID           string        `json:"id" bson:"_id"`
	PairKey      string        `json:"-" bson:"pair_key"`
	Participants []string      `json:"participants" bson:"participants"`
	ServiceType  ServiceKind   `json:"service_type" bson:"service_type"`
	ServiceID    string        `json:"service_id,omitempty" bson:"service_id,omitempty"`
	Messages     []ChatMessage `json:"messages" bson:"messages"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// PairKey returns the canonical key for the unordered pair (a, b).
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
