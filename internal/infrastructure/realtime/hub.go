// Package realtime delivers chat frames to the websocket connections held by
// this instance.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

const clientBuffer = 64

// Subscriber streams frames published by any instance.
type Subscriber interface {
	Listen(ctx context.Context, fn func(ports.ChatFrame)) error
}

// Client is one local connection subscribed to a room.
type Client struct {
	ID     string
	RoomID string

	frames chan ports.ChatFrame
	closed bool
}

// Frames yields the frames for the client's room. The channel is closed when
// the client is unregistered or the hub stops.
func (c *Client) Frames() <-chan ports.ChatFrame { return c.frames }

// Hub tracks local connections per room and feeds them from a Subscriber.
type Hub struct {
	sub Subscriber
	log zerolog.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]*Client
}

func NewHub(sub Subscriber, log zerolog.Logger) *Hub {
	return &Hub{
		sub:   sub,
		log:   log,
		rooms: make(map[string]map[string]*Client),
	}
}

// Run delivers frames until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.closeAll()
	return h.sub.Listen(ctx, h.deliver)
}

func (h *Hub) Register(roomID string) *Client {
	c := &Client{
		ID:     uuid.NewString(),
		RoomID: roomID,
		frames: make(chan ports.ChatFrame, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[roomID] = room
	}
	room[c.ID] = c
	return c
}

// Unregister removes c and closes its frame channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.frames)

	room := h.rooms[c.RoomID]
	delete(room, c.ID)
	if len(room) == 0 {
		delete(h.rooms, c.RoomID)
	}
}

// Connections returns the number of local clients in roomID.
func (h *Hub) Connections(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// deliver never blocks: a client whose buffer is full misses the frame.
func (h *Hub) deliver(frame ports.ChatFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[frame.RoomID] {
		select {
		case c.frames <- frame:
		default:
			h.log.Warn().Str("room_id", frame.RoomID).Str("client_id", c.ID).Msg("slow chat client, frame dropped")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, room := range h.rooms {
		for _, c := range room {
			if !c.closed {
				c.closed = true
				close(c.frames)
			}
		}
		delete(h.rooms, roomID)
	}
}
