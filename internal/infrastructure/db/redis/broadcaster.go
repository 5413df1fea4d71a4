package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// Channel format: chat:<room_id>
const chatChannelPrefix = "chat:"

// Broadcaster fans chat frames out through Redis pub/sub so that every API
// instance can deliver them to its own sockets.
type Broadcaster struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewBroadcaster(client *redis.Client, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{client: client, log: log}
}

// Publish sends frame to the channel of its room.
func (b *Broadcaster) Publish(ctx context.Context, frame ports.ChatFrame) error {
	if frame.RoomID == "" {
		return fmt.Errorf("publish chat frame: missing room id")
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode chat frame: %w", err)
	}
	if err := b.client.Publish(ctx, chatChannelPrefix+frame.RoomID, payload).Err(); err != nil {
		return fmt.Errorf("publish chat frame: %w", err)
	}
	return nil
}

// Listen subscribes to every room channel and calls fn for each frame until
// ctx is cancelled. Undecodable payloads are logged and skipped.
func (b *Broadcaster) Listen(ctx context.Context, fn func(ports.ChatFrame)) error {
	sub := b.client.PSubscribe(ctx, chatChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe chat channels: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var frame ports.ChatFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				b.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping undecodable chat frame")
				continue
			}
			if frame.RoomID == "" {
				frame.RoomID = strings.TrimPrefix(msg.Channel, chatChannelPrefix)
			}
			fn(frame)
		}
	}
}
