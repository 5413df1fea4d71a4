package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/api/metrics"
	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrQueueFull is returned by Enqueue when the worker owning the room has no
// buffer left. The frame is dropped.
var ErrQueueFull = errors.New("chat relay queue full")

// Relay routes inbound chat frames to a fixed set of workers using
// consistent hashing on the room id, so frames of one room are persisted and
// published in the order they arrived.
type Relay struct {
	workers   []chan ports.ChatEvent
	chats     ports.ChatService
	publisher ports.ChatPublisher
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewRelay creates a Relay with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewRelay(numWorkers int, chats ports.ChatService, publisher ports.ChatPublisher, log zerolog.Logger) *Relay {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &Relay{
		workers:   make([]chan ports.ChatEvent, numWorkers),
		chats:     chats,
		publisher: publisher,
		log:       log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan ports.ChatEvent, channelBuffer)
	}
	return r
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	for i, ch := range r.workers {
		r.wg.Add(1)
		go r.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (r *Relay) Wait() {
	r.wg.Wait()
}

// Enqueue hands an event to the worker responsible for its room without
// blocking.
func (r *Relay) Enqueue(event ports.ChatEvent) error {
	idx := r.shardIndex(event.RoomID)
	select {
	case r.workers[idx] <- event:
		metrics.ChatQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(r.workers[idx])))
		return nil
	default:
		metrics.ChatRelayErrorsTotal.WithLabelValues("queue_full").Inc()
		return ErrQueueFull
	}
}

// shardIndex maps a room id deterministically to a worker index.
func (r *Relay) shardIndex(roomID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	return int(h.Sum32() % uint32(len(r.workers)))
}

func (r *Relay) runWorker(ctx context.Context, id int, ch <-chan ports.ChatEvent) {
	defer r.wg.Done()
	depth := metrics.ChatQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			depth.Set(float64(len(ch)))
			r.handle(ctx, id, event)
		}
	}
}

func (r *Relay) handle(ctx context.Context, workerID int, event ports.ChatEvent) {
	log := r.log.With().
		Str("room_id", event.RoomID).
		Str("type", event.Frame.Type).
		Int("worker_id", workerID).
		Logger()

	var out ports.ChatFrame
	switch event.Frame.Type {
	case ports.FrameMessage:
		msg, err := r.chats.PostMessage(ctx, event.Sender, event.RoomID, ports.ChatMessageInput{
			Content:  event.Frame.Content,
			FileURL:  event.Frame.FileURL,
			FileType: event.Frame.FileType,
		})
		if err != nil {
			metrics.ChatRelayErrorsTotal.WithLabelValues("persist_failed").Inc()
			log.Error().Err(err).Str("sender_id", event.Sender.ID).Msg("chat message not persisted")
			return
		}
		out = messageFrame(event.RoomID, msg)
	case ports.FrameTyping:
		out = ports.ChatFrame{
			Type:     ports.FrameTyping,
			RoomID:   event.RoomID,
			UserID:   event.Sender.ID,
			IsTyping: event.Frame.IsTyping,
		}
	default:
		metrics.ChatRelayErrorsTotal.WithLabelValues("unknown_type").Inc()
		log.Warn().Msg("dropping chat frame of unknown type")
		return
	}

	if err := r.publisher.Publish(ctx, out); err != nil {
		metrics.ChatRelayErrorsTotal.WithLabelValues("publish_failed").Inc()
		log.Error().Err(err).Msg("chat frame not published")
		return
	}
	metrics.ChatMessagesTotal.WithLabelValues(out.Type).Inc()
}

func messageFrame(roomID string, msg *domain.ChatMessage) ports.ChatFrame {
	return ports.ChatFrame{
		Type:       ports.FrameMessage,
		RoomID:     roomID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		FileURL:    msg.FileURL,
		FileType:   msg.FileType,
		Timestamp:  msg.Timestamp,
	}
}
