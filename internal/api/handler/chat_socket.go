package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/supportplatform/marketplace-api/internal/core/ports"
	"github.com/supportplatform/marketplace-api/internal/infrastructure/realtime"
)

// RoomHub registers local connections for the frames of a room.
type RoomHub interface {
	Register(roomID string) *realtime.Client
	Unregister(c *realtime.Client)
}

// ChatSocketHandler upgrades participants of a room to a websocket. Inbound
// frames go to the relay; outbound frames come from the hub.
type ChatSocketHandler struct {
	chats ports.ChatService
	relay ports.ChatRelay
	hub   RoomHub
	log   zerolog.Logger
}

func NewChatSocketHandler(chats ports.ChatService, relay ports.ChatRelay, hub RoomHub, log zerolog.Logger) *ChatSocketHandler {
	return &ChatSocketHandler{chats: chats, relay: relay, hub: hub, log: log}
}

// Serve handles GET /api/chat/ws/:room_id.
//
// @Summary      Live chat socket
// @Description  Send {"type":"message","content":"..."} or {"type":"typing","is_typing":true}. Frames of the room are pushed back in the same shape.
// @Tags         chat
// @Security     BearerAuth
// @Param        room_id  path   string  true   "Room id"
// @Param        token    query  string  false  "Bearer token for clients that cannot set headers"
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /api/chat/ws/{room_id} [get]
func (h *ChatSocketHandler) Serve(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	roomID := c.Param("room_id")
	if _, err := h.chats.GetRoom(c.Request().Context(), actor, roomID); err != nil {
		return err
	}

	log := h.log.With().Str("room_id", roomID).Str("user_id", actor.ID).Logger()

	// Server without a Handshake accepts any Origin; the bearer token is the
	// credential.
	srv := websocket.Server{Handler: func(ws *websocket.Conn) {
		client := h.hub.Register(roomID)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for frame := range client.Frames() {
				if err := websocket.JSON.Send(ws, frame); err != nil {
					return
				}
			}
		}()

		for {
			var frame ports.ChatFrame
			if err := websocket.JSON.Receive(ws, &frame); err != nil {
				break
			}
			frame.RoomID = roomID
			if err := h.relay.Enqueue(ports.ChatEvent{RoomID: roomID, Sender: actor, Frame: frame}); err != nil {
				log.Warn().Err(err).Msg("chat frame rejected")
			}
		}

		_ = ws.Close()
		h.hub.Unregister(client)
		<-writerDone
		log.Debug().Msg("chat socket closed")
	}}
	srv.ServeHTTP(c.Response(), c.Request())
	return nil
}
