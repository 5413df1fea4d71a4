package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

type ChatHandler struct {
	service ports.ChatService
}

func NewChatHandler(service ports.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type createRoomRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	ServiceType   string `json:"service_type"   validate:"omitempty,oneof=repair academic general"`
	ServiceID     string `json:"service_id"`
}

type chatMessageRequest struct {
	Content  string `json:"content"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type" validate:"omitempty,oneof=image document"`
}

// ListRooms handles GET /api/chat/rooms.
//
// @Summary      List own chat rooms
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.ChatRoom
// @Router       /api/chat/rooms [get]
func (h *ChatHandler) ListRooms(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	rooms, err := h.service.ListRooms(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rooms)
}

// CreateRoom handles POST /api/chat/rooms. Opening a room that already
// exists for the pair returns it with 200.
//
// @Summary      Open a direct chat room
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRoomRequest  true  "Other participant"
// @Success      201   {object}  domain.ChatRoom
// @Success      200   {object}  domain.ChatRoom
// @Failure      400   {object}  errorResponse
// @Router       /api/chat/rooms [post]
func (h *ChatHandler) CreateRoom(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createRoomRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	room, created, err := h.service.CreateRoom(c.Request().Context(), actor, ports.CreateRoomInput{
		OtherUserID: req.ParticipantID,
		ServiceType: domain.ServiceKind(req.ServiceType),
		ServiceID:   req.ServiceID,
	})
	if err != nil {
		return err
	}
	if created {
		return c.JSON(http.StatusCreated, room)
	}
	return c.JSON(http.StatusOK, room)
}

// GetRoom handles GET /api/chat/rooms/:id.
//
// @Summary      Get a chat room with its messages
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Room id"
// @Success      200  {object}  domain.ChatRoom
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/chat/rooms/{id} [get]
func (h *ChatHandler) GetRoom(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	room, err := h.service.GetRoom(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, room)
}

// PostMessage handles POST /api/chat/rooms/:id/messages, the non-socket way
// of appending to a room.
//
// @Summary      Post a chat message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Room id"
// @Param        body  body      chatMessageRequest  true  "Message"
// @Success      201   {object}  domain.ChatMessage
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/chat/rooms/{id}/messages [post]
func (h *ChatHandler) PostMessage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req chatMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.service.PostMessage(c.Request().Context(), actor, c.Param("id"), ports.ChatMessageInput{
		Content:  req.Content,
		FileURL:  req.FileURL,
		FileType: req.FileType,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}
