package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/api/metrics"
	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// RequestHandler exposes one marketplace's lifecycle: repair requests or
// academic questions. Both share the routes and differ only in their JSON
// contract.
type RequestHandler struct {
	service ports.RequestService
	codec   requestCodec
}

func NewRepairHandler(service ports.RequestService) *RequestHandler {
	return &RequestHandler{service: service, codec: repairCodec}
}

func NewAcademicHandler(service ports.RequestService) *RequestHandler {
	return &RequestHandler{service: service, codec: academicCodec}
}

func (h *RequestHandler) domainLabel() string {
	return string(h.service.Domain().Kind)
}

func (h *RequestHandler) transitioned(status domain.RequestStatus) {
	metrics.RequestTransitionsTotal.WithLabelValues(h.domainLabel(), string(status)).Inc()
}

func (h *RequestHandler) renderList(c echo.Context, reqs []*domain.ServiceRequest) error {
	out := make([]any, len(reqs))
	for i, r := range reqs {
		out[i] = h.codec.request(r)
	}
	return c.JSON(http.StatusOK, out)
}

// List handles GET /requests (repair) and GET /questions (academic).
//
// @Summary      List visible requests
// @Description  Requesters see their own requests. Experts see their assignments plus unassigned pending requests.
// @Tags         repair, academic
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   repairRequestResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/repair/requests [get]
// @Router       /api/academic/questions [get]
func (h *RequestHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	reqs, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return h.renderList(c, reqs)
}

// Create handles POST /requests and POST /questions. Replaying an
// Idempotency-Key returns the original request with 200.
//
// @Summary      Create a request
// @Tags         repair, academic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string               false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createRepairRequest  true   "Request details"
// @Success      201              {object}  repairRequestResponse
// @Success      200              {object}  repairRequestResponse
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Router       /api/repair/requests [post]
// @Router       /api/academic/questions [post]
func (h *RequestHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	input, err := h.codec.decodeCreate(c)
	if err != nil {
		return err
	}
	input.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")

	result, err := h.service.Create(c.Request().Context(), actor, input)
	if err != nil {
		return err
	}
	if result.AlreadyExisted {
		return c.JSON(http.StatusOK, h.codec.request(result.Request))
	}
	metrics.RequestsCreatedTotal.WithLabelValues(h.domainLabel()).Inc()
	return c.JSON(http.StatusCreated, h.codec.request(result.Request))
}

// Get handles GET /requests/:id and GET /questions/:id.
//
// @Summary      Get a request
// @Tags         repair, academic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  repairRequestResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/repair/requests/{id} [get]
// @Router       /api/academic/questions/{id} [get]
func (h *RequestHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.codec.request(req))
}

// Update handles PUT /requests/:id and PUT /questions/:id. An expert
// updating an unassigned request claims it first; a status of in_progress
// or the terminal value starts or completes it.
//
// @Summary      Update a request
// @Tags         repair, academic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Request id"
// @Param        body  body      updateRepairRequest  true  "Fields to change"
// @Success      200   {object}  repairRequestResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/repair/requests/{id} [put]
// @Router       /api/academic/questions/{id} [put]
func (h *RequestHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	input, err := h.codec.decodeUpdate(c)
	if err != nil {
		return err
	}
	req, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), input)
	if err != nil {
		return err
	}
	if input.Status != nil {
		h.transitioned(req.Status)
	}
	return c.JSON(http.StatusOK, h.codec.request(req))
}

// Claim handles POST /requests/:id/claim.
//
// @Summary      Claim an unassigned request
// @Tags         repair, academic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  repairRequestResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/repair/requests/{id}/claim [post]
// @Router       /api/academic/questions/{id}/claim [post]
func (h *RequestHandler) Claim(c echo.Context) error {
	return h.transition(c, h.service.Claim)
}

// Start handles POST /requests/:id/start.
//
// @Summary      Start work on an assigned request
// @Tags         repair, academic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  repairRequestResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/repair/requests/{id}/start [post]
// @Router       /api/academic/questions/{id}/start [post]
func (h *RequestHandler) Start(c echo.Context) error {
	return h.transition(c, h.service.Start)
}

// Complete handles POST /requests/:id/complete.
//
// @Summary      Complete an assigned request
// @Tags         repair, academic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  repairRequestResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/repair/requests/{id}/complete [post]
// @Router       /api/academic/questions/{id}/complete [post]
func (h *RequestHandler) Complete(c echo.Context) error {
	return h.transition(c, h.service.Complete)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)

func (h *RequestHandler) transition(c echo.Context, fn transitionFunc) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	req, err := fn(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	h.transitioned(req.Status)
	return c.JSON(http.StatusOK, h.codec.request(req))
}

// AddMessage handles POST /requests/:id/messages.
//
// @Summary      Post to a request thread
// @Tags         repair, academic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Request id"
// @Param        body  body      messageRequest  true  "Message"
// @Success      201   {object}  domain.Message
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/repair/requests/{id}/messages [post]
// @Router       /api/academic/questions/{id}/messages [post]
func (h *RequestHandler) AddMessage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req messageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.service.AppendMessage(c.Request().Context(), actor, c.Param("id"), ports.MessageInput{
		Body:     req.Message,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// Resolve handles POST /solutions (repair) and POST /answers (academic).
//
// @Summary      Submit a solution or answer
// @Tags         repair, academic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRepairSolutionRequest  true  "Resolution"
// @Success      201   {object}  repairSolutionResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/repair/solutions [post]
// @Router       /api/academic/answers [post]
func (h *RequestHandler) Resolve(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	input, err := h.codec.decodeResolve(c)
	if err != nil {
		return err
	}
	res, err := h.service.Resolve(c.Request().Context(), actor, input)
	if err != nil {
		return err
	}
	if res.Successful {
		h.transitioned(h.service.Domain().TerminalStatus)
	}
	return c.JSON(http.StatusCreated, h.codec.resolution(res))
}

// GetResolution handles GET /solutions/:id and GET /answers/:id, where id
// is the request the resolution belongs to.
//
// @Summary      Get the latest solution or answer of a request
// @Tags         repair, academic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  repairSolutionResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/repair/solutions/{id} [get]
// @Router       /api/academic/answers/{id} [get]
func (h *RequestHandler) GetResolution(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	res, err := h.service.GetResolution(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.codec.resolution(res))
}
