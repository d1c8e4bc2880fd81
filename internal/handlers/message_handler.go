package handlers

import (
	"strconv"

	"courier/internal/middleware"
	"courier/internal/models"
	"courier/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageHandler handles HTTP requests for messages.
type MessageHandler struct {
	service  *services.MessageService
	validate *validator.Validate
	log      *zap.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service *services.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the message routes. router must already require
// authentication.
func (h *MessageHandler) RegisterRoutes(router fiber.Router) {
	messageRoutes := router.Group("/message")
	messageRoutes.Post("/send", h.HandleSend)
	messageRoutes.Get("/sentmessages", h.HandleListOwnSent)
	messageRoutes.Get("/sentmessages/:username", h.HandleListSentByUsername)
	messageRoutes.Get("/receivedmessages", h.HandleListOwnReceived)
	messageRoutes.Get("/receivedmessages/:username", h.HandleListReceivedByUsername)
	messageRoutes.Get("/allmessages", h.HandleListCombined)
	messageRoutes.Post("/deletemessage/:id", h.HandleDelete)
	messageRoutes.Post("/updatemessage", h.HandleUpdate)
}

// HandleSend sends a message from the caller.
func (h *MessageHandler) HandleSend(c *fiber.Ctx) error {
	var req models.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	sent, err := h.service.Send(middleware.CurrentPrincipal(c), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message sent successfully",
		"id":      sent.ID,
	})
}

func (h *MessageHandler) HandleListOwnSent(c *fiber.Ctx) error {
	messages, err := h.service.ListOwnSent(middleware.CurrentPrincipal(c))
	return h.list(c, messages, err)
}

func (h *MessageHandler) HandleListSentByUsername(c *fiber.Ctx) error {
	messages, err := h.service.ListSentByUsername(middleware.CurrentPrincipal(c), c.Params("username"))
	return h.list(c, messages, err)
}

func (h *MessageHandler) HandleListOwnReceived(c *fiber.Ctx) error {
	messages, err := h.service.ListOwnReceived(middleware.CurrentPrincipal(c))
	return h.list(c, messages, err)
}

func (h *MessageHandler) HandleListReceivedByUsername(c *fiber.Ctx) error {
	messages, err := h.service.ListReceivedByUsername(middleware.CurrentPrincipal(c), c.Params("username"))
	return h.list(c, messages, err)
}

func (h *MessageHandler) HandleListCombined(c *fiber.Ctx) error {
	messages, err := h.service.ListCombined(middleware.CurrentPrincipal(c))
	return h.list(c, messages, err)
}

// HandleDelete deletes a message by the id in the path.
func (h *MessageHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid operation",
		})
	}
	if err := h.service.Delete(middleware.CurrentPrincipal(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return respondOK(c, "Message was deleted successfully")
}

// HandleUpdate replaces or inserts a message with a caller-chosen id.
func (h *MessageHandler) HandleUpdate(c *fiber.Ctx) error {
	var payload models.MessagePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request",
		})
	}
	if err := h.validate.Struct(payload); err != nil {
		return validationFailed(c, err)
	}
	if err := h.service.Update(middleware.CurrentPrincipal(c), payload); err != nil {
		return respondError(c, h.log, err)
	}
	return respondOK(c, "Message updated successfully")
}

func (h *MessageHandler) list(c *fiber.Ctx, messages []models.MessagePayload, err error) error {
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(messages)
}
