package handlers

import (
	"courier/internal/middleware"
	"courier/internal/models"
	"courier/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for users and roles.
type UserHandler struct {
	service *services.UserService
	log     *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// RegisterRoutes registers the user routes. router must already require
// authentication.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Get("/about/me", h.HandleGetSelf)
	userRoutes.Get("/rolelist", h.HandleListUsersWithRoles)
	userRoutes.Post("/addrole", h.HandleAddRole)
	userRoutes.Post("/deleterole", h.HandleRemoveRole)
}

func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	names, err := h.service.ListUsers(middleware.CurrentPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(names)
}

func (h *UserHandler) HandleGetSelf(c *fiber.Ctx) error {
	info, err := h.service.GetSelf(middleware.CurrentPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(info)
}

func (h *UserHandler) HandleListUsersWithRoles(c *fiber.Ctx) error {
	infos, err := h.service.ListUsersWithRoles(middleware.CurrentPrincipal(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(infos)
}

func (h *UserHandler) HandleAddRole(c *fiber.Ctx) error {
	err := h.service.AddRole(middleware.CurrentPrincipal(c), parseAssignment(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondOK(c, "Role added successfully")
}

func (h *UserHandler) HandleRemoveRole(c *fiber.Ctx) error {
	err := h.service.RemoveRole(middleware.CurrentPrincipal(c), parseAssignment(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondOK(c, "Role removed successfully")
}

// parseAssignment returns nil for a missing or unparsable body; the service
// reports that as a wrong body.
func parseAssignment(c *fiber.Ctx) *models.RoleAssignment {
	if len(c.Body()) == 0 {
		return nil
	}
	var req models.RoleAssignment
	if err := c.BodyParser(&req); err != nil {
		return nil
	}
	return &req
}
