package handlers

import (
	"bursary-portal/internal/adapters/http/middleware"
	"bursary-portal/internal/core/services"
	"bursary-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// SetActiveRequest represents set active request body
type SetActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

// ListUsers handles listing all users (superadmin only)
// @Summary List all users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Users retrieved successfully", users)
}

// CreateUser handles account creation (superadmin only)
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateUserInput true "User"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.CreateUser(c.UserContext(), middleware.CurrentActor(c), &req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Created(c, "User created successfully", user)
}

// SetActive handles enabling or disabling an account (superadmin only)
// @Summary Set user active flag
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body SetActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/active [put]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.IsActive == nil {
		return response.BadRequest(c, "isActive is required")
	}

	user, err := h.userService.SetActive(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), *req.IsActive)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "User updated successfully", user)
}
