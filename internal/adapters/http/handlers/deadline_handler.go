package handlers

import (
	"bursary-portal/internal/adapters/http/middleware"
	"bursary-portal/internal/core/services"
	"bursary-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DeadlineHandler handles submission window endpoints
type DeadlineHandler struct {
	deadlineService *services.DeadlineService
	log             *zap.Logger
}

// NewDeadlineHandler creates a new deadline handler
func NewDeadlineHandler(deadlineService *services.DeadlineService, log *zap.Logger) *DeadlineHandler {
	return &DeadlineHandler{deadlineService: deadlineService, log: log}
}

// List handles listing deadlines
// @Summary List deadlines
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/deadlines [get]
func (h *DeadlineHandler) List(c *fiber.Ctx) error {
	deadlines, err := h.deadlineService.ListDeadlines(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Deadlines retrieved successfully", deadlines)
}

// Set handles creating or replacing a deadline
// @Summary Set deadline
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SetDeadlineInput true "Deadline"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/deadlines [put]
func (h *DeadlineHandler) Set(c *fiber.Ctx) error {
	var req services.SetDeadlineInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	deadline, err := h.deadlineService.SetDeadline(c.UserContext(), middleware.CurrentActor(c), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Deadline saved successfully", deadline)
}
