package handlers

import (
	"bursary-portal/internal/adapters/http/middleware"
	"bursary-portal/internal/core/services"
	"bursary-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FundHandler handles fund endpoints
type FundHandler struct {
	fundService *services.FundService
	log         *zap.Logger
}

// NewFundHandler creates a new fund handler
func NewFundHandler(fundService *services.FundService, log *zap.Logger) *FundHandler {
	return &FundHandler{fundService: fundService, log: log}
}

// List handles listing funds
// @Summary List funds
// @Tags Funds
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /funds [get]
func (h *FundHandler) List(c *fiber.Ctx) error {
	funds, err := h.fundService.ListFunds(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Funds retrieved successfully", funds)
}

// Get handles fetching one fund
// @Summary Get fund
// @Tags Funds
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fund ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /funds/{id} [get]
func (h *FundHandler) Get(c *fiber.Ctx) error {
	fund, err := h.fundService.GetFund(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Fund retrieved successfully", fund)
}

// Create handles fund creation
// @Summary Create fund
// @Tags Funds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateFundInput true "Fund"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /funds [post]
func (h *FundHandler) Create(c *fiber.Ctx) error {
	var req services.CreateFundInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	fund, err := h.fundService.CreateFund(c.UserContext(), middleware.CurrentActor(c), req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Created(c, "Fund created successfully", fund)
}

// Close handles closing a fund
// @Summary Close fund
// @Tags Funds
// @Produce json
// @Security BearerAuth
// @Param id path string true "Fund ID"
// @Success 200 {object} response.Response
// @Router /funds/{id}/close [put]
func (h *FundHandler) Close(c *fiber.Ctx) error {
	fund, err := h.fundService.CloseFund(c.UserContext(), middleware.CurrentActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return response.Success(c, "Fund closed successfully", fund)
}
