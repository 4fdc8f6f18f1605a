package handlers

import (
	"context"
	"errors"

	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP responses
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var precondition *domain.PreconditionFailedError
	switch {
	case errors.As(err, &precondition):
		return response.UnprocessableEntity(c, err.Error(), precondition.Field)
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrFundExhausted):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid username or password")
	case errors.Is(err, domain.ErrUserInactive):
		return response.Forbidden(c, "User account is inactive")
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return response.Conflict(c, "Username already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return response.Error(c, fiber.StatusGatewayTimeout, "Request timed out")
	}

	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return response.InternalServerError(c, "Internal server error")
}
