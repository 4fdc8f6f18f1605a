package middleware

import (
	"errors"
	"strings"

	"bursary-portal/internal/config"
	"bursary-portal/internal/core/domain"
	"bursary-portal/internal/pkg/jwt"
	"bursary-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		role, ok := domain.ParseRole(claims.Role)
		if !ok {
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", role)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(domain.Role)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// StudentOnly allows only students
func StudentOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleStudent)
}

// StaffOnly allows every officer role and the superadmin
func StaffOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleARO, domain.RoleFAO, domain.RoleFDO, domain.RoleSuperadmin)
}

// SuperadminOnly allows only the superadmin
func SuperadminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleSuperadmin)
}

// CurrentActor returns the authenticated caller set by AuthMiddleware
func CurrentActor(c *fiber.Ctx) domain.Actor {
	id, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(domain.Role)
	return domain.Actor{ID: id, Role: role}
}
