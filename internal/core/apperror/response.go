package apperror

import (
	"checkout-engine/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Message is the user-readable error description.
	Message string `json:"message"`
	// Code is the machine-readable error class.
	Code Code `json:"code"`
	// Details holds field level validation messages or gateway reasons.
	Details any `json:"details,omitempty"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
}

// RayID returns the request id assigned by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	rayID, ok := c.Locals("requestid").(string)
	if !ok || rayID == "" {
		return "unknown"
	}
	return rayID
}

// Write logs err and renders its public form.
func Write(c *fiber.Ctx, err error) error {
	status, code, msg, details := Public(err)
	rayID := RayID(c)

	fields := []zap.Field{
		zap.String("ray_id", rayID),
		zap.String("path", c.Path()),
		zap.String("code", string(code)),
		zap.Error(err),
	}
	if status >= fiber.StatusInternalServerError {
		logger.Get().Error("Request failed", fields...)
	} else {
		logger.Get().Warn("Request rejected", fields...)
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: msg,
		Code:    code,
		Details: details,
		RayID:   rayID,
	})
}
