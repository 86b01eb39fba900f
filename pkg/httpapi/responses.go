// Package httpapi carries the JSON response helpers shared by all handlers.
// The body shapes are part of the public API contract: successful mutations
// answer {"success": message}, failures answer {"errors": ...}.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func Success(c *fiber.Ctx, message string) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": message,
	})
}

func Data(c *fiber.Ctx, payload interface{}) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusOK).JSON(payload)
}

// InsufficientStock answers a business-rule rejection: the mutation had no
// partial effect.
func InsufficientStock(c *fiber.Ctx) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": "Insufficient stock",
	})
}

func NotFound(c *fiber.Ctx, message string) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"errors": message,
	})
}

// ValidationFailed answers field-level validation problems with a per-field
// message map.
func ValidationFailed(c *fiber.Ctx, fieldErrors map[string][]string) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"errors": fieldErrors,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": message,
	})
}

func InternalError(c *fiber.Ctx) error {
	ensureRequestID(c)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"errors": "Internal server error",
	})
}

func ensureRequestID(c *fiber.Ctx) {
	requestID := c.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	c.Set("X-Request-ID", requestID)
}
