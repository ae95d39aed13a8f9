package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireJSON rejects write requests whose body isn't declared as JSON with
// 415 Unsupported Media Type. Requests without a body method (GET, DELETE, ...) pass.
//
//	api.Use(middleware.RequireJSON())
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		default:
			return c.Next()
		}

		// Content-Type may carry parameters: "application/json; charset=utf-8".
		ct := strings.ToLower(strings.TrimSpace(strings.SplitN(c.Get(fiber.HeaderContentType), ";", 2)[0]))
		if ct == fiber.MIMEApplicationJSON {
			return c.Next()
		}
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "request body must be application/json",
		})
	}
}
