// Package handlers contains the HTTP route handlers for the scorecard API.
// Each exported function follows the "handler factory" pattern: it takes its dependencies
// and returns a fiber.Handler, so nothing is read from global variables.
package handlers

import "github.com/gofiber/fiber/v2"

// Health handles GET /health.
// It stays lightweight (no store round trip) so probes and load balancers can call it
// freely. "synced" reports whether the first snapshot from the store has arrived.
func Health(src SnapshotSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := src.Snapshot()
		return c.JSON(fiber.Map{
			"status":      "ok",
			"synced":      src.Ready(),
			"tournaments": len(snap),
		})
	}
}
