package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/robolink/services"
)

// RegisterStatusRoutes exposes the latest control loop snapshot.
func RegisterStatusRoutes(router fiber.Router, statusService services.StatusService) {
	router.Get("/status", func(c *fiber.Ctx) error {
		s := statusService.Get()
		return c.JSON(fiber.Map{
			"status": "success",
			"robot":  s,
			"age_ms": ageMillis(s.Timestamp),
		})
	})
}

func ageMillis(at time.Time) int64 {
	if at.IsZero() {
		return -1
	}
	return time.Since(at).Milliseconds()
}
