package history

import (
	"errors"

	"github.com/utmgdsc/PlogGo/internal/tracking"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes session history plus a REST fallback for closing a
// session when the realtime channel is gone. The fallback runs through the
// same finalize path the websocket finish and the sweeper use.
func RegisterRoutes(r fiber.Router, svc *Service, trk *tracking.Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		sessions, err := svc.Sessions(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"sessions": sessions})
	})

	r.Get("/active", authMiddleware, func(c *fiber.Ctx) error {
		sessions, err := svc.ActiveSessions(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"sessions": sessions})
	})

	r.Post("/:sessionID/end", authMiddleware, func(c *fiber.Ctx) error {
		var metrics tracking.Metrics
		_ = c.BodyParser(&metrics)

		summary, err := trk.FinishTracking(c.Context(), c.Locals("user_id").(string), c.Params("sessionID"), metrics)
		if errors.Is(err, tracking.ErrAlreadyClosed) {
			return c.JSON(fiber.Map{"message": "session already closed"})
		}
		if errors.Is(err, tracking.ErrInvalidSession) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(summary)
	})
}
