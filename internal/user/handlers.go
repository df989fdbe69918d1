package user

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/profile", authMiddleware, func(c *fiber.Ctx) error {
		profile, err := svc.Profile(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return c.JSON(profile)
	})

	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		var update ProfileUpdate
		if err := c.BodyParser(&update); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		profile, err := svc.UpdateProfile(c.Context(), c.Locals("user_id").(string), update)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(profile)
	})

	r.Get("/metrics", authMiddleware, func(c *fiber.Ctx) error {
		metrics, err := svc.Metrics(c.Context(), c.Locals("user_id").(string))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return c.JSON(metrics)
	})

	r.Get("/leaderboard", authMiddleware, func(c *fiber.Ctx) error {
		metric := c.Query("metric", "total_points")
		count, err := strconv.Atoi(c.Query("count", "10"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid count parameter")
		}
		leaderboard, err := svc.Leaderboard(c.Context(), metric, count)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"metric": metric, "leaderboard": leaderboard})
	})

	r.Get("/daily-challenge", func(c *fiber.Ctx) error {
		challenge, err := svc.DailyChallenge(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"challenge": challenge})
	})
}
