package server

import (
	"github.com/utmgdsc/PlogGo/internal/auth"
	"github.com/utmgdsc/PlogGo/internal/badge"
	"github.com/utmgdsc/PlogGo/internal/config"
	"github.com/utmgdsc/PlogGo/internal/db"
	"github.com/utmgdsc/PlogGo/internal/history"
	"github.com/utmgdsc/PlogGo/internal/litter"
	"github.com/utmgdsc/PlogGo/internal/stream"
	"github.com/utmgdsc/PlogGo/internal/tracking"
	"github.com/utmgdsc/PlogGo/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       db.Querier
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Service
}

func NewServer(cfg config.Config, q db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	badgeSvc := badge.NewService(q)
	trackingSvc := tracking.NewService(tracking.NewGateway(q), hub, badgeSvc, cfg.InactivityTimeout)

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       q,
		Redis:    redisClient,
		Stream:   hub,
		Tracking: trackingSvc,
	}

	registerRoutes(s, badgeSvc)
	return s
}

func registerRoutes(s *Server, badgeSvc *badge.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	user.RegisterRoutes(s.App.Group("/user"), user.NewService(s.DB), jwtMiddleware)
	badge.RegisterRoutes(s.App.Group("/badges"), badgeSvc, jwtMiddleware)
	litter.RegisterRoutes(s.App.Group("/litter"), litter.NewService(s.DB), jwtMiddleware)
	history.RegisterRoutes(s.App.Group("/sessions"), history.NewService(s.DB), s.Tracking, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, authSvc.ValidateAccessToken)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
