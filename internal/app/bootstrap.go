package app

import (
	"fmt"
	"strings"

	"wesee/internal/delivery/http/handler"
	"wesee/internal/delivery/http/middleware"
	"wesee/internal/delivery/http/routes"
	"wesee/internal/logger"
	"wesee/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

// New builds the HTTP application over c.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f)

	tasks := c.TaskRepositories()
	dispatch := usecase.NewTaskDispatcher(c.DB, c.Outbox, c.ProfileCodec, c.Config.RabbitMQ.Exchange, logger.Named("dispatch"), tasks...)
	status := usecase.NewTaskStatus(tasks...)

	reg := routes.Registry{
		Health: handler.NewHealthHandler(
			map[string]handler.Check{"database": c.DB.Ping},
			map[string]handler.Check{"redis": c.Redis.Ping},
		),
		Scrape:  handler.NewScrapeHandler(dispatch, status),
		CV:      handler.NewCVHandler(dispatch, status),
		Profile: handler.NewProfileHandler(c.ProfileCodec),
		Admin:   handler.NewAdminHandler(c.Credentials, c.ProfileCodec, logger.Named("admin")),
		Auth:    middleware.NewAuthMiddleware(c.JWT),
	}
	reg.Register(f)

	return &App{Fiber: f}
}

func registerGlobalMiddleware(app *fiber.App) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger.Named("http")).Middleware())
	app.Use(middleware.NewErrorMiddleware().Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
