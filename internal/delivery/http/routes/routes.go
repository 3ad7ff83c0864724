package routes

import (
	"wesee/internal/delivery/http/handler"
	"wesee/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health  *handler.HealthHandler
	Scrape  *handler.ScrapeHandler
	CV      *handler.CVHandler
	Profile *handler.ProfileHandler
	Admin   *handler.AdminHandler
	Auth    *middleware.AuthMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil || r == nil {
		return
	}

	r.registerPublic(app)
	r.registerAdmin(app)
}

func (r *Registry) registerPublic(app *fiber.App) {
	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
	if r.Scrape != nil {
		r.Scrape.RegisterRoutes(app)
	}
	if r.CV != nil {
		r.CV.RegisterRoutes(app)
	}
	if r.Profile != nil {
		r.Profile.RegisterRoutes(app)
	}
}

func (r *Registry) registerAdmin(app *fiber.App) {
	if r.Admin == nil || r.Auth == nil {
		return
	}

	admin := app.Group("/admin", r.Auth.Middleware())
	r.Admin.RegisterRoutes(admin)
}
