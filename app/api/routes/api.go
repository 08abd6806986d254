package routes

import (
	"videoadguard/app/api/controller"

	"github.com/gofiber/fiber/v2"
)

func ApiRoutes(app *fiber.App, server *controller.Server) {
	group := app.Group("/api")

	group.Get("/healthz", server.Health)
	group.Get("/status", server.Status)

	group.Get("/settings", server.GetSettings)
	group.Put("/settings", server.UpdateSettings)

	group.Get("/whitelist", server.ListWhitelist)
	group.Post("/whitelist", server.AddWhitelist)
	group.Delete("/whitelist/:uid", server.RemoveWhitelist)
}
