package routes

import (
	"reachable.link/handlers"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
)

// registerAuthRoutes şifresiz oturum açma rotalarını tanımlar.
func registerAuthRoutes(app *fiber.App, authService services.IAuthService) {
	authHandler := handlers.NewAuthHandler(authService)

	auth := app.Group("/auth")
	auth.Post("/login", authHandler.RequestLogin)
	auth.Get("/login/:key", authHandler.ResolveLogin)
}
