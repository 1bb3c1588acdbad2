package routes

import (
	"reachable.link/configs"
	"reachable.link/handlers"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
)

// registerFormRoutes form oluşturma, yanıt gönderme ve public capability
// link rotalarını tanımlar.
func registerFormRoutes(app *fiber.App, formService services.IFormService, cfg *configs.Config) {
	formHandler := handlers.NewFormHandler(formService)
	linkHandler := handlers.NewLinkHandler(formService, cfg)

	forms := app.Group("/forms")
	forms.Post("/", formHandler.CreateForm)
	forms.Post("/response", formHandler.SubmitResponse)

	// Capability link rotaları: anahtarın kendisi yetkidir.
	forms.Get("/link/:key", linkHandler.ResolveLink)
	forms.Get("/confirm/:key", linkHandler.ConfirmLink)
	forms.Get("/disable/:key", linkHandler.DisableLink)
}
