package routes

import (
	"reachable.link/configs"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// SetupRoutes tüm uygulama rotalarını ve genel middleware'leri ayarlar.
// Servisler burada bir kez kurulur ve handler'lara verilir.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *configs.Config, mailer services.IMailerService) {
	// --- Genel Middleware'ler ---
	app.Use(recoverMiddleware.New()) // Panic yakalama
	app.Use(logger.New())            // İstek loglama

	formService := services.NewFormService(db, cfg, mailer)
	authService := services.NewAuthService(db, cfg, mailer)

	// --- Rota Grupları ---
	registerFormRoutes(app, formService, cfg)
	registerAuthRoutes(app, authService)

	// --- 404 Handler ---
	// En sonda, eşleşmeyen tüm rotaları yakalar.
	app.Use(notFoundHandler)
}

// notFoundHandler content negotiation ile JSON ya da HTML 404 döner.
func notFoundHandler(c *fiber.Ctx) error {
	accepts := c.Accepts("application/json", "text/html")
	switch accepts {
	case "application/json":
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Kaynak bulunamadı"})
	default:
		return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{"Title": "Sayfa Bulunamadı"}, "layouts/error_layout")
	}
}
