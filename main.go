package main

import (
	"os"
	"os/signal"
	"syscall"

	"reachable.link/configs"
	"reachable.link/configs/configsdatabase"
	"reachable.link/configs/configslog"
	"reachable.link/pkg/mailtemplate"
	"reachable.link/routes"
	"reachable.link/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
)

// Mail şablonu Fiber view dizininin DIŞINDA durur; view engine'in
// html/template parser'ı {{anahtar}} yer tutucularını anlayamaz.
const mailTemplatePath = "./templates/mail/transactional.html"

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	cfg, err := configs.LoadConfig()
	if err != nil {
		configslog.Log.Fatal("Konfigürasyon yüklenemedi", zap.Error(err))
	}

	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()
	db := configsdatabase.GetDB()

	// Mail şablonu başlangıçta bir kez okunur; ilk kullanımda dosya
	// okuyan gizli bir yükleme yoktur.
	template, err := mailtemplate.Load(mailTemplatePath)
	if err != nil {
		configslog.Log.Fatal("Mail şablonu yüklenemedi", zap.Error(err))
	}
	mailer := services.NewSMTPMailer(cfg, template)

	engine := html.New("./views", ".html")
	app := fiber.New(fiber.Config{
		AppName: "reachable.link",
		Views:   engine,
	})

	routes.SetupRoutes(app, db, cfg, mailer)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		configslog.SLog.Info("Kapatma sinyali alındı, sunucu durduruluyor...")
		if err := app.Shutdown(); err != nil {
			configslog.Log.Error("Sunucu kapatılırken hata oluştu", zap.Error(err))
		}
	}()

	configslog.SLog.Infof("Sunucu %s portunda dinliyor...", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		configslog.Log.Fatal("Sunucu başlatılamadı", zap.Error(err))
	}
}
