package configs

import (
	"fmt"
	"os"
	"strings"

	"reachable.link/configs/configslog"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config uygulamanın çalışması için gereken tüm ortam ayarlarını taşır.
// Process başlangıcında bir kez yüklenir ve değişmez (immutable) olarak
// ihtiyacı olan bileşenlere referans ile geçilir; link URL builder'ları
// içinde dağınık os.Getenv çağrısı YOKTUR.
type Config struct {
	AppEnv string
	Port   string

	// ClientBaseURL insan yüzlü linkler (form görüntüleme, hata sayfaları) için.
	// APIBaseURL confirm/disable gibi API tarafında çözülen linkler için.
	ClientBaseURL string
	APIBaseURL    string

	DatabaseURL string

	MailHost string
	MailPort string
	MailUser string
	MailPass string
	MailFrom string
}

var appConfig *Config

// LoadConfig .env dosyasını (varsa) ve ortam değişkenlerini okuyarak
// global konfigürasyonu hazırlar. Zorunlu alanlar eksikse hata döner.
func LoadConfig() (*Config, error) {
	// .env bulunamazsa sorun değil; ortam değişkenleri yeterli olabilir.
	if err := godotenv.Load(); err != nil {
		configslog.SLog.Info(".env dosyası bulunamadı, ortam değişkenleri kullanılacak.")
	}

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "3000"),
		ClientBaseURL: normalizeBaseURL(os.Getenv("CLIENT_URL")),
		APIBaseURL:    normalizeBaseURL(os.Getenv("API_URL")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MailHost:      os.Getenv("MAIL_HOST"),
		MailPort:      getEnv("MAIL_PORT", "587"),
		MailUser:      os.Getenv("MAIL_USER"),
		MailPass:      os.Getenv("MAIL_PASS"),
		MailFrom:      getEnv("MAIL_FROM", "no-reply@reachable.link"),
	}

	// Link URL'leri bu iki adres olmadan üretilemez, başlangıçta kesiyoruz.
	if cfg.ClientBaseURL == "" {
		return nil, fmt.Errorf("zorunlu ortam değişkeni eksik: CLIENT_URL")
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("zorunlu ortam değişkeni eksik: API_URL")
	}

	appConfig = cfg
	configslog.Log.Info("Konfigürasyon yüklendi",
		zap.String("env", cfg.AppEnv),
		zap.String("client_url", cfg.ClientBaseURL),
		zap.String("api_url", cfg.APIBaseURL),
	)
	return cfg, nil
}

// GetConfig yüklenmiş konfigürasyonu döndürür. LoadConfig çağrılmadan
// kullanılması programlama hatasıdır.
func GetConfig() *Config {
	if appConfig == nil {
		panic("konfigürasyon yüklenmeden GetConfig çağrıldı")
	}
	return appConfig
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// normalizeBaseURL sondaki "/" karakterlerini atar; URL builder'lar
// path eklerken tek bir kurala güvenebilsin.
func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
