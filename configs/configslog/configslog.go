package configslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log yapılandırılmış (structured) loglama için global zap logger.
// SLog ise printf tarzı kullanım için sugared versiyonu.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// InitLogger APP_ENV değerine göre logger'ı hazırlar.
// "production" için JSON formatlı, diğer ortamlar için okunabilir konsol çıktısı.
func InitLogger() {
	var cfg zap.Config
	if os.Getenv("APP_ENV") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		// Logger kurulamazsa devam etmenin anlamı yok.
		panic("logger başlatılamadı: " + err.Error())
	}

	Log = logger
	SLog = logger.Sugar()
}

// SyncLogger buffer'daki logları flush eder. Uygulama kapanırken çağrılmalı.
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
