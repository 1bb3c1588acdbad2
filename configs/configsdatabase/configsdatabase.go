package configsdatabase

import (
	"fmt"
	"os"
	"time"

	"reachable.link/configs/configslog"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB PostgreSQL bağlantısını kurar ve bağlantı havuzunu ayarlar.
// DATABASE_URL verilmişse onu, yoksa DB_* parçalarını kullanır.
func InitDB() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_NAME", "reachable"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Duplicate key gibi sürücü hatalarını gorm.ErrDuplicatedKey'e çevirir;
		// link key retry döngüsü buna güvenir.
		TranslateError: true,
	})
	if err != nil {
		configslog.Log.Fatal("Veritabanı bağlantısı kurulamadı", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		configslog.Log.Fatal("sql.DB örneği alınamadı", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	db = gormDB
	configslog.SLog.Info("Veritabanı bağlantısı kuruldu.")
}

// GetDB aktif gorm bağlantısını döndürür.
func GetDB() *gorm.DB {
	if db == nil {
		panic("veritabanı bağlantısı kurulmadan GetDB çağrıldı")
	}
	return db
}

// CloseDB bağlantı havuzunu kapatır. Uygulama kapanırken çağrılmalı.
func CloseDB() {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		configslog.Log.Error("CloseDB: sql.DB örneği alınamadı", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		configslog.Log.Error("Veritabanı bağlantısı kapatılamadı", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
