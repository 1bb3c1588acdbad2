package database

import (
	"reachable.link/configs/configslog"
	"reachable.link/database/migrations"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Initialize migrasyonları tek bir transaction içinde çalıştırır.
// Yarım kalmış bir şema bırakmamak için hata veya panic durumunda
// işlem geri alınır.
func Initialize(db *gorm.DB, migrate bool) {
	if !migrate {
		configslog.SLog.Info("Migrate bayrağı belirtilmedi, işlem yapılmayacak.")
		return
	}

	tx := db.Begin()
	if tx.Error != nil {
		configslog.Log.Fatal("Veritabanı transaction başlatılamadı", zap.Error(tx.Error))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			configslog.Log.Fatal("Veritabanı başlatma işlemi başarısız oldu (panic)", zap.Any("panic_info", r))
		} else if err := tx.Error; err != nil && err != gorm.ErrInvalidTransaction {
			configslog.SLog.Warn("Başlatma sırasında hata oluştuğu için işlem geri alınıyor.", zap.Error(err))
			rbErr := tx.Rollback().Error
			if rbErr != nil && rbErr != gorm.ErrInvalidTransaction {
				configslog.Log.Error("Rollback sırasında ek hata oluştu", zap.Error(rbErr))
			}
		}
	}()

	configslog.SLog.Info("Veritabanı başlatma işlemi başlıyor...")

	configslog.SLog.Info("Migrasyonlar çalıştırılıyor...")
	if err := RunMigrationsInOrder(tx); err != nil {
		configslog.Log.Error("Migrasyon başarısız oldu", zap.Error(err))
		return
	}
	configslog.SLog.Info("Migrasyonlar tamamlandı.")

	configslog.SLog.Info("İşlem commit ediliyor...")
	if err := tx.Commit().Error; err != nil {
		tx.Error = err
		configslog.Log.Error("Commit başarısız oldu", zap.Error(err))
		return
	}

	configslog.SLog.Info("Veritabanı başlatma işlemi başarıyla tamamlandı")
}

// RunMigrationsInOrder tabloları bağımlılık sırasına göre migrate eder:
// users -> forms -> inputs -> links.
func RunMigrationsInOrder(db *gorm.DB) error {
	configslog.SLog.Info("Migrasyonlar sırayla çalıştırılıyor...")

	configslog.SLog.Info(" -> User migrasyonları çalıştırılıyor...")
	if err := migrations.MigrateUsersTable(db); err != nil {
		configslog.Log.Error("Users tablosu migrasyonu başarısız oldu", zap.Error(err))
		return err
	}
	configslog.SLog.Info(" -> User migrasyonları tamamlandı.")

	configslog.SLog.Info(" -> Form migrasyonları çalıştırılıyor...")
	if err := migrations.MigrateFormsTable(db); err != nil {
		configslog.Log.Error("Forms tablosu migrasyonu başarısız oldu", zap.Error(err))
		return err
	}
	configslog.SLog.Info(" -> Form migrasyonları tamamlandı.")

	configslog.SLog.Info(" -> Input migrasyonları çalıştırılıyor...")
	if err := migrations.MigrateInputsTable(db); err != nil {
		configslog.Log.Error("Inputs tablosu migrasyonu başarısız oldu", zap.Error(err))
		return err
	}
	configslog.SLog.Info(" -> Input migrasyonları tamamlandı.")

	configslog.SLog.Info(" -> Link migrasyonları çalıştırılıyor...")
	if err := migrations.MigrateLinksTable(db); err != nil {
		configslog.Log.Error("Links tablosu migrasyonu başarısız oldu", zap.Error(err))
		return err
	}
	configslog.SLog.Info(" -> Link migrasyonları tamamlandı.")

	configslog.SLog.Info("Tüm migrasyonlar başarıyla çalıştırıldı.")
	return nil
}
