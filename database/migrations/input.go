package migrations

import (
	"reachable.link/configs/configslog"
	"reachable.link/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func MigrateInputsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating inputs table...")
	err := db.AutoMigrate(&models.Input{})
	if err != nil {
		configslog.Log.Error("Failed to migrate inputs table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Inputs table migrated successfully")
	return nil
}
