package main

import (
	"flag"

	"reachable.link/configs/configsdatabase"
	"reachable.link/configs/configslog"
	"reachable.link/database"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()
	migrateFlag := flag.Bool("migrate", false, "Veritabanı başlatma işlemini çalıştır (migrasyonları içerir)")
	flag.Parse()

	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()

	db := configsdatabase.GetDB()

	configslog.SLog.Info("Veritabanı başlatma işlemi çalıştırılıyor...")
	database.Initialize(db, *migrateFlag)

	configslog.SLog.Info("Veritabanı başlatma işlemi tamamlandı.")
}
