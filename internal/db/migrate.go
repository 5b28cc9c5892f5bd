package db

import (
	"alphabit/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Trade{},
		&models.UserDailyStat{},
		&models.UserStat{},
		&models.AppConfig{},
		&models.NotificationTemplate{},
	)
}
