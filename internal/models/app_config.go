package models

import (
	"time"
)

// AppConfig is a dynamic key/value setting readable without a restart.
type AppConfig struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement"`
	Key         string  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Value       string  `gorm:"type:text;not null"`
	Description *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (AppConfig) TableName() string {
	return "configs"
}
