package models

import (
	"time"
)

type User struct {
	ID  string `gorm:"type:varchar(40);primaryKey"`
	Fid int64  `gorm:"not null;uniqueIndex"`

	Username    *string `gorm:"type:varchar(100);index"`
	DisplayName *string `gorm:"type:varchar(120)"`
	PfpURL      *string `gorm:"column:pfp_url;type:text"`

	PrimaryEthAddress *string `gorm:"type:varchar(64);index"`
	Status            string  `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`

	CurrentWinStreak int `gorm:"not null;default:0"`
	MaxWinStreak     int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

const UserStatusActive = "ACTIVE"
