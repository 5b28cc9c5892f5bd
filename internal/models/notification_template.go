package models

import (
	"time"
)

// Template codes dispatched by the scheduler.
const (
	TemplateTradeSettled      = "TRADE_SETTLED"
	TemplateTradeExpired      = "TRADE_EXPIRED"
	TemplateTradeExpiringSoon = "TRADE_EXPIRING_SOON"
)

type NotificationTemplate struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Code      string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title     string `gorm:"type:varchar(120);not null"`
	Body      string `gorm:"type:text;not null"`
	TargetURL string `gorm:"column:target_url;type:text;not null"`
	IsActive  bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (NotificationTemplate) TableName() string {
	return "notification_templates"
}
