package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserDailyStat is one user's aggregate over settled trades closed within a
// single UTC calendar day. Buckets are rebuilt in full on every sync that
// changed the user's trades; a day with no qualifying trades has no row.
type UserDailyStat struct {
	ID      uint64    `gorm:"primaryKey;autoIncrement"`
	UserID  string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_user_daily;index"`
	DateUTC time.Time `gorm:"column:date_utc;type:date;not null;uniqueIndex:idx_user_daily"`

	TotalPnl        decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalVolume     decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalTrades     int             `gorm:"not null;default:0"`
	WinCount        int             `gorm:"not null;default:0"`
	WinRate         decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	TotalRoiPercent decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UserDailyStat) TableName() string {
	return "user_daily_stats"
}
