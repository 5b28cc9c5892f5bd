package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Leaderboard ranking windows.
const (
	Period24h = "24h"
	Period7d  = "7d"
	Period30d = "30d"
	PeriodAll = "all"
)

func Periods() []string {
	return []string{Period24h, Period7d, Period30d, PeriodAll}
}

// UserStat rolls daily buckets up into one ranking window for one user.
// Deleted when the window holds zero trades.
type UserStat struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"type:varchar(40);not null;uniqueIndex:idx_user_period;index"`
	Period string `gorm:"type:varchar(10);not null;uniqueIndex:idx_user_period;index"`

	TotalPnl        decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalVolume     decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalTrades     int             `gorm:"not null;default:0"`
	WinCount        int             `gorm:"not null;default:0"`
	WinRate         decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	TotalRoiPercent decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UserStat) TableName() string {
	return "user_stats"
}
