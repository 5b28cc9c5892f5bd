package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Trade lifecycle states. Status only moves forward: OPEN to SETTLED or
// OPEN to EXPIRED, never back.
const (
	TradeStatusOpen    = "OPEN"
	TradeStatusSettled = "SETTLED"
	TradeStatusExpired = "EXPIRED"
)

// Trade is the local record of one on-chain option position, keyed by the
// entry transaction hash. Raw chain amounts stay as strings in collateral
// token base units; derived analytics are normalized decimals and stay null
// until the trade settles.
type Trade struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"type:varchar(40);not null;index"`

	OptionAddress string `gorm:"type:varchar(64);not null;index"`
	TxHash        string `gorm:"type:varchar(80);not null;uniqueIndex"`
	Status        string `gorm:"type:varchar(20);not null;default:'OPEN';index"`

	UnderlyingAsset string         `gorm:"type:varchar(20);not null"`
	OptionType      string         `gorm:"type:varchar(30);not null"`
	OptionTypeRaw   int            `gorm:"not null"`
	IsCall          bool           `gorm:"not null"`
	IsLong          bool           `gorm:"not null"`
	Strikes         datatypes.JSON `gorm:"type:jsonb"`
	ExpiryTimestamp time.Time      `gorm:"type:timestamptz;not null;index"`

	Buyer     string  `gorm:"type:varchar(64);not null"`
	Seller    string  `gorm:"type:varchar(64);not null"`
	Referrer  *string `gorm:"type:varchar(64)"`
	CreatedBy *string `gorm:"type:varchar(64)"`

	CollateralToken    string  `gorm:"type:varchar(64);not null"`
	CollateralSymbol   string  `gorm:"type:varchar(20);not null"`
	CollateralDecimals int     `gorm:"not null;default:6"`
	PriceFeed          *string `gorm:"type:varchar(64)"`

	EntryPremium     string    `gorm:"type:varchar(80);not null"`
	EntryFeePaid     string    `gorm:"type:varchar(80);not null"`
	NumContracts     string    `gorm:"type:varchar(80);not null"`
	CollateralAmount string    `gorm:"type:varchar(80);not null"`
	EntryTimestamp   time.Time `gorm:"type:timestamptz;not null;index"`
	EntryBlock       *int64    `gorm:""`

	SettlementPrice          *string    `gorm:"type:varchar(80)"`
	PayoutBuyer              *string    `gorm:"type:varchar(80)"`
	CollateralReturnedSeller *string    `gorm:"type:varchar(80)"`
	Exercised                *bool      `gorm:""`
	CloseTimestamp           *time.Time `gorm:"type:timestamptz;index"`
	CloseTxHash              *string    `gorm:"type:varchar(80)"`
	CloseBlock               *int64     `gorm:""`

	OracleFailure       bool           `gorm:"not null;default:false"`
	OracleFailureReason *string        `gorm:"type:text"`
	ExplicitClose       datatypes.JSON `gorm:"type:jsonb"`

	PnL              *decimal.Decimal `gorm:"column:pnl;type:numeric(30,10)"`
	RoiPercent       *decimal.Decimal `gorm:"type:numeric(20,10)"`
	NormalizedVolume *decimal.Decimal `gorm:"type:numeric(30,10)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Trade) TableName() string {
	return "trade_activities"
}
