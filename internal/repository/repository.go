package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"alphabit/internal/models"
)

// Repository is the persistence surface used by the sync, stats, and
// leaderboard services.
type Repository interface {
	// Users.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListActiveUsersWithWallets(ctx context.Context) ([]models.User, error)
	UpdateUserStreaks(ctx context.Context, userID string, current, max int) error

	// Trades. SaveTrade overwrites the full row; settlement and analytics
	// columns are never merged incrementally.
	GetTradeByTxHash(ctx context.Context, txHash string) (*models.Trade, error)
	CreateTrade(ctx context.Context, item *models.Trade) error
	SaveTrade(ctx context.Context, item *models.Trade) error
	ListUserTrades(ctx context.Context, userID string, params ListTradesParams) ([]models.Trade, error)
	CountUserTrades(ctx context.Context, userID string, status *string) (int64, error)
	CountUserTradesByStatus(ctx context.Context, userID string) (TradeStatusCounts, error)
	ListSettledPayouts(ctx context.Context, userID string) ([]SettledPayout, error)
	AggregateSettledTradesByDay(ctx context.Context, userID string) ([]DailyAggregate, error)
	ListExpiringOpenTradeFids(ctx context.Context, from, until time.Time) ([]int64, error)

	// Daily buckets.
	ListDailyStatDates(ctx context.Context, userID string) ([]time.Time, error)
	DeleteDailyStats(ctx context.Context, userID string, dates []time.Time) error
	UpsertDailyStat(ctx context.Context, item *models.UserDailyStat) error
	AggregateDailyStatsSince(ctx context.Context, userID string, since *time.Time) (PeriodAggregate, error)

	// Period stats and leaderboard reads.
	UpsertUserStat(ctx context.Context, item *models.UserStat) error
	DeleteUserStat(ctx context.Context, userID, period string) error
	ListLeaderboard(ctx context.Context, params LeaderboardParams) ([]LeaderboardRow, error)
	CountUserStats(ctx context.Context, period string) (int64, error)

	// Dynamic config and notification templates.
	GetAppConfigByKey(ctx context.Context, key string) (*models.AppConfig, error)
	UpsertAppConfig(ctx context.Context, item *models.AppConfig) error
	GetNotificationTemplateByCode(ctx context.Context, code string) (*models.NotificationTemplate, error)
}

type ListTradesParams struct {
	Status *string
	Limit  int
	Offset int
}

type TradeStatusCounts struct {
	Open    int64
	Settled int64
	Expired int64
}

// SettledPayout carries just the buyer payout of one settled trade, in entry
// order, for the streak walk.
type SettledPayout struct {
	PayoutBuyer *string
}

// DailyAggregate is one UTC day's fresh aggregation over settled trades.
type DailyAggregate struct {
	DateUTC         time.Time
	TotalPnl        decimal.Decimal
	TotalVolume     decimal.Decimal
	TotalTrades     int
	WinCount        int
	TotalRoiPercent decimal.Decimal
}

// PeriodAggregate sums daily buckets over a ranking window.
type PeriodAggregate struct {
	TotalPnl        decimal.Decimal
	TotalVolume     decimal.Decimal
	TotalTrades     int
	WinCount        int
	TotalRoiPercent decimal.Decimal
}

type LeaderboardParams struct {
	Period string
	SortBy string
	Limit  int
	Offset int
}

// LeaderboardRow is a period stat joined with the owning user's identity.
type LeaderboardRow struct {
	UserID           string
	Fid              int64
	Username         *string
	DisplayName      *string
	PfpURL           *string
	CurrentWinStreak int
	TotalPnl         decimal.Decimal
	TotalVolume      decimal.Decimal
	TotalTrades      int
	WinCount         int
	WinRate          decimal.Decimal
	TotalRoiPercent  decimal.Decimal
}
