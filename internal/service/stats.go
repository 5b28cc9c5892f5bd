package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"alphabit/internal/models"
	"alphabit/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// StatsService maintains the derived aggregate tables. Every recalculation
// is a full recompute from current ground truth rather than an incremental
// adjustment: upstream settlement data can be corrected after initial
// ingestion, and incremental counters would drift under corrections.
type StatsService struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// RecalculateUserDailyStats rebuilds the user's UTC-day buckets from settled
// trades. Days that no longer have qualifying trades lose their bucket;
// every other day is upserted with fresh sums.
func (s *StatsService) RecalculateUserDailyStats(ctx context.Context, userID string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	rows, err := s.Repo.AggregateSettledTradesByDay(ctx, userID)
	if err != nil {
		return err
	}

	fresh := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		fresh[dayKey(row.DateUTC)] = struct{}{}
	}

	existing, err := s.Repo.ListDailyStatDates(ctx, userID)
	if err != nil {
		return err
	}
	var stale []time.Time
	for _, d := range existing {
		if _, ok := fresh[dayKey(d)]; !ok {
			stale = append(stale, d)
		}
	}
	if len(stale) > 0 {
		if err := s.Repo.DeleteDailyStats(ctx, userID, stale); err != nil {
			return err
		}
	}

	for _, row := range rows {
		item := &models.UserDailyStat{
			UserID:          userID,
			DateUTC:         dayFloorUTC(row.DateUTC),
			TotalPnl:        row.TotalPnl,
			TotalVolume:     row.TotalVolume,
			TotalTrades:     row.TotalTrades,
			WinCount:        row.WinCount,
			WinRate:         winRate(row.WinCount, row.TotalTrades),
			TotalRoiPercent: row.TotalRoiPercent,
			UpdatedAt:       time.Now().UTC(),
		}
		if err := s.Repo.UpsertDailyStat(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// RecalculateUserStats rolls the daily buckets up into every ranking window.
func (s *StatsService) RecalculateUserStats(ctx context.Context, userID string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	for _, period := range models.Periods() {
		if err := s.rollupPeriod(ctx, userID, period); err != nil {
			return err
		}
	}
	return nil
}

func (s *StatsService) rollupPeriod(ctx context.Context, userID, period string) error {
	start := BucketStartDate(period, s.now())
	agg, err := s.Repo.AggregateDailyStatsSince(ctx, userID, start)
	if err != nil {
		return err
	}

	if agg.TotalTrades == 0 {
		return s.Repo.DeleteUserStat(ctx, userID, period)
	}

	item := &models.UserStat{
		UserID:          userID,
		Period:          period,
		TotalPnl:        agg.TotalPnl,
		TotalVolume:     agg.TotalVolume,
		TotalTrades:     agg.TotalTrades,
		WinCount:        agg.WinCount,
		WinRate:         winRate(agg.WinCount, agg.TotalTrades),
		TotalRoiPercent: agg.TotalRoiPercent,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.Repo.UpsertUserStat(ctx, item); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug("recalculated period stats",
			zap.String("user_id", userID),
			zap.String("period", period),
			zap.Int("trades", agg.TotalTrades),
		)
	}
	return nil
}

// BucketStartDate returns the UTC-day floor of now minus the period length,
// or nil for the all-time window. Bucketing by calendar day means the "24h"
// window spans one to two calendar days of wall time; that is accepted
// behavior so period rollups can reuse daily buckets.
func BucketStartDate(period string, now time.Time) *time.Time {
	var span time.Duration
	switch period {
	case models.Period24h:
		span = 24 * time.Hour
	case models.Period7d:
		span = 7 * 24 * time.Hour
	case models.Period30d:
		span = 30 * 24 * time.Hour
	default:
		return nil
	}
	start := dayFloorUTC(now.Add(-span))
	return &start
}

func winRate(winCount, totalTrades int) decimal.Decimal {
	if totalTrades <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(winCount)).
		Div(decimal.NewFromInt(int64(totalTrades))).
		Mul(hundred)
}

func dayFloorUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
