package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alphabit/internal/models"
	"alphabit/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Users -------------------------------------------------------------------

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListActiveUsersWithWallets(ctx context.Context) ([]models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.User
	err := s.db.WithContext(ctx).
		Where("status = ?", models.UserStatusActive).
		Where("primary_eth_address IS NOT NULL AND primary_eth_address <> ''").
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateUserStreaks(ctx context.Context, userID string, current, max int) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"current_win_streak": current,
			"max_win_streak":     max,
			"updated_at":         time.Now().UTC(),
		}).Error
}

// --- Trades ------------------------------------------------------------------

func (s *Store) GetTradeByTxHash(ctx context.Context, txHash string) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// SaveTrade writes every column of an existing row. Settlement corrections
// from upstream land here as plain overwrites.
func (s *Store) SaveTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) ListUserTrades(ctx context.Context, userID string, params repository.ListTradesParams) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Trade{}).Where("user_id = ?", userID)
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Trade
	err := query.Order("entry_timestamp desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountUserTrades(ctx context.Context, userID string, status *string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Trade{}).Where("user_id = ?", userID)
	if status != nil && strings.TrimSpace(*status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*status))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountUserTradesByStatus(ctx context.Context, userID string) (repository.TradeStatusCounts, error) {
	if s == nil || s.db == nil {
		return repository.TradeStatusCounts{}, nil
	}
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return repository.TradeStatusCounts{}, err
	}
	var counts repository.TradeStatusCounts
	for _, r := range rows {
		switch r.Status {
		case models.TradeStatusOpen:
			counts.Open = r.Count
		case models.TradeStatusSettled:
			counts.Settled = r.Count
		case models.TradeStatusExpired:
			counts.Expired = r.Count
		}
	}
	return counts, nil
}

func (s *Store) ListSettledPayouts(ctx context.Context, userID string) ([]repository.SettledPayout, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.SettledPayout
	err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Select("payout_buyer").
		Where("user_id = ?", userID).
		Where("status = ?", models.TradeStatusSettled).
		Order("entry_timestamp asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) AggregateSettledTradesByDay(ctx context.Context, userID string) ([]repository.DailyAggregate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.DailyAggregate
	err := s.db.WithContext(ctx).
		Table("trade_activities AS t").
		Select(`
			DATE_TRUNC('day', t.close_timestamp AT TIME ZONE 'UTC')::date AS date_utc,
			COALESCE(SUM(COALESCE(t.pnl, 0)), 0) AS total_pnl,
			COALESCE(SUM(COALESCE(t.normalized_volume, 0)), 0) AS total_volume,
			COUNT(t.id) AS total_trades,
			COALESCE(SUM(CASE WHEN t.pnl > 0 THEN 1 ELSE 0 END), 0) AS win_count,
			COALESCE(AVG(COALESCE(t.roi_percent, 0)), 0) AS total_roi_percent
		`).
		Where("t.user_id = ?", userID).
		Where("t.status = ?", models.TradeStatusSettled).
		Where("t.close_timestamp IS NOT NULL").
		Group("1").
		Order("1 asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) ListExpiringOpenTradeFids(ctx context.Context, from, until time.Time) ([]int64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var fids []int64
	err := s.db.WithContext(ctx).
		Table("trade_activities AS t").
		Distinct("u.fid").
		Joins("JOIN users AS u ON u.id = t.user_id").
		Where("t.status = ?", models.TradeStatusOpen).
		Where("t.expiry_timestamp >= ? AND t.expiry_timestamp <= ?", from, until).
		Where("u.status = ?", models.UserStatusActive).
		Pluck("u.fid", &fids).Error
	if err != nil {
		return nil, err
	}
	return fids, nil
}

// --- Daily buckets -----------------------------------------------------------

func (s *Store) ListDailyStatDates(ctx context.Context, userID string) ([]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var dates []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.UserDailyStat{}).
		Where("user_id = ?", userID).
		Order("date_utc asc").
		Pluck("date_utc", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *Store) DeleteDailyStats(ctx context.Context, userID string, dates []time.Time) error {
	if s == nil || s.db == nil || len(dates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("date_utc IN ?", dates).
		Delete(&models.UserDailyStat{}).Error
}

func (s *Store) UpsertDailyStat(ctx context.Context, item *models.UserDailyStat) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date_utc"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_pnl",
			"total_volume",
			"total_trades",
			"win_count",
			"win_rate",
			"total_roi_percent",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) AggregateDailyStatsSince(ctx context.Context, userID string, since *time.Time) (repository.PeriodAggregate, error) {
	if s == nil || s.db == nil {
		return repository.PeriodAggregate{}, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.UserDailyStat{}).
		Where("user_id = ?", userID)
	if since != nil && !since.IsZero() {
		query = query.Where("date_utc >= ?", since.UTC())
	}
	var row repository.PeriodAggregate
	err := query.Select(`
		COALESCE(SUM(total_pnl), 0) AS total_pnl,
		COALESCE(SUM(total_volume), 0) AS total_volume,
		COALESCE(SUM(total_trades), 0) AS total_trades,
		COALESCE(SUM(win_count), 0) AS win_count,
		COALESCE(AVG(total_roi_percent), 0) AS total_roi_percent
	`).Scan(&row).Error
	if err != nil {
		return repository.PeriodAggregate{}, err
	}
	return row, nil
}

// --- Period stats ------------------------------------------------------------

func (s *Store) UpsertUserStat(ctx context.Context, item *models.UserStat) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_pnl",
			"total_volume",
			"total_trades",
			"win_count",
			"win_rate",
			"total_roi_percent",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) DeleteUserStat(ctx context.Context, userID, period string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("user_id = ? AND period = ?", userID, period).
		Delete(&models.UserStat{}).Error
}

func (s *Store) ListLeaderboard(ctx context.Context, params repository.LeaderboardParams) ([]repository.LeaderboardRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := normalizeLimit(params.Limit, 10)
	offset := normalizeOffset(params.Offset)
	var rows []repository.LeaderboardRow
	err := s.db.WithContext(ctx).
		Table("user_stats AS st").
		Select(`
			st.user_id,
			u.fid,
			u.username,
			u.display_name,
			u.pfp_url,
			u.current_win_streak,
			st.total_pnl,
			st.total_volume,
			st.total_trades,
			st.win_count,
			st.win_rate,
			st.total_roi_percent
		`).
		Joins("JOIN users AS u ON u.id = st.user_id").
		Where("st.period = ?", params.Period).
		Order(leaderboardOrderColumn(params.SortBy) + " desc").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CountUserStats(ctx context.Context, period string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.UserStat{}).
		Where("period = ?", period).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func leaderboardOrderColumn(sortBy string) string {
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "roi":
		return "st.total_roi_percent"
	case "volume":
		return "st.total_volume"
	case "win_rate":
		return "st.win_rate"
	default:
		return "st.total_pnl"
	}
}

// --- Config & templates ------------------------------------------------------

func (s *Store) GetAppConfigByKey(ctx context.Context, key string) (*models.AppConfig, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.AppConfig
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertAppConfig(ctx context.Context, item *models.AppConfig) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetNotificationTemplateByCode(ctx context.Context, code string) (*models.NotificationTemplate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.NotificationTemplate
	err := s.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
