package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"alphabit/internal/models"
	"alphabit/internal/repository"
)

// stubRepo is an in-memory Repository for service tests. Aggregations mirror
// the SQL the real store runs.
type stubRepo struct {
	users      map[string]*models.User
	trades     map[string]*models.Trade
	tradeOrder []string
	daily      map[string]map[string]*models.UserDailyStat
	stats      map[string]map[string]*models.UserStat
	configs    map[string]*models.AppConfig
	templates  map[string]*models.NotificationTemplate

	configReads int
	leaderboard []repository.LeaderboardRow
	statTotal   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:     map[string]*models.User{},
		trades:    map[string]*models.Trade{},
		daily:     map[string]map[string]*models.UserDailyStat{},
		stats:     map[string]map[string]*models.UserStat{},
		configs:   map[string]*models.AppConfig{},
		templates: map[string]*models.NotificationTemplate{},
	}
}

func (r *stubRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	return r.users[id], nil
}

func (r *stubRepo) ListActiveUsersWithWallets(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		if u.Status == models.UserStatusActive && u.PrimaryEthAddress != nil {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRepo) UpdateUserStreaks(_ context.Context, userID string, current, max int) error {
	if u, ok := r.users[userID]; ok {
		u.CurrentWinStreak = current
		u.MaxWinStreak = max
	}
	return nil
}

func (r *stubRepo) GetTradeByTxHash(_ context.Context, txHash string) (*models.Trade, error) {
	t, ok := r.trades[txHash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *stubRepo) CreateTrade(_ context.Context, item *models.Trade) error {
	cp := *item
	r.trades[item.TxHash] = &cp
	r.tradeOrder = append(r.tradeOrder, item.TxHash)
	return nil
}

func (r *stubRepo) SaveTrade(_ context.Context, item *models.Trade) error {
	cp := *item
	r.trades[item.TxHash] = &cp
	return nil
}

func (r *stubRepo) userTrades(userID string) []*models.Trade {
	var out []*models.Trade
	for _, hash := range r.tradeOrder {
		if t := r.trades[hash]; t != nil && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func (r *stubRepo) ListUserTrades(_ context.Context, userID string, params repository.ListTradesParams) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range r.userTrades(userID) {
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubRepo) CountUserTrades(_ context.Context, userID string, status *string) (int64, error) {
	var n int64
	for _, t := range r.userTrades(userID) {
		if status != nil && t.Status != *status {
			continue
		}
		n++
	}
	return n, nil
}

func (r *stubRepo) CountUserTradesByStatus(_ context.Context, userID string) (repository.TradeStatusCounts, error) {
	var counts repository.TradeStatusCounts
	for _, t := range r.userTrades(userID) {
		switch t.Status {
		case models.TradeStatusOpen:
			counts.Open++
		case models.TradeStatusSettled:
			counts.Settled++
		case models.TradeStatusExpired:
			counts.Expired++
		}
	}
	return counts, nil
}

func (r *stubRepo) ListSettledPayouts(_ context.Context, userID string) ([]repository.SettledPayout, error) {
	trades := r.userTrades(userID)
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryTimestamp.Before(trades[j].EntryTimestamp)
	})
	var out []repository.SettledPayout
	for _, t := range trades {
		if t.Status == models.TradeStatusSettled {
			out = append(out, repository.SettledPayout{PayoutBuyer: t.PayoutBuyer})
		}
	}
	return out, nil
}

func (r *stubRepo) AggregateSettledTradesByDay(_ context.Context, userID string) ([]repository.DailyAggregate, error) {
	byDay := map[string]*repository.DailyAggregate{}
	roiSums := map[string]decimal.Decimal{}
	for _, t := range r.userTrades(userID) {
		if t.Status != models.TradeStatusSettled || t.CloseTimestamp == nil {
			continue
		}
		day := t.CloseTimestamp.UTC().Format("2006-01-02")
		agg, ok := byDay[day]
		if !ok {
			date, _ := time.Parse("2006-01-02", day)
			agg = &repository.DailyAggregate{DateUTC: date}
			byDay[day] = agg
		}
		agg.TotalTrades++
		if t.PnL != nil {
			agg.TotalPnl = agg.TotalPnl.Add(*t.PnL)
			if t.PnL.IsPositive() {
				agg.WinCount++
			}
		}
		if t.NormalizedVolume != nil {
			agg.TotalVolume = agg.TotalVolume.Add(*t.NormalizedVolume)
		}
		if t.RoiPercent != nil {
			roiSums[day] = roiSums[day].Add(*t.RoiPercent)
		}
	}
	var out []repository.DailyAggregate
	for day, agg := range byDay {
		agg.TotalRoiPercent = roiSums[day].Div(decimal.NewFromInt(int64(agg.TotalTrades)))
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateUTC.Before(out[j].DateUTC) })
	return out, nil
}

func (r *stubRepo) ListExpiringOpenTradeFids(_ context.Context, from, until time.Time) ([]int64, error) {
	seen := map[int64]struct{}{}
	var fids []int64
	for _, hash := range r.tradeOrder {
		t := r.trades[hash]
		if t.Status != models.TradeStatusOpen {
			continue
		}
		if t.ExpiryTimestamp.Before(from) || t.ExpiryTimestamp.After(until) {
			continue
		}
		u, ok := r.users[t.UserID]
		if !ok || u.Status != models.UserStatusActive {
			continue
		}
		if _, dup := seen[u.Fid]; dup {
			continue
		}
		seen[u.Fid] = struct{}{}
		fids = append(fids, u.Fid)
	}
	return fids, nil
}

func (r *stubRepo) ListDailyStatDates(_ context.Context, userID string) ([]time.Time, error) {
	var out []time.Time
	for _, st := range r.daily[userID] {
		out = append(out, st.DateUTC)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (r *stubRepo) DeleteDailyStats(_ context.Context, userID string, dates []time.Time) error {
	for _, d := range dates {
		delete(r.daily[userID], d.UTC().Format("2006-01-02"))
	}
	return nil
}

func (r *stubRepo) UpsertDailyStat(_ context.Context, item *models.UserDailyStat) error {
	if r.daily[item.UserID] == nil {
		r.daily[item.UserID] = map[string]*models.UserDailyStat{}
	}
	cp := *item
	r.daily[item.UserID][item.DateUTC.UTC().Format("2006-01-02")] = &cp
	return nil
}

func (r *stubRepo) AggregateDailyStatsSince(_ context.Context, userID string, since *time.Time) (repository.PeriodAggregate, error) {
	var agg repository.PeriodAggregate
	roiSum := decimal.Zero
	days := 0
	for _, st := range r.daily[userID] {
		if since != nil && st.DateUTC.Before(*since) {
			continue
		}
		agg.TotalPnl = agg.TotalPnl.Add(st.TotalPnl)
		agg.TotalVolume = agg.TotalVolume.Add(st.TotalVolume)
		agg.TotalTrades += st.TotalTrades
		agg.WinCount += st.WinCount
		roiSum = roiSum.Add(st.TotalRoiPercent)
		days++
	}
	if days > 0 {
		agg.TotalRoiPercent = roiSum.Div(decimal.NewFromInt(int64(days)))
	}
	return agg, nil
}

func (r *stubRepo) UpsertUserStat(_ context.Context, item *models.UserStat) error {
	if r.stats[item.UserID] == nil {
		r.stats[item.UserID] = map[string]*models.UserStat{}
	}
	cp := *item
	r.stats[item.UserID][item.Period] = &cp
	return nil
}

func (r *stubRepo) DeleteUserStat(_ context.Context, userID, period string) error {
	delete(r.stats[userID], period)
	return nil
}

func (r *stubRepo) ListLeaderboard(_ context.Context, params repository.LeaderboardParams) ([]repository.LeaderboardRow, error) {
	rows := r.leaderboard
	if params.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[params.Offset:]
	if params.Limit < len(rows) {
		rows = rows[:params.Limit]
	}
	return rows, nil
}

func (r *stubRepo) CountUserStats(_ context.Context, _ string) (int64, error) {
	if r.statTotal > 0 {
		return r.statTotal, nil
	}
	return int64(len(r.leaderboard)), nil
}

func (r *stubRepo) GetAppConfigByKey(_ context.Context, key string) (*models.AppConfig, error) {
	r.configReads++
	item, ok := r.configs[key]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *stubRepo) UpsertAppConfig(_ context.Context, item *models.AppConfig) error {
	cp := *item
	r.configs[item.Key] = &cp
	return nil
}

func (r *stubRepo) GetNotificationTemplateByCode(_ context.Context, code string) (*models.NotificationTemplate, error) {
	return r.templates[code], nil
}
