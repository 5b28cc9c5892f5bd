package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"alphabit/internal/client/thetanuts"
	"alphabit/internal/models"
	"alphabit/internal/payoff"
	"alphabit/internal/repository"
)

// ErrMissingWallet rejects a sync request before any external call is made.
var ErrMissingWallet = errors.New("wallet address is required")

type SyncResult struct {
	Synced       int `json:"synced"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	SettledCount int `json:"settledCount"`
	ExpiredCount int `json:"expiredCount"`
}

// FleetSyncResult totals one sweep over every active wallet-linked user.
// SettledFids/ExpiredFids collect users whose trades transitioned this run,
// for batched notification fan-out by the scheduler.
type FleetSyncResult struct {
	UsersProcessed int `json:"usersProcessed"`
	TotalSynced    int `json:"totalSynced"`
	TotalCreated   int `json:"totalCreated"`
	TotalUpdated   int `json:"totalUpdated"`
	Errors         int `json:"errors"`

	SettledFids []int64 `json:"-"`
	ExpiredFids []int64 `json:"-"`
}

// TradeSyncService converts indexer positions into durable trade rows and
// keeps the derived aggregates correct after every change.
type TradeSyncService struct {
	Repo    repository.Repository
	Indexer *thetanuts.Client
	Config  *ConfigStoreService
	Stats   *StatsService
	Logger  *zap.Logger
	Now     func() time.Time
}

func (s *TradeSyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *TradeSyncService) indexer(ctx context.Context) *thetanuts.Client {
	if s.Config == nil {
		return s.Indexer
	}
	host := s.Config.Get(ctx, KeyIndexerURL, "")
	if host == "" {
		return s.Indexer
	}
	return s.Indexer.WithHost(host)
}

// SyncUserTrades fetches open and historical positions for one wallet,
// upserts them by transaction hash, and recomputes the user's streaks and
// aggregates. Replaying identical upstream data is a no-op beyond timestamp
// touches: every settlement field is overwritten, never accumulated.
func (s *TradeSyncService) SyncUserTrades(ctx context.Context, userID, walletAddress string) (SyncResult, error) {
	if s == nil || s.Repo == nil {
		return SyncResult{}, nil
	}
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return SyncResult{}, ErrMissingWallet
	}

	indexer := s.indexer(ctx)

	var (
		wg            sync.WaitGroup
		open, hist    []thetanuts.Position
		openErr, hErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		open, openErr = indexer.OpenPositions(ctx, walletAddress)
	}()
	go func() {
		defer wg.Done()
		hist, hErr = indexer.History(ctx, walletAddress)
	}()
	wg.Wait()
	if openErr != nil {
		return SyncResult{}, fmt.Errorf("fetch open positions: %w", openErr)
	}
	if hErr != nil {
		return SyncResult{}, fmt.Errorf("fetch position history: %w", hErr)
	}

	positions := dedupeByTxHash(append(open, hist...))

	if referrer := s.referrerFilter(ctx); referrer != "" {
		filtered := positions[:0]
		for _, p := range positions {
			if p.Referrer != nil && strings.EqualFold(*p.Referrer, referrer) {
				filtered = append(filtered, p)
			}
		}
		positions = filtered
	}

	var result SyncResult
	result.Synced = len(positions)
	now := s.now()

	for _, pos := range positions {
		mapped := mapPosition(userID, pos, now)

		existing, err := s.Repo.GetTradeByTxHash(ctx, pos.EntryTxHash)
		if err != nil {
			return result, err
		}
		if existing == nil {
			if err := s.Repo.CreateTrade(ctx, mapped); err != nil {
				return result, err
			}
			result.Created++
			continue
		}

		statusChanged := existing.Status == models.TradeStatusOpen && mapped.Status != models.TradeStatusOpen

		applySettlement(existing, mapped)
		if err := s.Repo.SaveTrade(ctx, existing); err != nil {
			return result, err
		}
		result.Updated++

		if statusChanged {
			switch existing.Status {
			case models.TradeStatusSettled:
				result.SettledCount++
			case models.TradeStatusExpired:
				result.ExpiredCount++
			}
		}
	}

	if err := s.updateWinStreak(ctx, userID); err != nil {
		return result, err
	}

	if result.Created > 0 || result.Updated > 0 {
		if s.Stats != nil {
			if err := s.Stats.RecalculateUserDailyStats(ctx, userID); err != nil {
				return result, err
			}
			if err := s.Stats.RecalculateUserStats(ctx, userID); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

func (s *TradeSyncService) referrerFilter(ctx context.Context) string {
	if s.Config == nil {
		return ""
	}
	return strings.TrimSpace(s.Config.Get(ctx, KeyReferrerAddress, ""))
}

// dedupeByTxHash keeps one position per entry transaction hash. Later
// entries in the concatenated open+history list win, in case both lists
// report the same hash.
func dedupeByTxHash(all []thetanuts.Position) []thetanuts.Position {
	index := make(map[string]int, len(all))
	out := make([]thetanuts.Position, 0, len(all))
	for _, p := range all {
		if i, ok := index[p.EntryTxHash]; ok {
			out[i] = p
			continue
		}
		index[p.EntryTxHash] = len(out)
		out = append(out, p)
	}
	return out
}

// mapPosition builds the full trade row for one indexer position.
func mapPosition(userID string, pos thetanuts.Position, now time.Time) *models.Trade {
	isCall := pos.OptionType&1 == 1
	isLong := pos.OptionType&256 == 256

	status := models.TradeStatusOpen
	if pos.Settled() {
		status = models.TradeStatusSettled
	} else if time.Unix(pos.ExpiryTimestamp, 0).Before(now) {
		status = models.TradeStatusExpired
	}

	rawStrikes, _ := json.Marshal(pos.Strikes)

	item := &models.Trade{
		UserID:        userID,
		OptionAddress: pos.Address,
		TxHash:        pos.EntryTxHash,
		Status:        status,

		UnderlyingAsset: pos.UnderlyingAsset,
		OptionType:      payoff.TypeLabel(len(pos.Strikes), isCall),
		OptionTypeRaw:   pos.OptionType,
		IsCall:          isCall,
		IsLong:          isLong,
		Strikes:         datatypes.JSON(rawStrikes),
		ExpiryTimestamp: time.Unix(pos.ExpiryTimestamp, 0).UTC(),

		Buyer:     pos.Buyer,
		Seller:    pos.Seller,
		Referrer:  pos.Referrer,
		CreatedBy: optionalString(pos.CreatedBy),

		CollateralToken:    pos.CollateralToken,
		CollateralSymbol:   pos.CollateralSymbol,
		CollateralDecimals: pos.CollateralDecimals,
		PriceFeed:          optionalString(pos.PriceFeed),

		EntryPremium:     pos.EntryPremium,
		EntryFeePaid:     pos.EntryFeePaid,
		NumContracts:     pos.NumContracts,
		CollateralAmount: pos.CollateralAmount,
		EntryTimestamp:   time.Unix(pos.EntryTimestamp, 0).UTC(),
	}
	if pos.EntryBlock != 0 {
		block := pos.EntryBlock
		item.EntryBlock = &block
	}

	if pos.CloseTimestamp != nil {
		ts := time.Unix(*pos.CloseTimestamp, 0).UTC()
		item.CloseTimestamp = &ts
	}
	item.CloseTxHash = pos.CloseTxHash
	item.CloseBlock = pos.CloseBlock

	if st := pos.Settlement; st != nil {
		item.SettlementPrice = optionalString(st.SettlementPrice)
		item.PayoutBuyer = st.PayoutBuyer
		item.CollateralReturnedSeller = st.CollateralReturnedSeller
		item.Exercised = st.Exercised
		if st.OracleFailure != nil {
			item.OracleFailure = *st.OracleFailure
		}
		item.OracleFailureReason = st.OracleFailureReason
	}
	if len(pos.ExplicitClose) > 0 && string(pos.ExplicitClose) != "null" {
		item.ExplicitClose = datatypes.JSON(pos.ExplicitClose)
	}

	item.PnL, item.RoiPercent = settledAnalytics(pos)
	volume := normalizedVolume(pos)
	item.NormalizedVolume = &volume

	return item
}

// applySettlement overwrites the mutable columns of dst with the freshly
// mapped values. Status never reverts out of a terminal state, even if the
// two upstream lists disagree.
func applySettlement(dst, src *models.Trade) {
	if dst.Status == models.TradeStatusOpen || src.Status != models.TradeStatusOpen {
		dst.Status = src.Status
	}

	dst.SettlementPrice = src.SettlementPrice
	dst.PayoutBuyer = src.PayoutBuyer
	dst.CollateralReturnedSeller = src.CollateralReturnedSeller
	dst.Exercised = src.Exercised

	dst.CloseTimestamp = src.CloseTimestamp
	dst.CloseTxHash = src.CloseTxHash
	dst.CloseBlock = src.CloseBlock

	dst.OracleFailure = src.OracleFailure
	dst.OracleFailureReason = src.OracleFailureReason
	dst.ExplicitClose = src.ExplicitClose

	dst.PnL = src.PnL
	dst.RoiPercent = src.RoiPercent
	dst.NormalizedVolume = src.NormalizedVolume
}

// settledAnalytics derives pnl and roi%, both nil until the position settles
// with a buyer payout. Amounts are normalized by collateral decimals.
func settledAnalytics(pos thetanuts.Position) (*decimal.Decimal, *decimal.Decimal) {
	if !pos.Settled() || pos.Settlement == nil || pos.Settlement.PayoutBuyer == nil {
		return nil, nil
	}
	divisor := collateralDivisor(pos.CollateralDecimals)
	premium := parseAmount(pos.EntryPremium).Div(divisor)
	payout := parseAmount(*pos.Settlement.PayoutBuyer).Div(divisor)

	pnl := payout.Sub(premium)

	roi := decimal.Zero
	if !premium.IsZero() {
		roi = payout.Sub(premium).Div(premium).Mul(hundred)
	}
	return &pnl, &roi
}

// normalizedVolume is the entry premium (actual user spend) in collateral
// units, computed for every position regardless of status.
func normalizedVolume(pos thetanuts.Position) decimal.Decimal {
	return parseAmount(pos.EntryPremium).Div(collateralDivisor(pos.CollateralDecimals))
}

func collateralDivisor(decimals int) decimal.Decimal {
	if decimals <= 0 {
		decimals = 6
	}
	return decimal.New(1, int32(decimals))
}

func parseAmount(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func optionalString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

// --- Win streaks -------------------------------------------------------------

func (s *TradeSyncService) updateWinStreak(ctx context.Context, userID string) error {
	payouts, err := s.Repo.ListSettledPayouts(ctx, userID)
	if err != nil {
		return err
	}
	current, max := ComputeWinStreaks(payouts)
	return s.Repo.UpdateUserStreaks(ctx, userID, current, max)
}

// ComputeWinStreaks walks the chronological settled-trade payouts once. A
// win is a positive buyer payout. Always a full recompute so out-of-order
// backfills and corrected settlements land correctly.
func ComputeWinStreaks(payouts []repository.SettledPayout) (current, max int) {
	for _, p := range payouts {
		payout := decimal.Zero
		if p.PayoutBuyer != nil {
			payout = parseAmount(*p.PayoutBuyer)
		}
		if payout.IsPositive() {
			current++
			if current > max {
				max = current
			}
		} else {
			current = 0
		}
	}
	return current, max
}

// --- Fleet sweep -------------------------------------------------------------

// SyncAllActiveUsers walks every active user with a linked wallet, one at a
// time. A failed user counts as an error and does not stop the sweep.
func (s *TradeSyncService) SyncAllActiveUsers(ctx context.Context) (FleetSyncResult, error) {
	if s == nil || s.Repo == nil {
		return FleetSyncResult{}, nil
	}
	users, err := s.Repo.ListActiveUsersWithWallets(ctx)
	if err != nil {
		return FleetSyncResult{}, err
	}
	if s.Logger != nil {
		s.Logger.Info("fleet sync starting", zap.Int("users", len(users)))
	}

	var fleet FleetSyncResult
	fleet.UsersProcessed = len(users)

	for _, user := range users {
		if user.PrimaryEthAddress == nil || strings.TrimSpace(*user.PrimaryEthAddress) == "" {
			continue
		}
		result, err := s.SyncUserTrades(ctx, user.ID, *user.PrimaryEthAddress)
		if err != nil {
			fleet.Errors++
			if s.Logger != nil {
				s.Logger.Warn("user sync failed",
					zap.String("user_id", user.ID),
					zap.Error(err),
				)
			}
			continue
		}
		fleet.TotalSynced += result.Synced
		fleet.TotalCreated += result.Created
		fleet.TotalUpdated += result.Updated

		if result.SettledCount > 0 {
			fleet.SettledFids = append(fleet.SettledFids, user.Fid)
		}
		if result.ExpiredCount > 0 {
			fleet.ExpiredFids = append(fleet.ExpiredFids, user.Fid)
		}
	}
	return fleet, nil
}

// TriggerIndexerUpdate asks the indexer to refresh before a sweep. Failure
// is logged and ignored; syncing proceeds on possibly stale data.
func (s *TradeSyncService) TriggerIndexerUpdate(ctx context.Context) {
	if s == nil || s.Indexer == nil {
		return
	}
	if err := s.indexer(ctx).TriggerUpdate(ctx); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("indexer update trigger failed", zap.Error(err))
		}
		return
	}
	if s.Logger != nil {
		s.Logger.Info("indexer update triggered")
	}
}

// ExpiringTradeFids returns the unique fids of active users holding an OPEN
// trade that expires within the window.
func (s *TradeSyncService) ExpiringTradeFids(ctx context.Context, window time.Duration) ([]int64, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	now := s.now()
	return s.Repo.ListExpiringOpenTradeFids(ctx, now, now.Add(window))
}

// --- Read path ---------------------------------------------------------------

type TradeStats struct {
	Total   int64 `json:"total"`
	Open    int64 `json:"open"`
	Settled int64 `json:"settled"`
	Expired int64 `json:"expired"`
}

func (s *TradeSyncService) GetUserTrades(ctx context.Context, userID string, params repository.ListTradesParams) ([]models.Trade, int64, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, nil
	}
	trades, err := s.Repo.ListUserTrades(ctx, userID, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountUserTrades(ctx, userID, params.Status)
	if err != nil {
		return nil, 0, err
	}
	return trades, total, nil
}

func (s *TradeSyncService) GetTradeByTxHash(ctx context.Context, txHash string) (*models.Trade, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	return s.Repo.GetTradeByTxHash(ctx, txHash)
}

func (s *TradeSyncService) GetUserTradeStats(ctx context.Context, userID string) (TradeStats, error) {
	if s == nil || s.Repo == nil {
		return TradeStats{}, nil
	}
	counts, err := s.Repo.CountUserTradesByStatus(ctx, userID)
	if err != nil {
		return TradeStats{}, err
	}
	return TradeStats{
		Total:   counts.Open + counts.Settled + counts.Expired,
		Open:    counts.Open,
		Settled: counts.Settled,
		Expired: counts.Expired,
	}, nil
}
