package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alphabit/internal/models"
	"alphabit/internal/repository"
)

const (
	leaderboardDefaultLimit = 10
	leaderboardMaxLimit     = 100
)

var leaderboardSortColumns = map[string]bool{
	"pnl":      true,
	"roi":      true,
	"volume":   true,
	"win_rate": true,
}

type LeaderboardQuery struct {
	Period string
	SortBy string
	Page   int
	Limit  int
}

type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	UserID           string  `json:"userId"`
	Fid              int64   `json:"fid"`
	Username         *string `json:"username"`
	DisplayName      *string `json:"displayName"`
	PfpURL           *string `json:"pfpUrl"`
	TotalPnl         string  `json:"totalPnl"`
	TotalVolume      string  `json:"totalVolume"`
	TotalTrades      int     `json:"totalTrades"`
	WinRate          string  `json:"winRate"`
	TotalRoiPercent  string  `json:"totalRoiPercent"`
	CurrentWinStreak int     `json:"currentWinStreak"`
}

type LeaderboardPage struct {
	Period  string             `json:"period"`
	SortBy  string             `json:"sortBy"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	Total   int64              `json:"total"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardService ranks users by their precomputed period aggregates.
// It never touches trade rows directly; rollups are the scheduler's job.
type LeaderboardService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// GetLeaderboard validates the query, reads one page of period stats, and
// assigns absolute ranks from the page position.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q LeaderboardQuery) (LeaderboardPage, error) {
	if s == nil || s.Repo == nil {
		return LeaderboardPage{}, nil
	}

	if q.Period == "" {
		q.Period = models.PeriodAll
	}
	if !validPeriod(q.Period) {
		return LeaderboardPage{}, fmt.Errorf("invalid period %q", q.Period)
	}
	if q.SortBy == "" {
		q.SortBy = "pnl"
	}
	if !leaderboardSortColumns[q.SortBy] {
		return LeaderboardPage{}, fmt.Errorf("invalid sort field %q", q.SortBy)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = leaderboardDefaultLimit
	}
	if q.Limit > leaderboardMaxLimit {
		q.Limit = leaderboardMaxLimit
	}

	offset := (q.Page - 1) * q.Limit
	rows, err := s.Repo.ListLeaderboard(ctx, repository.LeaderboardParams{
		Period: q.Period,
		SortBy: q.SortBy,
		Limit:  q.Limit,
		Offset: offset,
	})
	if err != nil {
		return LeaderboardPage{}, err
	}
	total, err := s.Repo.CountUserStats(ctx, q.Period)
	if err != nil {
		return LeaderboardPage{}, err
	}

	page := LeaderboardPage{
		Period:  q.Period,
		SortBy:  q.SortBy,
		Page:    q.Page,
		Limit:   q.Limit,
		Total:   total,
		Entries: make([]LeaderboardEntry, 0, len(rows)),
	}
	for i, row := range rows {
		page.Entries = append(page.Entries, LeaderboardEntry{
			Rank:             offset + i + 1,
			UserID:           row.UserID,
			Fid:              row.Fid,
			Username:         row.Username,
			DisplayName:      row.DisplayName,
			PfpURL:           row.PfpURL,
			TotalPnl:         row.TotalPnl.String(),
			TotalVolume:      row.TotalVolume.String(),
			TotalTrades:      row.TotalTrades,
			WinRate:          row.WinRate.String(),
			TotalRoiPercent:  row.TotalRoiPercent.String(),
			CurrentWinStreak: row.CurrentWinStreak,
		})
	}
	return page, nil
}

func validPeriod(period string) bool {
	for _, p := range models.Periods() {
		if p == period {
			return true
		}
	}
	return false
}
