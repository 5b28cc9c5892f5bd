package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"alphabit/internal/service"
)

type LeaderboardHandler struct {
	Leaderboard *service.LeaderboardService
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET("/api/leaderboard", h.get)
}

// @Summary Ranked users for one period
// @Tags leaderboard
// @Param period query string false "24h, 7d, 30d or all"
// @Param sort_by query string false "pnl, roi, volume or win_rate"
// @Router /api/leaderboard [get]
func (h *LeaderboardHandler) get(c *gin.Context) {
	if h.Leaderboard == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	page, err := h.Leaderboard.GetLeaderboard(c.Request.Context(), service.LeaderboardQuery{
		Period: strings.ToLower(strings.TrimSpace(c.Query("period"))),
		SortBy: strings.ToLower(strings.TrimSpace(c.Query("sort_by"))),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 10),
	})
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, page, nil)
}
