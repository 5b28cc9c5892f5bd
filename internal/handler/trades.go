package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"alphabit/internal/models"
	"alphabit/internal/repository"
	"alphabit/internal/service"
)

type TradeHandler struct {
	Sync *service.TradeSyncService
	Repo repository.Repository
}

func (h *TradeHandler) Register(r *gin.Engine) {
	users := r.Group("/api/users")
	users.GET("/:id/trades", h.list)
	users.GET("/:id/trades/stats", h.stats)
	users.POST("/:id/sync", h.sync)

	r.GET("/api/trades/:txHash", h.get)
}

// @Summary List a user's trades
// @Tags trades
// @Param id path string true "user id"
// @Param status query string false "OPEN, SETTLED or EXPIRED"
// @Router /api/users/{id}/trades [get]
func (h *TradeHandler) list(c *gin.Context) {
	if h.Sync == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "user id is required", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	var status *string
	if v := strings.ToUpper(strings.TrimSpace(c.Query("status"))); v != "" {
		switch v {
		case models.TradeStatusOpen, models.TradeStatusSettled, models.TradeStatusExpired:
			status = &v
		default:
			Error(c, http.StatusBadRequest, "invalid status", nil)
			return
		}
	}

	items, total, err := h.Sync.GetUserTrades(c.Request.Context(), userID, repository.ListTradesParams{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Trade status counts for a user
// @Tags trades
// @Router /api/users/{id}/trades/stats [get]
func (h *TradeHandler) stats(c *gin.Context) {
	if h.Sync == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "user id is required", nil)
		return
	}
	out, err := h.Sync.GetUserTradeStats(c.Request.Context(), userID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, out, nil)
}

// @Summary Sync one user's trades from the indexer
// @Tags trades
// @Router /api/users/{id}/sync [post]
func (h *TradeHandler) sync(c *gin.Context) {
	if h.Sync == nil || h.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "user id is required", nil)
		return
	}
	user, err := h.Repo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if user == nil {
		Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	wallet := ""
	if user.PrimaryEthAddress != nil {
		wallet = *user.PrimaryEthAddress
	}
	result, err := h.Sync.SyncUserTrades(c.Request.Context(), userID, wallet)
	if err != nil {
		if errors.Is(err, service.ErrMissingWallet) {
			Error(c, http.StatusBadRequest, "user has no linked wallet", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary Fetch one trade by entry transaction hash
// @Tags trades
// @Router /api/trades/{txHash} [get]
func (h *TradeHandler) get(c *gin.Context) {
	if h.Sync == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	txHash := strings.TrimSpace(c.Param("txHash"))
	if txHash == "" {
		Error(c, http.StatusBadRequest, "txHash is required", nil)
		return
	}
	item, err := h.Sync.GetTradeByTxHash(c.Request.Context(), txHash)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "trade not found", nil)
		return
	}
	Ok(c, item, nil)
}
