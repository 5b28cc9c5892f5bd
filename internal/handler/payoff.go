package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"alphabit/internal/payoff"
)

type PayoffHandler struct{}

func (h *PayoffHandler) Register(r *gin.Engine) {
	r.POST("/api/payoff/preview", h.preview)
}

type payoffPreviewRequest struct {
	Strikes         []string `json:"strikes" binding:"required,min=2,max=4"`
	IsCall          bool     `json:"isCall"`
	Contracts       string   `json:"contracts" binding:"required"`
	Premium         string   `json:"premium"`
	SettlementPrice string   `json:"settlementPrice"`
}

type payoffPreviewResponse struct {
	OptionType    string   `json:"optionType"`
	Strikes       []string `json:"strikes"`
	MaxPayout     string   `json:"maxPayout"`
	PayoutAtPrice *string  `json:"payoutAtPrice,omitempty"`
	Breakeven     *string  `json:"breakeven,omitempty"`
}

// @Summary Evaluate a structure's payoff profile
// @Tags payoff
// @Param request body payoffPreviewRequest true "structure"
// @Router /api/payoff/preview [post]
func (h *PayoffHandler) preview(c *gin.Context) {
	var req payoffPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	strikes, err := payoff.ParseStrikes(req.Strikes)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	contracts, err := decimal.NewFromString(req.Contracts)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid contracts", nil)
		return
	}

	out := payoffPreviewResponse{
		OptionType: payoff.TypeLabel(len(strikes), req.IsCall),
		MaxPayout:  payoff.MaxPayout(strikes, contracts).String(),
	}
	for _, s := range strikes {
		out.Strikes = append(out.Strikes, s.String())
	}

	if req.SettlementPrice != "" {
		price, err := decimal.NewFromString(req.SettlementPrice)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid settlementPrice", nil)
			return
		}
		v := payoff.PayoutAtPrice(strikes, req.IsCall, contracts, price).String()
		out.PayoutAtPrice = &v
	}

	if req.Premium != "" && !contracts.IsZero() {
		premium, err := decimal.NewFromString(req.Premium)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid premium", nil)
			return
		}
		if be, ok := payoff.Breakeven(strikes, req.IsCall, premium.Div(contracts)); ok {
			v := be.String()
			out.Breakeven = &v
		}
	}

	Ok(c, out, nil)
}
