package thetanuts

import (
	"encoding/json"
)

// Position is one option contract instance as reported by the indexer,
// identified by its entry transaction hash.
type Position struct {
	Address   string  `json:"address"`
	Status    string  `json:"status"` // "open" | "settled"
	Buyer     string  `json:"buyer"`
	Seller    string  `json:"seller"`
	Referrer  *string `json:"referrer"`
	CreatedBy string  `json:"createdBy"`

	EntryTimestamp int64  `json:"entryTimestamp"`
	EntryTxHash    string `json:"entryTxHash"`
	EntryBlock     int64  `json:"entryBlock"`
	EntryPremium   string `json:"entryPremium"`
	EntryFeePaid   string `json:"entryFeePaid"`

	CloseTimestamp *int64  `json:"closeTimestamp"`
	CloseTxHash    *string `json:"closeTxHash"`
	CloseBlock     *int64  `json:"closeBlock"`

	CollateralToken    string `json:"collateralToken"`
	CollateralSymbol   string `json:"collateralSymbol"`
	CollateralDecimals int    `json:"collateralDecimals"`

	UnderlyingAsset  string   `json:"underlyingAsset"`
	PriceFeed        string   `json:"priceFeed"`
	Strikes          []string `json:"strikes"`
	ExpiryTimestamp  int64    `json:"expiryTimestamp"`
	NumContracts     string   `json:"numContracts"`
	CollateralAmount string   `json:"collateralAmount"`
	OptionType       int      `json:"optionType"` // direction bitmask

	Settlement    *Settlement     `json:"settlement"`
	ExplicitClose json.RawMessage `json:"explicitClose"`
}

// Settlement is null until the indexer finalizes an outcome, and may be
// revised after the fact (delayed oracle resolution).
type Settlement struct {
	SettlementPrice          string  `json:"settlementPrice"`
	PayoutBuyer              *string `json:"payoutBuyer"`
	CollateralReturnedSeller *string `json:"collateralReturnedSeller"`
	Exercised                *bool   `json:"exercised"`
	DeliveryAmount           *string `json:"deliveryAmount"`
	DeliveryCollateral       *string `json:"deliveryCollateral"`
	ExplicitDecision         *string `json:"explicitDecision"`
	OracleFailure            *bool   `json:"oracleFailure"`
	OracleFailureReason      *string `json:"oracleFailureReason"`
}

const positionStatusSettled = "settled"

// Settled reports whether the indexer marks this position settled.
func (p Position) Settled() bool {
	return p.Status == positionStatusSettled
}
