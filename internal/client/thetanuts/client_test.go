package thetanuts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const samplePositions = `[
  {
    "address": "0xabc",
    "status": "settled",
    "buyer": "0xb1",
    "seller": "0xs1",
    "referrer": "0xref",
    "createdBy": "0xb1",
    "entryTimestamp": 1700000000,
    "entryTxHash": "0xhash1",
    "entryBlock": 1234,
    "entryPremium": "5000000",
    "entryFeePaid": "100000",
    "closeTimestamp": 1700086400,
    "closeTxHash": "0xclose1",
    "closeBlock": 1300,
    "collateralToken": "0xusdc",
    "collateralSymbol": "USDC",
    "collateralDecimals": 6,
    "underlyingAsset": "ETH",
    "priceFeed": "0xfeed",
    "strikes": ["200000000000", "220000000000"],
    "expiryTimestamp": 1700086400,
    "numContracts": "1",
    "collateralAmount": "20000000",
    "optionType": 257,
    "settlement": {
      "settlementPrice": "210000000000",
      "payoutBuyer": "10000000",
      "collateralReturnedSeller": "10000000",
      "exercised": true,
      "deliveryAmount": null,
      "deliveryCollateral": null,
      "explicitDecision": null,
      "oracleFailure": false,
      "oracleFailureReason": null
    },
    "explicitClose": null
  }
]`

func TestHistoryDecodesPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/0xwallet/history" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePositions))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	items, err := c.History(context.Background(), "0xwallet")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len=%d want 1", len(items))
	}
	p := items[0]
	if !p.Settled() {
		t.Fatalf("expected settled position")
	}
	if p.EntryTxHash != "0xhash1" {
		t.Fatalf("txHash=%q", p.EntryTxHash)
	}
	if p.OptionType != 257 {
		t.Fatalf("optionType=%d", p.OptionType)
	}
	if p.Settlement == nil || p.Settlement.PayoutBuyer == nil || *p.Settlement.PayoutBuyer != "10000000" {
		t.Fatalf("settlement payout not decoded: %+v", p.Settlement)
	}
}

func TestNonSuccessIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	_, err := c.OpenPositions(context.Background(), "0xwallet")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("status=%d", apiErr.Status)
	}
}

func TestTriggerUpdate(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	if err := c.TriggerUpdate(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/update" {
		t.Fatalf("got %s %s", gotMethod, gotPath)
	}
}

func TestWithHost(t *testing.T) {
	c := NewClient(http.DefaultClient, "https://a.example")
	if c2 := c.WithHost(""); c2 != c {
		t.Fatalf("empty host should return same client")
	}
	if c2 := c.WithHost("https://b.example/"); c2.Host() != "https://b.example" {
		t.Fatalf("host=%q", c2.Host())
	}
}
