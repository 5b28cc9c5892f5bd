package payoff

import (
	"testing"

	"github.com/shopspring/decimal"
)

func strikes(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, decimal.NewFromInt(v))
	}
	return out
}

func TestParseStrikes(t *testing.T) {
	got, err := ParseStrikes([]string{"10000000000", "12000000000"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !got[0].Equal(decimal.NewFromInt(100)) || !got[1].Equal(decimal.NewFromInt(120)) {
		t.Fatalf("got %v", got)
	}
	if _, err := ParseStrikes([]string{"not-a-number"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCallSpreadBoundaries(t *testing.T) {
	k := strikes(100, 120)
	one := decimal.NewFromInt(1)
	tests := []struct {
		settlement int64
		want       int64
	}{
		{90, 0},
		{100, 0},
		{110, 10},
		{120, 20},
		{130, 20},
	}
	for _, tt := range tests {
		got := PayoutAtPrice(k, true, one, decimal.NewFromInt(tt.settlement))
		if !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Fatalf("payout(S=%d) = %s, want %d", tt.settlement, got, tt.want)
		}
	}
}

func TestPutSpread(t *testing.T) {
	k := strikes(100, 120)
	two := decimal.NewFromInt(2)
	if got := PayoutAtPrice(k, false, two, decimal.NewFromInt(125)); !got.IsZero() {
		t.Fatalf("above upper should be 0, got %s", got)
	}
	if got := PayoutAtPrice(k, false, two, decimal.NewFromInt(95)); !got.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("below lower should cap at width*contracts, got %s", got)
	}
	if got := PayoutAtPrice(k, false, two, decimal.NewFromInt(110)); !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("mid payout wrong, got %s", got)
	}
}

func TestButterfly(t *testing.T) {
	k := strikes(100, 110, 120)
	one := decimal.NewFromInt(1)
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(100)); !got.IsZero() {
		t.Fatalf("at lower bound want 0, got %s", got)
	}
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(110)); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("at mid want full width, got %s", got)
	}
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(105)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("left wing wrong, got %s", got)
	}
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(115)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("right wing wrong, got %s", got)
	}
}

func TestCondorPlateau(t *testing.T) {
	k := strikes(100, 110, 130, 140)
	one := decimal.NewFromInt(1)
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(120)); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("plateau want 10, got %s", got)
	}
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(105)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("low wing want 5, got %s", got)
	}
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(135)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("high wing want 5, got %s", got)
	}
	if got := PayoutAtPrice(k, true, one, decimal.NewFromInt(145)); !got.IsZero() {
		t.Fatalf("outside bounds want 0, got %s", got)
	}
}

func TestMaxPayout(t *testing.T) {
	if got := MaxPayout(strikes(100, 120), decimal.NewFromInt(3)); !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("spread max want 60, got %s", got)
	}
	if got := MaxPayout(strikes(100, 110, 120), decimal.NewFromInt(1)); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("butterfly max want 10, got %s", got)
	}
	if got := MaxPayout(strikes(100), decimal.NewFromInt(1)); !got.IsZero() {
		t.Fatalf("single strike want 0, got %s", got)
	}
}

func TestBreakeven(t *testing.T) {
	k := strikes(100, 120)
	be, ok := Breakeven(k, true, decimal.NewFromInt(4))
	if !ok || !be.Equal(decimal.NewFromInt(104)) {
		t.Fatalf("call breakeven want 104, got %s ok=%v", be, ok)
	}
	be, ok = Breakeven(k, false, decimal.NewFromInt(4))
	if !ok || !be.Equal(decimal.NewFromInt(116)) {
		t.Fatalf("put breakeven want 116, got %s ok=%v", be, ok)
	}
	if _, ok := Breakeven(strikes(100, 110, 120), true, decimal.NewFromInt(4)); ok {
		t.Fatalf("butterfly has no breakeven")
	}
}

func TestTypeLabel(t *testing.T) {
	tests := []struct {
		count  int
		isCall bool
		want   string
	}{
		{2, true, "CALL_SPREAD"},
		{2, false, "PUT_SPREAD"},
		{3, true, "CALL_BUTTERFLY"},
		{4, false, "PUT_CONDOR"},
		{5, true, "UNKNOWN_5"},
	}
	for _, tt := range tests {
		if got := TypeLabel(tt.count, tt.isCall); got != tt.want {
			t.Fatalf("TypeLabel(%d, %v) = %q, want %q", tt.count, tt.isCall, got, tt.want)
		}
	}
}
