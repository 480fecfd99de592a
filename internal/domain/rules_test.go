package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundUpToHalf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"105.3", "105.5"},
		{"106", "106"},
		{"105.5", "105.5"},
		{"105.51", "106"},
		{"0.01", "0.5"},
		{"99.99", "100"},
		{"0", "0"},
	}

	for _, tt := range tests {
		got := RoundUpToHalf(dec(tt.in))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("RoundUpToHalf(%s) = %s, want %s", tt.in, got, tt.want)
		}
		if again := RoundUpToHalf(got); !again.Equal(got) {
			t.Errorf("RoundUpToHalf not idempotent for %s: %s then %s", tt.in, got, again)
		}
	}
}

func TestExceedsIncrement(t *testing.T) {
	tests := []struct {
		highest string
		amount  string
		want    bool
	}{
		{"100", "104", false},
		{"100", "105", false},
		{"100", "105.01", true},
		{"100", "106", true},
		{"0", "0", false},
		{"0", "0.01", true},
		{"225000", "236250", false},
		{"225000", "236250.01", true},
	}

	for _, tt := range tests {
		if got := ExceedsIncrement(dec(tt.highest), dec(tt.amount)); got != tt.want {
			t.Errorf("ExceedsIncrement(%s, %s) = %v, want %v", tt.highest, tt.amount, got, tt.want)
		}
	}
}

func TestCurrentHighest(t *testing.T) {
	item := &AuctionItem{StartingPrice: dec("50")}
	if got := CurrentHighest(item); !got.Equal(dec("50")) {
		t.Errorf("expected starting price 50 without bids, got %s", got)
	}

	item.Bids = []*Bid{
		{ID: 1, Amount: dec("60")},
		{ID: 2, Amount: dec("80")},
		{ID: 3, Amount: dec("70")},
	}
	if got := CurrentHighest(item); !got.Equal(dec("80")) {
		t.Errorf("expected 80, got %s", got)
	}
	if hb := item.HighestBid(); hb.ID != 2 {
		t.Errorf("expected highest bid id 2, got %d", hb.ID)
	}
}

func TestAuctionItemOpen(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	item := &AuctionItem{StartTime: start, EndTime: start.Add(time.Hour), Status: StatusInitial}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before start", start.Add(-time.Second), false},
		{"at start", start, true},
		{"running", start.Add(30 * time.Minute), true},
		{"at end", start.Add(time.Hour), true},
		{"after end", start.Add(time.Hour + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := item.Open(tt.at); got != tt.want {
				t.Errorf("Open = %v, want %v", got, tt.want)
			}
		})
	}

	item.Status = StatusCancelled
	if item.Open(start.Add(time.Minute)) {
		t.Error("cancelled item must not be open")
	}
}

func TestParseTier(t *testing.T) {
	tests := map[string]Tier{
		"Gold":     TierGold,
		"Platinum": TierPlatinum,
		"Free":     TierFree,
		"":         TierFree,
		"gold":     TierFree,
		"Diamond":  TierFree,
	}
	for in, want := range tests {
		if got := ParseTier(in); got != want {
			t.Errorf("ParseTier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAuctionStatusJSON(t *testing.T) {
	data, err := json.Marshal(StatusPaid)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"Paid"` {
		t.Errorf("expected \"Paid\", got %s", data)
	}

	var s AuctionStatus
	if err := json.Unmarshal([]byte(`"Cancelled"`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s != StatusCancelled {
		t.Errorf("expected Cancelled, got %v", s)
	}

	if err := json.Unmarshal([]byte(`"Sold"`), &s); err == nil {
		t.Error("expected error for unknown status")
	}
}
