package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"algo-trader/internal/models"
	"algo-trader/internal/store"
)

func f(v float64) *float64 { return &v }

func sampleSummary() PassSummary {
	ts := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	sig := models.NewSignal("AAPL", models.SignalBuy, ts, 187.5, "golden cross")
	return PassSummary{
		Slot:        "08:00",
		GeneratedAt: ts,
		Mode:        models.ModePaper,
		Results: []models.ScanResult{
			{
				Symbol:          "AAPL",
				Snapshot:        models.IndicatorSnapshot{Symbol: "AAPL", Price: 187.5, RSI: f(72.3)},
				Trend:           models.TrendBullish,
				MatchedCriteria: []string{"rsi_overbought"},
				Score:           27.5,
			},
		},
		ScanErrors: []models.ScanError{
			{Symbol: "XYZ", Kind: models.ScanErrFetch, Err: os.ErrDeadlineExceeded},
		},
		Signals: []models.Signal{sig},
		Orders: []models.Order{
			{SignalID: sig.ID, Symbol: "AAPL", Side: models.OrderSideBuy, Quantity: 10, Status: models.OrderFilled, AttemptCount: 1},
		},
		Portfolio: []store.PortfolioSnapshot{
			{Timestamp: ts.AddDate(0, 0, -30), TotalValue: 100000},
			{Timestamp: ts, TotalValue: 105000},
		},
	}
}

func TestRenderIncludesAllSections(t *testing.T) {
	text := NewGenerator(t.TempDir()).Render(sampleSummary())

	for _, want := range []string{
		"===== 08:00 REPORT =====",
		"Mode: PAPER",
		"AAPL",
		"bullish",
		"rsi_overbought",
		"XYZ",
		"data_fetch",
		"BUY",
		"golden cross",
		"FILLED",
		"Current value: $105,000.00",
		"+5.00%",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderEmptyPass(t *testing.T) {
	text := NewGenerator(t.TempDir()).Render(PassSummary{
		Slot:        "20:00",
		GeneratedAt: time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC),
		Mode:        models.ModeLive,
	})

	for _, want := range []string{"no symbols passed the scan", "no crossover signals", "no orders placed"} {
		if !strings.Contains(text, want) {
			t.Errorf("empty report missing %q", want)
		}
	}
}

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := NewGenerator(dir).Save(sampleSummary())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(path, "2025-06-02_0800.txt") {
		t.Errorf("unexpected report path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "===== 08:00 REPORT =====") {
		t.Errorf("written report truncated")
	}
}
