package indicators

import (
	"math"
	"testing"
	"time"

	"algo-trader/internal/models"
)

func barsFromCloses(closes ...float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	day := time.Date(2025, 1, 2, 16, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: day,
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
		day = day.Add(24 * time.Hour)
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMACalculate(t *testing.T) {
	sma := NewSMA(3)
	values, err := sma.Calculate(barsFromCloses(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want := []float64{0, 0, 2, 3}
	for i, w := range want {
		if !almostEqual(values[i], w) {
			t.Errorf("values[%d] = %f, want %f", i, values[i], w)
		}
	}

	last, err := sma.Last(barsFromCloses(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if !almostEqual(last, 3) {
		t.Errorf("Last = %f, want 3", last)
	}
}

func TestSMAErrors(t *testing.T) {
	if _, err := NewSMA(5).Calculate(barsFromCloses(1, 2, 3)); err != ErrInsufficientData {
		t.Errorf("short input: err = %v, want ErrInsufficientData", err)
	}
	if _, err := NewSMA(0).Calculate(barsFromCloses(1, 2, 3)); err != ErrInvalidPeriod {
		t.Errorf("zero period: err = %v, want ErrInvalidPeriod", err)
	}
}

func TestEMAConvergesTowardRecentPrices(t *testing.T) {
	// Constant series: EMA equals the constant once seeded
	values, err := NewEMA(5).Calculate(barsFromCloses(10, 10, 10, 10, 10, 10, 10, 10))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	for i := 4; i < len(values); i++ {
		if !almostEqual(values[i], 10) {
			t.Errorf("values[%d] = %f, want 10", i, values[i])
		}
	}

	// After a step up, EMA moves above the SMA of the full window
	stepped := barsFromCloses(10, 10, 10, 10, 10, 20, 20, 20)
	ema, _ := NewEMA(5).Calculate(stepped)
	sma, _ := NewSMA(5).Calculate(stepped)
	last := len(stepped) - 1
	if ema[last] <= sma[last] {
		t.Errorf("EMA %f should exceed SMA %f after a step up", ema[last], sma[last])
	}
}

func TestRSIAllGainsPinsAt100(t *testing.T) {
	values, err := NewRSI(14).Calculate(barsFromCloses(
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if values[14] != 100 {
		t.Errorf("RSI with zero losses = %f, want 100", values[14])
	}
}

func TestRSIAllLossesPinsAt0(t *testing.T) {
	values, err := NewRSI(14).Calculate(barsFromCloses(
		16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1,
	))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if values[14] != 0 {
		t.Errorf("RSI with zero gains = %f, want 0", values[14])
	}
}

func TestRSINeedsPeriodPlusOneBars(t *testing.T) {
	if _, err := NewRSI(14).Calculate(barsFromCloses(1, 2, 3)); err != ErrInsufficientData {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestATRConstantRange(t *testing.T) {
	// Identical bars: TR is the high-low spread every day, so ATR is flat
	bars := make([]models.Bar, 20)
	day := time.Date(2025, 1, 2, 16, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{Timestamp: day, Open: 100, High: 102, Low: 98, Close: 100, Volume: 1000}
		day = day.Add(24 * time.Hour)
	}

	values, err := NewATR(14).Calculate(bars)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	for i := 13; i < len(values); i++ {
		if !almostEqual(values[i], 4) {
			t.Errorf("values[%d] = %f, want 4", i, values[i])
		}
	}
}

func TestMACDCrossoverSign(t *testing.T) {
	// A long downtrend then a sharp rally: histogram ends positive
	closes := make([]float64, 0, 60)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100-float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 60+float64(i)*3)
	}

	result, err := NewMACD(12, 26, 9).Calculate(barsFromCloses(closes...))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	last := len(closes) - 1
	if result["histogram"][last] <= 0 {
		t.Errorf("histogram after rally = %f, want > 0", result["histogram"][last])
	}
	if result["macd"][last] != result["signal"][last]+result["histogram"][last] {
		t.Errorf("histogram is not macd minus signal")
	}
}

func TestSnapshotFillsWhatHistoryAllows(t *testing.T) {
	p := DefaultParams()

	// Plenty of history: everything is present
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*10
	}
	snap := Snapshot("AAPL", barsFromCloses(closes...), p)
	if snap.SMAFast == nil || snap.SMASlow == nil || snap.RSI == nil ||
		snap.MACDLine == nil || snap.MACDSignal == nil || snap.MACDHist == nil ||
		snap.ATR == nil || snap.VolumeSMA == nil {
		t.Errorf("snapshot with full history has nil fields: %+v", snap)
	}
	if snap.Symbol != "AAPL" {
		t.Errorf("symbol = %s", snap.Symbol)
	}
	if !almostEqual(snap.Price, closes[len(closes)-1]) {
		t.Errorf("price = %f, want last close", snap.Price)
	}

	// Thin history: fast SMA present, slow SMA absent, snapshot still built
	thin := Snapshot("AAPL", barsFromCloses(closes[:20]...), p)
	if thin.SMAFast == nil {
		t.Errorf("20 bars should allow the fast SMA")
	}
	if thin.SMASlow != nil {
		t.Errorf("20 bars must not produce a 50-period SMA")
	}
}

func TestSnapshotEmptyBars(t *testing.T) {
	snap := Snapshot("AAPL", nil, DefaultParams())
	if snap.SMAFast != nil || snap.RSI != nil || snap.ATR != nil {
		t.Errorf("empty history produced indicator values")
	}
}
