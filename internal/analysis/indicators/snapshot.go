package indicators

import (
	"algo-trader/internal/models"
)

// Params holds the indicator periods used when building a snapshot. Periods
// are configuration, not constants; Default matches the conventional values.
type Params struct {
	SMAFast    int
	SMASlow    int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ATRPeriod  int
	VolPeriod  int
}

// DefaultParams returns the conventional indicator periods.
func DefaultParams() Params {
	return Params{
		SMAFast:    10,
		SMASlow:    50,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATRPeriod:  14,
		VolPeriod:  20,
	}
}

// Snapshot computes all configured indicators over the bar window and returns
// them as one snapshot. Each indicator that lacks history is left nil rather
// than failing the whole computation; an empty window returns the zero
// snapshot with only the symbol set.
func Snapshot(symbol string, bars []models.Bar, p Params) models.IndicatorSnapshot {
	snap := models.IndicatorSnapshot{Symbol: symbol}
	if len(bars) == 0 {
		return snap
	}

	last := bars[len(bars)-1]
	snap.Timestamp = last.Timestamp
	snap.Price = last.Close
	snap.Volume = last.Volume

	if values, err := NewSMA(p.SMAFast).Calculate(bars); err == nil {
		snap.SMAFast = lastValue(values)
	}
	if values, err := NewSMA(p.SMASlow).Calculate(bars); err == nil {
		snap.SMASlow = lastValue(values)
	}
	if values, err := NewRSI(p.RSIPeriod).Calculate(bars); err == nil {
		snap.RSI = lastValue(values)
	}
	if series, err := NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal).Calculate(bars); err == nil {
		snap.MACDLine = lastValue(series["macd"])
		snap.MACDSignal = lastValue(series["signal"])
		snap.MACDHist = lastValue(series["histogram"])
	}
	if values, err := NewATR(p.ATRPeriod).Calculate(bars); err == nil {
		snap.ATR = lastValue(values)
	}
	if values, err := NewVolumeSMA(p.VolPeriod).Calculate(bars); err == nil {
		snap.VolumeSMA = lastValue(values)
	}

	return snap
}

func lastValue(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	return &v
}
