package marketdata

import (
	"github.com/markcheno/go-talib"

	"github.com/stavrod/papertrade/internal/domain"
)

// IndicatorSet carries chart overlay series computed from candle closes.
// Values before an indicator's warm-up period are zero, matching the
// underlying TA library's convention.
type IndicatorSet struct {
	Symbol string    `json:"symbol"`
	Period int       `json:"period"`
	SMA    []float64 `json:"sma"`
	EMA    []float64 `json:"ema"`
	RSI    []float64 `json:"rsi"`
}

// DefaultIndicatorPeriod is used when the caller does not ask for one
const DefaultIndicatorPeriod = 14

// ComputeIndicators derives SMA/EMA/RSI overlays from a candle series.
// Series shorter than the period return empty overlays rather than
// erroring; the chart simply has nothing to draw.
func ComputeIndicators(symbol string, candles []domain.Candle, period int) IndicatorSet {
	set := IndicatorSet{Symbol: symbol, Period: period}
	if period <= 0 || len(candles) < period {
		return set
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	set.SMA = talib.Sma(closes, period)
	set.EMA = talib.Ema(closes, period)
	set.RSI = talib.Rsi(closes, period)

	return set
}
