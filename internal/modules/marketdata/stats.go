package marketdata

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/stavrod/papertrade/internal/domain"
)

// SymbolStats summarizes a symbol's candle series for the market stats
// panel: realized close-to-close volatility plus volume and range figures.
type SymbolStats struct {
	Symbol      string  `json:"symbol"`
	Volatility  float64 `json:"volatility"` // Stddev of daily log returns
	MeanVolume  float64 `json:"mean_volume"`
	HighestHigh float64 `json:"highest_high"`
	LowestLow   float64 `json:"lowest_low"`
	Candles     int     `json:"candles"`
}

// ComputeStats derives summary statistics from a candle series.
// Returns zero-valued stats for series shorter than two candles.
func ComputeStats(symbol string, candles []domain.Candle) SymbolStats {
	stats := SymbolStats{Symbol: symbol, Candles: len(candles)}
	if len(candles) == 0 {
		return stats
	}

	stats.HighestHigh = candles[0].High
	stats.LowestLow = candles[0].Low

	volumes := make([]float64, 0, len(candles))
	returns := make([]float64, 0, len(candles)-1)

	for i, c := range candles {
		volumes = append(volumes, c.Volume)
		if c.High > stats.HighestHigh {
			stats.HighestHigh = c.High
		}
		if c.Low < stats.LowestLow {
			stats.LowestLow = c.Low
		}
		if i > 0 && candles[i-1].Close > 0 && c.Close > 0 {
			returns = append(returns, math.Log(c.Close/candles[i-1].Close))
		}
	}

	stats.MeanVolume = stat.Mean(volumes, nil)
	if len(returns) > 1 {
		stats.Volatility = stat.StdDev(returns, nil)
	}

	return stats
}
