package marketdata

import (
	"time"

	"github.com/stavrod/papertrade/internal/domain"
)

const (
	// historyDays is the length of the daily random walk. The generated
	// series has historyDays+1 candles (day 0 inclusive).
	historyDays = 31

	dailyVolatility = 0.05
	wickFraction    = 0.02
	volumeFraction  = 0.1
)

// GenerateHistory builds the static synthetic daily candle series for an
// asset at registration time. It random-walks backwards-dated candles from
// 90% of the current price, oldest first. The series never changes after
// creation - later price ticks update only the headline PriceTick.
func GenerateHistory(src Source, asset Asset, now time.Time) []domain.Candle {
	candles := make([]domain.Candle, 0, historyDays+1)
	currentPrice := asset.Price * 0.9

	for i := historyDays; i >= 0; i-- {
		timestamp := now.AddDate(0, 0, -i)
		change := (src.Float64() - 0.5) * dailyVolatility * currentPrice

		open := currentPrice
		close := currentPrice + change
		high := maxFloat(open, close) * (1 + src.Float64()*wickFraction)
		low := minFloat(open, close) * (1 - src.Float64()*wickFraction)
		volume := src.Float64() * asset.Volume24h * volumeFraction

		candles = append(candles, domain.Candle{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
		})

		currentPrice = close
	}

	return candles
}

// SliceTimeframe maps a timeframe label to a slice of the candle series.
// The label-to-window mapping is a compatibility quirk the frontend
// depends on ("1H" is 24 points, "1M" is the whole series); keep it as-is.
func SliceTimeframe(candles []domain.Candle, timeframe string) []domain.Candle {
	switch timeframe {
	case "1H":
		return lastN(candles, 24)
	case "1D":
		return lastN(candles, 7)
	case "1W":
		return lastN(candles, 30)
	case "1M":
		return candles
	default:
		return candles
	}
}

func lastN(candles []domain.Candle, n int) []domain.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
