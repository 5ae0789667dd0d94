package marketdata

import (
	"math"

	"github.com/stavrod/papertrade/internal/domain"
)

const (
	bookDepth      = 20
	spreadFraction = 0.001  // Half-spread on each side of the reference price
	levelStep      = 0.0001 // Price distance between adjacent ladder rungs
)

// GenerateOrderBook builds a synthetic bid/ask ladder around the given
// price. Quantities are random; prices are deterministic functions of the
// reference price, which keeps the ladder strictly monotonic: bids
// decrease, asks increase, and the best bid stays below the best ask.
//
// Spread and rung step are floored at one cent. Prices round to two
// decimals, so for low-priced symbols a fractional step would collapse
// adjacent rungs into equal prices and break the monotonicity invariant.
func GenerateOrderBook(src Source, price float64) domain.OrderBook {
	spread := maxFloat(price*spreadFraction, 0.01)
	step := maxFloat(price*levelStep, 0.01)

	bids := make([]domain.OrderLevel, 0, bookDepth)
	asks := make([]domain.OrderLevel, 0, bookDepth)

	for i := 0; i < bookDepth; i++ {
		bids = append(bids, makeLevel(src, price-spread-float64(i)*step))
	}

	for i := 0; i < bookDepth; i++ {
		asks = append(asks, makeLevel(src, price+spread+float64(i)*step))
	}

	return domain.OrderBook{Bids: bids, Asks: asks}
}

func makeLevel(src Source, price float64) domain.OrderLevel {
	quantity := uniform(src, 0.1, 10.1)
	return domain.OrderLevel{
		Price:    round2(price),
		Quantity: round3(quantity),
		Total:    round2(price * quantity),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
