package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderBookShape(t *testing.T) {
	src := NewSource(1)
	book := GenerateOrderBook(src, 43250)

	require.Len(t, book.Bids, bookDepth)
	require.Len(t, book.Asks, bookDepth)
}

func TestGenerateOrderBookMonotonicity(t *testing.T) {
	src := NewSource(42)

	// Includes sub-dollar prices, where 2-decimal rounding would collapse
	// a fractional rung step.
	for _, price := range []float64{43250, 2685.50, 102.45, 7.32, 0.485} {
		book := GenerateOrderBook(src, price)

		for i := 1; i < len(book.Bids); i++ {
			assert.Less(t, book.Bids[i].Price, book.Bids[i-1].Price, "bids must strictly decrease at price %.2f", price)
		}
		for i := 1; i < len(book.Asks); i++ {
			assert.Greater(t, book.Asks[i].Price, book.Asks[i-1].Price, "asks must strictly increase at price %.2f", price)
		}
		assert.Less(t, book.Bids[0].Price, book.Asks[0].Price, "best bid must stay below best ask at price %.2f", price)
	}
}

func TestGenerateOrderBookLevelValues(t *testing.T) {
	src := NewSource(7)
	book := GenerateOrderBook(src, 2685.50)

	for _, level := range append(book.Bids, book.Asks...) {
		assert.GreaterOrEqual(t, level.Quantity, 0.1)
		assert.Less(t, level.Quantity, 10.101)
		assert.Positive(t, level.Price)
		assert.Positive(t, level.Total)
	}
}
