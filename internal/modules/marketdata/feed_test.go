package marketdata

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrod/papertrade/internal/database"
	"github.com/stavrod/papertrade/internal/events"
)

// fixedSource always returns the same value, pinning the tick direction
type fixedSource struct{ v float64 }

func (s fixedSource) Float64() float64 { return s.v }

func testFeed(t *testing.T, src Source) *Feed {
	t.Helper()
	if src == nil {
		src = NewSource(1)
	}
	return NewFeed(Config{
		Universe: DefaultUniverse(),
		Source:   src,
		Log:      zerolog.Nop(),
	})
}

func TestNewFeedCoversUniverse(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	snap := feed.Snapshot()
	require.Len(t, snap.Prices, len(DefaultUniverse()))
	require.Len(t, snap.Books, len(DefaultUniverse()))

	for _, asset := range DefaultUniverse() {
		tick, ok := snap.Prices[asset.Symbol]
		require.True(t, ok, "missing price for %s", asset.Symbol)
		assert.Equal(t, asset.Price, tick.Price)
		assert.Equal(t, asset.Name, tick.Name)

		history, err := feed.GetHistory(asset.Symbol, "1M")
		require.NoError(t, err)
		assert.Len(t, history, historyDays+1)
	}
}

func TestTickBoundsPriceMove(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	for i := 0; i < 10; i++ {
		before := feed.PriceTable()
		require.NoError(t, feed.Tick())
		after := feed.PriceTable()

		for symbol, prev := range before {
			next := after[symbol]
			// +-1% bound plus half a cent of round2 slack
			maxMove := prev.Price*tickMaxMove + 0.005
			assert.LessOrEqual(t, math.Abs(next.Price-prev.Price), maxMove,
				"tick %d moved %s more than 1%%", i, symbol)
			assert.LessOrEqual(t, math.Abs(next.Change24h-prev.Change24h), changeDriftHalf+1e-9)
		}
	}
}

func TestTickExtremesStayWithinBound(t *testing.T) {
	// Source pinned to the edges of [0,1) drives the largest moves
	for _, v := range []float64{0, 0.999999} {
		feed := testFeed(t, fixedSource{v: v})

		before := feed.PriceTable()["BTC/USDT"].Price
		require.NoError(t, feed.Tick())
		after := feed.PriceTable()["BTC/USDT"].Price

		assert.LessOrEqual(t, math.Abs(after-before), before*tickMaxMove+0.005)
		feed.Close()
	}
}

// trippingSource returns zero draws until armed, then panics exactly once
type trippingSource struct{ armed bool }

func (s *trippingSource) Float64() float64 {
	if s.armed {
		s.armed = false
		panic("synthetic draw failure")
	}
	return 0
}

func TestTickKeepsPreviousValueWhenSymbolFails(t *testing.T) {
	src := &trippingSource{}
	feed := testFeed(t, src)
	defer feed.Close()

	before := feed.PriceTable()

	// The armed source panics on the next draw, which lands inside the
	// per-symbol tick computation of whichever symbol comes first.
	src.armed = true
	require.NoError(t, feed.Tick())
	after := feed.PriceTable()

	var kept []string
	for symbol, prev := range before {
		next := after[symbol]
		if next.Price == prev.Price && next.AsOf.Equal(prev.AsOf) {
			kept = append(kept, symbol)
			continue
		}
		// Zero draws pin the move to the lower bound
		assert.InDelta(t, round2(prev.Price*(1-tickMaxMove)), next.Price, 1e-9,
			"unaffected symbol %s must still advance", symbol)
	}
	require.Len(t, kept, 1, "exactly the failed symbol keeps its previous tick")
}

func TestTickSwapsSnapshotAtomically(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	old := feed.Snapshot()
	oldBTC := old.Prices["BTC/USDT"]

	require.NoError(t, feed.Tick())

	// The old snapshot is immutable; a holder still sees the pre-tick view
	assert.Equal(t, oldBTC, old.Prices["BTC/USDT"])
	assert.NotSame(t, old, feed.Snapshot())
	assert.True(t, feed.Snapshot().AsOf.After(old.AsOf) || feed.Snapshot().AsOf.Equal(old.AsOf))
}

func TestTickRegeneratesBooksFromNewPrices(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	require.NoError(t, feed.Tick())
	snap := feed.Snapshot()

	for symbol, tick := range snap.Prices {
		book := snap.Books[symbol]
		require.NotEmpty(t, book.Bids)
		require.NotEmpty(t, book.Asks)
		assert.Less(t, book.Bids[0].Price, tick.Price)
		assert.Greater(t, book.Asks[0].Price, tick.Price)
	}
}

func TestSubscribePublishAndCancel(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	ch, cancel := feed.Subscribe()

	require.NoError(t, feed.Tick())

	select {
	case snap := <-ch:
		require.NotNil(t, snap)
		assert.Len(t, snap.Prices, len(DefaultUniverse()))
	case <-time.After(time.Second):
		t.Fatal("expected a published snapshot")
	}

	cancel()
	cancel() // Safe to call twice

	_, open := <-ch
	assert.False(t, open, "cancel must close the channel")
}

func TestSlowSubscriberDropsTicksInsteadOfBlocking(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	ch, cancel := feed.Subscribe()
	defer cancel()

	// Fill the buffer and keep ticking; Tick must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			_ = feed.Tick()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tick blocked on a slow subscriber")
	}

	assert.NotEmpty(t, ch)
}

func TestCloseClosesSubscribers(t *testing.T) {
	feed := testFeed(t, nil)

	ch, _ := feed.Subscribe()
	feed.Close()
	feed.Close() // Idempotent

	_, open := <-ch
	assert.False(t, open)

	// Subscribing after close yields a closed channel
	late, _ := feed.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestLookupsOutsideUniverse(t *testing.T) {
	feed := testFeed(t, nil)
	defer feed.Close()

	assert.Nil(t, feed.GetPriceSnapshot("XRP/USDT"))
	assert.False(t, feed.HasSymbol("XRP/USDT"))
	assert.True(t, feed.HasSymbol("BTC/USDT"))

	_, err := feed.GetOrderBook("XRP/USDT")
	require.Error(t, err)

	_, err = feed.GetHistory("XRP/USDT", "1M")
	require.Error(t, err)
}

func TestTickEmitsPriceTickedEvent(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	received := make(chan *events.Event, 1)
	bus.Subscribe(events.PriceTicked, func(event *events.Event) {
		received <- event
	})

	feed := NewFeed(Config{
		Universe: DefaultUniverse(),
		Source:   NewSource(1),
		Bus:      bus,
		Log:      zerolog.Nop(),
	})
	defer feed.Close()

	require.NoError(t, feed.Tick())

	select {
	case event := <-received:
		data, ok := event.Data.(*events.PriceTickedData)
		require.True(t, ok)
		assert.Equal(t, len(DefaultUniverse()), data.Symbols)
	case <-time.After(time.Second):
		t.Fatal("expected a PriceTicked event")
	}
}

func TestFeedRestoresPersistedPrices(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "marketcache.db"),
		Profile: database.ProfileCache,
		Name:    "marketcache",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.InitCacheSchema(db.Conn()))

	store := NewSnapshotStore(db.Conn())

	first := NewFeed(Config{
		Universe: DefaultUniverse(),
		Source:   NewSource(1),
		Store:    store,
		Log:      zerolog.Nop(),
	})
	require.NoError(t, first.Tick())
	lastBTC := first.PriceTable()["BTC/USDT"].Price
	first.Close()

	second := NewFeed(Config{
		Universe: DefaultUniverse(),
		Source:   NewSource(2),
		Store:    store,
		Log:      zerolog.Nop(),
	})
	defer second.Close()

	assert.Equal(t, lastBTC, second.PriceTable()["BTC/USDT"].Price,
		"restarted feed must resume from the persisted price, not the seed")
}
