// Package marketdata owns the synthetic market: the live price table, the
// per-symbol order books and the static candle histories.
package marketdata

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/events"
)

const (
	tickMaxMove     = 0.01 // Price moves at most +-1% per tick
	changeDriftHalf = 0.25 // change24h drifts +-0.25 points per tick
)

// Snapshot is one immutable, atomically-published view of the market.
// A snapshot is never mutated after publication; readers holding one see a
// consistent price table and book set for a single tick.
type Snapshot struct {
	Prices map[string]domain.PriceTick
	Books  map[string]domain.OrderBook
	AsOf   time.Time
}

// Config holds market data feed configuration
type Config struct {
	Universe []Asset
	Source   Source
	Bus      *events.Bus
	Store    *SnapshotStore // Optional; nil disables snapshot persistence
	Log      zerolog.Logger
}

// Feed owns the live market state for a fixed symbol universe. Every tick
// builds a complete new snapshot and swaps it in atomically, so no reader
// ever observes a mix of old and new symbol entries.
type Feed struct {
	universe  []Asset
	histories map[string][]domain.Candle
	src       Source
	bus       *events.Bus
	store     *SnapshotStore
	log       zerolog.Logger

	snapshot atomic.Pointer[Snapshot]

	subMu       sync.Mutex
	subscribers map[int]chan *Snapshot
	nextSubID   int
	closed      bool
}

// NewFeed registers the universe and builds the initial market state.
// When a persisted price snapshot exists, headline prices resume from it;
// candle histories are generated fresh either way, seeded from the
// starting price of each symbol.
func NewFeed(cfg Config) *Feed {
	f := &Feed{
		universe:    cfg.Universe,
		histories:   make(map[string][]domain.Candle, len(cfg.Universe)),
		src:         cfg.Source,
		bus:         cfg.Bus,
		store:       cfg.Store,
		log:         cfg.Log.With().Str("service", "market_feed").Logger(),
		subscribers: make(map[int]chan *Snapshot),
	}

	restored := f.loadPersistedPrices()

	now := time.Now().UTC()
	prices := make(map[string]domain.PriceTick, len(cfg.Universe))
	books := make(map[string]domain.OrderBook, len(cfg.Universe))

	for i := range f.universe {
		asset := &f.universe[i]

		if prev, ok := restored[asset.Symbol]; ok {
			asset.Price = prev.Price
			asset.Change24h = prev.Change24h
		}

		prices[asset.Symbol] = domain.PriceTick{
			Symbol:    asset.Symbol,
			Name:      asset.Name,
			Price:     asset.Price,
			Change24h: asset.Change24h,
			High24h:   asset.High24h,
			Low24h:    asset.Low24h,
			Volume24h: asset.Volume24h,
			MarketCap: asset.MarketCap,
			AsOf:      now,
		}
		books[asset.Symbol] = GenerateOrderBook(f.src, asset.Price)
		f.histories[asset.Symbol] = GenerateHistory(f.src, *asset, now)
	}

	f.snapshot.Store(&Snapshot{Prices: prices, Books: books, AsOf: now})

	f.log.Info().
		Int("symbols", len(cfg.Universe)).
		Bool("restored", len(restored) > 0).
		Msg("Market feed initialized")

	return f
}

func (f *Feed) loadPersistedPrices() map[string]domain.PriceTick {
	if f.store == nil {
		return nil
	}
	prices, savedAt, err := f.store.Load()
	if err != nil {
		f.log.Warn().Err(err).Msg("Failed to load persisted price snapshot, using seeds")
		return nil
	}
	if prices != nil {
		f.log.Info().Time("saved_at", savedAt).Msg("Resuming prices from persisted snapshot")
	}
	return prices
}

// Tick regenerates the whole price table and every order book, then swaps
// the new snapshot in atomically and publishes it. A failure computing one
// symbol keeps that symbol's previous tick; the rest of the table still
// updates.
func (f *Feed) Tick() error {
	old := f.snapshot.Load()
	now := time.Now().UTC()

	prices := make(map[string]domain.PriceTick, len(old.Prices))
	books := make(map[string]domain.OrderBook, len(old.Prices))

	for symbol, prev := range old.Prices {
		next, err := f.tickSymbol(prev, now)
		if err != nil {
			f.log.Error().Err(err).Str("symbol", symbol).Msg("Tick failed for symbol, keeping previous value")
			next = prev
		}
		prices[symbol] = next
		// Books always derive from the post-swap price, never the one
		// from the previous tick.
		books[symbol] = GenerateOrderBook(f.src, next.Price)
	}

	snap := &Snapshot{Prices: prices, Books: books, AsOf: now}
	f.snapshot.Store(snap)

	f.persist(prices)
	f.publish(snap)

	if f.bus != nil {
		f.bus.Emit(events.PriceTicked, "marketdata", &events.PriceTickedData{
			Symbols: len(prices),
			AsOf:    now,
		})
	}

	return nil
}

// tickSymbol computes the next tick for one symbol. Panics from a
// misbehaving random source are contained here so one symbol cannot take
// down the whole tick.
func (f *Feed) tickSymbol(prev domain.PriceTick, now time.Time) (tick domain.PriceTick, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick computation panicked: %v", r)
		}
	}()

	tick = prev
	tick.Price = round2(prev.Price * (1 + uniform(f.src, -tickMaxMove, tickMaxMove)))
	tick.Change24h = prev.Change24h + uniform(f.src, -changeDriftHalf, changeDriftHalf)
	tick.AsOf = now
	return tick, nil
}

func (f *Feed) persist(prices map[string]domain.PriceTick) {
	if f.store == nil {
		return
	}
	if err := f.store.Save(prices); err != nil {
		f.log.Warn().Err(err).Msg("Failed to persist price snapshot")
	}
}

// publish fans the snapshot out to all subscribers. Sends are
// non-blocking: a subscriber that cannot keep up misses ticks instead of
// stalling the feed.
func (f *Feed) publish(snap *Snapshot) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	for id, ch := range f.subscribers {
		select {
		case ch <- snap:
		default:
			f.log.Debug().Int("subscriber", id).Msg("Subscriber channel full, dropping tick")
		}
	}
}

// Subscribe registers a snapshot listener. The returned cancel function
// removes the subscription and closes the channel; it is safe to call
// more than once.
func (f *Feed) Subscribe() (<-chan *Snapshot, func()) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	id := f.nextSubID
	f.nextSubID++
	ch := make(chan *Snapshot, 4)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	f.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.subMu.Lock()
			defer f.subMu.Unlock()
			if _, ok := f.subscribers[id]; ok {
				delete(f.subscribers, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Close tears the feed down: all subscriber channels are closed and no
// further ticks are published. The periodic driver must be stopped by the
// caller (scheduler shutdown) before Close.
func (f *Feed) Close() {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subscribers {
		delete(f.subscribers, id)
		close(ch)
	}
	f.log.Info().Msg("Market feed closed")
}

// Snapshot returns the current atomically-published market snapshot
func (f *Feed) Snapshot() *Snapshot {
	return f.snapshot.Load()
}

// PriceTable returns the current price table. The map belongs to the
// published snapshot and must be treated as read-only.
func (f *Feed) PriceTable() map[string]domain.PriceTick {
	return f.snapshot.Load().Prices
}

// GetPriceSnapshot returns the current tick for one symbol, or nil when
// the symbol is not part of the universe.
func (f *Feed) GetPriceSnapshot(symbol string) *domain.PriceTick {
	if tick, ok := f.snapshot.Load().Prices[symbol]; ok {
		return &tick
	}
	return nil
}

// GetOrderBook returns the current book for one symbol
func (f *Feed) GetOrderBook(symbol string) (domain.OrderBook, error) {
	if book, ok := f.snapshot.Load().Books[symbol]; ok {
		return book, nil
	}
	return domain.OrderBook{}, &domain.SymbolNotFoundError{Symbol: symbol}
}

// GetHistory returns the candle series for a symbol sliced to a timeframe
func (f *Feed) GetHistory(symbol, timeframe string) ([]domain.Candle, error) {
	candles, ok := f.histories[symbol]
	if !ok {
		return nil, &domain.SymbolNotFoundError{Symbol: symbol}
	}
	return SliceTimeframe(candles, timeframe), nil
}

// HasSymbol reports whether a symbol belongs to the registered universe
func (f *Feed) HasSymbol(symbol string) bool {
	_, ok := f.snapshot.Load().Prices[symbol]
	return ok
}

// TickJob adapts the feed tick to the scheduler job interface
type TickJob struct {
	feed *Feed
}

// NewTickJob creates the scheduler job driving the feed
func NewTickJob(feed *Feed) *TickJob {
	return &TickJob{feed: feed}
}

// Name returns the job name
func (j *TickJob) Name() string { return "market_tick" }

// Run executes one feed tick
func (j *TickJob) Run() error { return j.feed.Tick() }
