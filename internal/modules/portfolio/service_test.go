package portfolio

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/events"
)

type stubLedger struct {
	mu           sync.Mutex
	transactions []domain.Transaction
	err          error
}

func (s *stubLedger) Query(holderID string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *stubLedger) set(transactions []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = transactions
}

type stubPrices struct {
	mu    sync.Mutex
	table map[string]domain.PriceTick
}

func (s *stubPrices) PriceTable() map[string]domain.PriceTick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

func (s *stubPrices) set(table map[string]domain.PriceTick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
}

func testPortfolioService(t *testing.T) (*Service, *stubLedger, *stubPrices, *events.Bus) {
	t.Helper()

	ledger := &stubLedger{}
	prices := &stubPrices{table: map[string]domain.PriceTick{}}
	bus := events.NewBus(zerolog.Nop())
	svc := NewService(ledger, prices, bus, quote, zerolog.Nop())
	return svc, ledger, prices, bus
}

func TestRecomputeValuesLedger(t *testing.T) {
	svc, ledger, prices, _ := testPortfolioService(t)

	ledger.set([]domain.Transaction{
		tx(domain.KindDeposit, quote, 10000, 1, 10000, 0),
		tx(domain.KindBuy, "BTC/USDT", 0.25, 42000, 10500, 10.5),
	})
	prices.set(map[string]domain.PriceTick{"BTC/USDT": {Symbol: "BTC/USDT", Price: 44000}})

	pf, err := svc.Recompute("h1")
	require.NoError(t, err)

	assert.InDelta(t, 10000-10510.5, pf.CashBalance, 1e-9)
	require.Len(t, pf.Positions, 1)
	assert.InDelta(t, 0.25*44000, pf.Positions[0].CurrentValue, 1e-9)
}

func TestGetPortfolioCachesLatest(t *testing.T) {
	svc, ledger, _, _ := testPortfolioService(t)
	ledger.set([]domain.Transaction{tx(domain.KindDeposit, quote, 500, 1, 500, 0)})

	first, err := svc.GetPortfolio("h1")
	require.NoError(t, err)

	// Cached read returns the same snapshot without recomputing
	second, err := svc.GetPortfolio("h1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	// An explicit recompute refreshes the cache
	ledger.set([]domain.Transaction{tx(domain.KindDeposit, quote, 900, 1, 900, 0)})
	third, err := svc.Recompute("h1")
	require.NoError(t, err)
	assert.InDelta(t, 900, third.CashBalance, 1e-9)

	cached, err := svc.GetPortfolio("h1")
	require.NoError(t, err)
	assert.InDelta(t, 900, cached.CashBalance, 1e-9)
}

func TestRecomputeEmitsPortfolioRecomputed(t *testing.T) {
	svc, ledger, _, bus := testPortfolioService(t)
	ledger.set([]domain.Transaction{tx(domain.KindDeposit, quote, 1000, 1, 1000, 0)})

	received := make(chan *events.Event, 1)
	bus.Subscribe(events.PortfolioRecomputed, func(event *events.Event) {
		received <- event
	})

	_, err := svc.Recompute("h1")
	require.NoError(t, err)

	select {
	case event := <-received:
		data, ok := event.Data.(*events.PortfolioRecomputedData)
		require.True(t, ok)
		assert.Equal(t, "h1", data.HolderID)
		assert.InDelta(t, 1000, data.TotalValue, 1e-9)
	default:
		t.Fatal("expected a PortfolioRecomputed event")
	}
}

func TestListenersRecomputeOnTransactionAppended(t *testing.T) {
	svc, ledger, _, bus := testPortfolioService(t)
	svc.RegisterListeners()

	ledger.set([]domain.Transaction{tx(domain.KindDeposit, quote, 2500, 1, 2500, 0)})

	bus.Emit(events.TransactionAppended, "trading", &events.TransactionAppendedData{
		HolderID: "h1", TransactionID: 1, Kind: "deposit", Symbol: quote, Quantity: 2500, Total: 2500,
	})

	require.Eventually(t, func() bool {
		pf, err := svc.GetPortfolio("h1")
		return err == nil && pf.CashBalance == 2500
	}, time.Second, 10*time.Millisecond)
}

func TestListenersRevalueOnPriceTick(t *testing.T) {
	svc, ledger, prices, bus := testPortfolioService(t)
	svc.RegisterListeners()

	ledger.set([]domain.Transaction{
		tx(domain.KindDeposit, quote, 10000, 1, 10000, 0),
		tx(domain.KindBuy, "BTC/USDT", 1, 5000, 5000, 0),
	})
	prices.set(map[string]domain.PriceTick{"BTC/USDT": {Symbol: "BTC/USDT", Price: 5000}})

	_, err := svc.Recompute("h1")
	require.NoError(t, err)

	prices.set(map[string]domain.PriceTick{"BTC/USDT": {Symbol: "BTC/USDT", Price: 6000}})
	bus.Emit(events.PriceTicked, "marketdata", &events.PriceTickedData{Symbols: 1, AsOf: time.Now()})

	require.Eventually(t, func() bool {
		pf, err := svc.GetPortfolio("h1")
		return err == nil && len(pf.Positions) == 1 && pf.Positions[0].CurrentValue == 6000
	}, time.Second, 10*time.Millisecond)
}

func TestRecomputeKeepsLastGoodValuationOnLedgerFailure(t *testing.T) {
	svc, ledger, _, _ := testPortfolioService(t)
	ledger.set([]domain.Transaction{tx(domain.KindDeposit, quote, 700, 1, 700, 0)})

	_, err := svc.Recompute("h1")
	require.NoError(t, err)

	ledger.err = &domain.PersistenceError{Op: "query", Err: assert.AnError}
	pf, err := svc.Recompute("h1")
	require.Error(t, err)
	require.NotNil(t, pf)
	assert.InDelta(t, 700, pf.CashBalance, 1e-9)
}

func TestWarmSurvivesPersistenceFailure(t *testing.T) {
	svc, ledger, _, _ := testPortfolioService(t)
	ledger.err = &domain.PersistenceError{Op: "query", Err: assert.AnError}

	svc.Warm("h1")

	pf, err := svc.GetPortfolio("h1")
	require.NoError(t, err)
	assert.Zero(t, pf.CashBalance)
	assert.Empty(t, pf.Positions)
}

func TestConcurrentRecomputesSerialize(t *testing.T) {
	svc, ledger, _, _ := testPortfolioService(t)
	ledger.set([]domain.Transaction{tx(domain.KindDeposit, quote, 100, 1, 100, 0)})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Recompute("h1")
		}()
	}
	wg.Wait()

	pf, err := svc.GetPortfolio("h1")
	require.NoError(t, err)
	assert.InDelta(t, 100, pf.CashBalance, 1e-9)
}
