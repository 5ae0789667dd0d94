package trading

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrod/papertrade/internal/database"
	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/events"
	"github.com/stavrod/papertrade/internal/modules/ledger"
)

type stubMarket struct{ symbols map[string]bool }

func (m stubMarket) HasSymbol(symbol string) bool { return m.symbols[symbol] }

func testService(t *testing.T) (*Service, *ledger.Repository, *events.Bus) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitLedgerSchema(db.Conn()))

	repo := ledger.NewRepository(db.Conn(), zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())
	market := stubMarket{symbols: map[string]bool{"BTC/USDT": true, "ETH/USDT": true}}

	svc := NewService(repo, market, bus, "USDT", 0.001, zerolog.Nop())
	return svc, repo, bus
}

func deposit(t *testing.T, svc *Service, holderID string, amount float64) {
	t.Helper()
	_, err := svc.SubmitTransaction(holderID, domain.TransactionInput{
		Kind:     domain.KindDeposit,
		Quantity: amount,
	})
	require.NoError(t, err)
}

func TestSubmitDepositDefaultsToQuoteAsset(t *testing.T) {
	svc, _, _ := testService(t)

	tx, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind:     domain.KindDeposit,
		Quantity: 5000,
	})
	require.NoError(t, err)

	assert.Equal(t, "USDT", tx.Symbol)
	assert.InDelta(t, 1, tx.Price, 1e-9)
	assert.InDelta(t, 5000, tx.Total, 1e-9)
	assert.Equal(t, domain.StatusCompleted, tx.Status)
}

func TestSubmitBuyFillsTotalAndFee(t *testing.T) {
	svc, _, _ := testService(t)
	deposit(t, svc, "h1", 50000)

	tx, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind:     domain.KindBuy,
		Symbol:   "btc/usdt",
		Quantity: 0.5,
		Price:    42000,
	})
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT", tx.Symbol)
	assert.InDelta(t, 21000, tx.Total, 1e-9)
	assert.InDelta(t, 21, tx.Fee, 1e-9) // 0.1% taker fee
}

func TestSubmitBuyRejectsInsufficientFunds(t *testing.T) {
	svc, repo, _ := testService(t)
	deposit(t, svc, "h1", 100)

	_, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind:     domain.KindBuy,
		Symbol:   "BTC/USDT",
		Quantity: 1,
		Price:    42000,
	})
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientFunds(err))

	// Rejection leaves the ledger untouched
	count, err := repo.Count("h1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSubmitSellRejectsInsufficientPosition(t *testing.T) {
	svc, repo, _ := testService(t)
	deposit(t, svc, "h1", 50000)

	_, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind:     domain.KindBuy,
		Symbol:   "BTC/USDT",
		Quantity: 0.5,
		Price:    42000,
	})
	require.NoError(t, err)

	_, err = svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind:     domain.KindSell,
		Symbol:   "BTC/USDT",
		Quantity: 1,
		Price:    43000,
	})
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientPosition(err))

	count, err := repo.Count("h1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSubmitSellWithinPosition(t *testing.T) {
	svc, _, _ := testService(t)
	deposit(t, svc, "h1", 50000)

	_, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind: domain.KindBuy, Symbol: "BTC/USDT", Quantity: 0.5, Price: 42000,
	})
	require.NoError(t, err)

	tx, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind: domain.KindSell, Symbol: "BTC/USDT", Quantity: 0.5, Price: 43000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 21500, tx.Total, 1e-9)
}

func TestSubmitRejectsUnknownSymbol(t *testing.T) {
	svc, _, _ := testService(t)
	deposit(t, svc, "h1", 50000)

	for _, kind := range []domain.TransactionKind{domain.KindBuy, domain.KindSell} {
		_, err := svc.SubmitTransaction("h1", domain.TransactionInput{
			Kind: kind, Symbol: "XRP/USDT", Quantity: 1, Price: 0.5,
		})
		require.Error(t, err)
		assert.True(t, domain.IsSymbolNotFound(err), "kind %s", kind)
	}
}

func TestSubmitRejectsMalformedInput(t *testing.T) {
	svc, repo, _ := testService(t)

	_, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind: domain.KindDeposit, Quantity: -100,
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	count, err := repo.Count("h1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSubmitEmitsTransactionAppended(t *testing.T) {
	svc, _, bus := testService(t)

	received := make(chan *events.Event, 2)
	bus.Subscribe(events.TransactionAppended, func(event *events.Event) {
		received <- event
	})

	deposit(t, svc, "h1", 1000)

	select {
	case event := <-received:
		data, ok := event.Data.(*events.TransactionAppendedData)
		require.True(t, ok)
		assert.Equal(t, "h1", data.HolderID)
		assert.Equal(t, string(domain.KindDeposit), data.Kind)
	default:
		t.Fatal("expected a TransactionAppended event")
	}

	// Rejected submissions emit nothing
	_, err := svc.SubmitTransaction("h1", domain.TransactionInput{
		Kind: domain.KindBuy, Symbol: "BTC/USDT", Quantity: 10, Price: 42000,
	})
	require.Error(t, err)
	assert.Empty(t, received)
}
