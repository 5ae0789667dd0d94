// Package trading is the transaction submission path: business checks in
// front of the append-only ledger.
package trading

import (
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/events"
	"github.com/stavrod/papertrade/internal/modules/portfolio"
)

// Ledger is the slice of the ledger repository the service needs
type Ledger interface {
	Append(holderID string, input domain.TransactionInput) (*domain.Transaction, error)
	Query(holderID string) ([]domain.Transaction, error)
}

// Market answers universe membership for traded symbols
type Market interface {
	HasSymbol(symbol string) bool
}

// Service validates and settles transaction submissions. Checks and the
// ledger append for one holder run under a single lock, so two concurrent
// buys cannot both pass the funds check against the same cash balance.
type Service struct {
	ledger     Ledger
	market     Market
	bus        *events.Bus
	quoteAsset string
	feeRate    float64
	log        zerolog.Logger

	mu      sync.Mutex
	holders map[string]*sync.Mutex
}

// NewService creates the trading service
func NewService(ledger Ledger, market Market, bus *events.Bus, quoteAsset string, feeRate float64, log zerolog.Logger) *Service {
	return &Service{
		ledger:     ledger,
		market:     market,
		bus:        bus,
		quoteAsset: quoteAsset,
		feeRate:    feeRate,
		log:        log.With().Str("service", "trading").Logger(),
		holders:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) holderLock(holderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.holders[holderID]
	if !ok {
		mu = &sync.Mutex{}
		s.holders[holderID] = mu
	}
	return mu
}

// SubmitTransaction validates a submission, appends it to the ledger and
// announces it on the bus. A rejected submission leaves the ledger
// untouched; there is no partial append.
func (s *Service) SubmitTransaction(holderID string, input domain.TransactionInput) (*domain.Transaction, error) {
	input.Symbol = strings.ToUpper(strings.TrimSpace(input.Symbol))
	if input.Symbol == "" && (input.Kind == domain.KindDeposit || input.Kind == domain.KindWithdrawal) {
		input.Symbol = s.quoteAsset
	}

	s.fillDerived(&input)

	mu := s.holderLock(holderID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.check(holderID, input); err != nil {
		s.log.Debug().Err(err).
			Str("holder_id", holderID).
			Str("kind", string(input.Kind)).
			Str("symbol", input.Symbol).
			Msg("Transaction rejected")
		return nil, err
	}

	tx, err := s.ledger.Append(holderID, input)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("holder_id", holderID).
		Int64("transaction_id", tx.ID).
		Str("kind", string(tx.Kind)).
		Str("symbol", tx.Symbol).
		Float64("quantity", tx.Quantity).
		Float64("total", tx.Total).
		Msg("Transaction settled")

	if s.bus != nil {
		s.bus.Emit(events.TransactionAppended, "trading", &events.TransactionAppendedData{
			HolderID:      holderID,
			TransactionID: tx.ID,
			Kind:          string(tx.Kind),
			Symbol:        tx.Symbol,
			Quantity:      tx.Quantity,
			Total:         tx.Total,
		})
	}

	return tx, nil
}

// fillDerived completes total and fee when the caller leaves them zero.
// Deposits and withdrawals move the quote asset at face value.
func (s *Service) fillDerived(input *domain.TransactionInput) {
	switch input.Kind {
	case domain.KindDeposit, domain.KindWithdrawal:
		if input.Price == 0 {
			input.Price = 1
		}
		if input.Total == 0 {
			input.Total = input.Quantity
		}
	case domain.KindBuy, domain.KindSell:
		if input.Total == 0 {
			input.Total = round2(input.Quantity * input.Price)
		}
		if input.Fee == 0 && s.feeRate > 0 {
			input.Fee = round2(input.Total * s.feeRate)
		}
	}
}

// check runs the business rejections: unknown symbol, insufficient cash
// on buys, insufficient position on sells. Structural validation (kind
// enum, signs) belongs to the ledger append itself.
func (s *Service) check(holderID string, input domain.TransactionInput) error {
	switch input.Kind {
	case domain.KindBuy, domain.KindSell:
		if !s.market.HasSymbol(input.Symbol) {
			return &domain.SymbolNotFoundError{Symbol: input.Symbol}
		}
	}

	switch input.Kind {
	case domain.KindBuy:
		transactions, err := s.ledger.Query(holderID)
		if err != nil {
			return err
		}
		available := portfolio.CashBalance(transactions, s.quoteAsset)
		required := input.Total + input.Fee
		if required > available {
			return &domain.InsufficientFundsError{
				Required:  required,
				Available: available,
			}
		}

	case domain.KindSell:
		transactions, err := s.ledger.Query(holderID)
		if err != nil {
			return err
		}
		held := portfolio.HeldQuantity(transactions, input.Symbol)
		if input.Quantity > held {
			return &domain.InsufficientPositionError{
				Symbol:    input.Symbol,
				Requested: input.Quantity,
				Held:      held,
			}
		}
	}

	return nil
}

// GetTransactions returns the holder's full ordered ledger
func (s *Service) GetTransactions(holderID string) ([]domain.Transaction, error) {
	return s.ledger.Query(holderID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
