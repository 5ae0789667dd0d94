package portfolio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
	"github.com/stavrod/papertrade/internal/events"
)

// LedgerReader is the slice of the ledger repository the service needs
type LedgerReader interface {
	Query(holderID string) ([]domain.Transaction, error)
}

// PriceProvider supplies the current price table for valuation
type PriceProvider interface {
	PriceTable() map[string]domain.PriceTick
}

// holderState serializes recomputation for one holder. The mutex orders
// recompute passes; gen lets a pass detect that a newer request arrived
// while it waited, in which case it yields instead of computing a result
// the newer pass will immediately overwrite.
type holderState struct {
	mu       sync.Mutex
	gen      atomic.Int64
	snapshot atomic.Pointer[domain.Portfolio]
}

// Service owns derived portfolio state. Positions are never stored: each
// recompute replays the holder's full ledger against the current price
// table, and the latest result is cached for reads.
type Service struct {
	ledger     LedgerReader
	prices     PriceProvider
	bus        *events.Bus
	quoteAsset string
	log        zerolog.Logger

	mu      sync.Mutex
	holders map[string]*holderState
}

// NewService creates the portfolio service
func NewService(ledger LedgerReader, prices PriceProvider, bus *events.Bus, quoteAsset string, log zerolog.Logger) *Service {
	return &Service{
		ledger:     ledger,
		prices:     prices,
		bus:        bus,
		quoteAsset: quoteAsset,
		log:        log.With().Str("service", "portfolio").Logger(),
		holders:    make(map[string]*holderState),
	}
}

// RegisterListeners wires the service to the event bus: any appended
// transaction recomputes its holder, and every price tick revalues all
// holders seen so far. Handlers must not block the emitter, so the work
// moves to a goroutine; the per-holder lock inside Recompute keeps the
// passes serialized regardless.
func (s *Service) RegisterListeners() {
	s.bus.Subscribe(events.TransactionAppended, func(event *events.Event) {
		data, ok := event.Data.(*events.TransactionAppendedData)
		if !ok {
			return
		}
		go func() {
			if _, err := s.Recompute(data.HolderID); err != nil {
				s.log.Error().Err(err).Str("holder_id", data.HolderID).Msg("Recompute after transaction failed")
			}
		}()
	})

	s.bus.Subscribe(events.PriceTicked, func(event *events.Event) {
		for _, holderID := range s.knownHolders() {
			holderID := holderID
			go func() {
				if _, err := s.Recompute(holderID); err != nil {
					s.log.Error().Err(err).Str("holder_id", holderID).Msg("Recompute after price tick failed")
				}
			}()
		}
	})

	s.log.Info().Msg("Portfolio listeners registered")
}

func (s *Service) knownHolders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.holders))
	for id := range s.holders {
		ids = append(ids, id)
	}
	return ids
}

func (s *Service) state(holderID string) *holderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.holders[holderID]
	if !ok {
		st = &holderState{}
		s.holders[holderID] = st
	}
	return st
}

// Recompute replays the holder's ledger against the current price table
// and publishes the result. Passes for the same holder never interleave;
// a pass that was queued behind a newer request skips itself, since the
// newer pass reads at least as fresh a ledger and price table.
func (s *Service) Recompute(holderID string) (*domain.Portfolio, error) {
	st := s.state(holderID)
	gen := st.gen.Add(1)

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.gen.Load() != gen {
		// Superseded while waiting for the lock
		if cached := st.snapshot.Load(); cached != nil {
			return cached, nil
		}
	}

	transactions, err := s.ledger.Query(holderID)
	if err != nil {
		// A broken ledger read must not wipe the last good valuation
		s.log.Error().Err(err).Str("holder_id", holderID).Msg("Ledger query failed")
		if cached := st.snapshot.Load(); cached != nil {
			return cached, err
		}
		return nil, err
	}

	portfolio, err := Compute(holderID, transactions, s.prices.PriceTable(), s.quoteAsset, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	st.snapshot.Store(&portfolio)

	if s.bus != nil {
		s.bus.Emit(events.PortfolioRecomputed, "portfolio", &events.PortfolioRecomputedData{
			HolderID:   holderID,
			TotalValue: portfolio.TotalValue,
			Positions:  len(portfolio.Positions),
		})
	}

	return &portfolio, nil
}

// GetPortfolio returns the latest derived portfolio for a holder,
// computing it on first access.
func (s *Service) GetPortfolio(holderID string) (*domain.Portfolio, error) {
	st := s.state(holderID)
	if cached := st.snapshot.Load(); cached != nil {
		return cached, nil
	}
	return s.Recompute(holderID)
}

// Warm performs the initial recompute for a holder at startup. A
// persistence failure here is non-fatal: the session starts with an
// empty valuation and the error is logged.
func (s *Service) Warm(holderID string) {
	if _, err := s.Recompute(holderID); err != nil {
		if domain.IsPersistence(err) {
			s.log.Warn().Err(err).Str("holder_id", holderID).Msg("Ledger unavailable at startup, starting with empty portfolio")
			empty, cerr := Compute(holderID, nil, s.prices.PriceTable(), s.quoteAsset, time.Now().UTC())
			if cerr == nil {
				s.state(holderID).snapshot.Store(&empty)
			}
			return
		}
		s.log.Error().Err(err).Str("holder_id", holderID).Msg("Initial portfolio recompute failed")
	}
}
