package accounts

import (
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
)

// DefaultHolderName is the demo account created on first boot
const DefaultHolderName = "demo"

// Ledger is the slice of the ledger repository needed for seeding
type Ledger interface {
	Append(holderID string, input domain.TransactionInput) (*domain.Transaction, error)
	Count(holderID string) (int, error)
}

// Service bootstraps holder accounts for a session
type Service struct {
	repo   *Repository
	ledger Ledger
	log    zerolog.Logger
}

// NewService creates the accounts service
func NewService(repo *Repository, ledger Ledger, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		log:    log.With().Str("service", "accounts").Logger(),
	}
}

// CreateHolder registers a new, empty holder
func (s *Service) CreateHolder(name string) (*domain.Holder, error) {
	return s.repo.Create(name)
}

// GetHolder returns a holder by id, or nil when none exists
func (s *Service) GetHolder(id string) (*domain.Holder, error) {
	return s.repo.Get(id)
}

// ListHolders returns all holders
func (s *Service) ListHolders() ([]domain.Holder, error) {
	return s.repo.List()
}

// EnsureDemoHolder returns the session's demo holder, creating and
// seeding it on first boot. An existing holder is never re-seeded, even
// with an empty ledger: an account that sold everything and withdrew is
// legitimately empty.
func (s *Service) EnsureDemoHolder() (*domain.Holder, error) {
	holder, err := s.repo.GetByName(DefaultHolderName)
	if err != nil {
		return nil, err
	}
	if holder != nil {
		return holder, nil
	}

	holder, err = s.repo.Create(DefaultHolderName)
	if err != nil {
		return nil, err
	}

	if err := s.seedLedger(holder.ID); err != nil {
		return nil, err
	}

	return holder, nil
}

// seedLedger gives a fresh demo holder a starting balance and two open
// positions, so the portfolio view has something to show immediately.
func (s *Service) seedLedger(holderID string) error {
	count, err := s.ledger.Count(holderID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seeds := []domain.TransactionInput{
		{Kind: domain.KindDeposit, Symbol: "USDT", Quantity: 10000, Price: 1, Total: 10000},
		{Kind: domain.KindBuy, Symbol: "BTC/USDT", Quantity: 0.25, Price: 42000, Total: 10500, Fee: 10.5},
		{Kind: domain.KindBuy, Symbol: "ETH/USDT", Quantity: 2.5, Price: 2600, Total: 6500, Fee: 6.5},
	}

	for _, seed := range seeds {
		if _, err := s.ledger.Append(holderID, seed); err != nil {
			return err
		}
	}

	s.log.Info().Str("holder_id", holderID).Int("transactions", len(seeds)).Msg("Demo ledger seeded")
	return nil
}
