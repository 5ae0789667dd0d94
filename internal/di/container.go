// Package di wires repositories, services and the market feed together.
// Construction order follows the data flow: databases, then the bus, then
// the feed, then the services that consume both.
package di

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/config"
	"github.com/stavrod/papertrade/internal/database"
	"github.com/stavrod/papertrade/internal/events"
	"github.com/stavrod/papertrade/internal/modules/accounts"
	"github.com/stavrod/papertrade/internal/modules/ledger"
	"github.com/stavrod/papertrade/internal/modules/marketdata"
	"github.com/stavrod/papertrade/internal/modules/portfolio"
	"github.com/stavrod/papertrade/internal/modules/trading"
)

// Container holds all initialized services and their dependencies
type Container struct {
	LedgerDB *database.DB
	CacheDB  *database.DB

	Bus  *events.Bus
	Feed *marketdata.Feed

	LedgerRepo       *ledger.Repository
	AccountsRepo     *accounts.Repository
	AccountsService  *accounts.Service
	PortfolioService *portfolio.Service
	TradingService   *trading.Service

	log zerolog.Logger
}

// New builds the full service graph
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{log: log.With().Str("component", "di").Logger()}

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	c.LedgerDB = ledgerDB

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "marketcache.db"),
		Profile: database.ProfileCache,
		Name:    "marketcache",
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open market cache database: %w", err)
	}
	c.CacheDB = cacheDB

	if err := database.InitLedgerSchema(ledgerDB.Conn()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	if err := database.InitCacheSchema(cacheDB.Conn()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	c.Bus = events.NewBus(log)

	c.Feed = marketdata.NewFeed(marketdata.Config{
		Universe: marketdata.DefaultUniverse(),
		Source:   marketdata.NewSource(time.Now().UnixNano()),
		Bus:      c.Bus,
		Store:    marketdata.NewSnapshotStore(cacheDB.Conn()),
		Log:      log,
	})

	c.LedgerRepo = ledger.NewRepository(ledgerDB.Conn(), log)
	c.AccountsRepo = accounts.NewRepository(ledgerDB.Conn(), log)
	c.AccountsService = accounts.NewService(c.AccountsRepo, c.LedgerRepo, log)

	c.PortfolioService = portfolio.NewService(c.LedgerRepo, c.Feed, c.Bus, marketdata.QuoteAsset, log)
	c.PortfolioService.RegisterListeners()

	c.TradingService = trading.NewService(c.LedgerRepo, c.Feed, c.Bus, marketdata.QuoteAsset, cfg.FeeRate, log)

	c.log.Info().Msg("Service container initialized")
	return c, nil
}

// Bootstrap ensures the demo holder exists and its valuation is warm.
// Must run after New and before the server starts serving.
func (c *Container) Bootstrap() (string, error) {
	holder, err := c.AccountsService.EnsureDemoHolder()
	if err != nil {
		return "", fmt.Errorf("failed to ensure demo holder: %w", err)
	}
	c.PortfolioService.Warm(holder.ID)
	return holder.ID, nil
}

// Close tears down the container in reverse construction order
func (c *Container) Close() {
	if c.Feed != nil {
		c.Feed.Close()
	}
	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil {
			c.log.Error().Err(err).Msg("Failed to close market cache database")
		}
	}
	if c.LedgerDB != nil {
		if err := c.LedgerDB.Close(); err != nil {
			c.log.Error().Err(err).Msg("Failed to close ledger database")
		}
	}
}
