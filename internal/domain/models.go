// Package domain contains the core papertrade types shared across modules.
// It has no infrastructure dependencies.
package domain

import "time"

// TransactionKind enumerates the ledger entry kinds
type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindBuy        TransactionKind = "buy"
	KindSell       TransactionKind = "sell"
)

// TransactionStatus enumerates settlement states. Accepted submissions are
// filled synchronously, so new entries are always StatusCompleted; the other
// states exist for ledger rows imported from elsewhere.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one immutable ledger entry. Once appended it is never
// edited or deleted.
type Transaction struct {
	ID        int64             `json:"id"`
	HolderID  string            `json:"holder_id"`
	Kind      TransactionKind   `json:"kind"`
	Symbol    string            `json:"symbol"`
	Quantity  float64           `json:"quantity"`
	Price     float64           `json:"price"`
	Total     float64           `json:"total"`
	Fee       float64           `json:"fee"`
	Status    TransactionStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
}

// TransactionInput is the caller-supplied part of a transaction. ID,
// timestamp and status are assigned by the ledger on append.
type TransactionInput struct {
	Kind     TransactionKind `json:"kind"`
	Symbol   string          `json:"symbol"`
	Quantity float64         `json:"quantity"`
	Price    float64         `json:"price"`
	Total    float64         `json:"total"`
	Fee      float64         `json:"fee"`
}

// Position is a derived per-symbol holding. It is recomputed from the full
// ledger on demand and never persisted.
type Position struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	AveragePrice  float64   `json:"average_price"`
	TotalCost     float64   `json:"total_cost"`
	CurrentValue  float64   `json:"current_value"`
	PnL           float64   `json:"pnl"`
	PnLPercentage float64   `json:"pnl_percentage"`
	Unpriced      bool      `json:"unpriced"` // No tick for the symbol; excluded from valued totals
	AsOf          time.Time `json:"as_of"`
}

// Portfolio is the derived valuation of a holder's ledger against a price
// snapshot. TotalValue = CashBalance + sum of priced position values.
type Portfolio struct {
	HolderID           string     `json:"holder_id"`
	CashBalance        float64    `json:"cash_balance"`
	TotalValue         float64    `json:"total_value"`
	TotalCost          float64    `json:"total_cost"`
	TotalPnL           float64    `json:"total_pnl"`
	TotalPnLPercentage float64    `json:"total_pnl_percentage"`
	Positions          []Position `json:"positions"`
	AsOf               time.Time  `json:"as_of"`
}

// PriceTick is the headline market state for one symbol at one instant.
type PriceTick struct {
	Symbol    string    `json:"symbol" msgpack:"symbol"`
	Name      string    `json:"name" msgpack:"name"`
	Price     float64   `json:"price" msgpack:"price"`
	Change24h float64   `json:"change_24h" msgpack:"change_24h"`
	High24h   float64   `json:"high_24h" msgpack:"high_24h"`
	Low24h    float64   `json:"low_24h" msgpack:"low_24h"`
	Volume24h float64   `json:"volume_24h" msgpack:"volume_24h"`
	MarketCap float64   `json:"market_cap" msgpack:"market_cap"`
	AsOf      time.Time `json:"as_of" msgpack:"as_of"`
}

// OrderLevel is one rung of an order book ladder
type OrderLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Total    float64 `json:"total"`
}

// OrderBook is a synthetic bid/ask ladder around the current price.
// Bids are strictly decreasing, asks strictly increasing, and every bid
// price is below every ask price.
type OrderBook struct {
	Bids []OrderLevel `json:"bids"`
	Asks []OrderLevel `json:"asks"`
}

// Candle is one OHLCV bar of the synthetic daily price history
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Holder is a trading session owner. The model is single-holder per
// session; the store still keys everything by holder identity.
type Holder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
