// Package events provides the in-process event bus that connects the
// ledger, the market data feed and the portfolio recompute pipeline.
package events

// EventType identifies an event kind on the bus
type EventType string

const (
	// TransactionAppended fires after a transaction is durably appended to the ledger
	TransactionAppended EventType = "TransactionAppended"
	// PriceTicked fires after the feed atomically swaps in a new price table
	PriceTicked EventType = "PriceTicked"
	// PortfolioRecomputed fires after a holder's portfolio snapshot is rebuilt
	PortfolioRecomputed EventType = "PortfolioRecomputed"
)

// AllEventTypes lists every event type, for stream subscriptions
var AllEventTypes = []EventType{
	TransactionAppended,
	PriceTicked,
	PortfolioRecomputed,
}
