package events

import "time"

// EventData is the interface that all event data types must implement.
// This allows for type-safe event data while maintaining flexibility.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// TransactionAppendedData contains data for TransactionAppended events
type TransactionAppendedData struct {
	HolderID      string  `json:"holder_id"`
	TransactionID int64   `json:"transaction_id"`
	Kind          string  `json:"kind"`
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	Total         float64 `json:"total"`
}

// EventType returns the event type for TransactionAppendedData
func (d *TransactionAppendedData) EventType() EventType {
	return TransactionAppended
}

// PriceTickedData contains data for PriceTicked events
type PriceTickedData struct {
	Symbols int       `json:"symbols"`
	AsOf    time.Time `json:"as_of"`
}

// EventType returns the event type for PriceTickedData
func (d *PriceTickedData) EventType() EventType {
	return PriceTicked
}

// PortfolioRecomputedData contains data for PortfolioRecomputed events
type PortfolioRecomputedData struct {
	HolderID   string  `json:"holder_id"`
	TotalValue float64 `json:"total_value"`
	Positions  int     `json:"positions"`
}

// EventType returns the event type for PortfolioRecomputedData
func (d *PortfolioRecomputedData) EventType() EventType {
	return PortfolioRecomputed
}
