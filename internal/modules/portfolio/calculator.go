// Package portfolio turns the transaction ledger and a price snapshot
// into valued, cost-basis-tracked positions.
package portfolio

import (
	"sort"
	"time"

	"github.com/stavrod/papertrade/internal/domain"
)

// accumulator tracks the running per-symbol state during ledger replay
type accumulator struct {
	quantity  float64
	totalCost float64
}

// Compute replays a holder's full ordered transaction list against a price
// snapshot and returns the derived portfolio.
//
// It is a pure function: no state survives between calls, and identical
// inputs (including asOf) produce bit-identical output. Transactions must
// arrive in (timestamp, append sequence) order - the ledger query
// guarantees that - and only completed ones participate.
//
// Cost basis follows the proportional model: a sell of ratio r reduces
// totalCost by totalCost*r, which keeps averagePrice unchanged across
// partial sells. A sell exceeding the held quantity aborts the whole
// computation with InsufficientPositionError; the ledger itself is never
// touched here.
func Compute(holderID string, transactions []domain.Transaction, prices map[string]domain.PriceTick, quoteAsset string, asOf time.Time) (domain.Portfolio, error) {
	accs := make(map[string]*accumulator)
	cashBalance := 0.0

	for _, tx := range transactions {
		if tx.Status != domain.StatusCompleted {
			continue
		}

		switch tx.Kind {
		case domain.KindDeposit:
			if tx.Symbol == quoteAsset {
				cashBalance += tx.Quantity
			}

		case domain.KindWithdrawal:
			if tx.Symbol == quoteAsset {
				cashBalance -= tx.Quantity
			}

		case domain.KindBuy:
			acc := accs[tx.Symbol]
			if acc == nil {
				acc = &accumulator{}
				accs[tx.Symbol] = acc
			}
			acc.quantity += tx.Quantity
			acc.totalCost += tx.Total + tx.Fee
			cashBalance -= tx.Total + tx.Fee

		case domain.KindSell:
			acc := accs[tx.Symbol]
			held := 0.0
			if acc != nil {
				held = acc.quantity
			}
			if tx.Quantity > held {
				return domain.Portfolio{}, &domain.InsufficientPositionError{
					Symbol:    tx.Symbol,
					Requested: tx.Quantity,
					Held:      held,
				}
			}
			ratio := tx.Quantity / acc.quantity
			acc.quantity -= tx.Quantity
			acc.totalCost -= acc.totalCost * ratio
			cashBalance += tx.Total - tx.Fee
		}
	}

	// Deterministic position order (and float accumulation order)
	symbols := make([]string, 0, len(accs))
	for symbol, acc := range accs {
		if acc.quantity > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	portfolio := domain.Portfolio{
		HolderID:    holderID,
		CashBalance: cashBalance,
		TotalValue:  cashBalance,
		Positions:   make([]domain.Position, 0, len(symbols)),
		AsOf:        asOf,
	}

	for _, symbol := range symbols {
		acc := accs[symbol]
		position := domain.Position{
			Symbol:       symbol,
			Quantity:     acc.quantity,
			TotalCost:    acc.totalCost,
			AveragePrice: acc.totalCost / acc.quantity,
			AsOf:         asOf,
		}

		tick, priced := prices[symbol]
		if !priced {
			// No tick for the symbol: keep the position visible but
			// flagged, and leave it out of the valued totals. Never
			// silently zero it.
			position.Unpriced = true
			portfolio.Positions = append(portfolio.Positions, position)
			continue
		}

		position.CurrentValue = acc.quantity * tick.Price
		position.PnL = position.CurrentValue - acc.totalCost
		if acc.totalCost > 0 {
			position.PnLPercentage = position.PnL / acc.totalCost * 100
		}

		portfolio.Positions = append(portfolio.Positions, position)
		portfolio.TotalValue += position.CurrentValue
		portfolio.TotalCost += acc.totalCost
		portfolio.TotalPnL += position.PnL
	}

	if portfolio.TotalCost > 0 {
		portfolio.TotalPnLPercentage = portfolio.TotalPnL / portfolio.TotalCost * 100
	}

	return portfolio, nil
}

// CashBalance replays only the cash effects of a transaction list. Used
// by the submission path, where the funds check must see every settled
// transaction rather than a possibly stale cached valuation.
func CashBalance(transactions []domain.Transaction, quoteAsset string) float64 {
	cash := 0.0
	for _, tx := range transactions {
		if tx.Status != domain.StatusCompleted {
			continue
		}
		switch tx.Kind {
		case domain.KindDeposit:
			if tx.Symbol == quoteAsset {
				cash += tx.Quantity
			}
		case domain.KindWithdrawal:
			if tx.Symbol == quoteAsset {
				cash -= tx.Quantity
			}
		case domain.KindBuy:
			cash -= tx.Total + tx.Fee
		case domain.KindSell:
			cash += tx.Total - tx.Fee
		}
	}
	return cash
}

// HeldQuantity replays only the quantity effects for one symbol. Used by
// the submission path to reject over-sells before they reach the ledger.
func HeldQuantity(transactions []domain.Transaction, symbol string) float64 {
	held := 0.0
	for _, tx := range transactions {
		if tx.Status != domain.StatusCompleted || tx.Symbol != symbol {
			continue
		}
		switch tx.Kind {
		case domain.KindBuy:
			held += tx.Quantity
		case domain.KindSell:
			held -= tx.Quantity
		}
	}
	return held
}
