// Package ledger provides the append-only transaction store. Entries are
// immutable: there is no update or delete path, and ordering is defined by
// (created_at, id) where id is the SQLite append sequence.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
)

// transactionColumns avoids SELECT * so schema changes fail loudly.
// Column order must match scanTransaction.
const transactionColumns = `id, holder_id, kind, symbol, quantity, price, total, fee, status, created_at`

// Repository handles transaction ledger database operations
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "ledger").Logger(),
	}
}

// Append validates and durably inserts a new transaction. The id and
// timestamp are assigned here; accepted submissions are filled
// synchronously, so status is always completed. Validation happens before
// any store mutation - a rejected input leaves the ledger untouched.
func (r *Repository) Append(holderID string, input domain.TransactionInput) (*domain.Transaction, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if holderID == "" {
		return nil, &domain.ValidationError{Field: "holder_id", Reason: "must not be empty"}
	}

	now := time.Now().UTC()
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))

	res, err := r.ledgerDB.Exec(`
		INSERT INTO transactions
		(holder_id, kind, symbol, quantity, price, total, fee, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		holderID,
		string(input.Kind),
		symbol,
		input.Quantity,
		input.Price,
		input.Total,
		input.Fee,
		string(domain.StatusCompleted),
		now.Unix(),
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "append", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "append", Err: err}
	}

	tx := &domain.Transaction{
		ID:        id,
		HolderID:  holderID,
		Kind:      input.Kind,
		Symbol:    symbol,
		Quantity:  input.Quantity,
		Price:     input.Price,
		Total:     input.Total,
		Fee:       input.Fee,
		Status:    domain.StatusCompleted,
		Timestamp: time.Unix(now.Unix(), 0).UTC(),
	}

	r.log.Info().
		Str("holder", holderID).
		Str("kind", string(input.Kind)).
		Str("symbol", symbol).
		Float64("quantity", input.Quantity).
		Int64("id", id).
		Msg("Transaction appended")

	return tx, nil
}

// Query returns all transactions for a holder in append order
// ((created_at, id) ascending).
func (r *Repository) Query(holderID string) ([]domain.Transaction, error) {
	rows, err := r.ledgerDB.Query(`
		SELECT `+transactionColumns+` FROM transactions
		WHERE holder_id = ?
		ORDER BY created_at ASC, id ASC`,
		holderID,
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "query", Err: err}
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "query", Err: fmt.Errorf("failed to scan transaction: %w", err)}
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "query", Err: err}
	}

	return transactions, nil
}

// Count returns the number of ledger entries for a holder
func (r *Repository) Count(holderID string) (int, error) {
	var count int
	err := r.ledgerDB.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE holder_id = ?`, holderID,
	).Scan(&count)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "count", Err: err}
	}
	return count, nil
}

func validateInput(input domain.TransactionInput) error {
	switch input.Kind {
	case domain.KindDeposit, domain.KindWithdrawal, domain.KindBuy, domain.KindSell:
	default:
		return &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", input.Kind)}
	}
	if input.Quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if input.Price < 0 {
		return &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if input.Fee < 0 {
		return &domain.ValidationError{Field: "fee", Reason: "must not be negative"}
	}
	if strings.TrimSpace(input.Symbol) == "" {
		return &domain.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	return nil
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var tx domain.Transaction
	var kind, status string
	var createdAt int64

	err := rows.Scan(
		&tx.ID,
		&tx.HolderID,
		&kind,
		&tx.Symbol,
		&tx.Quantity,
		&tx.Price,
		&tx.Total,
		&tx.Fee,
		&status,
		&createdAt,
	)
	if err != nil {
		return tx, err
	}

	tx.Kind = domain.TransactionKind(kind)
	tx.Status = domain.TransactionStatus(status)
	tx.Timestamp = time.Unix(createdAt, 0).UTC()

	return tx, nil
}
