// Package accounts manages holder identities. The platform runs one demo
// holder per session, but everything downstream is keyed by holder id so
// nothing here assumes a single account.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stavrod/papertrade/internal/domain"
)

const holderColumns = "id, name, created_at"

// Repository persists holders in the ledger database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holder repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// Create inserts a new holder with a generated id
func (r *Repository) Create(name string) (*domain.Holder, error) {
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	holder := &domain.Holder{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO holders (id, name, created_at) VALUES (?, ?, ?)`,
		holder.ID, holder.Name, holder.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "create holder", Err: err}
	}

	r.log.Info().Str("holder_id", holder.ID).Str("name", name).Msg("Holder created")
	return holder, nil
}

// Get returns a holder by id, or nil when none exists
func (r *Repository) Get(id string) (*domain.Holder, error) {
	row := r.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM holders WHERE id = ?", holderColumns), id,
	)
	return r.scanHolder(row)
}

// GetByName returns a holder by name, or nil when none exists
func (r *Repository) GetByName(name string) (*domain.Holder, error) {
	row := r.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM holders WHERE name = ? ORDER BY created_at ASC LIMIT 1", holderColumns), name,
	)
	return r.scanHolder(row)
}

// List returns all holders ordered by creation time
func (r *Repository) List() ([]domain.Holder, error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM holders ORDER BY created_at ASC, id ASC", holderColumns),
	)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list holders", Err: err}
	}
	defer rows.Close()

	var holders []domain.Holder
	for rows.Next() {
		var h domain.Holder
		var createdAt int64
		if err := rows.Scan(&h.ID, &h.Name, &createdAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scan holder", Err: err}
		}
		h.CreatedAt = time.Unix(createdAt, 0).UTC()
		holders = append(holders, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list holders", Err: err}
	}
	return holders, nil
}

func (r *Repository) scanHolder(row *sql.Row) (*domain.Holder, error) {
	var h domain.Holder
	var createdAt int64
	err := row.Scan(&h.ID, &h.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get holder", Err: err}
	}
	h.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &h, nil
}
