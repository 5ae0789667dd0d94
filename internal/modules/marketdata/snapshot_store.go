package marketdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/stavrod/papertrade/internal/domain"
)

// SnapshotStore persists the last published price table in the cache
// database so a restarted feed resumes from recent prices instead of the
// hardcoded universe seeds. The cache is rebuildable; losing it only means
// prices start from the seeds again.
type SnapshotStore struct {
	cacheDB *sql.DB
}

// NewSnapshotStore creates a new snapshot store
func NewSnapshotStore(cacheDB *sql.DB) *SnapshotStore {
	return &SnapshotStore{cacheDB: cacheDB}
}

// Save serializes the price table to msgpack and upserts the single
// snapshot row.
func (s *SnapshotStore) Save(prices map[string]domain.PriceTick) error {
	blob, err := msgpack.Marshal(prices)
	if err != nil {
		return fmt.Errorf("failed to marshal price snapshot: %w", err)
	}

	_, err = s.cacheDB.Exec(
		`INSERT OR REPLACE INTO price_snapshots (id, data, saved_at) VALUES (1, ?, ?)`,
		blob, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store price snapshot: %w", err)
	}

	return nil
}

// Load returns the last persisted price table and its save time.
// Returns nil, zero time when no snapshot exists.
func (s *SnapshotStore) Load() (map[string]domain.PriceTick, time.Time, error) {
	var blob []byte
	var savedAt int64

	err := s.cacheDB.QueryRow(
		`SELECT data, saved_at FROM price_snapshots WHERE id = 1`,
	).Scan(&blob, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load price snapshot: %w", err)
	}

	var prices map[string]domain.PriceTick
	if err := msgpack.Unmarshal(blob, &prices); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal price snapshot: %w", err)
	}

	return prices, time.Unix(savedAt, 0).UTC(), nil
}
