package database

import (
	"database/sql"
	"fmt"
)

// ledgerSchema holds the append-only transaction trail. Transactions are
// never updated or deleted; the id column doubles as the append sequence.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	holder_id   TEXT NOT NULL,
	kind        TEXT NOT NULL CHECK (kind IN ('deposit', 'withdrawal', 'buy', 'sell')),
	symbol      TEXT NOT NULL,
	quantity    REAL NOT NULL CHECK (quantity > 0),
	price       REAL NOT NULL CHECK (price >= 0),
	total       REAL NOT NULL,
	fee         REAL NOT NULL CHECK (fee >= 0),
	status      TEXT NOT NULL CHECK (status IN ('completed', 'pending', 'failed')),
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_holder
	ON transactions (holder_id, created_at, id);

CREATE TABLE IF NOT EXISTS holders (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
`

// cacheSchema holds rebuildable operational data. The price snapshot table
// keeps a single msgpack blob with the last published price table so a
// restarted feed resumes from recent prices instead of the hardcoded seeds.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS price_snapshots (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	data      BLOB NOT NULL,
	saved_at  INTEGER NOT NULL
);
`

// InitLedgerSchema applies the ledger database schema
func InitLedgerSchema(conn *sql.DB) error {
	if _, err := conn.Exec(ledgerSchema); err != nil {
		return fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return nil
}

// InitCacheSchema applies the cache database schema
func InitCacheSchema(conn *sql.DB) error {
	if _, err := conn.Exec(cacheSchema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}
