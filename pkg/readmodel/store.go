// Package readmodel maintains a local sqlite projection of contract events.
// The chain stays the source of truth; this store only serves activity
// queries and API key lookups, and its writes are idempotent because the
// same log can be observed more than once after a resubscribe.
package readmodel

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoices (
	token_id     INTEGER PRIMARY KEY,
	issuer       TEXT NOT NULL,
	owner        TEXT NOT NULL,
	amount       TEXT NOT NULL,
	last_price   TEXT,
	created_tx   TEXT NOT NULL,
	updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trades (
	tx_hash      TEXT NOT NULL,
	log_index    INTEGER NOT NULL,
	token_id     INTEGER NOT NULL,
	seller       TEXT NOT NULL,
	buyer        TEXT NOT NULL,
	price        TEXT NOT NULL,
	block_number INTEGER NOT NULL,
	observed_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (tx_hash, log_index)
);

CREATE INDEX IF NOT EXISTS idx_trades_token ON trades(token_id);

CREATE TABLE IF NOT EXISTS api_keys (
	key          TEXT PRIMARY KEY,
	wallet       TEXT NOT NULL,
	label        TEXT,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_used_at TIMESTAMP
);
`

// Trade is one observed InvoiceTraded event.
type Trade struct {
	TokenID     uint64    `json:"tokenId"`
	Seller      string    `json:"seller"`
	Buyer       string    `json:"buyer"`
	Price       string    `json:"price"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	ObservedAt  time.Time `json:"observedAt"`
}

// Store is the sqlite-backed read model. It implements chain.EventSink.
type Store struct {
	db     *sql.DB
	logger *logging.ColoredLogger
}

// Open opens (creating if needed) the sqlite database at path and applies
// the schema. Use ":memory:" for tests.
func Open(path string, logger *logging.ColoredLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	logger.ComponentInfo(logging.ComponentReadModel, "read model opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// HandleInvoiceCreated upserts the invoice projection. Replaying the same
// event is a no-op change.
func (s *Store) HandleInvoiceCreated(ctx context.Context, ev chain.InvoiceCreatedEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (token_id, issuer, owner, amount, created_tx)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token_id) DO UPDATE SET
			issuer = excluded.issuer,
			amount = excluded.amount,
			updated_at = CURRENT_TIMESTAMP`,
		ev.TokenID.Uint64(), ev.Issuer.Hex(), ev.Issuer.Hex(), ev.Amount.String(), ev.TxHash,
	)
	return err
}

// HandleInvoiceTraded records the trade (keyed by tx hash and log index, so
// replays are ignored) and moves the projected owner.
func (s *Store) HandleInvoiceTraded(ctx context.Context, ev chain.InvoiceTradedEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trades (tx_hash, log_index, token_id, seller, buyer, price, block_number)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.TxHash, ev.LogIndex, ev.TokenID.Uint64(), ev.From.Hex(), ev.To.Hex(), ev.Price.String(), ev.BlockNumber,
	)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE invoices SET owner = ?, last_price = ?, updated_at = CURRENT_TIMESTAMP
		WHERE token_id = ?`,
		ev.To.Hex(), ev.Price.String(), ev.TokenID.Uint64(),
	)
	return err
}

// RecentTrades returns the most recently observed trades, newest first.
func (s *Store) RecentTrades(ctx context.Context, limit int) ([]Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token_id, seller, buyer, price, tx_hash, block_number, observed_at
		FROM trades
		ORDER BY block_number DESC, log_index DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := make([]Trade, 0, limit)
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.TokenID, &t.Seller, &t.Buyer, &t.Price, &t.TxHash, &t.BlockNumber, &t.ObservedAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Counts returns the number of projected invoices and trades, for the status
// endpoint.
func (s *Store) Counts(ctx context.Context) (invoices, trades int64, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices").Scan(&invoices); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trades").Scan(&trades); err != nil {
		return 0, 0, err
	}
	return invoices, trades, nil
}

// InsertAPIKey registers a bearer key for a wallet address.
func (s *Store) InsertAPIKey(ctx context.Context, key, wallet, label string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO api_keys (key, wallet, label) VALUES (?, ?, ?)",
		key, wallet, label,
	)
	return err
}

// LookupAPIKey resolves a bearer key to its wallet address.
func (s *Store) LookupAPIKey(ctx context.Context, key string) (string, error) {
	var wallet string
	err := s.db.QueryRowContext(ctx, "SELECT wallet FROM api_keys WHERE key = ?", key).Scan(&wallet)
	if err == sql.ErrNoRows {
		return "", errors.NewUnauthorizedError("invalid API key")
	}
	if err != nil {
		return "", err
	}
	return wallet, nil
}

// TouchAPIKey records key usage (best-effort).
func (s *Store) TouchAPIKey(ctx context.Context, key string) {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET last_used_at = CURRENT_TIMESTAMP WHERE key = ?", key); err != nil {
		s.logger.ComponentWarn(logging.ComponentReadModel, "failed to touch api key", zap.Error(err))
	}
}
