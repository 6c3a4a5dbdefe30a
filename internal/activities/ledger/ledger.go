// Package ledger persists booked trades in SQLite, keyed by RFQ ID, so
// a retried booking activity never books the same RFQ twice.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger is a durable, idempotent record of booked trades.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS booked_trades (
			rfq_id TEXT PRIMARY KEY,
			trade_id TEXT NOT NULL,
			uti TEXT NOT NULL,
			price_amount TEXT NOT NULL,
			price_currency TEXT NOT NULL,
			booked_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// Record is the persisted shape of a booked trade. PriceAmount and
// PriceCurrency pin the price the client accepted at booking time.
type Record struct {
	RFQID         string
	TradeID       string
	UTI           string
	PriceAmount   string
	PriceCurrency string
	BookedAt      time.Time
}

// Lookup returns the previously booked trade for rfqID, if any. A
// retried booking activity calls this first so re-execution after a
// worker crash is a no-op rather than a duplicate booking.
func (l *Ledger) Lookup(ctx context.Context, rfqID string) (Record, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT trade_id, uti, price_amount, price_currency, booked_at FROM booked_trades WHERE rfq_id = ?`, rfqID)

	var tradeID, uti, priceAmount, priceCurrency, bookedAt string
	switch err := row.Scan(&tradeID, &uti, &priceAmount, &priceCurrency, &bookedAt); err {
	case nil:
		t, parseErr := time.Parse(time.RFC3339Nano, bookedAt)
		if parseErr != nil {
			return Record{}, false, fmt.Errorf("ledger: malformed booked_at for %s: %w", rfqID, parseErr)
		}
		return Record{
			RFQID: rfqID, TradeID: tradeID, UTI: uti,
			PriceAmount: priceAmount, PriceCurrency: priceCurrency, BookedAt: t,
		}, true, nil
	case sql.ErrNoRows:
		return Record{}, false, nil
	default:
		return Record{}, false, fmt.Errorf("ledger: lookup %s: %w", rfqID, err)
	}
}

// Insert records a newly booked trade. It is an error to insert twice
// for the same rfqID; callers should Lookup first.
func (l *Ledger) Insert(ctx context.Context, rec Record) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO booked_trades (rfq_id, trade_id, uti, price_amount, price_currency, booked_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RFQID, rec.TradeID, rec.UTI, rec.PriceAmount, rec.PriceCurrency, rec.BookedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("ledger: insert %s: %w", rec.RFQID, err)
	}
	return nil
}
