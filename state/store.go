// Package state persists the durable engine snapshot and bar history so the
// bot can resume unattended after a restart.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dipbot/market"
	"dipbot/strategy"
)

const schema = `
CREATE TABLE IF NOT EXISTS engine_state (
	pair TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS bars (
	pair TEXT NOT NULL,
	ts INTEGER NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	PRIMARY KEY (pair, ts)
);
`

// Store is a SQLite-backed state store. One row of engine state and a
// bounded bar series per pair.
type Store struct {
	db      *sql.DB
	maxBars int
}

// Open opens (or creates) the store at path. maxBars bounds the persisted
// bar series per pair; zero or negative means 500.
func Open(path string, maxBars int) (*Store, error) {
	if maxBars <= 0 {
		maxBars = 500
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, maxBars: maxBars}, nil
}

// SaveEngine upserts the engine snapshot as a JSON blob.
func (s *Store) SaveEngine(pair string, snap strategy.Persisted) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("state: marshal engine snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO engine_state (pair, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(pair) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		pair, string(blob), time.Now().UTC(),
	)
	return err
}

// LoadEngine returns the persisted snapshot for pair. ok is false when the
// pair has never been saved.
func (s *Store) LoadEngine(pair string) (snap strategy.Persisted, ok bool, err error) {
	var blob string
	err = s.db.QueryRow(`SELECT data FROM engine_state WHERE pair = ?`, pair).Scan(&blob)
	if err == sql.ErrNoRows {
		return strategy.Persisted{}, false, nil
	}
	if err != nil {
		return strategy.Persisted{}, false, err
	}
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return strategy.Persisted{}, false, fmt.Errorf("state: unmarshal engine snapshot: %w", err)
	}
	return snap, true, nil
}

// AppendBar inserts one completed bar and prunes the series to maxBars,
// oldest dropped first. A bar with a duplicate timestamp is ignored.
func (s *Store) AppendBar(pair string, b market.Bar) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO bars (pair, ts, open, high, low, close)
		VALUES (?, ?, ?, ?, ?, ?)`,
		pair, b.Timestamp, b.Open, b.High, b.Low, b.Close,
	)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		DELETE FROM bars WHERE pair = ? AND ts NOT IN (
			SELECT ts FROM bars WHERE pair = ? ORDER BY ts DESC LIMIT ?
		)`, pair, pair, s.maxBars)
	return err
}

// SaveBars replaces the persisted series for pair with the tail of bars.
func (s *Store) SaveBars(pair string, bars []market.Bar) error {
	if len(bars) > s.maxBars {
		bars = bars[len(bars)-s.maxBars:]
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bars WHERE pair = ?`, pair); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO bars (pair, ts, open, high, low, close) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(pair, b.Timestamp, b.Open, b.High, b.Low, b.Close); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadBars returns the persisted series for pair in timestamp order.
func (s *Store) LoadBars(pair string) ([]market.Bar, error) {
	rows, err := s.db.Query(`
		SELECT ts, open, high, low, close FROM bars
		WHERE pair = ? ORDER BY ts ASC`, pair)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var b market.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
