package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, pair, quantity, entry_price, exit_price, entry_time, exit_time, reason, pnl_pct, pnl_net, bars_held, equity_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Pair, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.EntryTime, t.ExitTime, t.Reason, t.PnlPct, t.PnlNet, t.BarsHeld, t.EquityAfter,
	)
	return err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, pair, quantity, entry_price, exit_price, entry_time, exit_time, reason, pnl_pct, pnl_net, bars_held, equity_after
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return rec, err
}

// ListTrades returns the most recent trades by exit time, newest first.
func (j *SQLite) ListTrades(limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(`
		SELECT trade_id, pair, quantity, entry_price, exit_price, entry_time, exit_time, reason, pnl_pct, pnl_net, bars_held, equity_after
		FROM trades
		ORDER BY exit_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListTradesClosedBetween returns trades with exit_time in [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, pair, quantity, entry_price, exit_price, entry_time, exit_time, reason, pnl_pct, pnl_net, bars_held, equity_after
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Summarize aggregates trade count, wins, and cumulative net pnl.
func (j *SQLite) Summarize() (Summary, error) {
	var s Summary
	row := j.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN pnl_net > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(pnl_net), 0)
		FROM trades`)
	if err := row.Scan(&s.Trades, &s.Wins, &s.TotalPnlNet); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := r.Scan(
		&rec.TradeID,
		&rec.Pair,
		&rec.Quantity,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.EntryTime,
		&rec.ExitTime,
		&rec.Reason,
		&rec.PnlPct,
		&rec.PnlNet,
		&rec.BarsHeld,
		&rec.EquityAfter,
	)
	return rec, err
}
