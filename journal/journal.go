package journal

import "time"

// TradeRecord is one closed trade, appended to the journal by the run loop
// when the engine settles a position.
type TradeRecord struct {
	TradeID     string    `json:"trade_id"`
	Pair        string    `json:"pair"`
	Quantity    float64   `json:"quantity"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	EntryTime   time.Time `json:"entry_time"`
	ExitTime    time.Time `json:"exit_time"`
	Reason      string    `json:"reason"`
	PnlPct      float64   `json:"pnl_pct"` // gross return fraction
	PnlNet      float64   `json:"pnl_net"` // net of the round-trip fee
	BarsHeld    int       `json:"bars_held"`
	EquityAfter float64   `json:"equity_after"`
}

// Summary aggregates the journal for reporting.
type Summary struct {
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	TotalPnlNet float64 `json:"total_pnl_net"`
}

// Journal is an append-only trade log.
type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}
