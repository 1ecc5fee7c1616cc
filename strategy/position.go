package strategy

// Position is the single open trade slot. HighSinceEntry is advanced by every
// exit check and never decreases.
type Position struct {
	EntryPrice     float64 `json:"entry_price"`
	EntryBarIndex  int     `json:"entry_bar_index"`
	EntryTimestamp int64   `json:"entry_ts"`
	HighSinceEntry float64 `json:"high_since_entry"`
	Quantity       float64 `json:"quantity"`
	CostBasis      float64 `json:"cost_basis"`
	ExecutionRef   string  `json:"execution_ref,omitempty"`
}

// PnlPct returns the gross return of the position at the given price.
func (p *Position) PnlPct(price float64) float64 {
	return (price - p.EntryPrice) / p.EntryPrice
}

// Ledger accumulates performance across closed trades. Equity is
// multiplicative and starts at 1.0; the drawdown fields are monotone and only
// reset through state restore.
type Ledger struct {
	TotalTrades int     `json:"total_trades"`
	TotalWins   int     `json:"total_wins"`
	TotalPnlPct float64 `json:"total_pnl_pct"`
	Equity      float64 `json:"equity"`
	PeakEquity  float64 `json:"peak_equity"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// NewLedger returns a ledger at its starting equity.
func NewLedger() Ledger {
	return Ledger{Equity: 1.0, PeakEquity: 1.0}
}

// record applies one closed trade's net return.
func (l *Ledger) record(pnlNet float64) {
	l.TotalTrades++
	if pnlNet > 0 {
		l.TotalWins++
	}
	l.TotalPnlPct += pnlNet

	l.Equity *= 1 + pnlNet
	if l.Equity > l.PeakEquity {
		l.PeakEquity = l.Equity
	}
	if dd := (l.PeakEquity - l.Equity) / l.PeakEquity; dd > l.MaxDrawdown {
		l.MaxDrawdown = dd
	}
}

// WinRate returns the fraction of closed trades with positive net return.
func (l *Ledger) WinRate() float64 {
	if l.TotalTrades == 0 {
		return 0
	}
	return float64(l.TotalWins) / float64(l.TotalTrades)
}
