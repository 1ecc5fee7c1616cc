package strategy

// State is a read-only projection of the engine for status reporting. It is
// assembled on demand and safe to serialize.
type State struct {
	Pair       string    `json:"pair"`
	Bars       int       `json:"bars"`
	Warmup     bool      `json:"warmup"` // true while indicators are not ready
	Indicators Snapshot  `json:"indicators"`
	Position   *Position `json:"position,omitempty"`
	Cooldown   int       `json:"cooldown_bars"`
	Ledger     Ledger    `json:"ledger"`
}

// State returns the current reporting projection. It has no side effects.
func (e *Engine) State() State {
	snap := e.Indicators()
	var pos *Position
	if e.pos != nil {
		p := *e.pos
		pos = &p
	}
	return State{
		Pair:       e.pair,
		Bars:       e.bars,
		Warmup:     !snap.Ready,
		Indicators: snap,
		Position:   pos,
		Cooldown:   e.cooldown,
		Ledger:     e.ledger,
	}
}

// Persisted is the durable slice of engine state: everything needed to
// resume after a restart, minus the bar series (persisted separately).
type Persisted struct {
	Position *Position `json:"position,omitempty"`
	Cooldown int       `json:"cooldown_bars"`
	Ledger   Ledger    `json:"ledger"`
}

// Export captures the durable state for persistence.
func (e *Engine) Export() Persisted {
	var pos *Position
	if e.pos != nil {
		p := *e.pos
		pos = &p
	}
	return Persisted{
		Position: pos,
		Cooldown: e.cooldown,
		Ledger:   e.ledger,
	}
}

// Restore overwrites the durable state from a previous Export. Bars are
// replayed separately through AddBar before Restore so the indicator series
// and bar count line up with the restored position indices.
func (e *Engine) Restore(s Persisted) {
	if s.Position != nil {
		p := *s.Position
		e.pos = &p
	} else {
		e.pos = nil
	}
	e.cooldown = s.Cooldown
	if s.Ledger.Equity == 0 {
		// Empty or pre-bootstrap blob: keep the starting ledger.
		return
	}
	e.ledger = s.Ledger
}
