package strategy

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"dipbot/indicators"
	"dipbot/market"
)

// ErrInvalidState is returned when the position lifecycle is violated:
// opening while a position exists, or closing while flat. Callers are
// expected to consult CheckEntry/CheckExit first, so hitting this is a
// contract bug, not a market condition.
var ErrInvalidState = errors.New("strategy: invalid position state")

// Spike clamp bounds relative to the previous close. A bar implying a move
// outside these is treated as corrupted feed data.
const (
	clampHigh = 3.0
	clampLow  = 0.33
)

// Snapshot is the derived indicator view after the latest bar.
type Snapshot struct {
	EMAFast    float64 `json:"ema_fast"`
	EMASlow    float64 `json:"ema_slow"`
	ATR        float64 `json:"atr"`
	Slope      float64 `json:"slope"`
	BuyZoneTop float64 `json:"buy_zone_top"`
	Ready      bool    `json:"ready"`
}

// Engine is the signal-and-position core for one traded pair. It is strictly
// sequential: one caller drives AddBar/CheckExit/CheckEntry per tick, in that
// order. Step wraps the full sequence for bar-driven callers.
type Engine struct {
	pair   string
	params Params
	log    *zap.Logger

	emaFast *indicators.EMA
	emaSlow *indicators.EMA
	atr     *indicators.ATR

	bars     int
	lastBar  market.Bar
	cooldown int
	pos      *Position
	ledger   Ledger
}

// NewEngine creates an engine for the given pair and rule set.
func NewEngine(pair string, params Params, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		pair:    pair,
		params:  params,
		log:     log,
		emaFast: indicators.NewEMA(params.EMAFast),
		emaSlow: indicators.NewEMA(params.EMASlow),
		atr:     indicators.NewATR(params.ATRLen),
		ledger:  NewLedger(),
	}
}

// AddBar appends a completed bar: sanitizes it against the previous close,
// updates the indicator series, and ticks the cooldown counter. Bars must
// arrive in timestamp order.
func (e *Engine) AddBar(b market.Bar) {
	b = e.sanitize(b)

	e.emaFast.Update(b)
	e.emaSlow.Update(b)
	e.atr.Update(b)

	e.bars++
	e.lastBar = b

	if e.cooldown > 0 {
		e.cooldown--
	}
}

// sanitize clamps bars implying an implausible move from the previous close
// into [clampLow, clampHigh] times that close. The bar is kept so the
// indicator series and warmup count are never interrupted.
func (e *Engine) sanitize(b market.Bar) market.Bar {
	if e.bars == 0 {
		return b
	}

	lo := clampLow * e.lastBar.Close
	hi := clampHigh * e.lastBar.Close

	out := func(v float64) bool { return v < lo || v > hi }
	if !out(b.Open) && !out(b.High) && !out(b.Low) && !out(b.Close) {
		return b
	}

	e.log.Warn("corrupted bar clamped",
		zap.String("pair", e.pair),
		zap.Int64("ts", b.Timestamp),
		zap.Float64("prev_close", e.lastBar.Close),
		zap.Float64("open", b.Open),
		zap.Float64("high", b.High),
		zap.Float64("low", b.Low),
		zap.Float64("close", b.Close),
	)

	clamp := func(v float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	b.Open = clamp(b.Open)
	b.High = clamp(b.High)
	b.Low = clamp(b.Low)
	b.Close = clamp(b.Close)
	return b
}

// Bars returns the number of bars appended.
func (e *Engine) Bars() int {
	return e.bars
}

// LastBar returns the most recently appended bar, post-sanitization. The
// zero Bar before any append.
func (e *Engine) LastBar() market.Bar {
	return e.lastBar
}

// Indicators returns the current snapshot.
func (e *Engine) Indicators() Snapshot {
	snap := Snapshot{
		EMAFast: e.emaFast.Value(),
		EMASlow: e.emaSlow.Value(),
		ATR:     e.atr.Value(),
		Ready:   e.bars >= e.params.warmupBars(),
	}
	if snap.EMASlow != 0 {
		snap.Slope = (snap.EMAFast - snap.EMASlow) / snap.EMASlow
	}
	snap.BuyZoneTop = snap.EMAFast - e.params.ZoneMult*snap.ATR
	return snap
}

// CheckEntry evaluates the entry gates at the given price. Nil means no
// signal.
func (e *Engine) CheckEntry(price float64) *EntrySignal {
	return evalEntry(e.params, e.Indicators(), price, e.pos != nil, e.cooldown)
}

// CheckExit evaluates the exit ladder at the given price. Regardless of
// outcome it advances the position high-water mark. Nil when flat or no rule
// fires.
func (e *Engine) CheckExit(price float64) *ExitSignal {
	if e.pos == nil {
		return nil
	}
	if price > e.pos.HighSinceEntry {
		e.pos.HighSinceEntry = price
	}
	return evalExit(e.params, e.pos, price, e.barsHeld())
}

func (e *Engine) barsHeld() int {
	if e.pos == nil {
		return 0
	}
	return (e.bars - 1) - e.pos.EntryBarIndex
}

// OpenPosition records a filled entry. Fails with ErrInvalidState if a
// position is already open.
func (e *Engine) OpenPosition(price, quantity, costBasis float64, executionRef string) error {
	if e.pos != nil {
		return ErrInvalidState
	}
	ts := time.Now().Unix()
	if e.bars > 0 {
		ts = e.lastBar.Timestamp
	}
	e.pos = &Position{
		EntryPrice:     price,
		EntryBarIndex:  e.bars - 1,
		EntryTimestamp: ts,
		HighSinceEntry: price,
		Quantity:       quantity,
		CostBasis:      costBasis,
		ExecutionRef:   executionRef,
	}
	e.log.Info("position opened",
		zap.String("pair", e.pair),
		zap.Float64("price", price),
		zap.Float64("quantity", quantity),
		zap.String("ref", executionRef),
	)
	return nil
}

// CloseResult reports the gross and net (after FeeRoundTrip) return of a
// closed trade.
type CloseResult struct {
	PnlPct float64
	PnlNet float64
}

// ClosePosition settles the open position at exitPrice: updates the ledger,
// clears the slot, and starts the cooldown. Fails with ErrInvalidState when
// flat.
func (e *Engine) ClosePosition(exitPrice float64, reason string) (CloseResult, error) {
	if e.pos == nil {
		return CloseResult{}, ErrInvalidState
	}

	gross := e.pos.PnlPct(exitPrice)
	net := gross - FeeRoundTrip

	e.ledger.record(net)
	e.pos = nil
	e.cooldown = e.params.CooldownBars

	e.log.Info("position closed",
		zap.String("pair", e.pair),
		zap.String("reason", reason),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("pnl_pct", gross),
		zap.Float64("pnl_net", net),
		zap.Float64("equity", e.ledger.Equity),
	)
	return CloseResult{PnlPct: gross, PnlNet: net}, nil
}

// Position returns the open position, or nil when flat. The pointer is owned
// by the engine; callers must not retain it across mutations.
func (e *Engine) Position() *Position {
	return e.pos
}

// Ledger returns the cumulative performance state.
func (e *Engine) Ledger() Ledger {
	return e.ledger
}

// Cooldown returns the bars remaining before entries are allowed again.
func (e *Engine) Cooldown() int {
	return e.cooldown
}

// Advice is the outcome of one Step: at most one of Exit and Entry is set,
// exit taking priority.
type Advice struct {
	Exit  *ExitSignal
	Entry *EntrySignal
}

// Step runs the full per-tick sequence in its required order: append the bar
// (when one completed), then check exit, then entry. Callers that drive the
// engine tick by tick should use Step rather than sequencing the individual
// calls themselves.
func (e *Engine) Step(price float64, bar *market.Bar) Advice {
	if bar != nil {
		e.AddBar(*bar)
	}
	if exit := e.CheckExit(price); exit != nil {
		return Advice{Exit: exit}
	}
	return Advice{Entry: e.CheckEntry(price)}
}
