// Package backtest replays a historical bar series through the signal engine
// with simulated fills, and reports the resulting ledger.
package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dipbot/journal"
	"dipbot/pkg/id"
	"dipbot/strategy"
	"dipbot/venue"
)

// Result summarizes one backtest run.
type Result struct {
	Bars        int     `json:"bars"`
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	TotalPnlPct float64 `json:"total_pnl_pct"`
	Equity      float64 `json:"equity"`
	MaxDrawdown float64 `json:"max_drawdown"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RunnerOptions controls runner behavior outside the signal rules.
type RunnerOptions struct {
	// Close any open position after the last bar. The close reason defaults
	// to "end" when CloseReason is empty.
	CloseEnd    bool
	CloseReason string

	// SlippagePct shifts simulated fills against the taker.
	SlippagePct float64

	// Quantity per entry, in base units. Defaults to 1.
	Quantity float64
}

// Runner drives one engine over a bar feed.
type Runner struct {
	Pair    string
	Params  strategy.Params
	Feed    BarFeed
	Options RunnerOptions
	Log     *zap.Logger
}

// Run executes the replay loop. Each bar is appended and then evaluated at
// its close price, exits before entries. If j is not nil every closed trade
// is journaled, same records as a live run.
func (r *Runner) Run(ctx context.Context, j journal.Journal) (Result, error) {
	if r.Feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	if err := r.Params.Validate(); err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	defer r.Feed.Close()

	qty := r.Options.Quantity
	if qty <= 0 {
		qty = 1
	}

	eng := strategy.NewEngine(r.Pair, r.Params, r.Log)
	sim := venue.NewSim(0, r.Options.SlippagePct)

	var res Result

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		bar, ok, err := r.Feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}

		t := bar.Time()
		if res.Start.IsZero() || t.Before(res.Start) {
			res.Start = t
		}
		if res.End.IsZero() || t.After(res.End) {
			res.End = t
		}
		res.Bars++

		sim.SetPrice(bar.Close)
		adv := eng.Step(bar.Close, &bar)

		switch {
		case adv.Exit != nil:
			if err := r.closeTrade(ctx, eng, sim, j, adv.Exit.Reason); err != nil {
				return Result{}, err
			}
		case adv.Entry != nil:
			if err := r.openTrade(ctx, eng, sim, qty); err != nil {
				return Result{}, err
			}
		}
	}

	if r.Options.CloseEnd && eng.Position() != nil {
		reason := r.Options.CloseReason
		if reason == "" {
			reason = "end"
		}
		if err := r.closeTrade(ctx, eng, sim, j, reason); err != nil {
			return Result{}, err
		}
	}

	led := eng.Ledger()
	res.Trades = led.TotalTrades
	res.Wins = led.TotalWins
	res.WinRate = led.WinRate()
	res.TotalPnlPct = led.TotalPnlPct
	res.Equity = led.Equity
	res.MaxDrawdown = led.MaxDrawdown
	return res, nil
}

func (r *Runner) openTrade(ctx context.Context, eng *strategy.Engine, sim *venue.Sim, qty float64) error {
	quote, err := sim.QuoteTrade(ctx, venue.Buy, qty)
	if err != nil {
		return fmt.Errorf("backtest: entry fill: %w", err)
	}
	ref, err := sim.SubmitTrade(ctx, quote)
	if err != nil {
		return fmt.Errorf("backtest: entry fill: %w", err)
	}
	return eng.OpenPosition(quote.Price, qty, quote.InAmount, ref)
}

func (r *Runner) closeTrade(ctx context.Context, eng *strategy.Engine, sim *venue.Sim, j journal.Journal, reason string) error {
	pos := eng.Position()
	if pos == nil {
		return nil
	}

	quote, err := sim.QuoteTrade(ctx, venue.Sell, pos.Quantity)
	if err != nil {
		return fmt.Errorf("backtest: exit fill: %w", err)
	}
	if _, err := sim.SubmitTrade(ctx, quote); err != nil {
		return fmt.Errorf("backtest: exit fill: %w", err)
	}

	entryPrice := pos.EntryPrice
	entryTime := time.Unix(pos.EntryTimestamp, 0).UTC()
	qty := pos.Quantity
	barsHeld := eng.Bars() - 1 - pos.EntryBarIndex

	cr, err := eng.ClosePosition(quote.Price, reason)
	if err != nil {
		return err
	}

	if j != nil {
		rec := journal.TradeRecord{
			TradeID:     id.New(),
			Pair:        r.Pair,
			Quantity:    qty,
			EntryPrice:  entryPrice,
			ExitPrice:   quote.Price,
			EntryTime:   entryTime,
			ExitTime:    time.Unix(eng.LastBar().Timestamp, 0).UTC(),
			Reason:      reason,
			PnlPct:      cr.PnlPct,
			PnlNet:      cr.PnlNet,
			BarsHeld:    barsHeld,
			EquityAfter: eng.Ledger().Equity,
		}
		if err := j.RecordTrade(rec); err != nil {
			return fmt.Errorf("backtest: journal: %w", err)
		}
	}
	return nil
}
