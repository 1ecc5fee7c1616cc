// Package bot wires the signal engine to the swap venue, journal, and state
// store, and drives the poll loop. All engine access is serialized here: the
// loop, the status API, and forced closes go through one mutex.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dipbot/config"
	"dipbot/journal"
	"dipbot/market"
	"dipbot/pkg/id"
	"dipbot/state"
	"dipbot/strategy"
	"dipbot/venue"
)

// Bot owns one engine instance for one traded pair.
type Bot struct {
	cfg      *config.Config
	log      *zap.Logger
	venue    venue.Venue
	backfill venue.BackfillFunc
	journal  journal.Journal
	store    *state.Store

	mu     sync.Mutex
	engine *strategy.Engine
	agg    *market.Aggregator

	forceClose chan string
}

// New assembles a bot. backfill may be nil when no historical source exists.
func New(cfg *config.Config, v venue.Venue, backfill venue.BackfillFunc, j journal.Journal, store *state.Store, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		cfg:        cfg,
		log:        log,
		venue:      v,
		backfill:   backfill,
		journal:    j,
		store:      store,
		engine:     strategy.NewEngine(cfg.Pair, cfg.Strategy, log),
		agg:        market.NewAggregator(cfg.BarDuration.Std()),
		forceClose: make(chan string, 1),
	}
}

// Bootstrap restores persisted bars and engine state, falling back to the
// historical source when the store is empty. Backfill failure degrades to an
// empty history: the engine simply starts its warmup from zero.
func (b *Bot) Bootstrap(ctx context.Context) error {
	bars, err := b.store.LoadBars(b.cfg.Pair)
	if err != nil {
		return fmt.Errorf("bot: load bars: %w", err)
	}

	if len(bars) == 0 && b.backfill != nil {
		bars, err = b.backfill(ctx, b.cfg.MaxBars)
		if err != nil {
			b.log.Warn("backfill failed, starting with empty history", zap.Error(err))
			bars = nil
		}
		if len(bars) > 0 {
			if err := b.store.SaveBars(b.cfg.Pair, bars); err != nil {
				return fmt.Errorf("bot: save backfill: %w", err)
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var prev int64 = -1
	for _, bar := range bars {
		if bar.Timestamp <= prev {
			continue // duplicate or unordered history row
		}
		b.engine.AddBar(bar)
		prev = bar.Timestamp
	}

	snap, ok, err := b.store.LoadEngine(b.cfg.Pair)
	if err != nil {
		return fmt.Errorf("bot: load engine state: %w", err)
	}
	if ok {
		// Restore after replay so position indices and cooldown reflect the
		// persisted values, not replay side effects.
		b.engine.Restore(snap)
	}

	b.log.Info("bootstrap complete",
		zap.String("pair", b.cfg.Pair),
		zap.Int("bars", b.engine.Bars()),
		zap.Bool("resumed_position", b.engine.Position() != nil),
	)
	return nil
}

// Run drives the poll loop until ctx is cancelled. State is saved on the way
// out.
func (b *Bot) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.PollInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := b.save(); err != nil {
				b.log.Error("final state save failed", zap.Error(err))
			}
			return ctx.Err()

		case reason := <-b.forceClose:
			b.handleForceClose(ctx, reason)

		case <-ticker.C:
			price, err := b.venue.QuotePrice(ctx)
			if err != nil {
				// Core state untouched; the next tick retries.
				b.log.Warn("price fetch failed", zap.Error(err))
				continue
			}
			b.OnPrice(ctx, price, time.Now())
		}
	}
}

// OnPrice runs one iteration of the trading sequence, in its required order:
// observe, append the completed bar if one rolled over, check exit, then
// entry.
func (b *Bot) OnPrice(ctx context.Context, price float64, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bar := b.agg.Observe(price, now); bar != nil {
		b.engine.AddBar(*bar)
		if err := b.store.AppendBar(b.cfg.Pair, *bar); err != nil {
			b.log.Error("persist bar failed", zap.Error(err))
		}
		if err := b.saveLocked(); err != nil {
			b.log.Error("persist engine state failed", zap.Error(err))
		}
	}

	if exit := b.engine.CheckExit(price); exit != nil {
		b.executeExit(ctx, exit.Reason)
		return
	}

	if entry := b.engine.CheckEntry(price); entry != nil {
		b.executeEntry(ctx, entry)
	}
}

// executeEntry swaps into the position. Any venue failure aborts without
// touching engine state; the signal re-fires on a later tick if still valid.
func (b *Bot) executeEntry(ctx context.Context, sig *strategy.EntrySignal) {
	qty := b.cfg.Trade.Quantity

	quote, err := b.venue.QuoteTrade(ctx, venue.Buy, qty)
	if err != nil {
		b.log.Warn("entry quote failed", zap.Error(err))
		return
	}
	ref, err := b.venue.SubmitTrade(ctx, quote)
	if err != nil {
		b.log.Warn("entry swap failed", zap.Error(err))
		return
	}

	if err := b.engine.OpenPosition(quote.Price, qty, quote.InAmount, ref); err != nil {
		// Unreachable if the evaluator gates held; log loudly either way.
		b.log.Error("open position rejected", zap.Error(err))
		return
	}
	b.log.Info("entered position",
		zap.Float64("price", quote.Price),
		zap.Float64("zone_depth", sig.ZoneDepth),
		zap.Float64("slope", sig.Slope),
		zap.String("ref", ref),
	)
	if err := b.saveLocked(); err != nil {
		b.log.Error("persist engine state failed", zap.Error(err))
	}
}

// executeExit swaps out of the position and journals the closed trade.
func (b *Bot) executeExit(ctx context.Context, reason string) {
	pos := b.engine.Position()
	if pos == nil {
		return
	}

	quote, err := b.venue.QuoteTrade(ctx, venue.Sell, pos.Quantity)
	if err != nil {
		b.log.Warn("exit quote failed", zap.Error(err))
		return
	}
	if _, err := b.venue.SubmitTrade(ctx, quote); err != nil {
		b.log.Warn("exit swap failed", zap.Error(err))
		return
	}

	entryTime := time.Unix(pos.EntryTimestamp, 0).UTC()
	entryPrice := pos.EntryPrice
	qty := pos.Quantity
	barsHeld := b.engine.Bars() - 1 - pos.EntryBarIndex

	res, err := b.engine.ClosePosition(quote.Price, reason)
	if err != nil {
		b.log.Error("close position rejected", zap.Error(err))
		return
	}

	rec := journal.TradeRecord{
		TradeID:     id.New(),
		Pair:        b.cfg.Pair,
		Quantity:    qty,
		EntryPrice:  entryPrice,
		ExitPrice:   quote.Price,
		EntryTime:   entryTime,
		ExitTime:    time.Now().UTC(),
		Reason:      reason,
		PnlPct:      res.PnlPct,
		PnlNet:      res.PnlNet,
		BarsHeld:    barsHeld,
		EquityAfter: b.engine.Ledger().Equity,
	}
	if err := b.journal.RecordTrade(rec); err != nil {
		b.log.Error("journal write failed", zap.Error(err))
	}
	if err := b.saveLocked(); err != nil {
		b.log.Error("persist engine state failed", zap.Error(err))
	}
}

func (b *Bot) handleForceClose(ctx context.Context, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.engine.Position() == nil {
		b.log.Info("force close requested with no open position")
		return
	}
	b.executeExit(ctx, reason)
}

// ForceClose asks the loop to close the open position on its next pass.
// Returns false if a request is already pending.
func (b *Bot) ForceClose(reason string) bool {
	if reason == "" {
		reason = strategy.ReasonManual
	}
	select {
	case b.forceClose <- reason:
		return true
	default:
		return false
	}
}

// State returns the engine's reporting projection.
func (b *Bot) State() strategy.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.State()
}

func (b *Bot) save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saveLocked()
}

func (b *Bot) saveLocked() error {
	return b.store.SaveEngine(b.cfg.Pair, b.engine.Export())
}
