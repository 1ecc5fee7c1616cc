package strategy

// Exit reasons recorded in the trade journal, in priority order.
const (
	ReasonTP2     = "tp2"
	ReasonTP1     = "tp1"
	ReasonTrail   = "trail"
	ReasonSL      = "sl"
	ReasonTimeout = "timeout"
	// ReasonManual is used for operator-forced closes; the evaluator never
	// produces it.
	ReasonManual = "manual"
)

// EntrySignal is returned when every entry gate passes. ZoneDepth measures
// how far below the buy zone boundary the price dipped, in ATR units.
type EntrySignal struct {
	Price      float64 `json:"price"`
	Slope      float64 `json:"slope"`
	BuyZoneTop float64 `json:"buy_zone_top"`
	ZoneDepth  float64 `json:"zone_depth"`
	ATR        float64 `json:"atr"`
}

// ExitSignal is returned when an exit rule fires.
type ExitSignal struct {
	Reason   string  `json:"reason"`
	Price    float64 `json:"price"`
	PnlPct   float64 `json:"pnl_pct"`
	BarsHeld int     `json:"bars_held"`
}

// evalEntry is the pure entry rule: all gates must hold. The slope gate is
// the trend filter; the zone gate requires a pullback of at least zoneMult
// ATRs below the fast average.
func evalEntry(p Params, snap Snapshot, price float64, inPosition bool, cooldown int) *EntrySignal {
	if !snap.Ready || inPosition || cooldown > 0 {
		return nil
	}
	if snap.ATR <= 0 || snap.Slope < p.MinSlope || price > snap.BuyZoneTop {
		return nil
	}
	return &EntrySignal{
		Price:      price,
		Slope:      snap.Slope,
		BuyZoneTop: snap.BuyZoneTop,
		ZoneDepth:  (snap.BuyZoneTop - price) / snap.ATR,
		ATR:        snap.ATR,
	}
}

// evalExit is the pure exit ladder; first match wins. The caller has already
// advanced pos.HighSinceEntry for this price.
func evalExit(p Params, pos *Position, price float64, barsHeld int) *ExitSignal {
	pnl := pos.PnlPct(price)

	sig := func(reason string) *ExitSignal {
		return &ExitSignal{Reason: reason, Price: price, PnlPct: pnl, BarsHeld: barsHeld}
	}

	if p.TP2Pct > 0 && pnl >= p.TP2Pct {
		return sig(ReasonTP2)
	}

	if p.TrailPct > 0 {
		// The trail arms once the high-water mark clears TP1, and from then
		// on it owns the upside exit: the current price may pull back below
		// TP1 and the position still rides until the drawdown from the high
		// crosses the trail distance.
		if pos.HighSinceEntry >= pos.EntryPrice*(1+p.TP1Pct) {
			if (pos.HighSinceEntry-price)/pos.HighSinceEntry >= p.TrailPct {
				return sig(ReasonTrail)
			}
			return nil
		}
	} else if pnl >= p.TP1Pct {
		return sig(ReasonTP1)
	}

	if pnl <= -p.SLPct {
		return sig(ReasonSL)
	}

	if barsHeld >= p.MaxHoldBars {
		return sig(ReasonTimeout)
	}

	return nil
}
