package strategy

import "fmt"

// FeeRoundTrip is the fixed round-trip fee fraction assumed on every closed
// trade (venue aggregate, both legs).
const FeeRoundTrip = 0.0004

// Params holds the mean-reversion rule set: EMA/ATR lengths, the dip-zone
// geometry, and the exit ladder.
type Params struct {
	EMAFast      int `json:"ema_fast" yaml:"ema_fast"`
	EMASlow      int `json:"ema_slow" yaml:"ema_slow"`
	ATRLen       int `json:"atr_len" yaml:"atr_len"`
	WarmupMargin int `json:"warmup_margin" yaml:"warmup_margin"`

	// Entry gates.
	ZoneMult float64 `json:"zone_mult" yaml:"zone_mult"`
	MinSlope float64 `json:"min_slope" yaml:"min_slope"`

	// Exit ladder. TP2Pct and TrailPct are disabled at zero.
	TP1Pct      float64 `json:"tp1_pct" yaml:"tp1_pct"`
	TP2Pct      float64 `json:"tp2_pct" yaml:"tp2_pct"`
	TrailPct    float64 `json:"trail_pct" yaml:"trail_pct"`
	SLPct       float64 `json:"sl_pct" yaml:"sl_pct"`
	MaxHoldBars int     `json:"max_hold_bars" yaml:"max_hold_bars"`

	CooldownBars int `json:"cooldown_bars" yaml:"cooldown_bars"`
}

// DefaultParams returns the rule set used when the config file leaves the
// strategy section empty.
func DefaultParams() Params {
	return Params{
		EMAFast:      20,
		EMASlow:      50,
		ATRLen:       14,
		WarmupMargin: 5,
		ZoneMult:     1.0,
		MinSlope:     0.002,
		TP1Pct:       0.08,
		TP2Pct:       0,
		TrailPct:     0.03,
		SLPct:        0.04,
		MaxHoldBars:  96,
		CooldownBars: 3,
	}
}

// Validate checks the rule set for values that would make the engine
// misbehave rather than merely trade badly.
func (p Params) Validate() error {
	if p.EMAFast <= 0 || p.EMASlow <= 0 || p.ATRLen <= 0 {
		return fmt.Errorf("strategy: ema_fast, ema_slow and atr_len must be positive")
	}
	if p.EMAFast >= p.EMASlow {
		return fmt.Errorf("strategy: ema_fast (%d) must be shorter than ema_slow (%d)", p.EMAFast, p.EMASlow)
	}
	if p.WarmupMargin < 0 {
		return fmt.Errorf("strategy: warmup_margin must not be negative")
	}
	if p.ZoneMult <= 0 {
		return fmt.Errorf("strategy: zone_mult must be positive")
	}
	if p.TP1Pct <= 0 {
		return fmt.Errorf("strategy: tp1_pct must be positive")
	}
	if p.TP2Pct > 0 && p.TP2Pct <= p.TP1Pct {
		return fmt.Errorf("strategy: tp2_pct must exceed tp1_pct when set")
	}
	if p.SLPct <= 0 {
		return fmt.Errorf("strategy: sl_pct must be positive")
	}
	if p.MaxHoldBars <= 0 {
		return fmt.Errorf("strategy: max_hold_bars must be positive")
	}
	if p.TrailPct < 0 || p.CooldownBars < 0 {
		return fmt.Errorf("strategy: trail_pct and cooldown_bars must not be negative")
	}
	return nil
}

// warmupBars is the bar count required before indicators are trusted.
func (p Params) warmupBars() int {
	n := p.EMASlow
	if p.ATRLen > n {
		n = p.ATRLen
	}
	return n + p.WarmupMargin
}
