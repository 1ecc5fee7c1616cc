package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dipbot/market"
	"dipbot/strategy"
)

func newTestStore(t *testing.T, maxBars int) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "state.db"), maxBars)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEngineStateRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 10)

	_, ok, err := s.LoadEngine("SOL/USDC")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := strategy.Persisted{
		Position: &strategy.Position{
			EntryPrice:     101.5,
			EntryBarIndex:  7,
			EntryTimestamp: 1714550400,
			HighSinceEntry: 104.2,
			Quantity:       2,
			CostBasis:      203,
			ExecutionRef:   "sig-abc",
		},
		Cooldown: 2,
		Ledger: strategy.Ledger{
			TotalTrades: 4,
			TotalWins:   3,
			TotalPnlPct: 0.12,
			Equity:      1.13,
			PeakEquity:  1.2,
			MaxDrawdown: 0.06,
		},
	}
	require.NoError(t, s.SaveEngine("SOL/USDC", snap))

	got, ok, err := s.LoadEngine("SOL/USDC")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.Position)
	assert.Equal(t, snap.Position.EntryPrice, got.Position.EntryPrice)
	assert.Equal(t, snap.Cooldown, got.Cooldown)
	assert.Equal(t, snap.Ledger, got.Ledger)

	// Upsert: saving a flat snapshot replaces the position.
	snap.Position = nil
	require.NoError(t, s.SaveEngine("SOL/USDC", snap))
	got, ok, err = s.LoadEngine("SOL/USDC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, got.Position)
}

func TestBarsBounded(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 3)

	for i := 0; i < 5; i++ {
		b := market.Bar{Timestamp: int64(i * 300), Open: 1, High: 2, Low: 0.5, Close: float64(i)}
		require.NoError(t, s.AppendBar("SOL/USDC", b))
	}

	bars, err := s.LoadBars("SOL/USDC")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	// Oldest dropped first, order preserved.
	assert.Equal(t, int64(600), bars[0].Timestamp)
	assert.Equal(t, int64(1200), bars[2].Timestamp)
}

func TestSaveBarsReplaces(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 100)

	require.NoError(t, s.AppendBar("SOL/USDC", market.Bar{Timestamp: 0, Close: 1}))

	fresh := []market.Bar{
		{Timestamp: 300, Open: 10, High: 11, Low: 9, Close: 10.5},
		{Timestamp: 600, Open: 10.5, High: 12, Low: 10, Close: 11.5},
	}
	require.NoError(t, s.SaveBars("SOL/USDC", fresh))

	bars, err := s.LoadBars("SOL/USDC")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, fresh, bars)
}

func TestDuplicateBarIgnored(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, 10)
	b := market.Bar{Timestamp: 300, Open: 1, High: 2, Low: 1, Close: 2}
	require.NoError(t, s.AppendBar("SOL/USDC", b))
	require.NoError(t, s.AppendBar("SOL/USDC", b))

	bars, err := s.LoadBars("SOL/USDC")
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}
