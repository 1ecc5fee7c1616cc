package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j
}

func testRecord(id string, exit time.Time, pnlNet float64) TradeRecord {
	return TradeRecord{
		TradeID:     id,
		Pair:        "SOL/USDC",
		Quantity:    1.5,
		EntryPrice:  100,
		ExitPrice:   100 * (1 + pnlNet),
		EntryTime:   exit.Add(-2 * time.Hour),
		ExitTime:    exit,
		Reason:      "tp1",
		PnlPct:      pnlNet + 0.0004,
		PnlNet:      pnlNet,
		BarsHeld:    24,
		EquityAfter: 1 + pnlNet,
	}
}

func TestSQLiteRecordAndGet(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	exit := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := testRecord("T1", exit, 0.08)
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.Pair, got.Pair)
	assert.Equal(t, rec.Reason, got.Reason)
	assert.InDelta(t, rec.PnlNet, got.PnlNet, 1e-9)
	assert.Equal(t, rec.BarsHeld, got.BarsHeld)
	assert.True(t, got.ExitTime.Equal(exit))

	_, err = j.GetTrade("missing")
	assert.Error(t, err)
}

func TestSQLiteListAndSummarize(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(testRecord("T1", base, 0.10)))
	require.NoError(t, j.RecordTrade(testRecord("T2", base.Add(time.Hour), -0.05)))
	require.NoError(t, j.RecordTrade(testRecord("T3", base.Add(2*time.Hour), 0.02)))

	recs, err := j.ListTrades(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "T3", recs[0].TradeID) // newest first

	window, err := j.ListTradesClosedBetween(base, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "T1", window[0].TradeID)

	sum, err := j.Summarize()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Trades)
	assert.Equal(t, 2, sum.Wins)
	assert.InDelta(t, 0.07, sum.TotalPnlNet, 1e-9)
}

func TestSQLiteDuplicateTradeID(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	exit := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(testRecord("T1", exit, 0.01)))
	assert.Error(t, j.RecordTrade(testRecord("T1", exit, 0.01)))
}
