package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trades.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	exit := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(testRecord("T1", exit, 0.08)))
	require.NoError(t, j.RecordTrade(testRecord("T2", exit.Add(time.Hour), -0.04)))
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 trades

	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "T1", rows[1][0])
	assert.Equal(t, "SOL/USDC", rows[1][1])
	assert.Equal(t, "tp1", rows[1][7])
	assert.Equal(t, "T2", rows[2][0])
}
