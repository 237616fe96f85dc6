package broker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCandlesCSV(t *testing.T) {
	input := `timestamp,open,high,low,close,volume
2024-06-03T09:15:00Z,100.0,101.5,99.5,101.0,15000
2024-06-03T09:20:00Z,101.0,102.0,100.5,101.5,12000
`
	candles, err := ReadCandlesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.5, candles[0].High)
	assert.Equal(t, 99.5, candles[0].Low)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, int64(15000), candles[0].Volume)
}

func TestReadCandlesCSV_UnixTimestampsWithoutHeader(t *testing.T) {
	input := "1717406100,100,101,99,100.5,1000\n1717406400,100.5,102,100,101.5,1200\n"

	candles, err := ReadCandlesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1717406100), candles[0].Timestamp.Unix())
}

func TestReadCandlesCSV_BadRow(t *testing.T) {
	input := "2024-06-03T09:15:00Z,abc,101,99,100,1000\n"

	_, err := ReadCandlesCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadCandlesDir(t *testing.T) {
	dir := t.TempDir()
	content := "timestamp,open,high,low,close,volume\n2024-06-03T09:15:00Z,100,101,99,100.5,1000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reliance.csv"), []byte(content), 0644))

	data, err := LoadCandlesDir(dir)
	require.NoError(t, err)

	candles, err := data.GetCandles(context.Background(), "RELIANCE",
		"5", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, candles, 1)
}

func TestLoadCandlesDir_Empty(t *testing.T) {
	_, err := LoadCandlesDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no csv files")
}
