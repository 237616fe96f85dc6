package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strategy-trader/internal/models"
)

func TestStaticData_GetCandlesFiltersRange(t *testing.T) {
	data := NewStaticData()
	base := time.Date(2025, 1, 2, 9, 15, 0, 0, time.UTC)

	candles := make([]models.Candle, 10)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Close:     100 + float64(i),
		}
	}
	data.SetCandles("RELIANCE", candles)

	got, err := data.GetCandles(context.Background(), "RELIANCE", "1",
		base.Add(2*time.Minute), base.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.InDelta(t, 102.0, got[0].Close, 1e-9)
	assert.InDelta(t, 105.0, got[len(got)-1].Close, 1e-9)
}

func TestStaticData_EmptyRangeIsNotAnError(t *testing.T) {
	data := NewStaticData()

	got, err := data.GetCandles(context.Background(), "UNKNOWN", "1",
		time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStaticData_GetLastPrice(t *testing.T) {
	data := NewStaticData()
	base := time.Date(2025, 1, 2, 9, 15, 0, 0, time.UTC)

	_, err := data.GetLastPrice(context.Background(), "TCS")
	assert.Error(t, err)

	data.Append("TCS", models.Candle{Timestamp: base, Close: 3500})
	price, err := data.GetLastPrice(context.Background(), "TCS")
	require.NoError(t, err)
	assert.InDelta(t, 3500.0, price, 1e-9)
}

func TestStaticData_CancelledContext(t *testing.T) {
	data := NewStaticData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := data.GetCandles(ctx, "TCS", "1", time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
