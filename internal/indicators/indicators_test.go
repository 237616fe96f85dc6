package indicators

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strategy-trader/internal/models"
)

// candlesFromCloses builds candles where OHLC all equal the close price.
func candlesFromCloses(closes ...float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	base := time.Date(2025, 1, 1, 9, 15, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func TestSMA_KnownValues(t *testing.T) {
	candles := candlesFromCloses(1, 2, 3, 4, 5, 6)

	values, err := NewSMA(3).Calculate(candles)
	require.NoError(t, err)
	require.Len(t, values, 6)

	assert.False(t, Defined(values[0]))
	assert.False(t, Defined(values[1]))
	assert.InDelta(t, 2.0, values[2], 1e-9)
	assert.InDelta(t, 3.0, values[3], 1e-9)
	assert.InDelta(t, 4.0, values[4], 1e-9)
	assert.InDelta(t, 5.0, values[5], 1e-9)
}

func TestSMA_InsufficientData(t *testing.T) {
	candles := candlesFromCloses(1, 2)

	_, err := NewSMA(3).Calculate(candles)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSMA_InvalidPeriod(t *testing.T) {
	candles := candlesFromCloses(1, 2, 3)

	_, err := NewSMA(0).Calculate(candles)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestEMA_SeedIsSMA(t *testing.T) {
	candles := candlesFromCloses(2, 4, 6, 8, 10)

	values, err := NewEMA(3).Calculate(candles)
	require.NoError(t, err)

	assert.False(t, Defined(values[1]))
	// First EMA value is the SMA of the seed window
	assert.InDelta(t, 4.0, values[2], 1e-9)
	// multiplier = 2/(3+1) = 0.5
	assert.InDelta(t, 6.0, values[3], 1e-9)
	assert.InDelta(t, 8.0, values[4], 1e-9)
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	candles := candlesFromCloses(closes...)

	values, err := NewRSI(14).Calculate(candles)
	require.NoError(t, err)

	for i, v := range values {
		if i < 14 {
			assert.False(t, Defined(v), "index %d should be undefined", i)
			continue
		}
		assert.InDelta(t, 100.0, v, 1e-9, "index %d", i)
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	candles := candlesFromCloses(closes...)

	values, err := NewRSI(14).Calculate(candles)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, values[len(values)-1], 1e-9)
}

func TestStochastic_FlatWindowIsUndefined(t *testing.T) {
	// Every candle has High == Low, so %K has no defined value anywhere
	candles := candlesFromCloses(100, 100, 100, 100, 100, 100, 100, 100, 100, 100)

	values, err := NewStochastic(5, 3, 3).Calculate(candles)
	require.NoError(t, err)

	for _, v := range values["percent_k"] {
		assert.False(t, Defined(v))
	}
	for _, v := range values["percent_d"] {
		assert.False(t, Defined(v))
	}
}

func TestMACD_WarmupAndAlignment(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*10
	}
	candles := candlesFromCloses(closes...)

	macd := NewMACD(12, 26, 9)
	values, err := macd.Calculate(candles)
	require.NoError(t, err)

	require.Len(t, values["macd"], 60)
	require.Len(t, values["signal"], 60)
	require.Len(t, values["histogram"], 60)

	// MACD line defined once the slow EMA is, signal once its own seed is
	assert.False(t, Defined(values["macd"][24]))
	assert.True(t, Defined(values["macd"][25]))
	assert.False(t, Defined(values["signal"][32]))
	assert.True(t, Defined(values["signal"][33]))

	for i := macd.Period(); i < 60; i++ {
		assert.InDelta(t, values["macd"][i]-values["signal"][i], values["histogram"][i], 1e-9)
	}
}

func TestATR_ConstantRange(t *testing.T) {
	candles := make([]models.Candle, 20)
	base := time.Date(2025, 1, 1, 9, 15, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      100,
			High:      102,
			Low:       98,
			Close:     100,
			Volume:    1000,
		}
	}

	values, err := NewATR(14).Calculate(candles)
	require.NoError(t, err)

	assert.False(t, Defined(values[12]))
	// Every true range is 4, so ATR converges to exactly 4
	for i := 13; i < len(values); i++ {
		assert.InDelta(t, 4.0, values[i], 1e-9)
	}
}

func TestRenko_FixedBrickWalk(t *testing.T) {
	// 10-point bricks: three up bricks, then a two-brick reversal
	candles := candlesFromCloses(100, 111, 122, 133, 131, 99)

	values, err := NewRenko(10).Calculate(candles)
	require.NoError(t, err)

	direction := values["direction"]
	consecutive := values["consecutive"]
	brickPrice := values["brick_price"]

	assert.False(t, Defined(direction[0]))

	assert.Equal(t, 1.0, direction[1])
	assert.Equal(t, 1.0, consecutive[1])
	assert.Equal(t, 110.0, brickPrice[1])

	assert.Equal(t, 1.0, direction[3])
	assert.Equal(t, 3.0, consecutive[3])
	assert.Equal(t, 130.0, brickPrice[3])

	// 131 is within the reversal band, trend unchanged
	assert.Equal(t, 1.0, direction[4])
	assert.Equal(t, 3.0, consecutive[4])

	// 99 crosses 130-20, reversing down and then adding one more brick
	assert.Equal(t, -1.0, direction[5])
	assert.Equal(t, 2.0, consecutive[5])
	assert.Equal(t, 100.0, brickPrice[5])
}

func TestSuperTrend_TrendingSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	candles := make([]models.Candle, len(closes))
	base := time.Date(2025, 1, 1, 9, 15, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      c - 1,
			High:      c + 1,
			Low:       c - 2,
			Close:     c,
			Volume:    1000,
		}
	}

	values, err := NewSuperTrend(10, 3.0).Calculate(candles)
	require.NoError(t, err)

	direction := values["direction"]
	// A steadily rising series ends in an uptrend
	assert.Equal(t, 1.0, direction[len(direction)-1])
}

func TestEngine_CalculateByName(t *testing.T) {
	engine := NewEngine(2)
	engine.RegisterIndicator(NewSMA(3))
	engine.RegisterMultiIndicator(NewBollingerBands(5, 2.0))

	candles := candlesFromCloses(1, 2, 3, 4, 5, 6, 7, 8)

	values, err := engine.Calculate(context.Background(), "SMA_3", candles)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, values[len(values)-1], 1e-9)

	multi, err := engine.CalculateMulti(context.Background(), "BollingerBands_5_2.0", candles)
	require.NoError(t, err)
	assert.Contains(t, multi, "middle")

	_, err = engine.Calculate(context.Background(), "missing", candles)
	assert.Error(t, err)
}

func TestEngine_CalculateAll(t *testing.T) {
	engine := NewEngine(4)
	engine.RegisterIndicator(NewSMA(3))
	engine.RegisterIndicator(NewEMA(3))
	engine.RegisterMultiIndicator(NewMACD(3, 6, 3))

	candles := candlesFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	singles, multis, err := engine.CalculateAll(context.Background(), candles)
	require.NoError(t, err)
	assert.Len(t, singles, 2)
	assert.Len(t, multis, 1)
}
