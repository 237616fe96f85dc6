package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"strategy-trader/internal/models"
)

// Properties checked here:
// - Bounded oscillators stay within their mathematical bounds wherever defined
// - Values before the warm-up window are NaN
// - Indicators are causal: appending candles never changes earlier values

// candleGen generates valid candle data with realistic OHLCV values
func candleGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Candle{}), map[string]gopter.Gen{
		"Timestamp": gen.TimeRange(time.Now().Add(-365*24*time.Hour), time.Hour),
		"Open":      gen.Float64Range(100.0, 1000.0),
		"High":      gen.Float64Range(100.0, 1000.0),
		"Low":       gen.Float64Range(100.0, 1000.0),
		"Close":     gen.Float64Range(100.0, 1000.0),
		"Volume":    gen.Int64Range(1000, 10000000),
	}).Map(func(c models.Candle) models.Candle {
		if c.Open <= 0 {
			c.Open = 100.0
		}
		if c.High <= 0 {
			c.High = 100.0
		}
		if c.Low <= 0 {
			c.Low = 100.0
		}
		if c.Close <= 0 {
			c.Close = 100.0
		}
		// Ensure OHLC constraints: High >= max(Open, Close) and Low <= min(Open, Close)
		c.High = math.Max(c.High, math.Max(c.Open, c.Close))
		c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
		if c.Low > c.High {
			c.Low, c.High = c.High, c.Low
		}
		// Avoid flat candles where High == Low
		if c.High <= c.Low {
			c.High = c.Low + 1.0
		}
		return c
	})
}

// candleSliceGen generates a slice of valid candles
func candleSliceGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, candleGen()).Map(func(candles []models.Candle) []models.Candle {
		if len(candles) < minLen {
			for len(candles) < minLen {
				candles = append(candles, candles[len(candles)-1])
			}
		}
		for i := range candles {
			candles[i].Timestamp = time.Now().Add(time.Duration(i) * time.Hour)
			// Re-validate each candle after shrinking
			if candles[i].Open <= 0 {
				candles[i].Open = 100.0
			}
			if candles[i].High <= 0 {
				candles[i].High = 100.0
			}
			if candles[i].Low <= 0 {
				candles[i].Low = 100.0
			}
			if candles[i].Close <= 0 {
				candles[i].Close = 100.0
			}
			candles[i].High = math.Max(candles[i].High, math.Max(candles[i].Open, candles[i].Close))
			candles[i].Low = math.Min(candles[i].Low, math.Min(candles[i].Open, candles[i].Close))
			if candles[i].Low > candles[i].High {
				candles[i].Low, candles[i].High = candles[i].High, candles[i].Low
			}
			if candles[i].High <= candles[i].Low {
				candles[i].High = candles[i].Low + 1.0
			}
		}
		return candles
	})
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100] wherever defined", prop.ForAll(
		func(candles []models.Candle) bool {
			rsi := NewRSI(14)
			values, err := rsi.Calculate(candles)
			if err != nil {
				return true
			}

			for i, v := range values {
				if i < rsi.Period() {
					// Warm-up values are undefined
					if Defined(v) {
						return false
					}
					continue
				}
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		candleSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_StochasticWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Stochastic %K and %D values are within [0, 100] wherever defined", prop.ForAll(
		func(candles []models.Candle) bool {
			stoch := NewStochastic(14, 3, 3)
			values, err := stoch.Calculate(candles)
			if err != nil {
				return true
			}

			for _, series := range [][]float64{values["percent_k"], values["percent_d"]} {
				for _, v := range series {
					if !Defined(v) {
						continue
					}
					if v < 0 || v > 100 {
						return false
					}
				}
			}
			return true
		},
		candleSliceGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_ADXWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("ADX, +DI, -DI values are within [0, 100] wherever defined", prop.ForAll(
		func(candles []models.Candle) bool {
			adx := NewADX(14)
			values, err := adx.Calculate(candles)
			if err != nil {
				return true
			}

			for _, series := range [][]float64{values["adx"], values["plus_di"], values["minus_di"]} {
				for _, v := range series {
					if !Defined(v) {
						continue
					}
					if v < 0 || v > 100 {
						return false
					}
				}
			}
			return true
		},
		candleSliceGen(35, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_BollingerBandsOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Bollinger Bands: Lower <= Middle <= Upper", prop.ForAll(
		func(candles []models.Candle) bool {
			bb := NewBollingerBands(20, 2.0)
			values, err := bb.Calculate(candles)
			if err != nil {
				return true
			}

			upper := values["upper"]
			middle := values["middle"]
			lower := values["lower"]

			for i := range upper {
				if !Defined(upper[i]) {
					continue
				}
				if lower[i] > middle[i] || middle[i] > upper[i] {
					return false
				}
			}
			return true
		},
		candleSliceGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_SMAIsAverageOfPrices(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("SMA is the arithmetic mean of closing prices over the period", prop.ForAll(
		func(candles []models.Candle) bool {
			period := 10
			sma := NewSMA(period)
			values, err := sma.Calculate(candles)
			if err != nil {
				return true
			}

			closes := closePrices(candles)

			for i := period - 1; i < len(values); i++ {
				expectedMean := mean(closes[i-period+1 : i+1])
				if math.Abs(values[i]-expectedMean) > 0.0001 {
					return false
				}
			}
			return true
		},
		candleSliceGen(15, 50),
	))

	properties.TestingRun(t)
}

func TestProperty_ATRIsNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("ATR values are non-negative wherever defined", prop.ForAll(
		func(candles []models.Candle) bool {
			atr := NewATR(14)
			values, err := atr.Calculate(candles)
			if err != nil {
				return true
			}

			for _, v := range values {
				if Defined(v) && v < 0 {
					return false
				}
			}
			return true
		},
		candleSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_RenkoDirectionIsUnit(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Renko direction is +1 or -1 and consecutive count is positive", prop.ForAll(
		func(candles []models.Candle) bool {
			renko := NewRenkoATR(14)
			values, err := renko.Calculate(candles)
			if err != nil {
				return true
			}

			direction := values["direction"]
			consecutive := values["consecutive"]

			for i := range direction {
				if !Defined(direction[i]) {
					// No brick yet means no run count either
					if Defined(consecutive[i]) {
						return false
					}
					continue
				}
				if direction[i] != 1 && direction[i] != -1 {
					return false
				}
				if consecutive[i] < 1 {
					return false
				}
			}
			return true
		},
		candleSliceGen(30, 100),
	))

	properties.TestingRun(t)
}

// equalSeries compares two float slices treating NaN as equal to NaN.
func equalSeries(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProperty_IndicatorsAreCausal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	singles := []Indicator{
		NewSMA(10),
		NewEMA(10),
		NewRSI(14),
		NewATR(14),
	}

	properties.Property("appending candles never changes earlier values", prop.ForAll(
		func(candles []models.Candle) bool {
			cut := len(candles) - 5
			prefix := candles[:cut]

			for _, ind := range singles {
				full, err := ind.Calculate(candles)
				if err != nil {
					return true
				}
				partial, err := ind.Calculate(prefix)
				if err != nil {
					return true
				}
				if !equalSeries(full[:cut], partial) {
					return false
				}
			}

			multis := []MultiValueIndicator{
				NewMACD(12, 26, 9),
				NewBollingerBands(20, 2.0),
				NewStochastic(14, 3, 3),
				NewSuperTrend(10, 3.0),
			}
			for _, ind := range multis {
				full, err := ind.Calculate(candles)
				if err != nil {
					return true
				}
				partial, err := ind.Calculate(prefix)
				if err != nil {
					return true
				}
				for name, series := range partial {
					if !equalSeries(full[name][:cut], series) {
						return false
					}
				}
			}
			return true
		},
		candleSliceGen(50, 120),
	))

	properties.TestingRun(t)
}
