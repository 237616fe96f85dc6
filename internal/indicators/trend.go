package indicators

import (
	"fmt"

	"strategy-trader/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Calculate(candles []models.Candle) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.period {
		return nil, ErrInsufficientData
	}

	result := nans(len(candles))
	closes := closePrices(candles)

	for i := s.period - 1; i < len(candles); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// EMA calculates Exponential Moving Average.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Calculate(candles []models.Candle) ([]float64, error) {
	if e.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < e.period {
		return nil, ErrInsufficientData
	}

	return CalculateEMA(closePrices(candles), e.period), nil
}

// CalculateEMA calculates EMA on raw values (helper for other indicators).
// The first EMA is seeded with an SMA; entries before it are NaN.
func CalculateEMA(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	result := nans(len(values))
	multiplier := 2.0 / float64(period+1)

	result[period-1] = mean(values[:period])

	for i := period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}

	return result
}

// MACD calculates Moving Average Convergence Divergence.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator (conventionally 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) Period() int {
	return m.slowPeriod + m.signalPeriod - 1
}

func (m *MACD) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < m.Period() {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	closes := closePrices(candles)
	fastEMA := CalculateEMA(closes, m.fastPeriod)
	slowEMA := CalculateEMA(closes, m.slowPeriod)

	// MACD line = fast EMA - slow EMA
	macdLine := nans(n)
	for i := m.slowPeriod - 1; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line = EMA of MACD line
	signalLine := nans(n)
	startIdx := m.slowPeriod - 1
	signalEMA := CalculateEMA(macdLine[startIdx:], m.signalPeriod)
	for i := 0; i < len(signalEMA); i++ {
		signalLine[startIdx+i] = signalEMA[i]
	}

	// Histogram = MACD line - signal line
	histogram := nans(n)
	for i := m.Period() - 1; i < n; i++ {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return map[string][]float64{
		"macd":      macdLine,
		"signal":    signalLine,
		"histogram": histogram,
	}, nil
}

// ADX calculates Average Directional Index with +DI and -DI.
type ADX struct {
	period int
}

// NewADX creates a new ADX indicator.
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

func (a *ADX) Name() string {
	return fmt.Sprintf("ADX_%d", a.period)
}

func (a *ADX) Period() int {
	return a.period * 2
}

func (a *ADX) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if a.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < a.Period() {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)

	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	smoothPlusDM := wilderSmooth(plusDM, a.period)
	smoothMinusDM := wilderSmooth(minusDM, a.period)
	smoothTR := wilderSmooth(tr, a.period)

	plusDI := nans(n)
	minusDI := nans(n)
	dx := make([]float64, n)

	for i := a.period; i < n; i++ {
		if smoothTR[i] != 0 {
			plusDI[i] = 100 * smoothPlusDM[i] / smoothTR[i]
			minusDI[i] = 100 * smoothMinusDM[i] / smoothTR[i]
		} else {
			plusDI[i] = 0
			minusDI[i] = 0
		}
		diSum := plusDI[i] + minusDI[i]
		if diSum != 0 {
			dx[i] = 100 * abs(plusDI[i]-minusDI[i]) / diSum
		}
	}

	// ADX is smoothed DX
	adx := wilderSmooth(dx[a.period:], a.period)
	adxResult := nans(n)
	for i := a.period - 1; i < len(adx); i++ {
		adxResult[a.period+i] = adx[i]
	}

	return map[string][]float64{
		"adx":      adxResult,
		"plus_di":  plusDI,
		"minus_di": minusDI,
	}, nil
}

// SuperTrend calculates the SuperTrend indicator.
type SuperTrend struct {
	atrPeriod  int
	multiplier float64
}

// NewSuperTrend creates a new SuperTrend indicator.
func NewSuperTrend(atrPeriod int, multiplier float64) *SuperTrend {
	return &SuperTrend{
		atrPeriod:  atrPeriod,
		multiplier: multiplier,
	}
}

func (s *SuperTrend) Name() string {
	return fmt.Sprintf("SuperTrend_%d_%.1f", s.atrPeriod, s.multiplier)
}

func (s *SuperTrend) Period() int {
	return s.atrPeriod + 1
}

func (s *SuperTrend) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if s.atrPeriod <= 0 || s.multiplier <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.Period() {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	atr := &ATR{period: s.atrPeriod}
	atrValues, err := atr.Calculate(candles)
	if err != nil {
		return nil, err
	}

	superTrend := nans(n)
	direction := nans(n) // 1 = bullish, -1 = bearish

	upperBand := nans(n)
	lowerBand := nans(n)

	start := s.atrPeriod
	for i := start; i < n; i++ {
		hl2 := (candles[i].High + candles[i].Low) / 2
		upperBand[i] = hl2 + s.multiplier*atrValues[i]
		lowerBand[i] = hl2 - s.multiplier*atrValues[i]

		if i == start {
			superTrend[i] = upperBand[i]
			direction[i] = -1
			continue
		}

		// Carry bands forward so the trend line only ratchets
		if lowerBand[i] < lowerBand[i-1] && candles[i-1].Close > lowerBand[i-1] {
			lowerBand[i] = lowerBand[i-1]
		}
		if upperBand[i] > upperBand[i-1] && candles[i-1].Close < upperBand[i-1] {
			upperBand[i] = upperBand[i-1]
		}

		if superTrend[i-1] == upperBand[i-1] {
			if candles[i].Close > upperBand[i] {
				superTrend[i] = lowerBand[i]
				direction[i] = 1
			} else {
				superTrend[i] = upperBand[i]
				direction[i] = -1
			}
		} else {
			if candles[i].Close < lowerBand[i] {
				superTrend[i] = upperBand[i]
				direction[i] = -1
			} else {
				superTrend[i] = lowerBand[i]
				direction[i] = 1
			}
		}
	}

	return map[string][]float64{
		"supertrend": superTrend,
		"direction":  direction,
		"upper_band": upperBand,
		"lower_band": lowerBand,
	}, nil
}
