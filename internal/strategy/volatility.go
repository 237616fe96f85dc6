package strategy

import (
	"math"

	"strategy-trader/internal/indicators"
	"strategy-trader/internal/models"
)

// BollingerStrategy signals mean reversion when price touches a band.
type BollingerStrategy struct {
	period    int
	stdDevMul float64
	bb        *indicators.BollingerBands
}

func NewBollingerStrategy(params map[string]float64) *BollingerStrategy {
	period := int(paramOr(params, "period", 20))
	stdDevMul := paramOr(params, "std_dev", 2.0)
	return &BollingerStrategy{
		period:    period,
		stdDevMul: stdDevMul,
		bb:        indicators.NewBollingerBands(period, stdDevMul),
	}
}

func (s *BollingerStrategy) Name() string { return "BOLLINGER" }

func (s *BollingerStrategy) Warmup() int { return s.period + 1 }

func (s *BollingerStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	values, err := s.bb.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	n := len(candles)
	upper := values["upper"][n-1]
	lower := values["lower"][n-1]
	if !indicators.Defined(upper) || !indicators.Defined(lower) {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{"upper_band": upper, "lower_band": lower}

	if last.Close <= lower {
		return signalAt(s.Name(), models.ActionBuy, 0.6, last, snapshot)
	}
	if last.Close >= upper {
		return signalAt(s.Name(), models.ActionSell, 0.6, last, snapshot)
	}

	return hold(s.Name(), last)
}

// ATRStrategy is a volatility-expansion breakout: an expanding ATR with a
// sharp move through the trend SMA signals in the direction of the move.
type ATRStrategy struct {
	period       int
	smaPeriod    int
	expansionMul float64
	minMove      float64
	atr          *indicators.ATR
	sma          *indicators.SMA
}

func NewATRStrategy(params map[string]float64) *ATRStrategy {
	period := int(paramOr(params, "period", 14))
	smaPeriod := int(paramOr(params, "sma_period", 20))
	return &ATRStrategy{
		period:       period,
		smaPeriod:    smaPeriod,
		expansionMul: paramOr(params, "expansion", 1.2),
		minMove:      paramOr(params, "min_move", 0.01),
		atr:          indicators.NewATR(period),
		sma:          indicators.NewSMA(smaPeriod),
	}
}

func (s *ATRStrategy) Name() string { return "ATR" }

func (s *ATRStrategy) Warmup() int {
	if w := s.period + 2; w > s.smaPeriod {
		return w
	}
	return s.smaPeriod
}

func (s *ATRStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	atrValues, err := s.atr.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}
	smaValues, err := s.sma.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	n := len(candles)
	atrCurr, atrPrev := atrValues[n-1], atrValues[n-2]
	sma := smaValues[n-1]
	if !indicators.Defined(atrCurr) || !indicators.Defined(atrPrev) || !indicators.Defined(sma) {
		return hold(s.Name(), last)
	}

	if atrCurr <= atrPrev*s.expansionMul {
		return hold(s.Name(), last)
	}

	prevClose := candles[n-2].Close
	if prevClose == 0 {
		return hold(s.Name(), last)
	}
	priceChange := (last.Close - prevClose) / prevClose
	conf := math.Abs(priceChange) * 10

	snapshot := map[string]float64{
		"atr":          atrCurr,
		"price_change": priceChange * 100,
	}

	if last.Close > sma && priceChange > s.minMove {
		return signalAt(s.Name(), models.ActionBuy, conf, last, snapshot)
	}
	if last.Close < sma && priceChange < -s.minMove {
		return signalAt(s.Name(), models.ActionSell, conf, last, snapshot)
	}

	return hold(s.Name(), last)
}

// RenkoStrategy follows runs of same-direction bricks.
type RenkoStrategy struct {
	atrPeriod int
	brickSize float64
	minBricks float64
	renko     *indicators.Renko
}

func NewRenkoStrategy(params map[string]float64) *RenkoStrategy {
	atrPeriod := int(paramOr(params, "atr_period", 14))
	brickSize := paramOr(params, "brick_size", 0)

	var renko *indicators.Renko
	if brickSize > 0 {
		renko = indicators.NewRenko(brickSize)
	} else {
		renko = indicators.NewRenkoATR(atrPeriod)
	}
	return &RenkoStrategy{
		atrPeriod: atrPeriod,
		brickSize: brickSize,
		minBricks: paramOr(params, "min_bricks", 2),
		renko:     renko,
	}
}

func (s *RenkoStrategy) Name() string { return "RENKO" }

func (s *RenkoStrategy) Warmup() int { return s.renko.Period() + 1 }

func (s *RenkoStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	values, err := s.renko.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	n := len(candles)
	direction := values["direction"][n-1]
	consecutive := values["consecutive"][n-1]
	if !indicators.Defined(direction) || consecutive < s.minBricks {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{
		"renko_direction":   direction,
		"renko_consecutive": consecutive,
	}
	conf := consecutive / 5

	if direction == 1 {
		return signalAt(s.Name(), models.ActionBuy, conf, last, snapshot)
	}
	return signalAt(s.Name(), models.ActionSell, conf, last, snapshot)
}
