package strategy

import (
	"strategy-trader/internal/indicators"
	"strategy-trader/internal/models"
)

// RSIStrategy signals when RSI crosses into the oversold or overbought zone.
type RSIStrategy struct {
	period     int
	oversold   float64
	overbought float64
	rsi        *indicators.RSI
}

func NewRSIStrategy(params map[string]float64) *RSIStrategy {
	period := int(paramOr(params, "period", 14))
	return &RSIStrategy{
		period:     period,
		oversold:   paramOr(params, "oversold", 30),
		overbought: paramOr(params, "overbought", 70),
		rsi:        indicators.NewRSI(period),
	}
}

func (s *RSIStrategy) Name() string { return "RSI" }

func (s *RSIStrategy) Warmup() int { return s.period + 2 }

func (s *RSIStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	values, err := s.rsi.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	curr := values[len(values)-1]
	prev := values[len(values)-2]
	if !indicators.Defined(curr) || !indicators.Defined(prev) {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{"rsi": curr}

	// Crossing down into the oversold zone
	if curr < s.oversold && prev >= s.oversold {
		conf := (s.oversold - curr) / s.oversold
		return signalAt(s.Name(), models.ActionBuy, conf, last, snapshot)
	}
	// Crossing up into the overbought zone
	if curr > s.overbought && prev <= s.overbought {
		conf := (curr - s.overbought) / (100 - s.overbought)
		return signalAt(s.Name(), models.ActionSell, conf, last, snapshot)
	}

	return hold(s.Name(), last)
}

// StochasticStrategy signals on %K/%D crossovers inside the extreme zones.
type StochasticStrategy struct {
	kPeriod    int
	dPeriod    int
	smooth     int
	oversold   float64
	overbought float64
	stoch      *indicators.Stochastic
}

func NewStochasticStrategy(params map[string]float64) *StochasticStrategy {
	kPeriod := int(paramOr(params, "k_period", 14))
	dPeriod := int(paramOr(params, "d_period", 3))
	smooth := int(paramOr(params, "smooth", 3))
	return &StochasticStrategy{
		kPeriod:    kPeriod,
		dPeriod:    dPeriod,
		smooth:     smooth,
		oversold:   paramOr(params, "oversold", 20),
		overbought: paramOr(params, "overbought", 80),
		stoch:      indicators.NewStochastic(kPeriod, dPeriod, smooth),
	}
}

func (s *StochasticStrategy) Name() string { return "STOCHASTIC" }

func (s *StochasticStrategy) Warmup() int { return s.stoch.Period() + 2 }

func (s *StochasticStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	values, err := s.stoch.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	percentK := values["percent_k"]
	percentD := values["percent_d"]
	n := len(percentK)

	kCurr, kPrev := percentK[n-1], percentK[n-2]
	dCurr, dPrev := percentD[n-1], percentD[n-2]
	if !indicators.Defined(kCurr) || !indicators.Defined(kPrev) ||
		!indicators.Defined(dCurr) || !indicators.Defined(dPrev) {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{"percent_k": kCurr, "percent_d": dCurr}

	if kPrev < dPrev && kCurr > dCurr && kCurr < s.oversold {
		conf := (s.oversold - kCurr) / s.oversold
		return signalAt(s.Name(), models.ActionBuy, conf, last, snapshot)
	}
	if kPrev > dPrev && kCurr < dCurr && kCurr > s.overbought {
		conf := (kCurr - s.overbought) / (100 - s.overbought)
		return signalAt(s.Name(), models.ActionSell, conf, last, snapshot)
	}

	return hold(s.Name(), last)
}
