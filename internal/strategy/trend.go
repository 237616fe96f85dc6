package strategy

import (
	"strategy-trader/internal/indicators"
	"strategy-trader/internal/models"
)

// MACDStrategy signals on MACD line / signal line crossovers.
type MACDStrategy struct {
	fast   int
	slow   int
	signal int
	macd   *indicators.MACD
}

func NewMACDStrategy(params map[string]float64) *MACDStrategy {
	fast := int(paramOr(params, "fast_period", 12))
	slow := int(paramOr(params, "slow_period", 26))
	signal := int(paramOr(params, "signal_period", 9))
	return &MACDStrategy{
		fast:   fast,
		slow:   slow,
		signal: signal,
		macd:   indicators.NewMACD(fast, slow, signal),
	}
}

func (s *MACDStrategy) Name() string { return "MACD" }

func (s *MACDStrategy) Warmup() int { return s.macd.Period() + 2 }

func (s *MACDStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	values, err := s.macd.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	macdLine := values["macd"]
	signalLine := values["signal"]
	n := len(macdLine)

	mCurr, mPrev := macdLine[n-1], macdLine[n-2]
	sCurr, sPrev := signalLine[n-1], signalLine[n-2]
	if !indicators.Defined(mCurr) || !indicators.Defined(mPrev) ||
		!indicators.Defined(sCurr) || !indicators.Defined(sPrev) {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{"macd": mCurr, "macd_signal": sCurr}

	if mCurr > sCurr && mPrev <= sPrev {
		return signalAt(s.Name(), models.ActionBuy, 0.7, last, snapshot)
	}
	if mCurr < sCurr && mPrev >= sPrev {
		return signalAt(s.Name(), models.ActionSell, 0.7, last, snapshot)
	}

	return hold(s.Name(), last)
}

// SuperTrendStrategy signals when the SuperTrend direction flips.
type SuperTrendStrategy struct {
	atrPeriod  int
	multiplier float64
	st         *indicators.SuperTrend
}

func NewSuperTrendStrategy(params map[string]float64) *SuperTrendStrategy {
	atrPeriod := int(paramOr(params, "atr_period", 10))
	multiplier := paramOr(params, "multiplier", 3.0)
	return &SuperTrendStrategy{
		atrPeriod:  atrPeriod,
		multiplier: multiplier,
		st:         indicators.NewSuperTrend(atrPeriod, multiplier),
	}
}

func (s *SuperTrendStrategy) Name() string { return "SUPERTREND" }

func (s *SuperTrendStrategy) Warmup() int { return s.st.Period() + 2 }

func (s *SuperTrendStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	values, err := s.st.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	direction := values["direction"]
	trend := values["supertrend"]
	n := len(direction)

	curr, prev := direction[n-1], direction[n-2]
	if !indicators.Defined(curr) || !indicators.Defined(prev) {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{
		"supertrend":           trend[n-1],
		"supertrend_direction": curr,
	}

	if curr == 1 && prev == -1 {
		return signalAt(s.Name(), models.ActionBuy, 0.8, last, snapshot)
	}
	if curr == -1 && prev == 1 {
		return signalAt(s.Name(), models.ActionSell, 0.8, last, snapshot)
	}

	return hold(s.Name(), last)
}

// ADXStrategy signals in the direction of a strong trend. ADX measures
// strength only, so direction comes from price against a trend SMA.
type ADXStrategy struct {
	period    int
	threshold float64
	smaPeriod int
	adx       *indicators.ADX
	sma       *indicators.SMA
}

func NewADXStrategy(params map[string]float64) *ADXStrategy {
	period := int(paramOr(params, "period", 14))
	smaPeriod := int(paramOr(params, "sma_period", 20))
	return &ADXStrategy{
		period:    period,
		threshold: paramOr(params, "threshold", 25),
		smaPeriod: smaPeriod,
		adx:       indicators.NewADX(period),
		sma:       indicators.NewSMA(smaPeriod),
	}
}

func (s *ADXStrategy) Name() string { return "ADX" }

func (s *ADXStrategy) Warmup() int {
	if w := s.adx.Period() + 1; w > s.smaPeriod {
		return w
	}
	return s.smaPeriod
}

func (s *ADXStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	adxValues, err := s.adx.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}
	smaValues, err := s.sma.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	adx := adxValues["adx"][len(candles)-1]
	sma := smaValues[len(candles)-1]
	if !indicators.Defined(adx) || !indicators.Defined(sma) {
		return hold(s.Name(), last)
	}

	if adx <= s.threshold {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{"adx": adx, "sma": sma}
	conf := (adx - s.threshold) / 50

	if last.Close > sma {
		return signalAt(s.Name(), models.ActionBuy, conf, last, snapshot)
	}
	if last.Close < sma {
		return signalAt(s.Name(), models.ActionSell, conf, last, snapshot)
	}

	return hold(s.Name(), last)
}

// EMACrossStrategy signals on fast/slow EMA crossovers.
type EMACrossStrategy struct {
	fastPeriod int
	slowPeriod int
	fast       *indicators.EMA
	slow       *indicators.EMA
}

func NewEMACrossStrategy(params map[string]float64) *EMACrossStrategy {
	fastPeriod := int(paramOr(params, "fast_period", 9))
	slowPeriod := int(paramOr(params, "slow_period", 21))
	return &EMACrossStrategy{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		fast:       indicators.NewEMA(fastPeriod),
		slow:       indicators.NewEMA(slowPeriod),
	}
}

func (s *EMACrossStrategy) Name() string { return "EMA_CROSS" }

func (s *EMACrossStrategy) Warmup() int { return s.slowPeriod + 2 }

func (s *EMACrossStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Warmup() {
		return holdEarly(s.Name(), candles)
	}
	last := candles[len(candles)-1]

	fastValues, err := s.fast.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}
	slowValues, err := s.slow.Calculate(candles)
	if err != nil {
		return hold(s.Name(), last)
	}

	n := len(candles)
	fCurr, fPrev := fastValues[n-1], fastValues[n-2]
	sCurr, sPrev := slowValues[n-1], slowValues[n-2]
	if !indicators.Defined(fCurr) || !indicators.Defined(fPrev) ||
		!indicators.Defined(sCurr) || !indicators.Defined(sPrev) {
		return hold(s.Name(), last)
	}

	snapshot := map[string]float64{"ema_fast": fCurr, "ema_slow": sCurr}

	if fPrev <= sPrev && fCurr > sCurr {
		return signalAt(s.Name(), models.ActionBuy, 0.65, last, snapshot)
	}
	if fPrev >= sPrev && fCurr < sCurr {
		return signalAt(s.Name(), models.ActionSell, 0.65, last, snapshot)
	}

	return hold(s.Name(), last)
}
