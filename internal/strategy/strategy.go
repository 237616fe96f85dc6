// Package strategy turns indicator state into directional trade signals.
// Each strategy inspects the last candle of a series against its indicator
// and emits BUY, SELL or HOLD with a confidence in [0, 1].
package strategy

import (
	"sort"
	"sync"

	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/models"
)

// Strategy evaluates the latest candle of a series.
//
// Evaluate is pure and causal: it may only look at the candles it is given.
// It returns a HOLD signal when its condition is not met on the last candle
// or when there is not enough history. The caller stamps Signal.Symbol.
type Strategy interface {
	Name() string

	// Warmup is the minimum number of candles Evaluate needs before it can
	// emit anything other than HOLD.
	Warmup() int

	Evaluate(candles []models.Candle) models.Signal
}

// Constructor builds a strategy from its parameter map. Missing parameters
// fall back to the strategy's defaults.
type Constructor func(params map[string]float64) Strategy

// Registry maps strategy names to constructors so new strategies can be
// added without touching the aggregator or the simulator.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry with every built-in strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("RSI", func(p map[string]float64) Strategy { return NewRSIStrategy(p) })
	r.Register("MACD", func(p map[string]float64) Strategy { return NewMACDStrategy(p) })
	r.Register("SUPERTREND", func(p map[string]float64) Strategy { return NewSuperTrendStrategy(p) })
	r.Register("BOLLINGER", func(p map[string]float64) Strategy { return NewBollingerStrategy(p) })
	r.Register("ADX", func(p map[string]float64) Strategy { return NewADXStrategy(p) })
	r.Register("ATR", func(p map[string]float64) Strategy { return NewATRStrategy(p) })
	r.Register("RENKO", func(p map[string]float64) Strategy { return NewRenkoStrategy(p) })
	r.Register("STOCHASTIC", func(p map[string]float64) Strategy { return NewStochasticStrategy(p) })
	r.Register("EMA_CROSS", func(p map[string]float64) Strategy { return NewEMACrossStrategy(p) })
	return r
}

func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = c
}

// Create instantiates a registered strategy by name.
func (r *Registry) Create(name string, params map[string]float64) (Strategy, error) {
	r.mu.RLock()
	c, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrUnknownStrategy, "strategy %q", name)
	}
	return c(params), nil
}

// List returns registered strategy names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// paramOr reads a named parameter with a default.
func paramOr(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// hold builds the default no-action signal for the last candle.
func hold(name string, c models.Candle) models.Signal {
	return models.Signal{
		Timestamp: c.Timestamp,
		Strategy:  name,
		Action:    models.ActionHold,
		Price:     c.Close,
	}
}

// holdEarly is the HOLD for series shorter than the warm-up window.
func holdEarly(name string, candles []models.Candle) models.Signal {
	if len(candles) == 0 {
		return models.Signal{Strategy: name, Action: models.ActionHold}
	}
	return hold(name, candles[len(candles)-1])
}

// signalAt builds a directional signal for the last candle.
func signalAt(name string, action models.Action, confidence float64, c models.Candle, indicators map[string]float64) models.Signal {
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return models.Signal{
		Timestamp:  c.Timestamp,
		Strategy:   name,
		Action:     action,
		Confidence: confidence,
		Price:      c.Close,
		Indicators: indicators,
	}
}
