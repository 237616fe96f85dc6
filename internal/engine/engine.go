// Package engine drives strategies, aggregation and the portfolio ledger
// over a stream of candles.
package engine

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"strategy-trader/internal/logging"
	"strategy-trader/internal/models"
	"strategy-trader/internal/portfolio"
	"strategy-trader/internal/strategy"
)

// TickResult reports everything that happened while processing one candle.
type TickResult struct {
	Signals  []models.Signal // non-HOLD strategy signals
	Decision models.Decision
	Closed   []models.Trade // trades closed on this candle
	Opened   *models.Position
	Rejected error // order rejection, if the decision could not be filled
}

// Engine evaluates a fixed set of strategies against per-symbol candle
// history and routes the aggregated decisions into a ledger.
type Engine struct {
	mu         sync.Mutex
	ledger     *portfolio.Ledger
	strategies []strategy.Strategy
	logger     zerolog.Logger

	history    map[string][]models.Candle
	maxHistory int

	totalSignals   int
	totalDecisions int
	signals        []models.Signal
	breakdown      map[string]*models.SignalBreakdown
}

// New creates an Engine. The strategy set is fixed for the engine's lifetime.
func New(ledger *portfolio.Ledger, strategies []strategy.Strategy, logger zerolog.Logger) *Engine {
	maxWarmup := 0
	for _, s := range strategies {
		if s.Warmup() > maxWarmup {
			maxWarmup = s.Warmup()
		}
	}
	maxHistory := 2 * maxWarmup
	if maxHistory < 200 {
		maxHistory = 200
	}

	return &Engine{
		ledger:     ledger,
		strategies: strategies,
		logger:     logger,
		history:    make(map[string][]models.Candle),
		maxHistory: maxHistory,
		breakdown:  make(map[string]*models.SignalBreakdown),
	}
}

// Warmup returns the largest warm-up requirement across all strategies.
func (e *Engine) Warmup() int {
	warmup := 0
	for _, s := range e.strategies {
		if s.Warmup() > warmup {
			warmup = s.Warmup()
		}
	}
	return warmup
}

// SeedHistory preloads candle history for a symbol without evaluating it.
// Live sessions use this so strategies have warm-up data on the first tick.
func (e *Engine) SeedHistory(symbol string, candles []models.Candle) {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]models.Candle, len(candles))
	copy(history, candles)
	e.history[symbol] = e.trim(history)
}

// OnCandle processes one candle for a symbol. The order is fixed: exits are
// checked against the candle's range first, then the position is marked,
// then strategies evaluate and the aggregated decision is applied at the
// candle's close.
func (e *Engine) OnCandle(symbol string, candle models.Candle) TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history[symbol] = e.trim(append(e.history[symbol], candle))
	history := e.history[symbol]

	var result TickResult

	if trade := e.ledger.CheckExits(symbol, candle); trade != nil {
		result.Closed = append(result.Closed, *trade)
		logging.LogTradeClose(e.logger, symbol, string(trade.ExitReason),
			trade.Quantity, trade.ExitPrice, trade.NetPnL)
	}
	e.ledger.MarkPrice(symbol, candle.Close)

	allSignals := make([]models.Signal, 0, len(e.strategies))
	for _, s := range e.strategies {
		signal := s.Evaluate(history)
		signal.Symbol = symbol
		allSignals = append(allSignals, signal)

		if signal.Action == models.ActionHold {
			continue
		}
		e.totalSignals++
		e.signals = append(e.signals, signal)
		e.countSignal(signal)
		result.Signals = append(result.Signals, signal)
		logging.LogSignal(e.logger, signal.Strategy, symbol, string(signal.Action), signal.Confidence)
	}

	result.Decision = strategy.Aggregate(allSignals)
	result.Decision.Symbol = symbol
	if result.Decision.Action != models.ActionHold {
		e.totalDecisions++
		e.apply(&result, symbol, candle)
	}

	return result
}

// apply routes an actionable decision into the ledger. A decision against an
// open position closes it as a signal reversal; otherwise it opens a new one.
func (e *Engine) apply(result *TickResult, symbol string, candle models.Candle) {
	decision := result.Decision

	side := models.SideLong
	if decision.Action == models.ActionSell {
		side = models.SideShort
	}

	if position, ok := e.ledger.Position(symbol); ok {
		if position.Side == side {
			return
		}
		trade, err := e.ledger.Close(symbol, candle.Close, candle.Timestamp, models.ExitSignalReversal)
		if err != nil {
			result.Rejected = err
			e.logger.Warn().Err(err).Str("symbol", symbol).Msg("Reversal close failed")
			return
		}
		result.Closed = append(result.Closed, *trade)
		logging.LogTradeClose(e.logger, symbol, string(trade.ExitReason),
			trade.Quantity, trade.ExitPrice, trade.NetPnL)
		return
	}

	position, err := e.ledger.Open(symbol, side, candle.Close, candle.Timestamp, decision.Strategies)
	if err != nil {
		result.Rejected = err
		e.logger.Debug().Err(err).Str("symbol", symbol).Str("action", string(decision.Action)).
			Msg("Order rejected")
		return
	}
	result.Opened = position
	logging.LogTradeOpen(e.logger, symbol, string(side), position.Quantity, position.EntryPrice)
}

func (e *Engine) countSignal(signal models.Signal) {
	entry, ok := e.breakdown[signal.Strategy]
	if !ok {
		entry = &models.SignalBreakdown{Strategy: signal.Strategy}
		e.breakdown[signal.Strategy] = entry
	}
	switch signal.Action {
	case models.ActionBuy:
		entry.Buy++
	case models.ActionSell:
		entry.Sell++
	}
}

func (e *Engine) trim(history []models.Candle) []models.Candle {
	if len(history) <= e.maxHistory {
		return history
	}
	trimmed := make([]models.Candle, e.maxHistory)
	copy(trimmed, history[len(history)-e.maxHistory:])
	return trimmed
}

// Delta accumulates everything that happened across one batch of candles.
type Delta struct {
	Signals   []models.Signal
	Decisions []models.Decision
	Opened    []models.Position
	Closed    []models.Trade
	Rejected  []error
}

// Advance processes a batch of new candles, symbols in sorted order and each
// symbol's candles in the order given, and returns the combined delta.
func (e *Engine) Advance(candles map[string][]models.Candle) Delta {
	symbols := make([]string, 0, len(candles))
	for symbol := range candles {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var delta Delta
	for _, symbol := range symbols {
		for _, candle := range candles[symbol] {
			result := e.OnCandle(symbol, candle)
			delta.Signals = append(delta.Signals, result.Signals...)
			delta.Decisions = append(delta.Decisions, result.Decision)
			delta.Closed = append(delta.Closed, result.Closed...)
			if result.Opened != nil {
				delta.Opened = append(delta.Opened, *result.Opened)
			}
			if result.Rejected != nil {
				delta.Rejected = append(delta.Rejected, result.Rejected)
			}
		}
	}
	return delta
}

// CloseAll force-closes every open position at its last marked price.
func (e *Engine) CloseAll(at models.Candle, reason models.ExitReason) []models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	trades := e.ledger.CloseAll(at.Timestamp, reason)
	for _, trade := range trades {
		logging.LogTradeClose(e.logger, trade.Symbol, string(trade.ExitReason),
			trade.Quantity, trade.ExitPrice, trade.NetPnL)
	}
	return trades
}

// Ledger returns the engine's portfolio ledger.
func (e *Engine) Ledger() *portfolio.Ledger { return e.ledger }

// TotalSignals returns the count of non-HOLD strategy signals seen so far.
func (e *Engine) TotalSignals() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalSignals
}

// TotalDecisions returns the count of actionable aggregated decisions.
func (e *Engine) TotalDecisions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalDecisions
}

// Signals returns every non-HOLD signal recorded so far.
func (e *Engine) Signals() []models.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	signals := make([]models.Signal, len(e.signals))
	copy(signals, e.signals)
	return signals
}

// SignalBreakdown returns per-strategy signal counts, ordered by strategy
// name.
func (e *Engine) SignalBreakdown() []models.SignalBreakdown {
	e.mu.Lock()
	defer e.mu.Unlock()

	breakdown := make([]models.SignalBreakdown, 0, len(e.breakdown))
	for _, entry := range e.breakdown {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Strategy < breakdown[j].Strategy
	})
	return breakdown
}
