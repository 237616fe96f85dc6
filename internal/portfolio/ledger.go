// Package portfolio simulates order fills, position sizing, exits and
// transaction charges against a running ledger.
package portfolio

import (
	"sync"
	"time"

	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/models"
	"strategy-trader/pkg/id"
)

// RiskParams control sizing, exits and charges for new positions.
type RiskParams struct {
	PositionSizePercent float64 // percent of available cash per entry
	StopLossPercent     float64 // 0 disables the stop
	TargetPercent       float64 // 0 disables the target
	MaxPositions        int
	ChargePerTrade      float64 // fixed charge per leg (entry and exit)
	SlippagePercent     float64 // adverse fill adjustment, 0 disables
}

// Ledger owns all positions and trades of one session. All methods are safe
// for concurrent use.
//
// The accounting identity holds at every observation point:
//
//	Equity() = initial capital + realized gross P&L + unrealized P&L - total charges
//
// Cash and invested capital are reference telemetry and never feed back into
// the identity.
type Ledger struct {
	mu             sync.RWMutex
	params         RiskParams
	initialCapital float64
	cash           float64
	positions      map[string]*models.Position
	trades         []models.Trade
	realizedGross  float64
	totalCharges   float64
}

func NewLedger(initialCapital float64, params RiskParams) *Ledger {
	return &Ledger{
		params:         params,
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*models.Position),
	}
}

// Open sizes and opens a position for symbol at the given fill price.
// Entries are rejected, never queued: when the position cap is reached, the
// symbol already has a position, or the sized quantity is unaffordable, Open
// returns an OrderError and the ledger is unchanged.
func (l *Ledger) Open(symbol string, side models.Side, price float64, at time.Time, strategies []string) (*models.Position, error) {
	action := models.ActionBuy
	if side == models.SideShort {
		action = models.ActionSell
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[symbol]; exists {
		return nil, apperrors.NewOrderError(symbol, string(action), "position already open", apperrors.ErrPositionExists)
	}
	if len(l.positions) >= l.params.MaxPositions {
		return nil, apperrors.NewOrderError(symbol, string(action), "max positions reached", apperrors.ErrMaxPositions)
	}

	fill := l.slip(price, side == models.SideLong)
	value := l.cash * l.params.PositionSizePercent / 100
	quantity := int(value / fill)
	if quantity < 1 {
		return nil, apperrors.NewOrderError(symbol, string(action), "sized quantity below one share", apperrors.ErrInsufficientFunds)
	}
	cost := fill*float64(quantity) + l.params.ChargePerTrade
	if side == models.SideLong && cost > l.cash {
		return nil, apperrors.NewOrderError(symbol, string(action), "insufficient cash", apperrors.ErrInsufficientFunds)
	}

	pos := &models.Position{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		EntryPrice: fill,
		EntryTime:  at,
		LastPrice:  fill,
		Strategies: append([]string(nil), strategies...),
	}
	if l.params.StopLossPercent > 0 {
		if side == models.SideLong {
			pos.StopLoss = fill * (1 - l.params.StopLossPercent/100)
		} else {
			pos.StopLoss = fill * (1 + l.params.StopLossPercent/100)
		}
	}
	if l.params.TargetPercent > 0 {
		if side == models.SideLong {
			pos.Target = fill * (1 + l.params.TargetPercent/100)
		} else {
			pos.Target = fill * (1 - l.params.TargetPercent/100)
		}
	}

	if side == models.SideLong {
		l.cash -= fill*float64(quantity) + l.params.ChargePerTrade
	} else {
		l.cash += fill*float64(quantity) - l.params.ChargePerTrade
	}
	l.totalCharges += l.params.ChargePerTrade
	l.positions[symbol] = pos

	return pos, nil
}

// Close exits the open position on symbol at the given price and records an
// immutable Trade.
func (l *Ledger) Close(symbol string, price float64, at time.Time, reason models.ExitReason) (*models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked(symbol, price, at, reason)
}

func (l *Ledger) closeLocked(symbol string, price float64, at time.Time, reason models.ExitReason) (*models.Trade, error) {
	pos, ok := l.positions[symbol]
	if !ok {
		return nil, apperrors.NewOrderError(symbol, string(models.ActionSell), "no open position", apperrors.ErrPositionNotFound)
	}

	fill := l.slip(price, pos.Side == models.SideShort)

	gross := (fill - pos.EntryPrice) * float64(pos.Quantity)
	if pos.Side == models.SideShort {
		gross = (pos.EntryPrice - fill) * float64(pos.Quantity)
	}
	charges := 2 * l.params.ChargePerTrade // entry leg + exit leg

	invested := pos.EntryPrice * float64(pos.Quantity)
	trade := models.Trade{
		ID:           id.New(),
		Symbol:       symbol,
		Side:         pos.Side,
		Quantity:     pos.Quantity,
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    fill,
		EntryTime:    pos.EntryTime,
		ExitTime:     at,
		GrossPnL:     gross,
		Charges:      charges,
		NetPnL:       gross - charges,
		ExitReason:   reason,
		Strategies:   pos.Strategies,
		HoldDuration: at.Sub(pos.EntryTime),
	}
	if invested > 0 {
		trade.PnLPercent = gross / invested * 100
	}

	if pos.Side == models.SideLong {
		l.cash += fill*float64(pos.Quantity) - l.params.ChargePerTrade
	} else {
		l.cash -= fill*float64(pos.Quantity) + l.params.ChargePerTrade
	}
	l.realizedGross += gross
	l.totalCharges += l.params.ChargePerTrade
	l.trades = append(l.trades, trade)
	delete(l.positions, symbol)

	return &trade, nil
}

// MarkPrice updates the mark price of the open position on symbol, if any.
func (l *Ledger) MarkPrice(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pos, ok := l.positions[symbol]; ok {
		pos.LastPrice = price
	}
}

// CheckExits tests the open position on symbol against the candle's intrabar
// range. The stop-loss is checked before the target, so a bar that touches
// both exits at the stop. Returns nil when nothing triggered.
func (l *Ledger) CheckExits(symbol string, candle models.Candle) *models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return nil
	}

	var (
		exitPrice  float64
		exitReason models.ExitReason
	)

	if pos.Side == models.SideLong {
		switch {
		case pos.StopLoss > 0 && candle.Low <= pos.StopLoss:
			exitPrice, exitReason = pos.StopLoss, models.ExitStopLoss
		case pos.Target > 0 && candle.High >= pos.Target:
			exitPrice, exitReason = pos.Target, models.ExitTarget
		default:
			return nil
		}
	} else {
		switch {
		case pos.StopLoss > 0 && candle.High >= pos.StopLoss:
			exitPrice, exitReason = pos.StopLoss, models.ExitStopLoss
		case pos.Target > 0 && candle.Low <= pos.Target:
			exitPrice, exitReason = pos.Target, models.ExitTarget
		default:
			return nil
		}
	}

	trade, err := l.closeLocked(symbol, exitPrice, candle.Timestamp, exitReason)
	if err != nil {
		return nil
	}
	return trade
}

// CloseAll force-closes every open position at its last mark price.
func (l *Ledger) CloseAll(at time.Time, reason models.ExitReason) []models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	var closed []models.Trade
	for symbol, pos := range l.positions {
		trade, err := l.closeLocked(symbol, pos.LastPrice, at, reason)
		if err == nil {
			closed = append(closed, *trade)
		}
	}
	return closed
}

// slip applies the adverse fill adjustment. Entries of longs and exits of
// shorts pay up; the opposite legs receive less.
func (l *Ledger) slip(price float64, payUp bool) float64 {
	if l.params.SlippagePercent == 0 {
		return price
	}
	if payUp {
		return price * (1 + l.params.SlippagePercent/100)
	}
	return price * (1 - l.params.SlippagePercent/100)
}

// Equity is the portfolio value derived from the accounting identity alone.
func (l *Ledger) Equity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.initialCapital + l.realizedGross + l.unrealizedLocked() - l.totalCharges
}

func (l *Ledger) unrealizedLocked() float64 {
	total := 0.0
	for _, pos := range l.positions {
		total += pos.UnrealizedPnL()
	}
	return total
}

func (l *Ledger) InitialCapital() float64 { return l.initialCapital }

// Cash is reference telemetry, not part of the value identity.
func (l *Ledger) Cash() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// InvestedCapital is the entry value of all open positions. Reference
// telemetry, not part of the value identity.
func (l *Ledger) InvestedCapital() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0.0
	for _, pos := range l.positions {
		total += pos.EntryPrice * float64(pos.Quantity)
	}
	return total
}

func (l *Ledger) RealizedPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.realizedGross
}

func (l *Ledger) UnrealizedPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.unrealizedLocked()
}

func (l *Ledger) TotalCharges() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalCharges
}

// Position returns a copy of the open position on symbol.
func (l *Ledger) Position(symbol string) (models.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return models.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []models.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	return out
}

func (l *Ledger) OpenCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// Trades returns the closed trade history in close order.
func (l *Ledger) Trades() []models.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Trade(nil), l.trades...)
}
