package models

import "time"

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "STOP_LOSS"
	ExitTarget         ExitReason = "TARGET"
	ExitSignalReversal ExitReason = "SIGNAL_REVERSAL"
	ExitEndOfData      ExitReason = "END_OF_DATA"
	ExitStopped        ExitReason = "STOPPED"
)

// Position represents an open simulated position.
type Position struct {
	Symbol     string
	Side       Side
	Quantity   int
	EntryPrice float64
	EntryTime  time.Time
	StopLoss   float64
	Target     float64
	LastPrice  float64
	Strategies []string // strategies attributed to the entry decision
}

// UnrealizedPnL returns the mark-to-market P&L of the position at its last
// observed price, before charges.
func (p *Position) UnrealizedPnL() float64 {
	if p.Side == SideShort {
		return (p.EntryPrice - p.LastPrice) * float64(p.Quantity)
	}
	return (p.LastPrice - p.EntryPrice) * float64(p.Quantity)
}

// Value returns the current market value of the position.
func (p *Position) Value() float64 {
	return p.LastPrice * float64(p.Quantity)
}

// Trade represents a completed round trip. Trades are immutable once
// recorded.
type Trade struct {
	ID           string
	Symbol       string
	Side         Side
	Quantity     int
	EntryPrice   float64
	ExitPrice    float64
	EntryTime    time.Time
	ExitTime     time.Time
	GrossPnL     float64 // before charges
	Charges      float64 // entry leg + exit leg
	NetPnL       float64 // GrossPnL - Charges
	PnLPercent   float64
	ExitReason   ExitReason
	Strategies   []string
	HoldDuration time.Duration
}
