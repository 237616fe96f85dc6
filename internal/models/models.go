// Package models provides domain models for the strategy execution engine.
package models

import (
	"time"
)

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
)

// Side represents the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Action represents what a strategy (or the aggregator) wants to do.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Quote represents a market quote.
type Quote struct {
	Symbol        string
	LTP           float64
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// Signal is a single strategy's opinion for one candle. Signals are not
// trades: a signal only becomes a trade if the aggregator and the portfolio
// both accept it.
type Signal struct {
	Timestamp  time.Time
	Symbol     string
	Strategy   string
	Action     Action
	Confidence float64 // [0, 1]
	Price      float64 // close of the candle that produced the signal
	Indicators map[string]float64
}

// Decision is the aggregated outcome of all strategy signals for one symbol
// at one instant.
type Decision struct {
	Timestamp  time.Time
	Symbol     string
	Action     Action
	Confidence float64
	Strategies []string // every strategy that agreed with Action
	Reason     string   // set when the decision is a forced HOLD
	Price      float64
}
