package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"strategy-trader/internal/models"
)

// Property: at every observation point the identity-derived equity
// reconciles exactly with cash plus the market value of open positions
// (long-only sequences), and realized P&L is the sum of trade gross P&L.

func TestProperty_AccountingIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"RELIANCE", "TCS", "INFY"}

	properties.Property("equity reconciles with cash plus market value", prop.ForAll(
		func(prices []float64) bool {
			ledger := NewLedger(1000000, RiskParams{
				PositionSizePercent: 10,
				MaxPositions:        3,
				ChargePerTrade:      20,
			})
			at := time.Date(2025, 1, 2, 9, 15, 0, 0, time.UTC)

			for i, price := range prices {
				symbol := symbols[i%len(symbols)]
				if _, open := ledger.Position(symbol); open {
					ledger.MarkPrice(symbol, price)
					if i%2 == 0 {
						ledger.Close(symbol, price, at, models.ExitSignalReversal)
					}
				} else {
					ledger.Open(symbol, models.SideLong, price, at, []string{"RSI"})
				}
				at = at.Add(time.Minute)

				marketValue := 0.0
				for _, pos := range ledger.Positions() {
					marketValue += pos.Value()
				}
				lhs := ledger.Equity()
				rhs := ledger.Cash() + marketValue
				if math.Abs(lhs-rhs) > 1e-6*math.Max(1, math.Abs(lhs)) {
					return false
				}
			}

			grossSum := 0.0
			for _, trade := range ledger.Trades() {
				grossSum += trade.GrossPnL
			}
			if math.Abs(grossSum-ledger.RealizedPnL()) > 1e-6 {
				return false
			}

			// One charge per leg: an entry for every trade and open
			// position, an exit for every trade
			legs := 2*len(ledger.Trades()) + ledger.OpenCount()
			return math.Abs(ledger.TotalCharges()-20*float64(legs)) < 1e-9
		},
		gen.SliceOf(gen.Float64Range(50, 500)),
	))

	properties.Property("trade net P&L is gross minus both legs of charges", prop.ForAll(
		func(entry, exit float64) bool {
			ledger := NewLedger(1000000, RiskParams{
				PositionSizePercent: 10,
				MaxPositions:        1,
				ChargePerTrade:      20,
			})
			at := time.Now()

			pos, err := ledger.Open("RELIANCE", models.SideLong, entry, at, nil)
			if err != nil {
				return true
			}
			trade, err := ledger.Close("RELIANCE", exit, at.Add(time.Minute), models.ExitSignalReversal)
			if err != nil {
				return false
			}

			wantGross := (exit - entry) * float64(pos.Quantity)
			return math.Abs(trade.GrossPnL-wantGross) < 1e-6 &&
				math.Abs(trade.NetPnL-(wantGross-40)) < 1e-6
		},
		gen.Float64Range(10, 1000),
		gen.Float64Range(10, 1000),
	))

	properties.TestingRun(t)
}
