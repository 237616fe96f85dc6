package indicators

import (
	"fmt"

	"strategy-trader/internal/models"
)

// Renko converts candles into fixed-size price bricks and tracks the brick
// trend. Brick size is either fixed or derived from the latest ATR value.
type Renko struct {
	brickSize float64 // fixed size; 0 means derive from ATR
	atrPeriod int
}

// NewRenko creates a Renko indicator with a fixed brick size.
func NewRenko(brickSize float64) *Renko {
	return &Renko{brickSize: brickSize}
}

// NewRenkoATR creates a Renko indicator whose brick size is the ATR of the
// warm-up window.
func NewRenkoATR(atrPeriod int) *Renko {
	return &Renko{atrPeriod: atrPeriod}
}

func (r *Renko) Name() string {
	if r.brickSize > 0 {
		return fmt.Sprintf("Renko_%.2f", r.brickSize)
	}
	return fmt.Sprintf("Renko_ATR_%d", r.atrPeriod)
}

func (r *Renko) Period() int {
	if r.brickSize > 0 {
		return 2
	}
	return r.atrPeriod + 1
}

// Calculate returns three aligned series:
//
//	direction   +1 when the latest brick is up, -1 when down
//	consecutive count of same-direction bricks ending at this candle
//	brick_price price level of the latest completed brick
//
// Entries before the first completed brick are NaN.
func (r *Renko) Calculate(candles []models.Candle) (map[string][]float64, error) {
	if r.brickSize < 0 || (r.brickSize == 0 && r.atrPeriod <= 0) {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < r.Period() {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	size := r.brickSize
	start := 1
	if size == 0 {
		atrValues, err := NewATR(r.atrPeriod).Calculate(candles)
		if err != nil {
			return nil, err
		}
		size = atrValues[r.atrPeriod]
		start = r.atrPeriod + 1
	}
	if size <= 0 {
		// Flat warm-up window, no brick size can be derived
		return nil, ErrInsufficientData
	}

	direction := nans(n)
	consecutive := nans(n)
	brickPrice := nans(n)

	lastBrick := candles[start-1].Close
	dir := 0.0
	count := 0.0

	for i := start; i < n; i++ {
		close := candles[i].Close

	walk:
		for {
			switch {
			case dir >= 0 && close >= lastBrick+size:
				lastBrick += size
				if dir == 1 {
					count++
				} else {
					dir = 1
					count = 1
				}
			case dir <= 0 && close <= lastBrick-size:
				lastBrick -= size
				if dir == -1 {
					count++
				} else {
					dir = -1
					count = 1
				}
			case dir == 1 && close <= lastBrick-2*size:
				// Reversal needs two bricks against the trend
				lastBrick -= 2 * size
				dir = -1
				count = 1
			case dir == -1 && close >= lastBrick+2*size:
				lastBrick += 2 * size
				dir = 1
				count = 1
			default:
				break walk
			}
		}

		if dir != 0 {
			direction[i] = dir
			consecutive[i] = count
			brickPrice[i] = lastBrick
		}
	}

	return map[string][]float64{
		"direction":   direction,
		"consecutive": consecutive,
		"brick_price": brickPrice,
	}, nil
}
