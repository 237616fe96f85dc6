// Package broker defines the narrow market-data surface the engine consumes.
// Real data retrieval, caching and provider authentication live behind it.
package broker

import (
	"context"
	"time"

	"strategy-trader/internal/models"
)

// MarketData supplies candles and quotes for a symbol. An empty candle slice
// with a nil error means the range holds no data; it is not a failure.
type MarketData interface {
	GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) ([]models.Candle, error)
	GetLastPrice(ctx context.Context, symbol string) (float64, error)
}
