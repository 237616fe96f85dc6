package broker

import (
	"context"
	"sync"
	"time"

	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/models"
)

// StaticData is an in-memory MarketData source backed by preloaded candle
// series. Historical sessions replay against it directly; tests and live
// paper sessions can append candles as they arrive.
type StaticData struct {
	mu      sync.RWMutex
	candles map[string][]models.Candle

	// Last observed close per symbol, kept for quote lookups
	priceCache map[string]float64
}

var _ MarketData = (*StaticData)(nil)

func NewStaticData() *StaticData {
	return &StaticData{
		candles:    make(map[string][]models.Candle),
		priceCache: make(map[string]float64),
	}
}

// SetCandles replaces the series for symbol.
func (s *StaticData) SetCandles(symbol string, candles []models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles[symbol] = append([]models.Candle(nil), candles...)
	if len(candles) > 0 {
		s.priceCache[symbol] = candles[len(candles)-1].Close
	}
}

// Append adds one candle to the end of the series for symbol.
func (s *StaticData) Append(symbol string, candle models.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles[symbol] = append(s.candles[symbol], candle)
	s.priceCache[symbol] = candle.Close
}

// GetCandles returns the candles for symbol inside [from, to]. The
// resolution parameter is ignored; the stored series defines the granularity.
func (s *StaticData) GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) ([]models.Candle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Candle
	for _, c := range s.candles[symbol] {
		if c.Timestamp.Before(from) || c.Timestamp.After(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// GetLastPrice returns the last observed close for symbol.
func (s *StaticData) GetLastPrice(ctx context.Context, symbol string) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.priceCache[symbol]
	if !ok {
		return 0, apperrors.NewDataError(symbol, "no price observed", false, nil)
	}
	return price, nil
}
