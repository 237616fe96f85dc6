package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strategy-trader/internal/broker"
	"strategy-trader/internal/indicators"
	"strategy-trader/internal/models"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var (
		symbol  string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the indicator snapshot for a symbol",
		Long: `Compute the standard indicator set over a symbol's candle history and
print the latest value of each series. Candles are loaded from
<data-dir>/<SYMBOL>.csv files.`,
		Example: `  strategy-trader analyze --data ./candles --symbol RELIANCE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			data, err := broker.LoadCandlesDir(dataDir)
			if err != nil {
				return fmt.Errorf("loading candle data: %w", err)
			}
			name := strings.ToUpper(symbol)
			candles, err := data.GetCandles(cmd.Context(), name, "", time.Time{}, time.Now().Add(24*time.Hour))
			if err != nil {
				return err
			}
			if len(candles) == 0 {
				return fmt.Errorf("no candles for %s in %s", name, dataDir)
			}

			values, err := indicatorSnapshot(cmd.Context(), defaultIndicatorEngine(), candles)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":     name,
					"candles":    len(candles),
					"last_close": candles[len(candles)-1].Close,
					"indicators": values,
				})
			}

			last := candles[len(candles)-1]
			output.Bold("%s  close %.2f  (%d candles, last %s)",
				name, last.Close, len(candles), FormatDateTime(last.Timestamp))
			output.Println()
			rows := make([][]string, 0, len(values))
			for _, v := range values {
				rows = append(rows, []string{v.Name, fmt.Sprintf("%.4f", v.Value)})
			}
			output.Table([]string{"Indicator", "Value"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol to analyze")
	cmd.Flags().StringVar(&dataDir, "data", "", "directory of <SYMBOL>.csv candle files")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("data")

	return cmd
}

// defaultIndicatorEngine builds a worker-pool engine with the standard
// indicator set registered.
func defaultIndicatorEngine() *indicators.Engine {
	e := indicators.NewEngine(4)
	e.RegisterIndicator(indicators.NewSMA(20))
	e.RegisterIndicator(indicators.NewSMA(50))
	e.RegisterIndicator(indicators.NewEMA(9))
	e.RegisterIndicator(indicators.NewEMA(21))
	e.RegisterIndicator(indicators.NewRSI(14))
	e.RegisterIndicator(indicators.NewATR(14))
	e.RegisterMultiIndicator(indicators.NewMACD(12, 26, 9))
	e.RegisterMultiIndicator(indicators.NewBollingerBands(20, 2.0))
	e.RegisterMultiIndicator(indicators.NewADX(14))
	e.RegisterMultiIndicator(indicators.NewSuperTrend(10, 3.0))
	e.RegisterMultiIndicator(indicators.NewStochastic(14, 3, 3))
	e.RegisterMultiIndicator(indicators.NewRenkoATR(14))
	return e
}

// IndicatorValue is the latest defined value of one indicator series.
type IndicatorValue struct {
	Name  string
	Value float64
}

// indicatorSnapshot runs every registered indicator over candles in parallel
// and returns the latest defined value per series, sorted by name. Series
// that never produce a defined value (insufficient history) are omitted.
func indicatorSnapshot(ctx context.Context, engine *indicators.Engine, candles []models.Candle) ([]IndicatorValue, error) {
	single, multi, err := engine.CalculateAll(ctx, candles)
	if err != nil {
		return nil, err
	}

	var out []IndicatorValue
	for name, values := range single {
		if v, ok := lastDefined(values); ok {
			out = append(out, IndicatorValue{Name: name, Value: v})
		}
	}
	for name, series := range multi {
		for sub, values := range series {
			if v, ok := lastDefined(values); ok {
				out = append(out, IndicatorValue{Name: name + " " + sub, Value: v})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func lastDefined(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if indicators.Defined(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}
