package broker

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"strategy-trader/internal/models"
)

// ReadCandlesCSV parses candles from r. Expected columns:
// timestamp,open,high,low,close,volume with the timestamp in RFC 3339 or
// unix seconds. A header row is skipped if present.
func ReadCandlesCSV(r io.Reader) ([]models.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6
	reader.TrimLeadingSpace = true

	var candles []models.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line++
		if line == 1 && isHeader(record) {
			continue
		}

		candle, err := parseCandle(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// LoadCandlesDir loads every <SYMBOL>.csv file in dir into a StaticData
// source, keyed by the uppercased file name.
func LoadCandlesDir(dir string) (*StaticData, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no csv files in %s", dir)
	}

	data := NewStaticData()
	for _, path := range matches {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		candles, err := ReadCandlesCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), ".csv"))
		data.SetCandles(symbol, candles)
	}
	return data, nil
}

func isHeader(record []string) bool {
	_, err := strconv.ParseFloat(record[1], 64)
	return err != nil
}

func parseCandle(record []string) (models.Candle, error) {
	ts, err := parseTimestamp(record[0])
	if err != nil {
		return models.Candle{}, err
	}

	values := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parsing %q: %w", record[i+1], err)
		}
		values[i] = v
	}
	volume, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parsing volume %q: %w", record[5], err)
	}

	return models.Candle{
		Timestamp: ts,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    volume,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
