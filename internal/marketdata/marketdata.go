// Package marketdata loads price history and estimates volatility from it.
package marketdata

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/optionlab/pricer/internal/pricing"
)

// TradingDaysPerYear converts daily returns to annual volatility.
const TradingDaysPerYear = 252

// DailyStep is the year fraction between consecutive daily closes.
const DailyStep = 1.0 / TradingDaysPerYear

const dateLayout = "2006-01-02"

// Close is one row of a price history file.
type Close struct {
	Date  string  `csv:"date"`
	Close float64 `csv:"close"`
}

// LoadCloses reads a CSV file with date and close columns.
func LoadCloses(path string) ([]Close, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price history: %w", err)
	}
	defer f.Close()

	return ReadCloses(f)
}

// ReadCloses parses CSV rows and returns them oldest first. Dates must use
// the YYYY-MM-DD layout and be unique.
func ReadCloses(r io.Reader) ([]Close, error) {
	var rows []Close
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price history: %w", err)
	}

	dates := make(map[string]time.Time, len(rows))
	for i, row := range rows {
		d, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q: %w", i+1, row.Date, err)
		}
		if _, dup := dates[row.Date]; dup {
			return nil, fmt.Errorf("row %d: duplicate date %s", i+1, row.Date)
		}
		dates[row.Date] = d
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return dates[rows[i].Date].Before(dates[rows[j].Date])
	})
	return rows, nil
}

// Prices extracts the close column.
func Prices(rows []Close) []float64 {
	prices := make([]float64, len(rows))
	for i, r := range rows {
		prices[i] = r.Close
	}
	return prices
}

// LogReturns returns ln(p[i]/p[i-1]) for consecutive prices.
func LogReturns(prices []float64) ([]float64, error) {
	for i, p := range prices {
		if math.IsNaN(p) || p <= 0 {
			return nil, fmt.Errorf("%w: price %d must be positive, got %g", pricing.ErrInvalidParameter, i, p)
		}
	}
	if len(prices) < 2 {
		return nil, nil
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns, nil
}

// HistoricalVolatility is the annualised sample standard deviation of log
// returns, where dt is the year fraction between observations. At least
// three prices are needed for a sample deviation of two returns.
func HistoricalVolatility(prices []float64, dt float64) (float64, error) {
	if math.IsNaN(dt) || dt <= 0 {
		return 0, fmt.Errorf("%w: time step must be positive, got %g", pricing.ErrInvalidParameter, dt)
	}
	if len(prices) < 3 {
		return 0, fmt.Errorf("%w: need at least 3 prices, got %d", pricing.ErrInvalidParameter, len(prices))
	}

	returns, err := LogReturns(prices)
	if err != nil {
		return 0, err
	}
	return stat.StdDev(returns, nil) / math.Sqrt(dt), nil
}
