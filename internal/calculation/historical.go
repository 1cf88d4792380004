package calculation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// GrowthObservation is one month of historical long-bucket growth
type GrowthObservation struct {
	Month time.Time       `json:"month"`
	Rate  decimal.Decimal `json:"rate"`
}

// GrowthStatistics summarises the monthly growth rates a batch resamples from
type GrowthStatistics struct {
	Mean   decimal.Decimal `json:"mean"`
	StdDev decimal.Decimal `json:"std_dev"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Count  int             `json:"count"`
}

// GrowthHistory is the historical monthly growth table the price paths are
// resampled from, oldest month first
type GrowthHistory struct {
	Source       string              `json:"source"`
	Observations []GrowthObservation `json:"observations"`
}

// LoadGrowthHistoryCSV reads a "month,rate" CSV with a header row. Months are
// YYYY-MM or YYYY-MM-DD; malformed rows are skipped.
func LoadGrowthHistoryCSV(path string) (*GrowthHistory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()
	return ReadGrowthHistory(file, path)
}

// ReadGrowthHistory parses growth history CSV from r
func ReadGrowthHistory(r io.Reader, source string) (*GrowthHistory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: invalid CSV format: expected at least 2 columns", domain.ErrDataIntegrity)
	}

	var observations []GrowthObservation
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		month, err := parseHistoryMonth(record[0])
		if err != nil {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}
		if rate.LessThanOrEqual(decimal.NewFromInt(-1)) {
			return nil, fmt.Errorf("%w: growth rate %s for %s would make prices non-positive",
				domain.ErrDataIntegrity, rate, month.Format("2006-01"))
		}
		observations = append(observations, GrowthObservation{Month: month, Rate: rate})
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: no valid data points found in %s", domain.ErrDataIntegrity, source)
	}
	slices.SortStableFunc(observations, func(a, b GrowthObservation) int { return a.Month.Compare(b.Month) })

	return &GrowthHistory{Source: source, Observations: observations}, nil
}

func parseHistoryMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return dateutil.MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid month %q", s)
}

// NewGrowthHistory wraps rates given inline in configuration. Months are
// numbered from the zero time since only the order matters.
func NewGrowthHistory(source string, rates []decimal.Decimal) (*GrowthHistory, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: empty growth history", domain.ErrDataIntegrity)
	}
	observations := make([]GrowthObservation, len(rates))
	for i, rate := range rates {
		if rate.LessThanOrEqual(decimal.NewFromInt(-1)) {
			return nil, fmt.Errorf("%w: growth rate %s at row %d would make prices non-positive", domain.ErrDataIntegrity, rate, i)
		}
		observations[i] = GrowthObservation{Month: dateutil.AddMonths(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), i), Rate: rate}
	}
	return &GrowthHistory{Source: source, Observations: observations}, nil
}

// Rates returns the growth rates in month order
func (g *GrowthHistory) Rates() []decimal.Decimal {
	rates := make([]decimal.Decimal, len(g.Observations))
	for i, o := range g.Observations {
		rates[i] = o.Rate
	}
	return rates
}

// SummarizeGrowth computes the mean, population standard deviation and range
// of monthly growth rates
func SummarizeGrowth(rates []decimal.Decimal) GrowthStatistics {
	stats := GrowthStatistics{Count: len(rates)}
	if len(rates) == 0 {
		return stats
	}

	sum := decimal.Zero
	stats.Min, stats.Max = rates[0], rates[0]
	for _, r := range rates {
		sum = sum.Add(r)
		stats.Min = decimal.Min(stats.Min, r)
		stats.Max = decimal.Max(stats.Max, r)
	}
	count := decimal.NewFromInt(int64(len(rates)))
	stats.Mean = sum.Div(count)

	varianceSum := decimal.Zero
	for _, r := range rates {
		diff := r.Sub(stats.Mean)
		varianceSum = varianceSum.Add(diff.Mul(diff))
	}
	stats.StdDev = decimal.NewFromFloat(math.Sqrt(varianceSum.Div(count).InexactFloat64()))
	return stats
}
