package calculation

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Percentiles reported for every month
var Percentiles = []decimal.Decimal{
	decimal.NewFromFloat(0.10),
	decimal.NewFromFloat(0.25),
	decimal.NewFromFloat(0.50),
	decimal.NewFromFloat(0.75),
	decimal.NewFromFloat(0.90),
}

// PercentileRange holds one series at the reported percentiles
type PercentileRange struct {
	P10 decimal.Decimal `json:"p10"`
	P25 decimal.Decimal `json:"p25"`
	P50 decimal.Decimal `json:"p50"`
	P75 decimal.Decimal `json:"p75"`
	P90 decimal.Decimal `json:"p90"`
}

func (r PercentileRange) set(i int, v decimal.Decimal) PercentileRange {
	switch i {
	case 0:
		r.P10 = v
	case 1:
		r.P25 = v
	case 2:
		r.P50 = v
	case 3:
		r.P75 = v
	case 4:
		r.P90 = v
	}
	return r
}

// MonthStatistics aggregates one month across every life
type MonthStatistics struct {
	Month          time.Time       `json:"month"`
	NetWorth       PercentileRange `json:"net_worth"`
	Spend          PercentileRange `json:"spend"`
	Tax            PercentileRange `json:"tax"`
	BankruptcyRate decimal.Decimal `json:"bankruptcy_rate"`
}

// percentileIndex is round(p × n) clamped to the last row
func percentileIndex(p decimal.Decimal, n int) int {
	idx := int(p.Mul(decimal.NewFromInt(int64(n))).Round(0).IntPart())
	return max(0, min(idx, n-1))
}

// Aggregate builds per-month statistics. Rows are sorted by net worth and
// the spend and tax percentiles come from the same rows. A life counts as
// bankrupt from its first non-positive net worth snapshot onwards.
func Aggregate(results []LifeResult) []MonthStatistics {
	if len(results) == 0 {
		return nil
	}
	months := len(results[0].Snapshots)
	for _, r := range results {
		months = min(months, len(r.Snapshots))
	}

	n := len(results)
	total := decimal.NewFromInt(int64(n))
	failed := make([]bool, n)
	failedCount := 0
	rows := make([]int, n)
	stats := make([]MonthStatistics, 0, months)

	for m := range months {
		for i, r := range results {
			rows[i] = i
			if !failed[i] && !r.Snapshots[m].NetWorth.IsPositive() {
				failed[i] = true
				failedCount++
			}
		}
		slices.SortStableFunc(rows, func(a, b int) int {
			return results[a].Snapshots[m].NetWorth.Cmp(results[b].Snapshots[m].NetWorth)
		})

		s := MonthStatistics{
			Month:          results[0].Snapshots[m].Month,
			BankruptcyRate: decimal.NewFromInt(int64(failedCount)).Div(total),
		}
		for k, p := range Percentiles {
			row := results[rows[percentileIndex(p, n)]].Snapshots[m]
			s.NetWorth = s.NetWorth.set(k, row.NetWorth)
			s.Spend = s.Spend.set(k, row.Spend)
			s.Tax = s.Tax.set(k, row.Tax)
		}
		stats = append(stats, s)
	}
	return stats
}

// Median returns the P50 value, the sorted element at round(0.5 × n). For an
// odd count above one that is the element just past the middle.
func Median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	return sorted[percentileIndex(decimal.NewFromFloat(0.5), len(sorted))]
}

// FinalNetWorthP50 is the median net worth of the last month, zero for an empty run
func (r RunResult) FinalNetWorthP50() decimal.Decimal {
	if len(r.Months) == 0 {
		return decimal.Zero
	}
	return r.Months[len(r.Months)-1].NetWorth.P50
}

// RankRuns orders runs best first: lower final bankruptcy rate, then higher
// median fun points, then higher final median net worth
func RankRuns(runs []RunResult) []RunResult {
	ranked := slices.Clone(runs)
	slices.SortStableFunc(ranked, func(a, b RunResult) int {
		return cmp.Or(
			a.FinalBankruptcyRate.Cmp(b.FinalBankruptcyRate),
			b.MedianFunPoints.Cmp(a.MedianFunPoints),
			b.FinalNetWorthP50().Cmp(a.FinalNetWorthP50()),
		)
	})
	return ranked
}
