package calculation

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// PricePoint is the synthetic price state of one month. Growth rates are the
// ones that took the previous month's prices to this month's.
type PricePoint struct {
	Month       time.Time       `json:"month"`
	Long        decimal.Decimal `json:"long"`
	Mid         decimal.Decimal `json:"mid"`
	Short       decimal.Decimal `json:"short"`
	LongGrowth  decimal.Decimal `json:"long_growth"`
	MidGrowth   decimal.Decimal `json:"mid_growth"`
	ShortGrowth decimal.Decimal `json:"short_growth"`
}

// Prices returns the bucket prices for ledger operations
func (p PricePoint) Prices() ledger.Prices {
	return ledger.Prices{Long: p.Long, Mid: p.Mid, Short: p.Short}
}

// PricePath maps month starts to price points for one life. It is built once
// before a batch and only read afterwards, so lives may share it.
type PricePath map[time.Time]PricePoint

// At returns the price point for a month
func (p PricePath) At(month time.Time) (PricePoint, error) {
	point, ok := p[dateutil.MonthStart(month)]
	if !ok {
		return PricePoint{}, fmt.Errorf("%w: no price for %s", domain.ErrDataIntegrity, month.Format("2006-01"))
	}
	return point, nil
}

// PriceTrack is the per-life view of the path: current prices plus every long
// price seen so far, oldest first
type PriceTrack struct {
	Current     PricePoint
	LongHistory []decimal.Decimal
}

// Advance moves the track to a new month
func (t PriceTrack) Advance(point PricePoint) PriceTrack {
	t.Current = point
	t.LongHistory = append(slices.Clip(t.LongHistory), point.Long)
	return t
}

// DefaultPriceTrackConfig fills in the derivation defaults
func DefaultPriceTrackConfig(cfg domain.PriceTrackConfig) domain.PriceTrackConfig {
	if cfg.BlockMonths <= 0 {
		cfg.BlockMonths = 60
	}
	if cfg.MidBeta.IsZero() {
		cfg.MidBeta = decimal.NewFromFloat(0.5)
	}
	if cfg.MidDrift.IsZero() {
		cfg.MidDrift = decimal.NewFromFloat(0.001)
	}
	if cfg.ShortMonthlyRate.IsZero() {
		cfg.ShortMonthlyRate = decimal.NewFromFloat(0.0015)
	}
	return cfg
}

// BuildPricePath resamples the historical monthly growth table in circular
// blocks to produce prices from start through end. Prices are 1.0 the month
// before start.
func BuildPricePath(history []decimal.Decimal, start, end time.Time, cfg domain.PriceTrackConfig, seed int64) (PricePath, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty growth history", domain.ErrDataIntegrity)
	}
	start, end = dateutil.MonthStart(start), dateutil.MonthStart(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end month %s before start month %s", domain.ErrConfiguration, end.Format("2006-01"), start.Format("2006-01"))
	}
	cfg = DefaultPriceTrackConfig(cfg)

	rng := rand.New(rand.NewSource(seed))
	one := decimal.NewFromInt(1)
	long, mid, short := one, one, one
	path := make(PricePath, dateutil.MonthsBetween(start, end)+1)

	idx, remaining := 0, 0
	for month := start; !month.After(end); month = dateutil.AddMonths(month, 1) {
		if remaining == 0 {
			idx = rng.Intn(len(history))
			remaining = cfg.BlockMonths
		}
		longGrowth := history[idx%len(history)]
		idx++
		remaining--

		midGrowth := cfg.MidBeta.Mul(longGrowth).Add(cfg.MidDrift)
		shortGrowth := cfg.ShortMonthlyRate

		long = long.Mul(one.Add(longGrowth)).Round(ledger.PriceScale)
		mid = mid.Mul(one.Add(midGrowth)).Round(ledger.PriceScale)
		short = short.Mul(one.Add(shortGrowth)).Round(ledger.PriceScale)

		path[month] = PricePoint{
			Month:       month,
			Long:        long,
			Mid:         mid,
			Short:       short,
			LongGrowth:  longGrowth,
			MidGrowth:   midGrowth,
			ShortGrowth: shortGrowth,
		}
	}
	return path, nil
}

// BuildPricePaths builds one path per life; life i is seeded with seed+i so
// the same life index sees the same market under every model
func BuildPricePaths(history []decimal.Decimal, start, end time.Time, cfg domain.PriceTrackConfig, seed int64, lives int) ([]PricePath, error) {
	paths := make([]PricePath, lives)
	for i := range paths {
		path, err := BuildPricePath(history, start, end, cfg, seed+int64(i))
		if err != nil {
			return nil, fmt.Errorf("price path %d: %w", i, err)
		}
		paths[i] = path
	}
	return paths, nil
}
