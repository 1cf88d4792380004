package calculation

import (
	"errors"
	"testing"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unitPrices = PricePoint{Long: d(1), Mid: d(1), Short: d(1)}

func rebalanceModel() domain.Model {
	return domain.Model{
		ID:                              "m",
		RetirementDate:                  month(2030, 1),
		RebalanceFrequency:              "quarterly",
		RebalanceMonthsBeforeRetirement: 12,
		MonthsOfCash:                    6,
		MonthsOfMid:                     3,
	}
}

func newPolicy(t *testing.T, model domain.Model) *RebalancePolicy {
	t.Helper()
	rp, err := NewRebalancePolicy(model, NewInvestmentWaterfall(nil, nil), nil)
	require.NoError(t, err)
	return rp
}

func TestParseRebalanceSchedule(t *testing.T) {
	tests := []struct {
		frequency string
		fires     []time.Month
	}{
		{"monthly", []time.Month{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"Quarterly", []time.Month{1, 4, 7, 10}},
		{"yearly", []time.Month{1}},
		{"0 0 1 */2 *", []time.Month{1, 3, 5, 7, 9, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.frequency, func(t *testing.T) {
			model := rebalanceModel()
			model.RebalanceFrequency = tt.frequency
			rp := newPolicy(t, model)

			var fired []time.Month
			for m := time.January; m <= time.December; m++ {
				if rp.Scheduled(month(2031, m)) {
					fired = append(fired, m)
				}
			}
			assert.Equal(t, tt.fires, fired)
		})
	}

	_, err := ParseRebalanceSchedule("fortnightly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestRebalanceWindow(t *testing.T) {
	rp := newPolicy(t, rebalanceModel())
	assert.False(t, rp.Active(month(2028, 12)))
	assert.True(t, rp.Active(month(2029, 1)))
	assert.True(t, rp.Active(month(2035, 6)))
}

func TestRebalanceTopsUpCashThenMid(t *testing.T) {
	rp := newPolicy(t, rebalanceModel())
	accounts := newLedger(t,
		cashAccount(1000),
		account(domain.TaxableBrokerage, position("long", domain.Long, 10000, 5000, held)),
	)
	tax := ledger.NewTaxLedger(decimal.NewFromInt(100000))

	next, nextTax, err := rp.Rebalance(accounts, tax, domain.RecessionState{}, unitPrices, month(2030, 1), decimal.NewFromInt(1000))
	require.NoError(t, err)
	assertDecimal(t, "6000.00", next.Cash())
	assertDecimal(t, "3000.00", next.BucketValue(domain.Mid))
	assertDecimal(t, "2000.00", next.BucketValue(domain.Long))
	assertDecimal(t, "4000.00", nextTax.CapitalGains(2030))
	assert.True(t, accounts.NetWorth().Equal(next.NetWorth()))
}

func TestRebalanceInRecessionSellsMidFirstAndSkipsMidTopUp(t *testing.T) {
	rp := newPolicy(t, rebalanceModel())
	accounts := newLedger(t,
		cashAccount(0),
		account(domain.TaxableBrokerage,
			position("long", domain.Long, 5000, 2500, held),
			position("mid", domain.Mid, 5000, 5000, held),
		),
	)

	next, _, err := rp.Rebalance(accounts, ledger.NewTaxLedger(decimal.Zero), domain.RecessionState{InRecession: true}, unitPrices, month(2030, 1), decimal.NewFromInt(1000))
	require.NoError(t, err)
	assertDecimal(t, "6000.00", next.Cash())
	assert.True(t, next.BucketValue(domain.Mid).IsZero())
	assertDecimal(t, "4000.00", next.BucketValue(domain.Long))
}

func TestRebalanceOnlyOnCadenceInsideWindow(t *testing.T) {
	rp := newPolicy(t, rebalanceModel())
	accounts := newLedger(t,
		cashAccount(0),
		account(domain.TaxableBrokerage, position("long", domain.Long, 10000, 5000, held)),
	)
	tax := ledger.NewTaxLedger(decimal.Zero)

	for _, m := range []time.Time{month(2030, 2), month(2028, 10)} {
		next, _, err := rp.Rebalance(accounts, tax, domain.RecessionState{}, unitPrices, m, decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, next.Cash().IsZero(), m.Format("2006-01"))
	}
}

func TestSweepExcessCash(t *testing.T) {
	rp := newPolicy(t, rebalanceModel())
	accounts := newLedger(t, cashAccount(10000))

	next, swept, err := rp.SweepExcessCash(accounts, unitPrices, month(2026, 3), decimal.NewFromInt(1000))
	require.NoError(t, err)
	assertDecimal(t, "4000.00", swept)
	assertDecimal(t, "6000.00", next.Cash())
	assertDecimal(t, "4000.00", accountValue(t, next, domain.TaxableBrokerage))

	_, swept, err = rp.SweepExcessCash(next, unitPrices, month(2026, 4), decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.True(t, swept.IsZero())
}
