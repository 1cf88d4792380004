package calculation

import (
	"testing"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func position(id string, bucket domain.BucketType, value, cost float64, entry time.Time) domain.InvestmentPosition {
	return domain.InvestmentPosition{
		ID: id, Open: true, EntryDate: entry, Quantity: d(value), Price: d(1), InitialCost: d(cost), Bucket: bucket,
	}
}

func account(t domain.AccountType, positions ...domain.InvestmentPosition) domain.InvestmentAccount {
	return domain.InvestmentAccount{ID: t.String(), Name: t.String(), Type: t, Positions: positions}
}

func cashAccount(balance float64) domain.InvestmentAccount {
	return account(domain.Cash, position("cash", domain.Short, balance, balance, month(2020, 1)))
}

func newLedger(t *testing.T, accounts ...domain.InvestmentAccount) ledger.AccountLedger {
	t.Helper()
	l, err := ledger.NewAccountLedger(accounts, nil, month(2025, 1))
	require.NoError(t, err)
	return l
}

func accountValue(t *testing.T, l ledger.AccountLedger, typ domain.AccountType) decimal.Decimal {
	t.Helper()
	acct, err := l.Account(typ)
	require.NoError(t, err)
	return acct.Value()
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

// constantPath builds a price path where every month grows by rate
func constantPath(t *testing.T, rate float64, start, end time.Time) PricePath {
	t.Helper()
	history := make([]decimal.Decimal, 12)
	for i := range history {
		history[i] = d(rate)
	}
	path, err := BuildPricePath(history, start, end, domain.PriceTrackConfig{}, 1)
	require.NoError(t, err)
	return path
}
