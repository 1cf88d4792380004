package calculation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workingLife(t *testing.T, start, end time.Time) LifeInput {
	t.Helper()
	person := worker()
	person.BonusMonth = 0
	return LifeInput{
		Person:      person,
		Investments: []domain.InvestmentAccount{cashAccount(10000)},
		Path:        constantPath(t, 0.01, start, end),
		Start:       start,
		End:         end,
	}
}

func newSimulator(t *testing.T, model domain.Model) *LifeSimulator {
	t.Helper()
	sim, err := NewLifeSimulator(model, domain.TaxConfig{}, nil)
	require.NoError(t, err)
	return sim
}

func TestLifeAccumulates(t *testing.T) {
	sim := newSimulator(t, paydayModel())
	in := workingLife(t, month(2025, 1), month(2026, 12))

	result, err := sim.Run(context.Background(), in, nil)
	require.NoError(t, err)
	assert.False(t, result.Bankrupt)
	assert.Equal(t, Done, result.State)
	require.Len(t, result.Snapshots, 24)

	for i, snap := range result.Snapshots {
		assert.True(t, snap.NetWorth.IsPositive(), "month %d", i)
		assertDecimal(t, "4000.00", snap.Spend, "month %d", i)
	}
	// withholding on 104400 plus FICA on 120000
	assertDecimal(t, "1470.33", result.Snapshots[0].Tax)
	assert.True(t, result.Snapshots[23].NetWorth.GreaterThan(result.Snapshots[0].NetWorth))

	assertDecimal(t, "24000.00", result.Totals.FunPoints)
	assertDecimal(t, "96000.00", result.Totals.Spend)
	assert.True(t, result.Totals.InvestmentGrowth.IsPositive())
	// 2025 settled in January 2026
	assertDecimal(t, "8464.00", result.LifetimeTaxPaid)
	assert.True(t, result.FinalNetWorth.Equal(result.Snapshots[23].NetWorth))
}

func TestLifeRetires(t *testing.T) {
	model := paydayModel()
	model.RetirementDate = time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	sim := newSimulator(t, model)
	in := workingLife(t, month(2025, 1), month(2025, 12))

	result, err := sim.Run(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, month(2025, 7), result.RetiredMonth)
	// pre-Medicare coverage starts with retirement
	assertDecimal(t, "4000.00", result.Snapshots[5].Spend)
	assertDecimal(t, "4500.00", result.Snapshots[6].Spend)
	assert.True(t, result.Snapshots[6].Tax.IsZero())
}

func TestLifeBankruptcy(t *testing.T) {
	model := paydayModel()
	model.RetirementDate = month(2020, 1)
	model.MonthlyRequiredSpendPostRetirement = d(2000)
	model.MonthlyDiscretionarySpendPostRetirement = d(0)
	model.MonthlyHealthcarePreMedicare = d(0)
	sim := newSimulator(t, model)

	start, end := month(2025, 1), month(2025, 12)
	in := LifeInput{
		Person:      domain.Person{ID: "p", BirthDate: time.Date(1970, 3, 10, 0, 0, 0, 0, time.UTC)},
		Investments: []domain.InvestmentAccount{cashAccount(1000)},
		Path:        constantPath(t, 0.01, start, end),
		Start:       start,
		End:         end,
	}

	result, err := sim.Run(context.Background(), in, nil)
	require.NoError(t, err)
	assert.True(t, result.Bankrupt)
	assert.Equal(t, start, result.BankruptMonth)
	assert.Equal(t, BankruptReporting, result.State)
	require.Len(t, result.Snapshots, 12)
	for i, snap := range result.Snapshots {
		assert.Equal(t, dateAt(start, i), snap.Month)
		assert.True(t, snap.NetWorth.IsZero())
		assert.True(t, snap.Spend.IsZero())
		assert.True(t, snap.Tax.IsZero())
	}
	assert.True(t, result.FinalNetWorth.IsZero())
}

func TestLifeMissingPriceIsDataIntegrityError(t *testing.T) {
	sim := newSimulator(t, paydayModel())
	in := workingLife(t, month(2025, 1), month(2025, 12))
	in.Path = constantPath(t, 0.01, month(2025, 1), month(2025, 6))

	_, err := sim.Run(context.Background(), in, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataIntegrity))
}

func TestLifeStopsOnCancelledContext(t *testing.T) {
	sim := newSimulator(t, paydayModel())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, workingLife(t, month(2025, 1), month(2025, 12)), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewLifeSimulatorRejectsBadSchedule(t *testing.T) {
	model := paydayModel()
	model.RebalanceFrequency = "every other tuesday"
	_, err := NewLifeSimulator(model, domain.TaxConfig{}, nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

type recordingDiagnostics struct {
	reconciled int
	snapshots  int
}

func (r *recordingDiagnostics) Reconcile(time.Time, decimal.Decimal, string)   { r.reconciled++ }
func (r *recordingDiagnostics) LedgerSnapshot(time.Time, ledger.AccountLedger) { r.snapshots++ }

func TestLifeDiagnosticsDoNotChangeOutcome(t *testing.T) {
	sim := newSimulator(t, paydayModel())
	in := workingLife(t, month(2025, 1), month(2025, 6))

	plain, err := sim.Run(context.Background(), in, nil)
	require.NoError(t, err)
	diag := &recordingDiagnostics{}
	audited, err := sim.Run(context.Background(), in, diag)
	require.NoError(t, err)

	assert.Equal(t, 6, diag.snapshots)
	assert.Positive(t, diag.reconciled)
	for i := range plain.Snapshots {
		assert.True(t, plain.Snapshots[i].NetWorth.Equal(audited.Snapshots[i].NetWorth))
	}
}

func dateAt(start time.Time, i int) time.Time { return start.AddDate(0, i, 0) }

func debtAccount(balance, payment float64) domain.DebtAccount {
	return domain.DebtAccount{ID: "mortgage", Name: "Mortgage", Positions: []domain.DebtPosition{{
		ID: "m1", Open: true, EntryDate: month(2020, 1), Balance: d(balance), APR: d(0), MonthlyPayment: d(payment),
	}}}
}

func retiredModel() domain.Model {
	model := paydayModel()
	model.RetirementDate = month(2020, 1)
	model.MonthlyRequiredSpendPostRetirement = d(0)
	model.MonthlyDiscretionarySpendPostRetirement = d(0)
	model.MonthlyHealthcarePreMedicare = d(0)
	model.MonthlyHealthcareMedicare = d(0)
	return model
}

func TestLifeDebtService(t *testing.T) {
	start, end := month(2025, 1), month(2025, 6)
	retiree := domain.Person{ID: "p", BirthDate: time.Date(1970, 3, 10, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name          string
		model         domain.Model
		person        domain.Person
		cash          float64
		debt          domain.DebtAccount
		bankruptMonth time.Time
		debtPaid      string
		positive      bool
	}{
		{
			name:     "paid off and closed",
			model:    paydayModel(),
			person:   worker(),
			cash:     10000,
			debt:     debtAccount(3000, 1000),
			debtPaid: "3000.00",
			positive: true,
		},
		{
			name:     "underwater but paying",
			model:    paydayModel(),
			person:   worker(),
			cash:     10000,
			debt:     debtAccount(500000, 2000),
			debtPaid: "12000.00",
		},
		{
			name:          "payment cannot be funded",
			model:         retiredModel(),
			person:        retiree,
			cash:          2500,
			debt:          debtAccount(10000, 1000),
			bankruptMonth: month(2025, 3),
			debtPaid:      "2000.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSimulator(t, tt.model)
			person := tt.person
			person.BonusMonth = 0
			in := LifeInput{
				Person:      person,
				Investments: []domain.InvestmentAccount{cashAccount(tt.cash)},
				Debts:       []domain.DebtAccount{tt.debt},
				Path:        constantPath(t, 0.01, start, end),
				Start:       start,
				End:         end,
			}

			result, err := sim.Run(context.Background(), in, nil)
			require.NoError(t, err)
			require.Len(t, result.Snapshots, 6)
			assertDecimal(t, tt.debtPaid, result.Totals.DebtPaid)

			if !tt.bankruptMonth.IsZero() {
				assert.True(t, result.Bankrupt)
				assert.Equal(t, tt.bankruptMonth, result.BankruptMonth)
				assert.Equal(t, BankruptReporting, result.State)
				return
			}
			assert.False(t, result.Bankrupt)
			assert.Equal(t, Done, result.State)
			for i, snap := range result.Snapshots {
				assert.Equal(t, dateAt(start, i), snap.Month)
				if tt.positive {
					assert.True(t, snap.NetWorth.IsPositive(), "month %d", i)
					continue
				}
				// debt above assets zeroes the snapshot without ending the life
				assert.True(t, snap.NetWorth.IsZero(), "month %d", i)
				assert.True(t, snap.Spend.IsZero(), "month %d", i)
				assert.True(t, snap.Tax.IsZero(), "month %d", i)
			}
		})
	}
}

type ledgerRecorder struct {
	ledgers map[time.Time]ledger.AccountLedger
}

func (r *ledgerRecorder) Reconcile(time.Time, decimal.Decimal, string) {}
func (r *ledgerRecorder) LedgerSnapshot(month time.Time, l ledger.AccountLedger) {
	r.ledgers[month] = l
}

func TestLifeDecemberRMD(t *testing.T) {
	start, end := month(2025, 1), month(2026, 1)
	// born 1948, so 77 in 2025 with RMDs from 72
	elder := domain.Person{ID: "p", BirthDate: time.Date(1948, 5, 1, 0, 0, 0, 0, time.UTC)}
	in := LifeInput{
		Person: elder,
		Investments: []domain.InvestmentAccount{
			cashAccount(20000),
			account(domain.Traditional401k, position("t1", domain.Long, 1000000, 600000, month(2010, 1))),
		},
		Path:  constantPath(t, 0.01, start, end),
		Start: start,
		End:   end,
	}
	rec := &ledgerRecorder{ledgers: make(map[time.Time]ledger.AccountLedger)}

	result, err := newSimulator(t, retiredModel()).Run(context.Background(), in, rec)
	require.NoError(t, err)
	assert.False(t, result.Bankrupt)
	assert.Equal(t, Done, result.State)
	require.Len(t, result.Snapshots, 13)

	traditional := func(m time.Time) float64 {
		l, ok := rec.ledgers[m]
		require.True(t, ok, "no ledger for %s", m.Format("2006-01"))
		return accountValue(t, l, domain.Traditional401k).InexactFloat64()
	}
	// growth alone lifts the balance until December, when 1/22.9 is distributed
	assert.Greater(t, traditional(month(2025, 11)), traditional(month(2025, 10))*0.99)
	assert.Less(t, traditional(month(2025, 12)), traditional(month(2025, 11))*0.98)

	// the distribution is taxed at the January settlement
	assert.True(t, result.Snapshots[12].Tax.IsPositive())
	assert.True(t, result.LifetimeTaxPaid.IsPositive())
}
