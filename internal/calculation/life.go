package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// LifeState is the phase of a simulated life
type LifeState int

const (
	Accumulating LifeState = iota
	Retired
	BankruptReporting
	Done
)

func (s LifeState) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Retired:
		return "retired"
	case BankruptReporting:
		return "bankrupt"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("LifeState(%d)", int(s))
	}
}

// Household is everything that changes from one month of a life to the next.
// Steps take a Household and return a new one.
type Household struct {
	Person    domain.Person
	Accounts  ledger.AccountLedger
	Tax       ledger.TaxLedger
	Totals    domain.LifetimeAccumulators
	Recession domain.RecessionState
	Track     PriceTrack
}

// LifeInput is the starting data of one life
type LifeInput struct {
	Index       int
	Person      domain.Person
	Investments []domain.InvestmentAccount
	Debts       []domain.DebtAccount
	Path        PricePath
	Start       time.Time
	End         time.Time
}

// LifeResult is the outcome of one life
type LifeResult struct {
	LifeIndex       int                         `json:"life_index"`
	Snapshots       []domain.Snapshot           `json:"snapshots"`
	Bankrupt        bool                        `json:"bankrupt"`
	BankruptMonth   time.Time                   `json:"bankrupt_month,omitempty"`
	RetiredMonth    time.Time                   `json:"retired_month,omitempty"`
	Totals          domain.LifetimeAccumulators `json:"totals"`
	FinalNetWorth   decimal.Decimal             `json:"final_net_worth"`
	LifetimeTaxPaid decimal.Decimal             `json:"lifetime_tax_paid"`
	State           LifeState                   `json:"-"`
}

// LifeSimulator runs single lives of one model. It holds no per-life state
// and is safe for concurrent use.
type LifeSimulator struct {
	model    domain.Model
	taxes    *TaxEngine
	medicare *MedicareCalculator
	mfj      bool
	rmdTable RMDTable
	logger   Logger
}

// NewLifeSimulator validates the model's policy settings and builds the tax
// calculators from configuration
func NewLifeSimulator(model domain.Model, taxConfig domain.TaxConfig, logger Logger) (*LifeSimulator, error) {
	if logger == nil {
		logger = NopLogger{}
	}
	if _, err := ParseRebalanceSchedule(model.RebalanceFrequency); err != nil {
		return nil, fmt.Errorf("model %s: %w", model.ID, err)
	}
	taxes, err := NewTaxEngine(taxConfig)
	if err != nil {
		return nil, err
	}
	var table RMDTable
	if len(taxConfig.RMDTable) > 0 {
		table = RMDTable(taxConfig.RMDTable)
	}
	return &LifeSimulator{
		model:    model,
		taxes:    taxes,
		medicare: NewMedicareCalculatorWithConfig(taxConfig.Medicare),
		mfj:      taxConfig.IsMarriedFilingJointly(),
		rmdTable: table,
		logger:   logger,
	}, nil
}

// Model returns the model being simulated
func (ls *LifeSimulator) Model() domain.Model { return ls.model }

// life carries the collaborators of one run
type life struct {
	index       int
	path        PricePath
	waterfall   *InvestmentWaterfall
	rebalance   *RebalancePolicy
	payday      *PaydaySpend
	tracker     RecessionTracker
	rmdTable    RMDTable
	diagnostics Diagnostics
}

// Run simulates one life month by month from in.Start through in.End
func (ls *LifeSimulator) Run(ctx context.Context, in LifeInput, diagnostics Diagnostics) (LifeResult, error) {
	if diagnostics == nil {
		diagnostics = NopDiagnostics{}
	}
	start, end := dateutil.MonthStart(in.Start), dateutil.MonthStart(in.End)
	result := LifeResult{LifeIndex: in.Index}

	lf, err := ls.newLife(in, start, end, diagnostics)
	if err != nil {
		return result, err
	}
	accounts, err := ledger.NewAccountLedger(in.Investments, in.Debts, start)
	if err != nil {
		return result, fmt.Errorf("life %d: %w", in.Index, err)
	}

	h := Household{Person: in.Person, Accounts: accounts}
	h.Person.Retired, h.Person.Bankrupt = false, false
	h.Tax = ledger.NewTaxLedger(ls.incomeTarget(lf, start.Year()))

	result.Snapshots = make([]domain.Snapshot, 0, dateutil.MonthsBetween(start, end)+1)
	state := Accumulating
	for month := start; !month.After(end); month = dateutil.AddMonths(month, 1) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if state == BankruptReporting {
			result.Snapshots = append(result.Snapshots, domain.Snapshot{Month: month})
			continue
		}

		if !h.Person.Retired && !month.Before(dateutil.MonthStart(ls.model.RetirementDate)) {
			h.Person.Retired = true
			state = Retired
			result.RetiredMonth = month
			ls.logger.Debugf("life %d retired in %s", in.Index, month.Format("2006-01"))
		}

		var snap domain.Snapshot
		var bankrupt bool
		h, snap, bankrupt, err = ls.step(lf, h, month)
		if err != nil {
			return result, fmt.Errorf("life %d %s: %w", in.Index, month.Format("2006-01"), err)
		}
		if bankrupt {
			h.Person.Bankrupt = true
			state = BankruptReporting
			result.Bankrupt = true
			result.BankruptMonth = month
			ls.logger.Debugf("life %d bankrupt in %s", in.Index, month.Format("2006-01"))
			snap = domain.Snapshot{Month: month}
		}
		result.Snapshots = append(result.Snapshots, snap)
	}
	if state != BankruptReporting {
		state = Done
	}
	result.State = state
	result.Totals = h.Totals
	result.LifetimeTaxPaid = h.Tax.LifetimeTaxPaid()
	result.FinalNetWorth = decimal.Zero
	if n := len(result.Snapshots); n > 0 {
		result.FinalNetWorth = result.Snapshots[n-1].NetWorth
	}
	return result, nil
}

func (ls *LifeSimulator) newLife(in LifeInput, start, end time.Time, diagnostics Diagnostics) (*life, error) {
	waterfall := NewInvestmentWaterfall(ls.logger, diagnostics)
	rebalance, err := NewRebalancePolicy(ls.model, waterfall, ls.logger)
	if err != nil {
		return nil, err
	}
	table := ls.rmdTable
	if table == nil {
		table = NewRMDCalculator(in.Person.BirthDate.Year()).Table(start.Year(), end.Year())
	}
	return &life{
		index:       in.Index,
		path:        in.Path,
		waterfall:   waterfall,
		rebalance:   rebalance,
		payday:      NewPaydaySpend(ls.model, in.Person, ls.taxes, ls.medicare, ls.mfj, waterfall, diagnostics),
		tracker:     NewRecessionTracker(ls.model),
		rmdTable:    table,
		diagnostics: diagnostics,
	}, nil
}

func (ls *LifeSimulator) incomeTarget(lf *life, year int) decimal.Decimal {
	expected := lf.payday.SocialSecurity().ExpectedAnnualBenefit(ls.model.SocialSecurityElectionDate, year)
	return ls.taxes.IncomeTarget(expected)
}

// step runs every financial step of one month. bankrupt is true when a
// required withdrawal could not be funded.
func (ls *LifeSimulator) step(lf *life, h Household, month time.Time) (Household, domain.Snapshot, bool, error) {
	snap := domain.Snapshot{Month: month}

	point, err := lf.path.At(month)
	if err != nil {
		return h, snap, false, err
	}
	h.Track = h.Track.Advance(point)

	// growth
	accounts, growth, err := h.Accounts.Accrue(point.LongGrowth, point.MidGrowth, point.ShortGrowth)
	if err != nil {
		return h, snap, false, err
	}
	accounts, interest := accounts.AccrueDebt()
	h.Accounts = accounts
	h.Totals = h.Totals.AddInvestmentGrowth(growth).AddDebtGrowth(interest)

	// debt service
	if due := h.Accounts.DebtDue(); due.IsPositive() {
		accounts, tax, ok, err := lf.waterfall.WithdrawCash(h.Accounts, h.Tax, due, month)
		if err != nil || !ok {
			return h, snap, !ok, err
		}
		accounts, paid := accounts.PayDebt()
		h.Accounts, h.Tax = accounts, tax
		h.Totals = h.Totals.AddDebtPaid(paid)
		lf.diagnostics.Reconcile(month, paid.Neg(), "debt payment")
	}

	h.Recession = lf.tracker.Update(h.Recession, h.Track.LongHistory, h.Accounts.NetWorth(), month)

	monthlySpend := lf.payday.MonthlySpend(h.Person.Retired)
	if h.Accounts, h.Tax, err = lf.rebalance.Rebalance(h.Accounts, h.Tax, h.Recession, point, month, monthlySpend); err != nil {
		return h, snap, false, err
	}

	var payrollTax decimal.Decimal
	if h, payrollTax, err = lf.payday.Payday(h, month); err != nil {
		return h, snap, false, err
	}
	var spent decimal.Decimal
	var ok bool
	if h, spent, ok, err = lf.payday.Spend(h, month); err != nil || !ok {
		return h, snap, !ok, err
	}

	settled := decimal.Zero
	if month.Month() == time.January {
		if h, settled, ok, err = ls.newYear(lf, h, point, month); err != nil || !ok {
			return h, snap, !ok, err
		}
	}

	if month.Month() == time.December {
		res, err := lf.waterfall.MeetRMD(h.Accounts, h.Tax, lf.rmdTable, month)
		if err != nil {
			return h, snap, false, err
		}
		h.Accounts, h.Tax = res.Accounts, res.Tax
	}

	if h.Accounts, _, err = lf.rebalance.SweepExcessCash(h.Accounts, point, month, monthlySpend); err != nil {
		return h, snap, false, err
	}

	lf.diagnostics.LedgerSnapshot(month, h.Accounts)
	if netWorth := h.Accounts.NetWorth(); netWorth.IsPositive() {
		snap.NetWorth = netWorth
		snap.Spend = spent
		snap.Tax = payrollTax.Add(settled)
	}
	return h, snap, false, nil
}

// newYear consolidates positions, settles last year's tax and resets the
// income target. It returns the tax paid at settlement.
func (ls *LifeSimulator) newYear(lf *life, h Household, point PricePoint, month time.Time) (Household, decimal.Decimal, bool, error) {
	accounts, err := h.Accounts.Cleanup(month, point.Prices())
	if err != nil {
		return h, decimal.Zero, false, err
	}
	h.Accounts = accounts

	prior := month.Year() - 1
	liability := ls.taxes.Liability(h.Tax, prior).Total
	due := liability.Sub(h.Tax.Withheld(prior))
	settled := decimal.Zero
	switch {
	case due.IsPositive():
		accounts, tax, ok, err := lf.waterfall.WithdrawCash(h.Accounts, h.Tax, due, month)
		if err != nil || !ok {
			return h, decimal.Zero, ok, err
		}
		h.Accounts, h.Tax = accounts, tax
		settled = due
	case due.IsNegative():
		if h.Accounts, err = h.Accounts.Deposit(due.Neg()); err != nil {
			return h, decimal.Zero, false, err
		}
	}
	lf.diagnostics.Reconcile(month, due.Neg(), fmt.Sprintf("settle %d tax", prior))

	h.Tax = h.Tax.AddTaxPaid(liability).WithIncomeTarget(ls.incomeTarget(lf, month.Year()))
	return h, settled, true, nil
}
