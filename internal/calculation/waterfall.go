package calculation

import (
	"fmt"
	"sort"
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// SaleMode selects the account order and eligibility rules of a sale
type SaleMode int

const (
	// SaleNormal respects income room and the one-year holding period
	SaleNormal SaleMode = iota
	// SaleRMD sells tax-deferred accounts only and ignores room and holding period
	SaleRMD
)

func (m SaleMode) String() string {
	switch m {
	case SaleNormal:
		return "normal"
	case SaleRMD:
		return "rmd"
	default:
		return fmt.Sprintf("SaleMode(%d)", int(m))
	}
}

// Account orders for sales inside income room, outside it, and for RMDs
var (
	roomOrder = []domain.AccountType{
		domain.Traditional401k, domain.TraditionalIRA, domain.TaxableBrokerage,
		domain.HSA, domain.Roth401k, domain.RothIRA,
	}
	noRoomOrder = []domain.AccountType{
		domain.Roth401k, domain.RothIRA, domain.HSA,
		domain.TaxableBrokerage, domain.Traditional401k, domain.TraditionalIRA,
	}
	rmdOrder = []domain.AccountType{domain.Traditional401k, domain.TraditionalIRA}
)

// SaleResult is the outcome of a sale: new ledgers and the cash raised
type SaleResult struct {
	Accounts ledger.AccountLedger
	Tax      ledger.TaxLedger
	Raised   decimal.Decimal
}

// InvestmentWaterfall sells positions in a tax-aware order to raise cash
type InvestmentWaterfall struct {
	logger      Logger
	diagnostics Diagnostics
}

// NewInvestmentWaterfall creates a waterfall; nil collaborators become no-ops
func NewInvestmentWaterfall(logger Logger, diagnostics Diagnostics) *InvestmentWaterfall {
	if logger == nil {
		logger = NopLogger{}
	}
	if diagnostics == nil {
		diagnostics = NopDiagnostics{}
	}
	return &InvestmentWaterfall{logger: logger, diagnostics: diagnostics}
}

// SellInvestments raises up to target from positions of one bucket. Proceeds
// land in cash and every sale is logged to the tax ledger.
func (w *InvestmentWaterfall) SellInvestments(accounts ledger.AccountLedger, tax ledger.TaxLedger, target decimal.Decimal, bucket domain.BucketType, month time.Time, mode SaleMode) (SaleResult, error) {
	res := SaleResult{Accounts: accounts, Tax: tax, Raised: decimal.Zero}
	if !target.IsPositive() {
		return res, nil
	}

	switch mode {
	case SaleRMD:
		return w.sell(res, rmdOrder, bucket, month, target, false)
	case SaleNormal:
		var err error
		room := tax.IncomeRoom(month.Year())
		if room.IsPositive() {
			res, err = w.sell(res, roomOrder, bucket, month, decimal.Min(target, room), true)
			if err != nil {
				return SaleResult{Accounts: accounts, Tax: tax}, err
			}
		}
		if remaining := target.Sub(res.Raised); remaining.IsPositive() {
			res, err = w.sell(res, noRoomOrder, bucket, month, remaining, true)
			if err != nil {
				return SaleResult{Accounts: accounts, Tax: tax}, err
			}
		}
		return res, nil
	default:
		return res, fmt.Errorf("%w: unknown sale mode %s", domain.ErrConfiguration, mode)
	}
}

// sell walks the account order once, visiting each eligible position at most
// once, lowest gain per dollar first, until limit more has been raised
func (w *InvestmentWaterfall) sell(res SaleResult, order []domain.AccountType, bucket domain.BucketType, month time.Time, limit decimal.Decimal, requireHeld bool) (SaleResult, error) {
	raised := decimal.Zero
	for _, accountType := range order {
		for _, idx := range res.Accounts.AccountIndexes(accountType) {
			acct := res.Accounts.InvestmentAt(idx)
			for _, j := range eligiblePositions(acct, bucket, month, requireHeld) {
				need := limit.Sub(raised)
				if !need.IsPositive() {
					res.Raised = res.Raised.Add(raised)
					return res, nil
				}

				remaining, proceeds, cost := acct.Positions[j].Sell(need)
				if !proceeds.IsPositive() {
					continue
				}
				var err error
				if res.Tax, err = logSale(res.Tax, acct.Type, month, proceeds, cost); err != nil {
					return res, err
				}
				res.Accounts = res.Accounts.ReplacePosition(idx, j, remaining)
				if res.Accounts, err = res.Accounts.Deposit(proceeds); err != nil {
					return res, err
				}
				raised = raised.Add(proceeds)

				w.diagnostics.Reconcile(month, proceeds, fmt.Sprintf("sell %s %s position %s", acct.Type, bucket, acct.Positions[j].ID))
			}
		}
	}
	res.Raised = res.Raised.Add(raised)
	return res, nil
}

// eligiblePositions returns the indexes of open positions of the bucket,
// ordered by ascending gain per dollar
func eligiblePositions(acct domain.InvestmentAccount, bucket domain.BucketType, month time.Time, requireHeld bool) []int {
	var idx []int
	for j, p := range acct.Positions {
		if !p.Open || p.Bucket != bucket || !p.Value().IsPositive() {
			continue
		}
		if requireHeld && !dateutil.HeldMoreThanAYear(p.EntryDate, month) {
			continue
		}
		idx = append(idx, j)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return acct.Positions[idx[a]].GainPerDollar().LessThan(acct.Positions[idx[b]].GainPerDollar())
	})
	return idx
}

func logSale(tax ledger.TaxLedger, accountType domain.AccountType, month time.Time, proceeds, cost decimal.Decimal) (ledger.TaxLedger, error) {
	treatment, err := accountType.TaxTreatment()
	if err != nil {
		return tax, err
	}
	switch treatment {
	case domain.Taxable:
		return tax.AddCapitalGain(month, proceeds.Sub(cost)), nil
	case domain.TaxDeferred:
		return tax.AddOrdinaryIncome(month, proceeds).AddRMDDistribution(month.Year(), proceeds), nil
	case domain.TaxFree:
		return tax, nil
	default:
		return tax, fmt.Errorf("%w: cannot sell from %s account", domain.ErrConfiguration, accountType)
	}
}

// WithdrawCash takes amount out of cash, selling mid then long positions for
// any shortfall. If cash still falls short the input ledgers are returned
// unchanged with ok=false.
func (w *InvestmentWaterfall) WithdrawCash(accounts ledger.AccountLedger, tax ledger.TaxLedger, amount decimal.Decimal, month time.Time) (ledger.AccountLedger, ledger.TaxLedger, bool, error) {
	if !amount.IsPositive() {
		return accounts, tax, true, nil
	}

	work := SaleResult{Accounts: accounts, Tax: tax}
	for _, bucket := range []domain.BucketType{domain.Mid, domain.Long} {
		shortfall := amount.Sub(work.Accounts.Cash())
		if !shortfall.IsPositive() {
			break
		}
		var err error
		work, err = w.SellInvestments(work.Accounts, work.Tax, shortfall, bucket, month, SaleNormal)
		if err != nil {
			return accounts, tax, false, err
		}
	}

	next, ok := work.Accounts.Withdraw(amount)
	if !ok {
		w.logger.Debugf("withdraw of %s in %s failed: cash %s", amount.StringFixed(2), month.Format("2006-01"), work.Accounts.Cash().StringFixed(2))
		return accounts, tax, false, nil
	}
	w.diagnostics.Reconcile(month, amount.Neg(), "withdraw cash")
	return next, work.Tax, true, nil
}

// MeetRMD distributes whatever remains of the year's required minimum
// distribution from tax-deferred accounts, long bucket first
func (w *InvestmentWaterfall) MeetRMD(accounts ledger.AccountLedger, tax ledger.TaxLedger, table RMDTable, month time.Time) (SaleResult, error) {
	res := SaleResult{Accounts: accounts, Tax: tax, Raised: decimal.Zero}
	year := month.Year()
	required, ok := table.Requirement(year, accounts.TraditionalBalance())
	if !ok {
		return res, nil
	}
	due := required.Sub(tax.RMDDistributed(year))
	if !due.IsPositive() {
		return res, nil
	}

	for _, bucket := range []domain.BucketType{domain.Long, domain.Mid} {
		remaining := due.Sub(res.Raised)
		if !remaining.IsPositive() {
			break
		}
		var err error
		if res, err = w.accumulate(res, remaining, bucket, month, SaleRMD); err != nil {
			return SaleResult{Accounts: accounts, Tax: tax}, err
		}
	}
	if res.Raised.LessThan(due) {
		return SaleResult{Accounts: accounts, Tax: tax}, fmt.Errorf("%w: RMD for %d short by %s after exhausting tax-deferred accounts",
			domain.ErrDataIntegrity, year, due.Sub(res.Raised).StringFixed(2))
	}
	w.logger.Debugf("RMD %d: distributed %s", year, res.Raised.StringFixed(2))
	return res, nil
}

// accumulate runs another sale on top of res, summing the cash raised
func (w *InvestmentWaterfall) accumulate(res SaleResult, target decimal.Decimal, bucket domain.BucketType, month time.Time, mode SaleMode) (SaleResult, error) {
	next, err := w.SellInvestments(res.Accounts, res.Tax, target, bucket, month, mode)
	if err != nil {
		return res, err
	}
	next.Raised = next.Raised.Add(res.Raised)
	return next, nil
}
