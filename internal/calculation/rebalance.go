package calculation

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/internal/ledger"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// rebalanceCadences maps the named frequencies onto standard cron specs
var rebalanceCadences = map[string]string{
	"monthly":   "0 0 1 * *",
	"quarterly": "0 0 1 1,4,7,10 *",
	"yearly":    "0 0 1 1 *",
	"annually":  "0 0 1 1 *",
}

// ParseRebalanceSchedule turns a named frequency or a five-field cron spec into a schedule
func ParseRebalanceSchedule(frequency string) (cron.Schedule, error) {
	spec := strings.TrimSpace(frequency)
	if named, ok := rebalanceCadences[strings.ToLower(spec)]; ok {
		spec = named
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: rebalance frequency %q: %v", domain.ErrConfiguration, frequency, err)
	}
	return schedule, nil
}

// RebalancePolicy moves money between cash, mid and long buckets
type RebalancePolicy struct {
	model     domain.Model
	schedule  cron.Schedule
	waterfall *InvestmentWaterfall
	logger    Logger
}

// NewRebalancePolicy builds the policy for a model
func NewRebalancePolicy(model domain.Model, waterfall *InvestmentWaterfall, logger Logger) (*RebalancePolicy, error) {
	schedule, err := ParseRebalanceSchedule(model.RebalanceFrequency)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &RebalancePolicy{model: model, schedule: schedule, waterfall: waterfall, logger: logger}, nil
}

// Scheduled reports whether the cadence fires at the start of month
func (rp *RebalancePolicy) Scheduled(month time.Time) bool {
	start := dateutil.MonthStart(month)
	return rp.schedule.Next(start.Add(-time.Minute)).Equal(start)
}

// Active reports whether month is inside the rebalancing window before retirement
func (rp *RebalancePolicy) Active(month time.Time) bool {
	opens := dateutil.AddMonths(rp.model.RetirementDate, -rp.model.RebalanceMonthsBeforeRetirement)
	return !dateutil.MonthStart(month).Before(opens)
}

// CashReserve is the cash target for a monthly spend
func (rp *RebalancePolicy) CashReserve(monthlySpend decimal.Decimal) decimal.Decimal {
	return monthlySpend.Mul(decimal.NewFromInt(int64(rp.model.MonthsOfCash)))
}

// Rebalance tops up the cash reserve and, outside a recession, the mid bucket.
// It does nothing off-cadence or before the window opens.
func (rp *RebalancePolicy) Rebalance(accounts ledger.AccountLedger, tax ledger.TaxLedger, state domain.RecessionState, prices PricePoint, month time.Time, monthlySpend decimal.Decimal) (ledger.AccountLedger, ledger.TaxLedger, error) {
	if !rp.Scheduled(month) || !rp.Active(month) {
		return accounts, tax, nil
	}

	order := []domain.BucketType{domain.Long, domain.Mid}
	if state.InRecession {
		order = []domain.BucketType{domain.Mid, domain.Long}
	}
	reserve := rp.CashReserve(monthlySpend)
	for _, bucket := range order {
		shortfall := reserve.Sub(accounts.Cash())
		if !shortfall.IsPositive() {
			break
		}
		res, err := rp.waterfall.SellInvestments(accounts, tax, shortfall, bucket, month, SaleNormal)
		if err != nil {
			return accounts, tax, fmt.Errorf("rebalance cash from %s: %w", bucket, err)
		}
		accounts, tax = res.Accounts, res.Tax
	}

	if state.InRecession {
		return accounts, tax, nil
	}

	midTarget := monthlySpend.Mul(decimal.NewFromInt(int64(rp.model.MonthsOfMid)))
	need := midTarget.Sub(accounts.BucketValue(domain.Mid))
	if !need.IsPositive() {
		return accounts, tax, nil
	}
	res, err := rp.waterfall.sell(SaleResult{Accounts: accounts, Tax: tax, Raised: decimal.Zero},
		[]domain.AccountType{domain.TaxableBrokerage}, domain.Long, month, need, true)
	if err != nil {
		return accounts, tax, fmt.Errorf("rebalance mid bucket: %w", err)
	}
	if !res.Raised.IsPositive() {
		return accounts, tax, nil
	}
	next, ok := res.Accounts.Withdraw(res.Raised)
	if !ok {
		return accounts, tax, fmt.Errorf("%w: proceeds of %s missing from cash", domain.ErrDataIntegrity, res.Raised.StringFixed(2))
	}
	next, err = next.Invest(domain.TaxableBrokerage, domain.Mid, res.Raised, prices.Mid, month)
	if err != nil {
		return accounts, tax, err
	}
	rp.logger.Debugf("rebalance %s: moved %s from long to mid", month.Format("2006-01"), res.Raised.StringFixed(2))
	return next, res.Tax, nil
}

// SweepExcessCash invests cash above the reserve into brokerage long
func (rp *RebalancePolicy) SweepExcessCash(accounts ledger.AccountLedger, prices PricePoint, month time.Time, monthlySpend decimal.Decimal) (ledger.AccountLedger, decimal.Decimal, error) {
	excess := accounts.Cash().Sub(rp.CashReserve(monthlySpend))
	if !excess.IsPositive() {
		return accounts, decimal.Zero, nil
	}
	next, ok := accounts.Withdraw(excess)
	if !ok {
		return accounts, decimal.Zero, nil
	}
	next, err := next.Invest(domain.TaxableBrokerage, domain.Long, excess, prices.Long, month)
	if err != nil {
		return accounts, decimal.Zero, err
	}
	return next, excess, nil
}
