// Package ledger holds the per-life book of accounts and the tax log. Every
// operation takes a ledger by value and returns a new one; only the account
// being touched gets a fresh position slice, all others are shared.
package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/rpgo/lifesim/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Prices are the current unit prices per bucket
type Prices struct {
	Long  decimal.Decimal
	Mid   decimal.Decimal
	Short decimal.Decimal
}

// Of returns the price for a bucket
func (p Prices) Of(bucket domain.BucketType) (decimal.Decimal, error) {
	switch bucket {
	case domain.Long:
		return p.Long, nil
	case domain.Mid:
		return p.Mid, nil
	case domain.Short:
		return p.Short, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: no price for bucket %s", domain.ErrConfiguration, bucket)
	}
}

// PriceScale is the number of decimal places unit prices are rounded to after growth
const PriceScale = 10

// canonicalTypes are the account types that always resolve to an account
var canonicalTypes = []domain.AccountType{
	domain.Roth401k, domain.RothIRA, domain.Traditional401k, domain.TraditionalIRA,
	domain.TaxableBrokerage, domain.HSA, domain.Cash,
}

// accountTypeCount sizes the canonical index; one slot per declared AccountType
const accountTypeCount = int(domain.Cash) + 1

// AccountLedger is the book of investment and debt accounts for one life
type AccountLedger struct {
	canonical   [accountTypeCount]int
	investments []domain.InvestmentAccount
	debts       []domain.DebtAccount
}

// NewAccountLedger builds a ledger from repository data. Accounts and their
// position slices are cloned so the caller's data is never aliased. Missing
// canonical accounts are created empty and all cash is folded into a single
// synthetic position priced at 1 on the first Cash account.
func NewAccountLedger(investments []domain.InvestmentAccount, debts []domain.DebtAccount, asOf time.Time) (AccountLedger, error) {
	var l AccountLedger

	l.investments = make([]domain.InvestmentAccount, 0, len(investments)+len(canonicalTypes))
	for _, acct := range investments {
		if !acct.Type.Valid() {
			return AccountLedger{}, fmt.Errorf("%w: account %s has unknown type %d", domain.ErrConfiguration, acct.ID, int(acct.Type))
		}
		l.investments = append(l.investments, acct.Clone())
	}
	l.debts = make([]domain.DebtAccount, 0, len(debts))
	for _, acct := range debts {
		l.debts = append(l.debts, acct.Clone())
	}

	l.reindex()
	for _, t := range canonicalTypes {
		if l.canonical[t] >= 0 {
			continue
		}
		l.investments = append(l.investments, domain.InvestmentAccount{
			ID:   uuid.NewString(),
			Name: t.String(),
			Type: t,
		})
		l.canonical[t] = len(l.investments) - 1
	}

	l.normalizeCash(asOf)
	l.reindex()
	return l, nil
}

// reindex points each canonical slot at the first account of its type
func (l *AccountLedger) reindex() {
	for i := range l.canonical {
		l.canonical[i] = -1
	}
	for i, acct := range l.investments {
		if acct.Type != domain.PrimaryResidence && l.canonical[acct.Type] < 0 {
			l.canonical[acct.Type] = i
		}
	}
}

// normalizeCash merges every Cash account into the first one, which then
// holds exactly one short-bucket position. Only called during construction.
func (l *AccountLedger) normalizeCash(asOf time.Time) {
	balance := decimal.Zero
	kept := make([]domain.InvestmentAccount, 0, len(l.investments))
	cashIdx := -1
	for _, acct := range l.investments {
		if acct.Type == domain.Cash {
			balance = balance.Add(acct.Value())
			if cashIdx >= 0 {
				continue
			}
			cashIdx = len(kept)
		}
		kept = append(kept, acct)
	}

	kept[cashIdx].Positions = []domain.InvestmentPosition{{
		ID:          uuid.NewString(),
		Open:        true,
		EntryDate:   dateutil.MonthStart(asOf),
		Quantity:    balance,
		Price:       decimal.NewFromInt(1),
		InitialCost: balance,
		Bucket:      domain.Short,
	}}
	l.investments = kept
}

// Investments returns the investment accounts. Callers must treat the
// position slices as read-only.
func (l AccountLedger) Investments() []domain.InvestmentAccount {
	return slices.Clone(l.investments)
}

// Debts returns the debt accounts. Callers must treat the position slices as read-only.
func (l AccountLedger) Debts() []domain.DebtAccount {
	return slices.Clone(l.debts)
}

// Account returns the canonical account of a type
func (l AccountLedger) Account(t domain.AccountType) (domain.InvestmentAccount, error) {
	idx, err := l.canonicalIndex(t)
	if err != nil {
		return domain.InvestmentAccount{}, err
	}
	return l.investments[idx], nil
}

func (l AccountLedger) canonicalIndex(t domain.AccountType) (int, error) {
	if !t.Valid() || t == domain.PrimaryResidence {
		return -1, fmt.Errorf("%w: no canonical account for %s", domain.ErrConfiguration, t)
	}
	idx := l.canonical[t]
	if idx < 0 || idx >= len(l.investments) {
		return -1, fmt.Errorf("%w: canonical %s account missing", domain.ErrDataIntegrity, t)
	}
	return idx, nil
}

// AccountIndexes returns the indexes of every investment account of a type,
// canonical account first
func (l AccountLedger) AccountIndexes(t domain.AccountType) []int {
	var out []int
	if t != domain.PrimaryResidence && t.Valid() && l.canonical[t] >= 0 {
		out = append(out, l.canonical[t])
	}
	for i, acct := range l.investments {
		if acct.Type == t && (len(out) == 0 || out[0] != i) {
			out = append(out, i)
		}
	}
	return out
}

// InvestmentAt returns the account at an index from AccountIndexes
func (l AccountLedger) InvestmentAt(i int) domain.InvestmentAccount {
	return l.investments[i]
}

// withInvestment copies the account header list and the position slice of
// account i before applying fn
func (l AccountLedger) withInvestment(i int, fn func(acct *domain.InvestmentAccount)) AccountLedger {
	accounts := slices.Clone(l.investments)
	acct := accounts[i].Clone()
	fn(&acct)
	accounts[i] = acct
	l.investments = accounts
	return l
}

func (l AccountLedger) withDebt(i int, fn func(acct *domain.DebtAccount)) AccountLedger {
	accounts := slices.Clone(l.debts)
	acct := accounts[i].Clone()
	fn(&acct)
	accounts[i] = acct
	l.debts = accounts
	return l
}

// Cash returns the liquid balance held by the synthetic cash position
func (l AccountLedger) Cash() decimal.Decimal {
	idx, err := l.canonicalIndex(domain.Cash)
	if err != nil {
		return decimal.Zero
	}
	return l.investments[idx].Value()
}

// Deposit adds amount to cash
func (l AccountLedger) Deposit(amount decimal.Decimal) (AccountLedger, error) {
	if amount.IsNegative() {
		return l, fmt.Errorf("cannot deposit negative amount %s", amount)
	}
	idx, err := l.canonicalIndex(domain.Cash)
	if err != nil {
		return l, err
	}
	return l.withInvestment(idx, func(acct *domain.InvestmentAccount) {
		p := acct.Positions[0]
		p.Quantity = p.Quantity.Add(amount)
		p.InitialCost = p.InitialCost.Add(amount)
		acct.Positions[0] = p
	}), nil
}

// Withdraw removes amount from cash. It returns false and the ledger
// unchanged when the cash balance is short.
func (l AccountLedger) Withdraw(amount decimal.Decimal) (AccountLedger, bool) {
	if !amount.IsPositive() {
		return l, true
	}
	idx, err := l.canonicalIndex(domain.Cash)
	if err != nil || l.investments[idx].Value().LessThan(amount) {
		return l, false
	}
	return l.withInvestment(idx, func(acct *domain.InvestmentAccount) {
		p := acct.Positions[0]
		p.Quantity = p.Quantity.Sub(amount)
		p.InitialCost = p.Quantity
		acct.Positions[0] = p
	}), true
}

// Invest opens a new position in the canonical account of type t. It does not
// touch cash; pair it with Withdraw for purchases paid from cash.
func (l AccountLedger) Invest(t domain.AccountType, bucket domain.BucketType, amount, price decimal.Decimal, month time.Time) (AccountLedger, error) {
	if t == domain.Cash {
		return l.Deposit(amount)
	}
	idx, err := l.canonicalIndex(t)
	if err != nil {
		return l, err
	}
	if !price.IsPositive() {
		return l, fmt.Errorf("%w: non-positive %s price %s", domain.ErrDataIntegrity, bucket, price)
	}
	if !amount.IsPositive() {
		return l, nil
	}
	pos := domain.InvestmentPosition{
		ID:          uuid.NewString(),
		Open:        true,
		EntryDate:   dateutil.MonthStart(month),
		Quantity:    amount.Div(price),
		Price:       price,
		InitialCost: amount,
		Bucket:      bucket,
	}
	return l.withInvestment(idx, func(acct *domain.InvestmentAccount) {
		acct.Positions = append(acct.Positions, pos)
	}), nil
}

// ReplacePosition swaps position j of account i
func (l AccountLedger) ReplacePosition(i, j int, p domain.InvestmentPosition) AccountLedger {
	return l.withInvestment(i, func(acct *domain.InvestmentAccount) {
		acct.Positions[j] = p
	})
}

// Accrue grows every open position outside Cash and PrimaryResidence by its
// bucket rate. It returns the new ledger and the total growth.
func (l AccountLedger) Accrue(long, mid, short decimal.Decimal) (AccountLedger, decimal.Decimal, error) {
	rates := Prices{Long: long, Mid: mid, Short: short}
	growth := decimal.Zero
	accounts := slices.Clone(l.investments)
	for i, acct := range accounts {
		if acct.Type == domain.Cash || acct.Type == domain.PrimaryResidence {
			continue
		}
		acct = acct.Clone()
		for j, p := range acct.Positions {
			if !p.Open {
				continue
			}
			rate, err := rates.Of(p.Bucket)
			if err != nil {
				return l, decimal.Zero, err
			}
			before := p.Value()
			p.Price = p.Price.Mul(decimal.NewFromInt(1).Add(rate)).Round(PriceScale)
			growth = growth.Add(p.Value().Sub(before))
			acct.Positions[j] = p
		}
		accounts[i] = acct
	}
	l.investments = accounts
	return l, growth, nil
}

// AddDebt appends a debt account
func (l AccountLedger) AddDebt(acct domain.DebtAccount) AccountLedger {
	l.debts = append(slices.Clip(l.debts), acct.Clone())
	return l
}

// AccrueDebt applies APR/12 to every open debt balance and returns the interest added
func (l AccountLedger) AccrueDebt() (AccountLedger, decimal.Decimal) {
	twelve := decimal.NewFromInt(12)
	interest := decimal.Zero
	for i, acct := range l.debts {
		if acct.Balance().IsZero() {
			continue
		}
		l = l.withDebt(i, func(acct *domain.DebtAccount) {
			for j, p := range acct.Positions {
				if !p.Open || !p.Balance.IsPositive() {
					continue
				}
				added := p.Balance.Mul(p.APR).Div(twelve)
				p.Balance = p.Balance.Add(added)
				interest = interest.Add(added)
				acct.Positions[j] = p
			}
		})
	}
	return l, interest
}

// DebtDue is the total scheduled payment across open debt positions
func (l AccountLedger) DebtDue() decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.debts {
		for _, p := range acct.Positions {
			total = total.Add(p.ScheduledPayment())
		}
	}
	return total
}

// PayDebt reduces every open balance by its scheduled payment and closes
// positions that reach zero. Cash is not touched; callers withdraw DebtDue first.
func (l AccountLedger) PayDebt() (AccountLedger, decimal.Decimal) {
	paid := decimal.Zero
	for i, acct := range l.debts {
		if acct.Balance().IsZero() {
			continue
		}
		l = l.withDebt(i, func(acct *domain.DebtAccount) {
			for j, p := range acct.Positions {
				payment := p.ScheduledPayment()
				if payment.IsZero() {
					continue
				}
				p.Balance = p.Balance.Sub(payment)
				if !p.Balance.IsPositive() {
					p.Balance = decimal.Zero
					p.Open = false
				}
				paid = paid.Add(payment)
				acct.Positions[j] = p
			}
		})
	}
	return l, paid
}

// InvestmentValue sums open positions in every account except PrimaryResidence
func (l AccountLedger) InvestmentValue() decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.investments {
		if acct.Type == domain.PrimaryResidence {
			continue
		}
		total = total.Add(acct.Value())
	}
	return total
}

// DebtBalance sums open debt balances
func (l AccountLedger) DebtBalance() decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.debts {
		total = total.Add(acct.Balance())
	}
	return total
}

// NetWorth is open investment value (residence excluded) minus open debt
func (l AccountLedger) NetWorth() decimal.Decimal {
	return l.InvestmentValue().Sub(l.DebtBalance())
}

// BucketValue sums open positions of a bucket across invested accounts
func (l AccountLedger) BucketValue(bucket domain.BucketType) decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.investments {
		if acct.Type == domain.Cash || acct.Type == domain.PrimaryResidence {
			continue
		}
		for _, p := range acct.Positions {
			if p.Open && p.Bucket == bucket {
				total = total.Add(p.Value())
			}
		}
	}
	return total
}

// TraditionalBalance sums every tax-deferred account
func (l AccountLedger) TraditionalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, acct := range l.investments {
		if acct.Type == domain.Traditional401k || acct.Type == domain.TraditionalIRA {
			total = total.Add(acct.Value())
		}
	}
	return total
}

// PositionCount counts positions, open or closed, across investment accounts
func (l AccountLedger) PositionCount() int {
	n := 0
	for _, acct := range l.investments {
		n += len(acct.Positions)
	}
	return n
}

// Cleanup consolidates positions held more than a year into one position per
// bucket in each invested account, valued at the current bucket price, and
// purges closed investment and debt positions. Newer positions are kept as-is.
func (l AccountLedger) Cleanup(month time.Time, prices Prices) (AccountLedger, error) {
	accounts := slices.Clone(l.investments)
	for i, acct := range accounts {
		treatment, err := acct.Type.TaxTreatment()
		if err != nil {
			return l, err
		}
		if treatment == domain.NotInvested {
			continue
		}
		consolidated, err := consolidate(acct.Positions, month, prices)
		if err != nil {
			return l, err
		}
		acct.Positions = consolidated
		accounts[i] = acct
	}
	l.investments = accounts

	debts := slices.Clone(l.debts)
	for i, acct := range debts {
		var open []domain.DebtPosition
		for _, p := range acct.Positions {
			if p.Open {
				open = append(open, p)
			}
		}
		acct.Positions = open
		debts[i] = acct
	}
	l.debts = debts
	return l, nil
}

func consolidate(positions []domain.InvestmentPosition, month time.Time, prices Prices) ([]domain.InvestmentPosition, error) {
	type lot struct {
		value decimal.Decimal
		cost  decimal.Decimal
		entry time.Time
		found bool
	}
	var lots [len(domainBuckets)]lot
	var recent []domain.InvestmentPosition

	for _, p := range positions {
		if !p.Open {
			continue
		}
		if !dateutil.HeldMoreThanAYear(p.EntryDate, month) {
			recent = append(recent, p)
			continue
		}
		if int(p.Bucket) < 0 || int(p.Bucket) >= len(lots) {
			return nil, fmt.Errorf("%w: position %s has unknown bucket %d", domain.ErrConfiguration, p.ID, int(p.Bucket))
		}
		lt := &lots[p.Bucket]
		lt.value = lt.value.Add(p.Value())
		lt.cost = lt.cost.Add(p.InitialCost)
		if !lt.found || p.EntryDate.Before(lt.entry) {
			lt.entry = p.EntryDate
		}
		lt.found = true
	}

	out := make([]domain.InvestmentPosition, 0, len(lots)+len(recent))
	for _, bucket := range domainBuckets {
		lt := lots[bucket]
		if !lt.found || !lt.value.IsPositive() {
			continue
		}
		price, err := prices.Of(bucket)
		if err != nil {
			return nil, err
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("%w: non-positive %s price %s", domain.ErrDataIntegrity, bucket, price)
		}
		out = append(out, domain.InvestmentPosition{
			ID:          uuid.NewString(),
			Open:        true,
			EntryDate:   lt.entry,
			Quantity:    lt.value.Div(price),
			Price:       price,
			InitialCost: lt.cost,
			Bucket:      bucket,
		})
	}
	return append(out, recent...), nil
}

var domainBuckets = [...]domain.BucketType{domain.Long, domain.Mid, domain.Short}
