package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentPosition is a single lot held in an investment account
type InvestmentPosition struct {
	ID          string          `yaml:"id" json:"id"`
	Open        bool            `yaml:"open" json:"open"`
	EntryDate   time.Time       `yaml:"entry_date" json:"entry_date"`
	Quantity    decimal.Decimal `yaml:"quantity" json:"quantity"`
	Price       decimal.Decimal `yaml:"price" json:"price"`
	InitialCost decimal.Decimal `yaml:"initial_cost" json:"initial_cost"`
	Bucket      BucketType      `yaml:"bucket" json:"bucket"`
}

// Value returns quantity times price; closed positions are worth nothing
func (p InvestmentPosition) Value() decimal.Decimal {
	if !p.Open {
		return decimal.Zero
	}
	return p.Quantity.Mul(p.Price)
}

// GainPerDollar is the unrealized gain carried by each dollar of current value
func (p InvestmentPosition) GainPerDollar() decimal.Decimal {
	value := p.Value()
	if !value.IsPositive() {
		return decimal.Zero
	}
	return value.Sub(p.InitialCost).Div(value)
}

// Sell removes up to amount of value from the position. It returns the remaining
// position, the proceeds actually raised and the cost basis that left with them.
// Selling the full value closes the position.
func (p InvestmentPosition) Sell(amount decimal.Decimal) (InvestmentPosition, decimal.Decimal, decimal.Decimal) {
	value := p.Value()
	if !amount.IsPositive() || !value.IsPositive() {
		return p, decimal.Zero, decimal.Zero
	}
	if amount.GreaterThanOrEqual(value) {
		cost := p.InitialCost
		p.Open = false
		p.Quantity = decimal.Zero
		p.InitialCost = decimal.Zero
		return p, value, cost
	}
	cost := p.InitialCost.Mul(amount).Div(value)
	p.Quantity = p.Quantity.Sub(p.Quantity.Mul(amount).Div(value))
	p.InitialCost = p.InitialCost.Sub(cost)
	return p, amount, cost
}

// DebtPosition is an amortizing balance owed
type DebtPosition struct {
	ID             string          `yaml:"id" json:"id"`
	Open           bool            `yaml:"open" json:"open"`
	EntryDate      time.Time       `yaml:"entry_date" json:"entry_date"`
	Balance        decimal.Decimal `yaml:"balance" json:"balance"`
	APR            decimal.Decimal `yaml:"apr" json:"apr"`
	MonthlyPayment decimal.Decimal `yaml:"monthly_payment" json:"monthly_payment"`
}

// ScheduledPayment is the amount due this month
func (d DebtPosition) ScheduledPayment() decimal.Decimal {
	if !d.Open || !d.Balance.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(d.MonthlyPayment, d.Balance)
}

// InvestmentAccount holds positions under one tax wrapper
type InvestmentAccount struct {
	ID        string               `yaml:"id" json:"id"`
	Name      string               `yaml:"name" json:"name"`
	Type      AccountType          `yaml:"type" json:"type"`
	Positions []InvestmentPosition `yaml:"positions" json:"positions"`
}

// Value sums the open positions
func (a InvestmentAccount) Value() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Positions {
		total = total.Add(p.Value())
	}
	return total
}

// Clone copies the account including its position slice
func (a InvestmentAccount) Clone() InvestmentAccount {
	a.Positions = append([]InvestmentPosition(nil), a.Positions...)
	return a
}

// DebtAccount groups debt positions such as a mortgage or car loan
type DebtAccount struct {
	ID        string         `yaml:"id" json:"id"`
	Name      string         `yaml:"name" json:"name"`
	Positions []DebtPosition `yaml:"positions" json:"positions"`
}

// Balance sums the open debt positions
func (a DebtAccount) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.Positions {
		if p.Open {
			total = total.Add(p.Balance)
		}
	}
	return total
}

// Clone copies the account including its position slice
func (a DebtAccount) Clone() DebtAccount {
	a.Positions = append([]DebtPosition(nil), a.Positions...)
	return a
}
