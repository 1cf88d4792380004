package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rpgo/lifesim/internal/calculation"
	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const defaultLives = 100

var one = decimal.NewFromInt(1)

// InputParser handles parsing of input configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML file. A relative
// growth_history_file is resolved against the file's directory.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	config, err := ip.Parse(data)
	if err != nil {
		return nil, err
	}
	if f := config.Simulation.GrowthHistoryFile; f != "" && !filepath.IsAbs(f) {
		config.Simulation.GrowthHistoryFile = filepath.Join(filepath.Dir(filename), f)
	}
	return config, nil
}

// Parse decodes, defaults and validates a YAML document. Unknown keys are rejected.
func (ip *InputParser) Parse(data []byte) (*domain.Configuration, error) {
	var config domain.Configuration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to parse YAML: %w", domain.ErrConfiguration, err)
	}

	if err := defaultOmittedAusterity(data, &config); err != nil {
		return nil, err
	}
	ip.ApplyDefaults(&config)
	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// defaultOmittedAusterity sets the austerity ratios a model leaves out of the
// document to 1, so recessions cut no discretionary spend. An explicit 0 is
// kept and cuts all of it.
func defaultOmittedAusterity(data []byte, config *domain.Configuration) error {
	var doc struct {
		Models []map[string]yaml.Node `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: failed to parse YAML: %w", domain.ErrConfiguration, err)
	}
	for i, keys := range doc.Models {
		if i >= len(config.Models) {
			break
		}
		if _, ok := keys["austerity_ratio"]; !ok {
			config.Models[i].AusterityRatio = one
		}
		if _, ok := keys["extreme_austerity_ratio"]; !ok {
			config.Models[i].ExtremeAusterityRatio = one
		}
	}
	return nil
}

// ApplyDefaults fills in optional settings
func (ip *InputParser) ApplyDefaults(config *domain.Configuration) {
	sim := &config.Simulation
	if sim.Lives == 0 {
		sim.Lives = defaultLives
	}
	sim.PriceTrack = calculation.DefaultPriceTrackConfig(sim.PriceTrack)

	if config.Person.ID == "" {
		config.Person.ID = "household"
	}
	for i := range config.InvestmentAccounts {
		acct := &config.InvestmentAccounts[i]
		if acct.ID == "" {
			acct.ID = uuid.NewString()
		}
		if acct.Name == "" {
			acct.Name = acct.Type.String()
		}
		for j := range acct.Positions {
			defaultPosition(&acct.Positions[j], sim.StartMonth)
		}
	}
	for i := range config.DebtAccounts {
		acct := &config.DebtAccounts[i]
		if acct.ID == "" {
			acct.ID = uuid.NewString()
		}
		for j := range acct.Positions {
			p := &acct.Positions[j]
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if p.EntryDate.IsZero() {
				p.EntryDate = sim.StartMonth
			}
			if p.Balance.IsPositive() {
				p.Open = true
			}
		}
	}
	for i := range config.Models {
		m := &config.Models[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		if m.Version == 0 {
			m.Version = 1
		}
		if m.RebalanceFrequency == "" {
			m.RebalanceFrequency = "monthly"
		}
		if m.RecessionRecoveryModifier.IsZero() {
			m.RecessionRecoveryModifier = one
		}
	}
}

// defaultPosition opens a position with a quantity, prices it at 1 when no
// price is given and uses the current value as cost basis when none is given
func defaultPosition(p *domain.InvestmentPosition, start time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Price.IsZero() {
		p.Price = one
	}
	if p.Quantity.IsPositive() {
		p.Open = true
	}
	if p.InitialCost.IsZero() {
		p.InitialCost = p.Value()
	}
	if p.EntryDate.IsZero() {
		p.EntryDate = start
	}
}

// ValidateConfiguration validates the loaded configuration. Every failure
// wraps domain.ErrConfiguration.
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validate(config); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

func (ip *InputParser) validate(config *domain.Configuration) error {
	if err := ip.validateSimulation(config); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if _, err := calculation.NewTaxEngine(config.Tax); err != nil {
		return fmt.Errorf("tax: %w", err)
	}
	if err := ip.validateTax(&config.Tax); err != nil {
		return fmt.Errorf("tax: %w", err)
	}
	if err := ip.validatePerson(&config.Person); err != nil {
		return fmt.Errorf("person: %w", err)
	}
	if config.CashBalance.IsNegative() {
		return fmt.Errorf("cash balance cannot be negative")
	}
	for i, acct := range config.InvestmentAccounts {
		if err := ip.validateInvestmentAccount(&acct); err != nil {
			return fmt.Errorf("investment account %d (%s): %w", i, acct.Name, err)
		}
	}
	for i, acct := range config.DebtAccounts {
		if err := ip.validateDebtAccount(&acct); err != nil {
			return fmt.Errorf("debt account %d (%s): %w", i, acct.Name, err)
		}
	}
	rate := config.Breeding.MutationRate
	if rate.IsNegative() || rate.GreaterThan(one) {
		return fmt.Errorf("breeding mutation rate must be between 0 and 1")
	}

	if len(config.Models) == 0 {
		return fmt.Errorf("no models provided")
	}
	seen := make(map[string]bool, len(config.Models))
	for i, m := range config.Models {
		if seen[m.ID] {
			return fmt.Errorf("model %d: duplicate id %s", i, m.ID)
		}
		seen[m.ID] = true
		if err := ValidateModel(m, config.Person.BirthDate); err != nil {
			return fmt.Errorf("model %s: %w", m.ID, err)
		}
	}
	return nil
}

func (ip *InputParser) validateSimulation(config *domain.Configuration) error {
	sim := config.Simulation
	if sim.Lives <= 0 {
		return fmt.Errorf("lives must be positive")
	}
	if sim.MaxWorkers < 0 {
		return fmt.Errorf("max workers cannot be negative")
	}
	if sim.StartMonth.IsZero() {
		return fmt.Errorf("start month is required")
	}
	if sim.EndMonth.IsZero() {
		return fmt.Errorf("end month is required")
	}
	if sim.EndMonth.Before(sim.StartMonth) {
		return fmt.Errorf("end month cannot be before start month")
	}
	if sim.PriceTrack.BlockMonths <= 0 {
		return fmt.Errorf("price track block months must be positive")
	}
	if sim.GrowthHistoryFile == "" && len(config.GrowthHistory) == 0 {
		return fmt.Errorf("either growth_history_file or growth_history is required")
	}
	for i, rate := range config.GrowthHistory {
		if rate.LessThanOrEqual(one.Neg()) {
			return fmt.Errorf("growth history month %d cannot lose 100%% or more", i)
		}
	}
	return nil
}

func (ip *InputParser) validateTax(tax *domain.TaxConfig) error {
	switch tax.FilingStatus {
	case "", "mfj", "single":
	default:
		return fmt.Errorf("filing status must be 'mfj' or 'single'")
	}
	if tax.StateRate.IsNegative() || tax.StateRate.GreaterThan(one) {
		return fmt.Errorf("state rate must be between 0 and 1")
	}
	if tax.StandardDeduction.IsNegative() {
		return fmt.Errorf("standard deduction cannot be negative")
	}
	for year, divisor := range tax.RMDTable {
		if !divisor.IsPositive() {
			return fmt.Errorf("RMD divisor for %d must be positive", year)
		}
	}
	return nil
}

func (ip *InputParser) validatePerson(p *domain.Person) error {
	if p.BirthDate.IsZero() {
		return fmt.Errorf("birth date is required")
	}
	if p.AnnualSalary.IsNegative() {
		return fmt.Errorf("annual salary cannot be negative")
	}
	if p.AnnualBonus.IsNegative() {
		return fmt.Errorf("annual bonus cannot be negative")
	}
	if p.BonusMonth < 0 || p.BonusMonth > time.December {
		return fmt.Errorf("bonus month must be between 1 and 12, or 0 for no bonus")
	}
	if p.AnnualBonus.IsPositive() && p.BonusMonth == 0 {
		return fmt.Errorf("bonus month is required when an annual bonus is set")
	}
	if p.Match401kPercent.IsNegative() || p.Match401kPercent.GreaterThan(one) {
		return fmt.Errorf("401k match percent must be between 0 and 1")
	}
	if p.FullSocialSecurityBenefit.IsNegative() {
		return fmt.Errorf("social security benefit cannot be negative")
	}
	return nil
}

func (ip *InputParser) validateInvestmentAccount(acct *domain.InvestmentAccount) error {
	if !acct.Type.Valid() {
		return fmt.Errorf("unknown account type %d", int(acct.Type))
	}
	for i, p := range acct.Positions {
		if p.Quantity.IsNegative() {
			return fmt.Errorf("position %d quantity cannot be negative", i)
		}
		if !p.Price.IsPositive() {
			return fmt.Errorf("position %d price must be positive", i)
		}
		if p.InitialCost.IsNegative() {
			return fmt.Errorf("position %d initial cost cannot be negative", i)
		}
	}
	return nil
}

func (ip *InputParser) validateDebtAccount(acct *domain.DebtAccount) error {
	for i, p := range acct.Positions {
		if p.Balance.IsNegative() {
			return fmt.Errorf("position %d balance cannot be negative", i)
		}
		if p.APR.IsNegative() {
			return fmt.Errorf("position %d APR cannot be negative", i)
		}
		if p.Open && !p.MonthlyPayment.IsPositive() {
			return fmt.Errorf("position %d monthly payment must be positive", i)
		}
	}
	return nil
}

// ValidateModel checks one model's policy parameters. The Social Security
// election must fall between ages 62 and 70 of a person born on birthDate.
func ValidateModel(m domain.Model, birthDate time.Time) error {
	if m.RetirementDate.IsZero() {
		return fmt.Errorf("retirement date is required")
	}
	if m.SocialSecurityElectionDate.IsZero() {
		return fmt.Errorf("social security election date is required")
	}
	if !birthDate.IsZero() {
		age := m.SocialSecurityElectionDate.Year() - birthDate.Year()
		if age < 62 || age > 70 {
			return fmt.Errorf("social security election age must be between 62 and 70")
		}
	}
	amounts := map[string]decimal.Decimal{
		"monthly required spend pre-retirement":       m.MonthlyRequiredSpendPreRetirement,
		"monthly required spend post-retirement":      m.MonthlyRequiredSpendPostRetirement,
		"monthly discretionary spend pre-retirement":  m.MonthlyDiscretionarySpendPreRetirement,
		"monthly discretionary spend post-retirement": m.MonthlyDiscretionarySpendPostRetirement,
		"monthly healthcare pre-Medicare":             m.MonthlyHealthcarePreMedicare,
		"monthly healthcare Medicare":                 m.MonthlyHealthcareMedicare,
		"extreme austerity net worth trigger":         m.ExtremeAusterityNetWorthTrigger,
		"monthly 401k contribution":                   m.Monthly401kContribution,
		"monthly HSA contribution":                    m.MonthlyHSAContribution,
		"monthly brokerage contribution":              m.MonthlyBrokerageContribution,
	}
	for name, v := range amounts {
		if v.IsNegative() {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if m.AusterityRatio.IsNegative() || m.AusterityRatio.GreaterThan(one) {
		return fmt.Errorf("austerity ratio must be between 0 and 1")
	}
	if m.ExtremeAusterityRatio.IsNegative() || m.ExtremeAusterityRatio.GreaterThan(one) {
		return fmt.Errorf("extreme austerity ratio must be between 0 and 1")
	}
	if !m.RecessionRecoveryModifier.IsPositive() {
		return fmt.Errorf("recession recovery modifier must be positive")
	}
	if m.RecessionLookbackMonths < 0 || m.RebalanceMonthsBeforeRetirement < 0 || m.MonthsOfCash < 0 || m.MonthsOfMid < 0 {
		return fmt.Errorf("month counts cannot be negative")
	}
	if _, err := calculation.ParseRebalanceSchedule(m.RebalanceFrequency); err != nil {
		return err
	}
	return nil
}

// CreateExampleConfiguration creates an example configuration with two
// competing models
func (ip *InputParser) CreateExampleConfiguration() *domain.Configuration {
	month := func(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }
	birth := time.Date(1975, 6, 15, 0, 0, 0, 0, time.UTC)

	base := domain.Model{
		RetirementDate:                          month(2035, 1),
		SocialSecurityElectionDate:              month(2042, 6),
		MonthlyRequiredSpendPreRetirement:       decimal.NewFromInt(4500),
		MonthlyRequiredSpendPostRetirement:      decimal.NewFromInt(4000),
		MonthlyDiscretionarySpendPreRetirement:  decimal.NewFromInt(1500),
		MonthlyDiscretionarySpendPostRetirement: decimal.NewFromInt(2000),
		MonthlyHealthcarePreMedicare:            decimal.NewFromInt(1200),
		MonthlyHealthcareMedicare:               decimal.NewFromInt(400),
		AusterityRatio:                          decimal.NewFromFloat(0.6),
		ExtremeAusterityRatio:                   decimal.NewFromFloat(0.2),
		ExtremeAusterityNetWorthTrigger:         decimal.NewFromInt(100000),
		RecessionLookbackMonths:                 12,
		RecessionRecoveryModifier:               one,
		RebalanceFrequency:                      "quarterly",
		RebalanceMonthsBeforeRetirement:         60,
		MonthsOfCash:                            6,
		MonthsOfMid:                             24,
		Monthly401kContribution:                 decimal.NewFromInt(1500),
		MonthlyHSAContribution:                  decimal.NewFromInt(350),
		MonthlyBrokerageContribution:            decimal.NewFromInt(1000),
	}
	early, late := base, base
	early.ID, early.Name, early.Version = "retire-2035", "Retire 2035", 1
	late.ID, late.Name, late.Version = "retire-2038", "Retire 2038", 1
	late.RetirementDate = month(2038, 1)
	late.SocialSecurityElectionDate = month(2045, 6)

	return &domain.Configuration{
		Simulation: domain.SimulationConfig{
			Lives:      500,
			Parallel:   true,
			StartMonth: month(2026, 1),
			EndMonth:   month(2070, 12),
			Seed:       1,
			PriceTrack: calculation.DefaultPriceTrackConfig(domain.PriceTrackConfig{}),
		},
		Breeding: domain.BreedingConfig{MutationRate: decimal.NewFromFloat(0.1)},
		Person: domain.Person{
			ID:                        "household",
			Name:                      "Household",
			BirthDate:                 birth,
			AnnualSalary:              decimal.NewFromInt(140000),
			AnnualBonus:               decimal.NewFromInt(10000),
			BonusMonth:                time.March,
			Match401kPercent:          decimal.NewFromFloat(0.04),
			FullSocialSecurityBenefit: decimal.NewFromInt(3100),
		},
		CashBalance: decimal.NewFromInt(25000),
		InvestmentAccounts: []domain.InvestmentAccount{
			{ID: "401k", Name: "Employer 401k", Type: domain.Traditional401k, Positions: []domain.InvestmentPosition{
				{ID: "401k-long", Open: true, EntryDate: month(2015, 1), Quantity: decimal.NewFromInt(420000), Price: one, InitialCost: decimal.NewFromInt(300000), Bucket: domain.Long},
			}},
			{ID: "roth", Name: "Roth IRA", Type: domain.RothIRA, Positions: []domain.InvestmentPosition{
				{ID: "roth-long", Open: true, EntryDate: month(2018, 1), Quantity: decimal.NewFromInt(90000), Price: one, InitialCost: decimal.NewFromInt(60000), Bucket: domain.Long},
			}},
			{ID: "brokerage", Name: "Brokerage", Type: domain.TaxableBrokerage, Positions: []domain.InvestmentPosition{
				{ID: "brk-long", Open: true, EntryDate: month(2019, 1), Quantity: decimal.NewFromInt(150000), Price: one, InitialCost: decimal.NewFromInt(110000), Bucket: domain.Long},
				{ID: "brk-mid", Open: true, EntryDate: month(2023, 1), Quantity: decimal.NewFromInt(40000), Price: one, InitialCost: decimal.NewFromInt(38000), Bucket: domain.Mid},
			}},
		},
		DebtAccounts: []domain.DebtAccount{
			{ID: "mortgage", Name: "Mortgage", Positions: []domain.DebtPosition{
				{ID: "mortgage-1", Open: true, EntryDate: month(2020, 1), Balance: decimal.NewFromInt(240000), APR: decimal.NewFromFloat(0.035), MonthlyPayment: decimal.NewFromInt(1900)},
			}},
		},
		GrowthHistory: []decimal.Decimal{
			decimal.NewFromFloat(0.012), decimal.NewFromFloat(-0.021), decimal.NewFromFloat(0.034),
			decimal.NewFromFloat(0.008), decimal.NewFromFloat(-0.045), decimal.NewFromFloat(0.027),
			decimal.NewFromFloat(0.015), decimal.NewFromFloat(0.004), decimal.NewFromFloat(-0.012),
			decimal.NewFromFloat(0.031), decimal.NewFromFloat(0.019), decimal.NewFromFloat(-0.006),
		},
		Models: []domain.Model{early, late},
	}
}
