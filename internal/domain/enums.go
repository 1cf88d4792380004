package domain

import (
	"fmt"
	"strings"
)

// AccountType identifies the tax wrapper of an investment account
type AccountType int

const (
	Roth401k AccountType = iota
	RothIRA
	Traditional401k
	TraditionalIRA
	TaxableBrokerage
	HSA
	PrimaryResidence
	Cash
)

// AccountTypes lists every account type in declaration order
var AccountTypes = []AccountType{Roth401k, RothIRA, Traditional401k, TraditionalIRA, TaxableBrokerage, HSA, PrimaryResidence, Cash}

var accountTypeNames = map[AccountType]string{
	Roth401k:         "roth_401k",
	RothIRA:          "roth_ira",
	Traditional401k:  "traditional_401k",
	TraditionalIRA:   "traditional_ira",
	TaxableBrokerage: "brokerage",
	HSA:              "hsa",
	PrimaryResidence: "primary_residence",
	Cash:             "cash",
}

func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AccountType(%d)", int(t))
}

// Valid reports whether t is a declared account type
func (t AccountType) Valid() bool {
	_, ok := accountTypeNames[t]
	return ok
}

// ParseAccountType converts a configuration name into an AccountType
func ParseAccountType(s string) (AccountType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for t, name := range accountTypeNames {
		if name == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown account type %q", ErrConfiguration, s)
}

func (t AccountType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %d", ErrConfiguration, int(t))
	}
	return []byte(t.String()), nil
}

func (t *AccountType) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TaxTreatment groups account types by how withdrawals are taxed
type TaxTreatment int

const (
	TaxFree TaxTreatment = iota
	TaxDeferred
	Taxable
	NotInvested
)

func (t TaxTreatment) String() string {
	switch t {
	case TaxFree:
		return "tax_free"
	case TaxDeferred:
		return "tax_deferred"
	case Taxable:
		return "taxable"
	case NotInvested:
		return "not_invested"
	default:
		return fmt.Sprintf("TaxTreatment(%d)", int(t))
	}
}

// TaxTreatment returns the tax group of the account type
func (t AccountType) TaxTreatment() (TaxTreatment, error) {
	switch t {
	case Roth401k, RothIRA, HSA:
		return TaxFree, nil
	case Traditional401k, TraditionalIRA:
		return TaxDeferred, nil
	case TaxableBrokerage:
		return Taxable, nil
	case Cash, PrimaryResidence:
		return NotInvested, nil
	default:
		return 0, fmt.Errorf("%w: no tax treatment for %s", ErrConfiguration, t)
	}
}

// BucketType is the investment horizon a position is priced against
type BucketType int

const (
	Long BucketType = iota
	Mid
	Short
)

// BucketTypes lists every bucket in declaration order
var BucketTypes = []BucketType{Long, Mid, Short}

func (b BucketType) String() string {
	switch b {
	case Long:
		return "long"
	case Mid:
		return "mid"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("BucketType(%d)", int(b))
	}
}

// ParseBucketType converts a configuration name into a BucketType
func ParseBucketType(s string) (BucketType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long":
		return Long, nil
	case "mid":
		return Mid, nil
	case "short":
		return Short, nil
	default:
		return 0, fmt.Errorf("%w: unknown bucket type %q", ErrConfiguration, s)
	}
}

func (b BucketType) MarshalText() ([]byte, error) {
	switch b {
	case Long, Mid, Short:
		return []byte(b.String()), nil
	default:
		return nil, fmt.Errorf("%w: unknown bucket type %d", ErrConfiguration, int(b))
	}
}

func (b *BucketType) UnmarshalText(text []byte) error {
	parsed, err := ParseBucketType(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
