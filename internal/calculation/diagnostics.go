package calculation

import (
	"time"

	"github.com/rpgo/lifesim/internal/ledger"
	money "github.com/rpgo/lifesim/pkg/decimal"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Diagnostics receives reconciliation messages and ledger snapshots for
// manual audit. It must not influence simulation outcomes.
type Diagnostics interface {
	Reconcile(month time.Time, amount decimal.Decimal, description string)
	LedgerSnapshot(month time.Time, accounts ledger.AccountLedger)
}

// lifeScoped is implemented by sinks that can tag messages with a life index
type lifeScoped interface {
	ForLife(index int) Diagnostics
}

// NopDiagnostics discards everything
type NopDiagnostics struct{}

func (NopDiagnostics) Reconcile(time.Time, decimal.Decimal, string)   {}
func (NopDiagnostics) LedgerSnapshot(time.Time, ledger.AccountLedger) {}

// ZapDiagnostics writes diagnostics as debug-level structured logs
type ZapDiagnostics struct {
	logger *zap.Logger
}

// NewZapDiagnostics creates a diagnostics sink on top of a zap logger
func NewZapDiagnostics(logger *zap.Logger) *ZapDiagnostics {
	return &ZapDiagnostics{logger: logger.Named("diagnostics")}
}

func (z *ZapDiagnostics) ForLife(index int) Diagnostics {
	return &ZapDiagnostics{logger: z.logger.With(zap.Int("life", index))}
}

func (z *ZapDiagnostics) Reconcile(month time.Time, amount decimal.Decimal, description string) {
	z.logger.Debug("reconcile",
		zap.String("month", month.Format("2006-01")),
		zap.String("amount", money.FormatDecimal(amount)),
		zap.String("description", description))
}

func (z *ZapDiagnostics) LedgerSnapshot(month time.Time, accounts ledger.AccountLedger) {
	fields := []zap.Field{
		zap.String("month", month.Format("2006-01")),
		zap.String("net_worth", money.FormatDecimal(accounts.NetWorth())),
		zap.String("cash", money.FormatDecimal(accounts.Cash())),
		zap.String("debt", money.FormatDecimal(accounts.DebtBalance())),
		zap.Int("positions", accounts.PositionCount()),
	}
	for _, acct := range accounts.Investments() {
		fields = append(fields, zap.String(acct.Type.String()+":"+acct.Name, money.FormatDecimal(acct.Value())))
	}
	z.logger.Debug("ledger snapshot", fields...)
}

func diagnosticsForLife(d Diagnostics, index int) Diagnostics {
	if d == nil {
		return NopDiagnostics{}
	}
	if scoped, ok := d.(lifeScoped); ok {
		return scoped.ForLife(index)
	}
	return d
}
