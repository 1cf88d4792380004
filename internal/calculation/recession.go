package calculation

import (
	"time"

	"github.com/rpgo/lifesim/internal/domain"
	"github.com/shopspring/decimal"
)

// extremeAusterityExitMonths is how long net worth must stay above the
// trigger before extreme austerity ends
const extremeAusterityExitMonths = 12

// RecessionTracker is the hysteresis state machine over the long price history
type RecessionTracker struct {
	LookbackMonths   int
	RecoveryModifier decimal.Decimal
	NetWorthTrigger  decimal.Decimal
}

// NewRecessionTracker reads the tracker parameters from a model
func NewRecessionTracker(model domain.Model) RecessionTracker {
	modifier := model.RecessionRecoveryModifier
	if modifier.IsZero() {
		modifier = decimal.NewFromInt(1)
	}
	return RecessionTracker{
		LookbackMonths:   model.RecessionLookbackMonths,
		RecoveryModifier: modifier,
		NetWorthTrigger:  model.ExtremeAusterityNetWorthTrigger,
	}
}

// Update returns the state for this month. history is the long price history
// including the current month.
func (rt RecessionTracker) Update(state domain.RecessionState, history []decimal.Decimal, netWorth decimal.Decimal, month time.Time) domain.RecessionState {
	if n := len(history); n > 0 {
		today := history[n-1]
		switch {
		case !state.InRecession && rt.LookbackMonths > 0 && n > rt.LookbackMonths:
			back := history[n-1-rt.LookbackMonths]
			if today.LessThan(back) {
				state.InRecession = true
				state.RecoveryPoint = decimal.Max(back, state.RecoveryPoint)
				state.Duration = 0
			}
		case state.InRecession:
			if today.GreaterThan(state.RecoveryPoint.Mul(rt.RecoveryModifier)) {
				state.InRecession = false
			} else {
				state.Duration++
			}
		}
	}

	switch {
	case !state.InExtremeAusterity:
		if netWorth.LessThanOrEqual(rt.NetWorthTrigger) {
			state.InExtremeAusterity = true
			state.MonthsAboveTrigger = 0
		}
	case netWorth.GreaterThan(rt.NetWorthTrigger):
		state.MonthsAboveTrigger++
		if state.MonthsAboveTrigger >= extremeAusterityExitMonths {
			state.InExtremeAusterity = false
			state.MonthsAboveTrigger = 0
			state.ExtremeAusterityEnded = month
		}
	default:
		state.MonthsAboveTrigger = 0
	}
	return state
}
