/*
Package balance owns the per-employee-year leave balance ledger.

PURPOSE:
  One Record exists per (employee, year). It holds four stored quantities:

    StartBalance   carryover from the previous year
    YearlyBalance  annual grant
    UsedDays       consumed (approved requests, registered schedules)
    ScheduledDays  reserved by active schedules, not yet consumed

  Everything else is derived:

    Total                = StartBalance + YearlyBalance
    Remaining            = Total - UsedDays
    AvailableForPlanning = Remaining - ScheduledDays
    ToPlan               = max(0, YearlyBalance - (ScheduledDays + UsedDays))

INVARIANTS:
  - UsedDays >= 0 and ScheduledDays >= 0 after every mutation.
  - When negative balances are disallowed, AvailableForPlanning >= 0 after
    every Reserve/Rebook.
  - Records are created lazily on first use and never deleted; Reset zeroes
    used/scheduled by administrative action.

IDEMPOTENCY:
  The ledger applies every mutation it is asked to apply. Not applying the
  same event twice is the caller's job, enforced through workflow status
  checks (a request can only be approved once, etc).

SEE ALSO:
  - ledger.go: Mutation operations over a Store
  - leave package: The workflows driving these mutations
*/
package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD - Stored balance for one (employee, year)
// =============================================================================

type Record struct {
	EmployeeID string
	Year       int

	StartBalance  decimal.Decimal
	YearlyBalance decimal.Decimal
	UsedDays      decimal.Decimal
	ScheduledDays decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total is the full entitlement for the year: carryover plus annual grant.
func (r *Record) Total() decimal.Decimal {
	return r.StartBalance.Add(r.YearlyBalance)
}

// Remaining is what has not been consumed yet. Reserved days still count as
// remaining; immediate requests check against this value.
func (r *Record) Remaining() decimal.Decimal {
	return r.Total().Sub(r.UsedDays)
}

// AvailableForPlanning is what can still be reserved by schedules.
func (r *Record) AvailableForPlanning() decimal.Decimal {
	return r.Remaining().Sub(r.ScheduledDays)
}

// ToPlan is how much of the annual grant is not yet committed either way.
// Clamped at zero: carryover consumption can push the committed total past
// the yearly grant without going negative here.
func (r *Record) ToPlan() decimal.Decimal {
	committed := r.ScheduledDays.Add(r.UsedDays)
	tp := r.YearlyBalance.Sub(committed)
	if tp.IsNegative() {
		return decimal.Zero
	}
	return tp
}
